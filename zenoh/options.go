package zenoh

import (
	"time"

	"github.com/daleydeng/zenoh-go/native"
)

// Options are always optional: a nil options pointer is forwarded to the
// engine as nil and means "engine default". A zero-valued options struct is
// not the same thing, since its zero fields are applied as given.

// CongestionControl selects what happens when a destination queue is full.
type CongestionControl = native.CongestionControl

const (
	// CongestionControlDrop discards the message (default for puts)
	CongestionControlDrop = native.CongestionControlDrop
	// CongestionControlBlock waits for room
	CongestionControlBlock = native.CongestionControlBlock
)

// Priority orders traffic classes; lower values are more urgent.
type Priority = native.Priority

const (
	PriorityRealTime        = native.PriorityRealTime
	PriorityInteractiveHigh = native.PriorityInteractiveHigh
	PriorityInteractiveLow  = native.PriorityInteractiveLow
	PriorityDataHigh        = native.PriorityDataHigh
	PriorityData            = native.PriorityData
	PriorityDataLow         = native.PriorityDataLow
	PriorityBackground      = native.PriorityBackground
)

// Reliability requested by a subscriber.
type Reliability = native.Reliability

const (
	// ReliabilityBestEffort may drop samples under load
	ReliabilityBestEffort = native.ReliabilityBestEffort
	// ReliabilityReliable delivers every sample
	ReliabilityReliable = native.ReliabilityReliable
)

// QueryTarget selects which queryables a get reaches.
type QueryTarget = native.QueryTarget

const (
	QueryTargetBestMatching = native.QueryTargetBestMatching
	QueryTargetAll          = native.QueryTargetAll
	QueryTargetAllComplete  = native.QueryTargetAllComplete
)

// ConsolidationMode selects how replies for the same key are merged.
type ConsolidationMode = native.ConsolidationMode

const (
	// ConsolidationAuto lets the engine pick; it behaves like Latest
	ConsolidationAuto = native.ConsolidationAuto
	// ConsolidationNone forwards every reply as it arrives
	ConsolidationNone = native.ConsolidationNone
	// ConsolidationMonotonic forwards a reply only if it is newer than the last one for its key
	ConsolidationMonotonic = native.ConsolidationMonotonic
	// ConsolidationLatest keeps the newest reply per key and forwards them when the query ends
	ConsolidationLatest = native.ConsolidationLatest
)

// PutOptions tunes Session.Put
type PutOptions struct {
	Encoding          Encoding
	CongestionControl CongestionControl
	Priority          Priority
}

// PutOptionsDefault returns the values the engine applies when no options are given
func PutOptionsDefault() PutOptions {
	return PutOptions{
		Encoding:          NewEncoding(EncodingEmpty, ""),
		CongestionControl: CongestionControlDrop,
		Priority:          PriorityData,
	}
}

func (o *PutOptions) toNative() *native.PutOptions {
	if o == nil {
		return nil
	}
	return &native.PutOptions{
		Encoding:          o.Encoding,
		CongestionControl: o.CongestionControl,
		Priority:          o.Priority,
	}
}

// DeleteOptions tunes Session.Delete
type DeleteOptions struct {
	CongestionControl CongestionControl
	Priority          Priority
}

func (o *DeleteOptions) toNative() *native.DeleteOptions {
	if o == nil {
		return nil
	}
	return &native.DeleteOptions{
		CongestionControl: o.CongestionControl,
		Priority:          o.Priority,
	}
}

// PublisherOptions tunes Session.DeclarePublisher
type PublisherOptions struct {
	CongestionControl CongestionControl
	Priority          Priority
}

// PublisherOptionsDefault returns the values the engine applies when no options are given
func PublisherOptionsDefault() PublisherOptions {
	return PublisherOptions{
		CongestionControl: CongestionControlDrop,
		Priority:          PriorityData,
	}
}

func (o *PublisherOptions) toNative() *native.PublisherOptions {
	if o == nil {
		return nil
	}
	return &native.PublisherOptions{
		CongestionControl: o.CongestionControl,
		Priority:          o.Priority,
	}
}

// PublisherPutOptions tunes Publisher.Put
type PublisherPutOptions struct {
	Encoding Encoding
}

func (o *PublisherPutOptions) toNative() *native.PublisherPutOptions {
	if o == nil {
		return nil
	}
	return &native.PublisherPutOptions{Encoding: o.Encoding}
}

// PublisherDeleteOptions tunes Publisher.Delete
type PublisherDeleteOptions struct{}

func (o *PublisherDeleteOptions) toNative() *native.PublisherDeleteOptions {
	if o == nil {
		return nil
	}
	return &native.PublisherDeleteOptions{}
}

// SubscriberOptions tunes Session.DeclareSubscriber
type SubscriberOptions struct {
	Reliability Reliability
}

func (o *SubscriberOptions) toNative() *native.SubscriberOptions {
	if o == nil {
		return nil
	}
	return &native.SubscriberOptions{Reliability: o.Reliability}
}

// PullSubscriberOptions tunes Session.DeclarePullSubscriber
type PullSubscriberOptions struct {
	Reliability Reliability
}

func (o *PullSubscriberOptions) toNative() *native.PullSubscriberOptions {
	if o == nil {
		return nil
	}
	return &native.PullSubscriberOptions{Reliability: o.Reliability}
}

// QueryableOptions tunes Session.DeclareQueryable
type QueryableOptions struct {
	// Complete declares that the queryable answers for every key it matches
	Complete bool
}

func (o *QueryableOptions) toNative() *native.QueryableOptions {
	if o == nil {
		return nil
	}
	return &native.QueryableOptions{Complete: o.Complete}
}

// GetOptions tunes Session.Get
type GetOptions struct {
	Target        QueryTarget
	Consolidation ConsolidationMode
	// Value is an optional payload attached to the query
	Value *Value
	// Timeout bounds the query; zero uses the session's configured default
	Timeout time.Duration
}

// GetOptionsDefault returns the values the engine applies when no options are given
func GetOptionsDefault() GetOptions {
	return GetOptions{
		Target:        QueryTargetBestMatching,
		Consolidation: ConsolidationAuto,
	}
}

func (o *GetOptions) toNative() *native.GetOptions {
	if o == nil {
		return nil
	}
	out := &native.GetOptions{
		Target:        o.Target,
		Consolidation: o.Consolidation,
		Timeout:       o.Timeout,
	}
	if o.Value != nil {
		v := *o.Value
		out.Value = &v
	}
	return out
}

// QueryReplyOptions tunes Query.Reply
type QueryReplyOptions struct {
	Encoding Encoding
}

func (o *QueryReplyOptions) toNative() *native.QueryReplyOptions {
	if o == nil {
		return nil
	}
	return &native.QueryReplyOptions{Encoding: o.Encoding}
}

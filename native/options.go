package native

import "time"

// Option structs are always passed by pointer. A nil pointer means "use the
// engine default" and must never be replaced by a zero-valued struct.

// PutOptions tunes Engine.Put.
type PutOptions struct {
	Encoding          Encoding
	CongestionControl CongestionControl
	Priority          Priority
}

// DeleteOptions tunes Engine.Delete.
type DeleteOptions struct {
	CongestionControl CongestionControl
	Priority          Priority
}

// PublisherOptions tunes Engine.DeclarePublisher.
type PublisherOptions struct {
	CongestionControl CongestionControl
	Priority          Priority
}

// PublisherPutOptions tunes Engine.PublisherPut.
type PublisherPutOptions struct {
	Encoding Encoding
}

// PublisherDeleteOptions tunes Engine.PublisherDelete. It has no fields yet;
// a non-nil value is still forwarded as-is.
type PublisherDeleteOptions struct{}

// SubscriberOptions tunes Engine.DeclareSubscriber.
type SubscriberOptions struct {
	Reliability Reliability
}

// PullSubscriberOptions tunes Engine.DeclarePullSubscriber.
type PullSubscriberOptions struct {
	Reliability Reliability
}

// QueryableOptions tunes Engine.DeclareQueryable.
type QueryableOptions struct {
	// Complete declares that the queryable answers for every key it matches.
	Complete bool
}

// GetOptions tunes Engine.Get.
type GetOptions struct {
	Target        QueryTarget
	Consolidation ConsolidationMode
	Value         *Value
	// Timeout bounds the query; zero uses the session's configured default.
	Timeout time.Duration
}

// QueryReplyOptions tunes Engine.QueryReply.
type QueryReplyOptions struct {
	Encoding Encoding
}

package native

import (
	"encoding/hex"
	"strings"
	"time"
)

// ID is a 128-bit zenoh identifier (ZID) of a session, router or peer.
type ID [16]byte

// String returns the lowercase hex form with leading zero bytes trimmed,
// matching how zids are printed by routers.
func (id ID) String() string {
	s := hex.EncodeToString(id[:])
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// IsZero reports whether every byte of the id is zero.
func (id ID) IsZero() bool {
	return id == ID{}
}

// WhatAmI is a bitmask of node roles.
type WhatAmI uint8

const (
	// Router nodes route traffic between sessions
	Router WhatAmI = 1
	// Peer nodes talk to each other directly
	Peer WhatAmI = 2
	// Client nodes reach the system through a single router or peer
	Client WhatAmI = 4
)

// String returns the lowercase role name, joined by '|' for masks.
func (w WhatAmI) String() string {
	var parts []string
	if w&Router != 0 {
		parts = append(parts, "router")
	}
	if w&Peer != 0 {
		parts = append(parts, "peer")
	}
	if w&Client != 0 {
		parts = append(parts, "client")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseWhatAmI converts a mode name to its role bit.
func ParseWhatAmI(mode string) (WhatAmI, bool) {
	switch mode {
	case "router":
		return Router, true
	case "peer":
		return Peer, true
	case "client":
		return Client, true
	}
	return 0, false
}

// SampleKind tells whether a sample carries a value or a deletion.
type SampleKind uint8

const (
	// SampleKindPut carries a value
	SampleKindPut SampleKind = 0
	// SampleKindDelete marks the key as deleted
	SampleKindDelete SampleKind = 1
)

// String returns "PUT" or "DELETE".
func (k SampleKind) String() string {
	if k == SampleKindDelete {
		return "DELETE"
	}
	return "PUT"
}

// EncodingPrefix is the known part of a payload encoding.
type EncodingPrefix uint8

const (
	EncodingEmpty EncodingPrefix = iota
	EncodingAppOctetStream
	EncodingAppCustom
	EncodingTextPlain
	EncodingAppProperties
	EncodingAppJSON
	EncodingAppSQL
	EncodingAppInteger
	EncodingAppFloat
	EncodingAppXML
	EncodingAppXHTMLXML
	EncodingAppXWWWFormURLEncoded
	EncodingTextJSON
	EncodingTextHTML
	EncodingTextXML
	EncodingTextCSS
	EncodingTextCSV
	EncodingTextJavascript
	EncodingImageJPEG
	EncodingImagePNG
	EncodingImageGIF
)

var encodingNames = [...]string{
	"",
	"application/octet-stream",
	"application/custom",
	"text/plain",
	"application/properties",
	"application/json",
	"application/sql",
	"application/integer",
	"application/float",
	"application/xml",
	"application/xhtml+xml",
	"application/x-www-form-urlencoded",
	"text/json",
	"text/html",
	"text/xml",
	"text/css",
	"text/csv",
	"text/javascript",
	"image/jpeg",
	"image/png",
	"image/gif",
}

// Encoding describes a payload: a known prefix plus a free-form suffix.
type Encoding struct {
	Prefix EncodingPrefix
	Suffix string
}

// String returns the MIME-like form of the encoding.
func (e Encoding) String() string {
	if int(e.Prefix) < len(encodingNames) {
		return encodingNames[e.Prefix] + e.Suffix
	}
	return e.Suffix
}

// Timestamp is a hybrid logical clock value stamped by the originating session.
type Timestamp struct {
	Time time.Time
	ID   ID
}

// CongestionControl selects what happens when a destination queue is full.
type CongestionControl uint8

const (
	// CongestionControlDrop discards the message
	CongestionControlDrop CongestionControl = 0
	// CongestionControlBlock waits for room
	CongestionControlBlock CongestionControl = 1
)

// Priority orders traffic classes; lower values are more urgent.
type Priority uint8

const (
	PriorityRealTime        Priority = 1
	PriorityInteractiveHigh Priority = 2
	PriorityInteractiveLow  Priority = 3
	PriorityDataHigh        Priority = 4
	PriorityData            Priority = 5
	PriorityDataLow         Priority = 6
	PriorityBackground      Priority = 7
)

// Reliability requested by a subscriber.
type Reliability uint8

const (
	ReliabilityBestEffort Reliability = 0
	ReliabilityReliable   Reliability = 1
)

// QueryTarget selects which queryables a get reaches.
type QueryTarget uint8

const (
	// QueryTargetBestMatching prefers complete queryables when any match
	QueryTargetBestMatching QueryTarget = 0
	// QueryTargetAll reaches every matching queryable
	QueryTargetAll QueryTarget = 1
	// QueryTargetAllComplete reaches only complete queryables
	QueryTargetAllComplete QueryTarget = 2
)

// ConsolidationMode selects how replies for the same key are merged.
type ConsolidationMode int8

const (
	ConsolidationAuto      ConsolidationMode = -1
	ConsolidationNone      ConsolidationMode = 0
	ConsolidationMonotonic ConsolidationMode = 1
	ConsolidationLatest    ConsolidationMode = 2
)

// Value is a payload with its encoding.
type Value struct {
	Payload  []byte
	Encoding Encoding
}

// Sample is the raw form of a publication delivered to subscribers.
type Sample struct {
	KeyExpr           string
	Payload           []byte
	Kind              SampleKind
	Encoding          Encoding
	Timestamp         *Timestamp
	Priority          Priority
	CongestionControl CongestionControl
}

// Query is the raw form of a get request delivered to a queryable.
type Query struct {
	ID         QueryID
	KeyExpr    string
	Parameters string
	Value      *Value
}

// Reply is the raw form of a response delivered to a get callback. When Ok
// is false, Err carries the error value and Sample is unset.
type Reply struct {
	Ok      bool
	Sample  Sample
	Err     Value
	Replier ID
}

// Hello is the raw form of a scouting answer.
type Hello struct {
	WhatAmI  WhatAmI
	ZID      ID
	Locators []string
}

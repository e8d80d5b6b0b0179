package zenoh

import (
	"bytes"

	"github.com/daleydeng/zenoh-go/native"
)

// ID is the 128-bit identifier of a session, router or peer.
type ID = native.ID

// WhatAmI is a bitmask of node roles.
type WhatAmI = native.WhatAmI

// Node roles
const (
	Router = native.Router
	Peer   = native.Peer
	Client = native.Client
)

// SampleKind tells a put from a delete.
type SampleKind = native.SampleKind

// Sample kinds
const (
	SampleKindPut    = native.SampleKindPut
	SampleKindDelete = native.SampleKindDelete
)

// Encoding describes a payload.
type Encoding = native.Encoding

// Known encoding prefixes
const (
	EncodingEmpty          = native.EncodingEmpty
	EncodingAppOctetStream = native.EncodingAppOctetStream
	EncodingAppCustom      = native.EncodingAppCustom
	EncodingTextPlain      = native.EncodingTextPlain
	EncodingAppProperties  = native.EncodingAppProperties
	EncodingAppJSON        = native.EncodingAppJSON
	EncodingAppInteger     = native.EncodingAppInteger
	EncodingAppFloat       = native.EncodingAppFloat
	EncodingTextJSON       = native.EncodingTextJSON
	EncodingTextCSV        = native.EncodingTextCSV
)

// NewEncoding returns the encoding with the given prefix and suffix.
func NewEncoding(prefix native.EncodingPrefix, suffix string) Encoding {
	return Encoding{Prefix: prefix, Suffix: suffix}
}

// Timestamp is the time a sample was stamped by its source session.
type Timestamp = native.Timestamp

// Value is a payload with its encoding.
type Value = native.Value

// Sample is a publication received by a subscriber. It owns its payload.
type Sample struct {
	KeyExpr           string
	Payload           []byte
	Kind              SampleKind
	Encoding          Encoding
	Timestamp         *Timestamp
	Priority          Priority
	CongestionControl CongestionControl
}

func sampleFromNative(raw native.Sample) Sample {
	s := Sample{
		KeyExpr:           raw.KeyExpr,
		Payload:           bytes.Clone(raw.Payload),
		Kind:              raw.Kind,
		Encoding:          raw.Encoding,
		Priority:          raw.Priority,
		CongestionControl: raw.CongestionControl,
	}
	if raw.Timestamp != nil {
		ts := *raw.Timestamp
		s.Timestamp = &ts
	}
	return s
}

// KeyExprView returns the sample's key expression as a view.
func (s Sample) KeyExprView() KeyExprView {
	return KeyExprView{expr: s.KeyExpr}
}

// Hello is a scouting answer from a router or peer.
type Hello struct {
	WhatAmI  WhatAmI
	ZID      ID
	Locators []string
}

func helloFromNative(raw native.Hello) Hello {
	return Hello{
		WhatAmI:  raw.WhatAmI,
		ZID:      raw.ZID,
		Locators: append([]string(nil), raw.Locators...),
	}
}

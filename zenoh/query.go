package zenoh

import (
	"bytes"
	"fmt"

	"code.hybscloud.com/kont"

	"github.com/daleydeng/zenoh-go/native"
)

// Query is a get request delivered to a queryable. It can be answered with
// Reply only while the queryable callback that received it is running.
type Query struct {
	engine     native.Engine
	id         native.QueryID
	keyExpr    string
	parameters string
	value      *Value
}

func queryConverter(engine native.Engine) func(native.Query) Query {
	return func(raw native.Query) Query {
		q := Query{
			engine:     engine,
			id:         raw.ID,
			keyExpr:    raw.KeyExpr,
			parameters: raw.Parameters,
		}
		if raw.Value != nil {
			q.value = &Value{Payload: bytes.Clone(raw.Value.Payload), Encoding: raw.Value.Encoding}
		}
		return q
	}
}

// KeyExpr returns the key expression the query was issued on.
func (q Query) KeyExpr() KeyExprView {
	return KeyExprView{expr: q.keyExpr}
}

// Parameters returns the selector parameters, without the leading '?'.
func (q Query) Parameters() string {
	return q.parameters
}

// Value returns the payload attached to the query, if any.
func (q Query) Value() (Value, bool) {
	if q.value == nil {
		return Value{}, false
	}
	return *q.value, true
}

// Reply answers the query with a sample on keyexpr, which must intersect
// the query's key expression. It fails with ErrNoQueryClosed once the
// callback has returned.
func (q Query) Reply(keyexpr KeyExprView, payload []byte, opts *QueryReplyOptions) error {
	if q.engine == nil {
		return callResult(native.ErrNoNullHandle)
	}
	return callResult(q.engine.QueryReply(q.id, keyexpr.expr, payload, opts.toNative()))
}

// ReplyError is the error value a queryable answered with.
type ReplyError struct {
	Payload  []byte
	Encoding Encoding
}

// Error implements the error interface
func (e ReplyError) Error() string {
	return fmt.Sprintf("zenoh: reply error (%s): %s", e.Encoding, e.Payload)
}

// Reply is one answer to a get: a sample on success or a ReplyError.
type Reply struct {
	result  kont.Either[ReplyError, Sample]
	replier ID
}

func replyFromNative(raw native.Reply) Reply {
	r := Reply{replier: raw.Replier}
	if raw.Ok {
		r.result = kont.Right[ReplyError, Sample](sampleFromNative(raw.Sample))
	} else {
		r.result = kont.Left[ReplyError, Sample](ReplyError{
			Payload:  bytes.Clone(raw.Err.Payload),
			Encoding: raw.Err.Encoding,
		})
	}
	return r
}

// IsOk reports whether the reply carries a sample.
func (r Reply) IsOk() bool {
	return r.result.IsRight()
}

// Sample returns the reply's sample.
func (r Reply) Sample() (Sample, bool) {
	return r.result.GetRight()
}

// Err returns the reply's error value.
func (r Reply) Err() (ReplyError, bool) {
	return r.result.GetLeft()
}

// Result returns the reply as an Either: Left holds the error, Right the sample.
func (r Reply) Result() kont.Either[ReplyError, Sample] {
	return r.result
}

// ReplierID returns the id of the session that answered.
func (r Reply) ReplierID() ID {
	return r.replier
}

package zenoh

import (
	"runtime"

	"github.com/daleydeng/zenoh-go/native"
)

// Queryable answers the gets issued on a key expression through the handler
// given at declaration.
type Queryable struct {
	h       handle[native.Queryable]
	session *Session
	keyExpr string
}

func newQueryable(s *Session, raw native.Queryable, keyexpr string) *Queryable {
	q := &Queryable{
		h:       newHandle("queryable", raw, s.engine.UndeclareQueryable),
		session: s,
		keyExpr: keyexpr,
	}
	if q.h.check() {
		runtime.SetFinalizer(q, (*Queryable).Close)
	}
	return q
}

// Check reports whether the queryable is declared
func (q *Queryable) Check() bool {
	return q.h.check()
}

// KeyExpr returns the key expression the queryable was declared on
func (q *Queryable) KeyExpr() KeyExprView {
	return KeyExprView{expr: q.keyExpr}
}

// Close undeclares the queryable. Closing twice does nothing.
func (q *Queryable) Close() error {
	return callResult(q.h.drop())
}

package zenoh

import (
	"runtime"

	"github.com/daleydeng/zenoh-go/keyexpr"
	"github.com/daleydeng/zenoh-go/native"
)

// KeyExprView is a validated key expression that owns no engine resource.
// Entities are declared against views; the zero value is invalid.
type KeyExprView struct {
	expr string
}

// NewKeyExprView validates expr, which must already be canonical.
func NewKeyExprView(expr string) (KeyExprView, error) {
	if err := keyexpr.Validate(expr); err != nil {
		return KeyExprView{}, ErrInvalidKeyExpr.withCause(err)
	}
	return KeyExprView{expr: expr}, nil
}

// KeyExprAutocanonize canonizes expr before validating it, so "a/**/**"
// yields the view "a/**".
func KeyExprAutocanonize(expr string) (KeyExprView, error) {
	canon, err := keyexpr.Canonize(expr)
	if err != nil {
		return KeyExprView{}, ErrInvalidKeyExpr.withCause(err)
	}
	return KeyExprView{expr: canon}, nil
}

// MustKeyExprView is like NewKeyExprView but panics on an invalid expression.
// It is meant for constants.
func MustKeyExprView(expr string) KeyExprView {
	view, err := NewKeyExprView(expr)
	if err != nil {
		panic("zenoh: " + err.Error() + ": " + expr)
	}
	return view
}

// Check reports whether the view holds a key expression.
func (k KeyExprView) Check() bool {
	return k.expr != ""
}

// String returns the key expression.
func (k KeyExprView) String() string {
	return k.expr
}

// Equals reports whether both views name the same key expression.
func (k KeyExprView) Equals(other KeyExprView) bool {
	return keyexpr.Equals(k.expr, other.expr)
}

// Intersects reports whether some key matches both expressions.
func (k KeyExprView) Intersects(other KeyExprView) bool {
	return keyexpr.Intersects(k.expr, other.expr)
}

// Includes reports whether every key matching other also matches k.
func (k KeyExprView) Includes(other KeyExprView) bool {
	return keyexpr.Includes(k.expr, other.expr)
}

// Join appends suffix as new chunks.
func (k KeyExprView) Join(suffix string) (KeyExprView, error) {
	joined, err := keyexpr.Join(k.expr, suffix)
	if err != nil {
		return KeyExprView{}, ErrInvalidKeyExpr.withCause(err)
	}
	return KeyExprView{expr: joined}, nil
}

// Concat appends suffix to the last chunk.
func (k KeyExprView) Concat(suffix string) (KeyExprView, error) {
	joined, err := keyexpr.Concat(k.expr, suffix)
	if err != nil {
		return KeyExprView{}, ErrInvalidKeyExpr.withCause(err)
	}
	return KeyExprView{expr: joined}, nil
}

// KeyExpr is a key expression declared on a session. Declaring lets the
// engine intern the name; Close undeclares it.
type KeyExpr struct {
	h       handle[native.KeyExpr]
	session *Session
	expr    string
}

func newKeyExpr(s *Session, raw native.KeyExpr, expr string) *KeyExpr {
	engine, session := s.engine, s.h.loan()
	k := &KeyExpr{
		h: newHandle("keyexpr", raw, func(raw native.KeyExpr) native.ErrNo {
			return engine.UndeclareKeyExpr(session, raw)
		}),
		session: s,
		expr:    expr,
	}
	if k.h.check() {
		runtime.SetFinalizer(k, (*KeyExpr).Close)
	}
	return k
}

// Check reports whether the key expression is declared.
func (k *KeyExpr) Check() bool {
	return k.h.check()
}

// View borrows the key expression. It panics once the key expression has
// been undeclared.
func (k *KeyExpr) View() KeyExprView {
	k.h.loan()
	return KeyExprView{expr: k.expr}
}

// String returns the key expression.
func (k *KeyExpr) String() string {
	return k.expr
}

// Close undeclares the key expression. Closing twice does nothing.
func (k *KeyExpr) Close() error {
	return callResult(k.h.drop())
}

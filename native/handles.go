package native

// Raw handle kinds handed out by an Engine. Each is an opaque engine-side
// identifier; the zero value of every kind is the null handle returned when
// construction fails.
type (
	// Session names an open session
	Session uint32

	// KeyExpr names a key expression declared on a session
	KeyExpr uint32

	// Publisher names a declared publisher
	Publisher uint32

	// Subscriber names a declared push subscriber
	Subscriber uint32

	// PullSubscriber names a declared pull subscriber
	PullSubscriber uint32

	// Queryable names a declared queryable
	Queryable uint32

	// QueryID names one delivery of a query to one queryable. It is only
	// valid while that queryable's callback runs.
	QueryID uint32
)

// Check reports whether s is not the null handle.
func (s Session) Check() bool { return s != 0 }

// Check reports whether k is not the null handle.
func (k KeyExpr) Check() bool { return k != 0 }

// Check reports whether p is not the null handle.
func (p Publisher) Check() bool { return p != 0 }

// Check reports whether s is not the null handle.
func (s Subscriber) Check() bool { return s != 0 }

// Check reports whether s is not the null handle.
func (s PullSubscriber) Check() bool { return s != 0 }

// Check reports whether q is not the null handle.
func (q Queryable) Check() bool { return q != 0 }

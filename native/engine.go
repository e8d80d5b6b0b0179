package native

// Engine is the messaging engine behind a zenoh session: it performs the
// routing, matching and delivery that the zenoh package only coordinates.
//
// Constructors return the null handle of their kind on failure. Every
// closure passed in is owned by the engine from that point, including when
// the call fails: the engine must Drop it exactly once, after its last Call.
// Callbacks run on engine goroutines, strictly after the call that handed
// the closure over has returned.
type Engine interface {
	// Open starts a session from cfg. The engine takes ownership of cfg.
	Open(cfg *Config) Session
	// Close ends a session and undeclares every entity still declared on it.
	Close(s Session) ErrNo
	// InfoZid returns the session's own id.
	InfoZid(s Session) ID
	// InfoRoutersZid reports the ids of reachable routers through cb.
	InfoRoutersZid(s Session, cb *Closure[ID]) ErrNo
	// InfoPeersZid reports the ids of reachable peers through cb.
	InfoPeersZid(s Session, cb *Closure[ID]) ErrNo

	DeclareKeyExpr(s Session, keyexpr string) KeyExpr
	UndeclareKeyExpr(s Session, k KeyExpr) ErrNo

	Put(s Session, keyexpr string, payload []byte, opts *PutOptions) ErrNo
	Delete(s Session, keyexpr string, opts *DeleteOptions) ErrNo
	Get(s Session, keyexpr, parameters string, cb *Closure[Reply], opts *GetOptions) ErrNo

	DeclarePublisher(s Session, keyexpr string, opts *PublisherOptions) Publisher
	UndeclarePublisher(p Publisher) ErrNo
	PublisherPut(p Publisher, payload []byte, opts *PublisherPutOptions) ErrNo
	PublisherDelete(p Publisher, opts *PublisherDeleteOptions) ErrNo

	DeclareSubscriber(s Session, keyexpr string, cb *Closure[Sample], opts *SubscriberOptions) Subscriber
	UndeclareSubscriber(sub Subscriber) ErrNo

	DeclarePullSubscriber(s Session, keyexpr string, cb *Closure[Sample], opts *PullSubscriberOptions) PullSubscriber
	Pull(sub PullSubscriber) ErrNo
	UndeclarePullSubscriber(sub PullSubscriber) ErrNo

	DeclareQueryable(s Session, keyexpr string, cb *Closure[Query], opts *QueryableOptions) Queryable
	UndeclareQueryable(q Queryable) ErrNo
	// QueryReply answers the query delivery q. It is only valid while the
	// queryable callback that received q is running.
	QueryReply(q QueryID, keyexpr string, payload []byte, opts *QueryReplyOptions) ErrNo

	// Scout discovers nodes matching cfg and reports them through cb. The
	// engine takes ownership of cfg.
	Scout(cfg *ScoutingConfig, cb *Closure[Hello]) ErrNo
}

// Package zenoh is the client access layer of a zenoh-style publish/subscribe
// and query middleware.
//
// A Config is built or parsed and consumed by Open, which returns a Session.
// The session declares publishers, subscribers, pull subscribers, queryables
// and key expressions, and issues puts, deletes and gets.
//
// Every declared entity owns one engine resource. Close releases it exactly
// once; an entity that is collected without being closed is released by its
// finalizer. Each type's Close method is idempotent. Using a publisher or
// pull subscriber after Close panics; calls on a closed session fail with
// ErrNoSessionClosed.
//
// Handlers passed to declare, get, info and scout calls are single-use and
// are taken before the engine is called, even when the call then fails.
// Their callbacks run on engine goroutines, strictly after the call that
// registered them returned, and their drop function runs exactly once after
// the last callback.
//
// Sessions run on the in-process engine of package local unless another
// engine is selected with Config.SetEngine.
package zenoh

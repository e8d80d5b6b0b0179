package local

import (
	"sort"

	"go.uber.org/zap"

	"github.com/daleydeng/zenoh-go/native"
)

// Scout reports a Hello for every open session whose role matches cfg.What,
// then drops cb. Sessions are only visible to a scout that has multicast
// scouting enabled or at least one connect endpoint.
func (e *Engine) Scout(cfg *native.ScoutingConfig, cb *native.Closure[native.Hello]) native.ErrNo {
	if cfg == nil {
		cb.Drop()
		return native.ErrNoNullHandle
	}
	if cfg.What == 0 {
		cb.Drop()
		return native.ErrNoInvalidArgument
	}
	reachable := len(cfg.Connect) > 0 || cfg.Multicast.Enabled == nil || *cfg.Multicast.Enabled

	var found []*session
	if reachable {
		e.mu.Lock()
		for _, s := range e.sessions {
			if s.whatami&cfg.What != 0 {
				found = append(found, s)
			}
		}
		e.mu.Unlock()
	}
	sort.Slice(found, func(i, j int) bool { return found[i].id < found[j].id })

	w := startWorker(e, "scout", cb, nil)
	for _, s := range found {
		w.push(native.Hello{
			WhatAmI:  s.whatami,
			ZID:      s.zid,
			Locators: append([]string(nil), s.locators...),
		}, true)
	}
	w.close()
	e.log.Debug("scout", zap.Stringer("what", cfg.What), zap.Int("found", len(found)))
	return native.ErrNoSuccess
}

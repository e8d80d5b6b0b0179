package zenoh

import (
	"time"

	"github.com/daleydeng/zenoh-go/local"
	"github.com/daleydeng/zenoh-go/native"
)

// ScoutingConfig is an owned scouting configuration. Scout consumes it.
type ScoutingConfig struct {
	h      handle[*native.ScoutingConfig]
	engine native.Engine
}

func newScoutingConfig(cfg *native.ScoutingConfig, engine native.Engine) *ScoutingConfig {
	return &ScoutingConfig{
		h:      newHandle[*native.ScoutingConfig]("scouting config", cfg, nil),
		engine: engine,
	}
}

// NewScoutingConfig returns the default scouting configuration: look for
// routers and peers for one second on the default engine.
func NewScoutingConfig() *ScoutingConfig {
	return newScoutingConfig(native.ScoutingConfigFrom(nil), local.Default())
}

// Check reports whether the scouting configuration is usable.
func (c *ScoutingConfig) Check() bool {
	return c.h.check()
}

// SetWhat selects the roles to look for.
func (c *ScoutingConfig) SetWhat(what WhatAmI) *ScoutingConfig {
	c.h.loan().What = what
	return c
}

// SetTimeout bounds the scout operation.
func (c *ScoutingConfig) SetTimeout(timeout time.Duration) *ScoutingConfig {
	c.h.loan().Timeout = timeout
	return c
}

// SetEngine selects the engine to scout through.
func (c *ScoutingConfig) SetEngine(engine native.Engine) *ScoutingConfig {
	if engine == nil {
		panic("zenoh: nil engine")
	}
	c.engine = engine
	return c
}

// Scout discovers routers and peers. It consumes cfg and handler before
// asking the engine, so the handler's drop runs exactly once even when the
// call fails. Each discovered node is reported once; the drop function
// signals the end of the scout.
func Scout(cfg *ScoutingConfig, handler Handler[Hello]) error {
	cb := takeHandler("scout", handler, helloFromNative)
	engine := cfg.engine
	raw := cfg.h.take()
	if raw == nil || engine == nil {
		cb.Drop()
		return callResult(native.ErrNoNullHandle)
	}
	return callResult(engine.Scout(raw, cb))
}

package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daleydeng/zenoh-go/native"
)

func TestScoutFindsMatchingRoles(t *testing.T) {
	e := New()
	peer := openSession(t, e, func(c *native.Config) {
		c.Listen.Endpoints = []string{"tcp/127.0.0.1:7447"}
	})
	router := openSession(t, e, withMode("router"))
	openSession(t, e, func(c *native.Config) {
		c.Mode = "client"
		c.Connect.Endpoints = []string{"tcp/127.0.0.1:7447"}
	})

	rec, cb := record[native.Hello]()
	require.Equal(t, native.ErrNoSuccess, e.Scout(native.ScoutingConfigFrom(nil), cb))
	hellos := rec.wait(t)

	require.Len(t, hellos, 2, "clients are not scouted by default")
	assert.Equal(t, e.InfoZid(peer), hellos[0].ZID)
	assert.Equal(t, native.Peer, hellos[0].WhatAmI)
	assert.Equal(t, []string{"tcp/127.0.0.1:7447"}, hellos[0].Locators)
	assert.Equal(t, e.InfoZid(router), hellos[1].ZID)

	cfg := native.ScoutingConfigFrom(nil)
	cfg.What = native.Client
	rec, cb = record[native.Hello]()
	require.Equal(t, native.ErrNoSuccess, e.Scout(cfg, cb))
	assert.Len(t, rec.wait(t), 1)
}

func TestScoutNeedsADiscoveryPath(t *testing.T) {
	e := New()
	openSession(t, e)

	disabled := false
	cfg := native.ScoutingConfigFrom(nil)
	cfg.Multicast.Enabled = &disabled
	rec, cb := record[native.Hello]()
	require.Equal(t, native.ErrNoSuccess, e.Scout(cfg, cb))
	assert.Empty(t, rec.wait(t))

	cfg.Connect = []string{"tcp/127.0.0.1:7447"}
	rec, cb = record[native.Hello]()
	require.Equal(t, native.ErrNoSuccess, e.Scout(cfg, cb))
	assert.Len(t, rec.wait(t), 1)
}

func TestScoutErrorsDropClosure(t *testing.T) {
	e := New()

	rec, cb := record[native.Hello]()
	assert.Equal(t, native.ErrNoNullHandle, e.Scout(nil, cb))
	assert.Empty(t, rec.wait(t))

	cfg := native.ScoutingConfigFrom(nil)
	cfg.What = 0
	rec, cb = record[native.Hello]()
	assert.Equal(t, native.ErrNoInvalidArgument, e.Scout(cfg, cb))
	assert.Empty(t, rec.wait(t))
}

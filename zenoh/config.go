package zenoh

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/daleydeng/zenoh-go/local"
	"github.com/daleydeng/zenoh-go/native"
)

// Mode is the role a session plays in the network.
type Mode string

const (
	// ModePeer connects as a peer (default)
	ModePeer Mode = "peer"
	// ModeClient connects as a client
	ModeClient Mode = "client"
	// ModeRouter runs as a router
	ModeRouter Mode = "router"
)

// Config is an owned configuration blob. Open consumes it.
//
// Configurations are written in JSON with comments and trailing commas
// (the zenoh JSON5 layout) or in YAML when loaded from a .yaml/.yml file.
type Config struct {
	h      handle[*native.Config]
	engine native.Engine
}

func newConfig(cfg *native.Config) *Config {
	return &Config{
		h:      newHandle[*native.Config]("config", cfg, nil),
		engine: local.Default(),
	}
}

// ConfigDefault returns the default configuration: a peer with multicast
// scouting enabled.
func ConfigDefault() *Config {
	return newConfig(native.DefaultConfig())
}

// ConfigPeer returns the configuration of a peer.
func ConfigPeer() *Config {
	return ConfigDefault()
}

// ConfigClient returns the configuration of a client connecting to peers.
func ConfigClient(peers ...string) (*Config, error) {
	var errs []error
	for _, peer := range peers {
		if err := native.ValidateLocator(peer); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, ErrConfigClient.withCause(err)
	}
	return newConfig(native.ClientConfig(peers)), nil
}

// ConfigFromStr parses a configuration document. Keys missing from s keep
// their default values; unknown keys are rejected.
func ConfigFromStr(s string) (*Config, error) {
	cfg, err := parseConfig([]byte(s), false)
	if err != nil {
		return nil, ErrConfigFromStr.withCause(err)
	}
	return newConfig(cfg), nil
}

// ConfigFromFile loads a configuration file. Files ending in .yaml or .yml
// are read as YAML, anything else as JSON5.
func ConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrConfigFromFile.withCause(err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	cfg, err := parseConfig(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return nil, ErrConfigFromFile.withCause(fmt.Errorf("%s: %w", path, err))
	}
	return newConfig(cfg), nil
}

func parseConfig(data []byte, isYAML bool) (*native.Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty configuration")
	}
	cfg := native.DefaultConfig()
	if isYAML {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	} else if err := decodeJSON(jsonc.ToJSON(data), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after configuration")
	}
	return nil
}

// Check reports whether the configuration is usable.
func (c *Config) Check() bool {
	return c.h.check()
}

// SetEngine selects the engine sessions opened from c run on. The default
// is the in-process engine shared by every session of the program.
func (c *Config) SetEngine(engine native.Engine) *Config {
	if engine == nil {
		panic("zenoh: nil engine")
	}
	c.engine = engine
	return c
}

// Mode returns the configured mode.
func (c *Config) Mode() Mode {
	return Mode(c.h.loan().WhatAmI().String())
}

// Insert sets the value at a '/'-separated path, such as
// "scouting/multicast/enabled", from its JSON5 text. The configuration is
// unchanged when the result does not validate.
func (c *Config) Insert(path, value string) error {
	cfg := c.h.loan()
	tree, err := configTree(cfg)
	if err != nil {
		return ErrConfigInsert.withCause(err)
	}
	var v any
	if err := json.Unmarshal(jsonc.ToJSON([]byte(value)), &v); err != nil {
		return ErrConfigInsert.withCause(fmt.Errorf("%s: %w", path, err))
	}
	if err := setPath(tree, splitPath(path), v); err != nil {
		return ErrConfigInsert.withCause(err)
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return ErrConfigInsert.withCause(err)
	}
	next := &native.Config{}
	if err := decodeJSON(data, next); err != nil {
		return ErrConfigInsert.withCause(fmt.Errorf("%s: %w", path, err))
	}
	if err := next.Validate(); err != nil {
		return ErrConfigInsert.withCause(err)
	}
	*cfg = *next
	return nil
}

// Get returns the JSON text of the value at path, or false if nothing is
// set there.
func (c *Config) Get(path string) (string, bool) {
	tree, err := configTree(c.h.loan())
	if err != nil {
		return "", false
	}
	var node any = tree
	for _, key := range splitPath(path) {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		if node, ok = m[key]; !ok {
			return "", false
		}
	}
	data, err := json.Marshal(node)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	if !c.h.check() {
		return "<invalid config>"
	}
	data, err := json.MarshalIndent(c.h.loan(), "", "  ")
	if err != nil {
		return "<invalid config>"
	}
	return string(data)
}

// CreateScoutingConfig derives a scouting configuration from c.
func (c *Config) CreateScoutingConfig() *ScoutingConfig {
	return newScoutingConfig(native.ScoutingConfigFrom(c.h.loan()), c.engine)
}

func configTree(cfg *native.Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	tree := map[string]any{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

func setPath(tree map[string]any, keys []string, v any) error {
	if len(keys) == 0 {
		return errors.New("empty config path")
	}
	for _, key := range keys[:len(keys)-1] {
		next, ok := tree[key].(map[string]any)
		if !ok {
			if _, exists := tree[key]; exists {
				return fmt.Errorf("config key %q is not a section", key)
			}
			next = map[string]any{}
			tree[key] = next
		}
		tree = next
	}
	tree[keys[len(keys)-1]] = v
	return nil
}

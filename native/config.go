package native

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default scouting and query timings, in milliseconds.
const (
	DefaultScoutingTimeoutMs     = 1000
	DefaultQueriesTimeoutMs      = 10000
	DefaultMulticastAddress      = "224.0.0.224:7446"
	DefaultMulticastInterface    = "auto"
	defaultScoutingWhat          = Router | Peer
	locatorProtocolSeparator     = "/"
	maxConfigEndpointsPerSection = 64
)

var knownProtocols = map[string]bool{
	"tcp":             true,
	"udp":             true,
	"tls":             true,
	"quic":            true,
	"ws":              true,
	"serial":          true,
	"unixsock-stream": true,
	"unixpipe":        true,
}

// Config is the engine configuration blob. Field names follow the zenoh
// JSON5 configuration file.
type Config struct {
	ID                    string             `json:"id,omitempty" yaml:"id,omitempty"`
	Mode                  string             `json:"mode,omitempty" yaml:"mode,omitempty"`
	Connect               EndpointsConfig    `json:"connect" yaml:"connect"`
	Listen                EndpointsConfig    `json:"listen" yaml:"listen"`
	Scouting              ScoutingSection    `json:"scouting" yaml:"scouting"`
	Timestamping          TimestampingConfig `json:"timestamping" yaml:"timestamping"`
	QueriesDefaultTimeout int64              `json:"queries_default_timeout,omitempty" yaml:"queries_default_timeout,omitempty"`
}

// EndpointsConfig lists locators such as "tcp/127.0.0.1:7447".
type EndpointsConfig struct {
	Endpoints []string `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
}

// ScoutingSection configures discovery.
type ScoutingSection struct {
	// Timeout in milliseconds for a scout operation.
	Timeout   int64           `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Delay     int64           `json:"delay,omitempty" yaml:"delay,omitempty"`
	Multicast MulticastConfig `json:"multicast" yaml:"multicast"`
	Gossip    GossipConfig    `json:"gossip" yaml:"gossip"`
}

// MulticastConfig configures multicast scouting.
type MulticastConfig struct {
	Enabled   *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Interface string `json:"interface,omitempty" yaml:"interface,omitempty"`
}

// GossipConfig configures gossip scouting.
type GossipConfig struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// TimestampingConfig controls whether the session stamps its publications.
type TimestampingConfig struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// DefaultConfig returns the configuration of a peer with multicast scouting.
func DefaultConfig() *Config {
	enabled := true
	return &Config{
		Mode: "peer",
		Scouting: ScoutingSection{
			Timeout: DefaultScoutingTimeoutMs,
			Multicast: MulticastConfig{
				Enabled:   &enabled,
				Address:   DefaultMulticastAddress,
				Interface: DefaultMulticastInterface,
			},
		},
		QueriesDefaultTimeout: DefaultQueriesTimeoutMs,
	}
}

// ClientConfig returns the configuration of a client connecting to peers.
func ClientConfig(peers []string) *Config {
	cfg := DefaultConfig()
	cfg.Mode = "client"
	cfg.Connect.Endpoints = append([]string(nil), peers...)
	return cfg
}

// WhatAmI returns the role bit for the configured mode, defaulting to Peer.
func (c *Config) WhatAmI() WhatAmI {
	if w, ok := ParseWhatAmI(c.Mode); ok {
		return w
	}
	return Peer
}

// QueriesTimeout returns the default get timeout.
func (c *Config) QueriesTimeout() time.Duration {
	if c.QueriesDefaultTimeout <= 0 {
		return DefaultQueriesTimeoutMs * time.Millisecond
	}
	return time.Duration(c.QueriesDefaultTimeout) * time.Millisecond
}

// TimestampingEnabled reports whether publications get a timestamp.
func (c *Config) TimestampingEnabled() bool {
	return c.Timestamping.Enabled != nil && *c.Timestamping.Enabled
}

// Validate checks the mode, id and every locator.
func (c *Config) Validate() error {
	var errs []error
	if c.Mode != "" {
		if _, ok := ParseWhatAmI(c.Mode); !ok {
			errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
		}
	}
	if c.ID != "" {
		if _, err := ParseID(c.ID); err != nil {
			errs = append(errs, err)
		}
	}
	for _, section := range []struct {
		name      string
		endpoints []string
	}{
		{"connect", c.Connect.Endpoints},
		{"listen", c.Listen.Endpoints},
	} {
		if len(section.endpoints) > maxConfigEndpointsPerSection {
			errs = append(errs, fmt.Errorf("%s: too many endpoints (%d)", section.name, len(section.endpoints)))
		}
		for _, endpoint := range section.endpoints {
			if err := ValidateLocator(endpoint); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", section.name, err))
			}
		}
	}
	if c.Scouting.Timeout < 0 {
		errs = append(errs, fmt.Errorf("scouting/timeout must not be negative"))
	}
	if c.Mode == "client" && len(c.Connect.Endpoints) == 0 && !c.scoutingEnabled() {
		errs = append(errs, fmt.Errorf("client mode needs connect endpoints or scouting"))
	}
	return errors.Join(errs...)
}

func (c *Config) scoutingEnabled() bool {
	multicast := c.Scouting.Multicast.Enabled == nil || *c.Scouting.Multicast.Enabled
	gossip := c.Scouting.Gossip.Enabled != nil && *c.Scouting.Gossip.Enabled
	return multicast || gossip
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Connect.Endpoints = append([]string(nil), c.Connect.Endpoints...)
	out.Listen.Endpoints = append([]string(nil), c.Listen.Endpoints...)
	out.Scouting.Multicast.Enabled = cloneBool(c.Scouting.Multicast.Enabled)
	out.Scouting.Gossip.Enabled = cloneBool(c.Scouting.Gossip.Enabled)
	out.Timestamping.Enabled = cloneBool(c.Timestamping.Enabled)
	return &out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// ValidateLocator checks that locator has the form "proto/address".
func ValidateLocator(locator string) error {
	proto, address, ok := strings.Cut(locator, locatorProtocolSeparator)
	if !ok || address == "" {
		return fmt.Errorf("locator %q is not of the form proto/address", locator)
	}
	if !knownProtocols[proto] {
		return fmt.Errorf("locator %q has unknown protocol %q", locator, proto)
	}
	return nil
}

// ParseID parses a hex zid of at most 32 digits.
func ParseID(s string) (ID, error) {
	var id ID
	if s == "" || len(s) > 2*len(id) {
		return id, fmt.Errorf("zid %q must be 1 to %d hex digits", s, 2*len(id))
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("zid %q is not hexadecimal: %w", s, err)
	}
	copy(id[len(id)-len(raw):], raw)
	return id, nil
}

// ScoutingConfig is the configuration blob of a scout operation.
type ScoutingConfig struct {
	What      WhatAmI
	Timeout   time.Duration
	Multicast MulticastConfig
	Connect   []string
}

// ScoutingConfigFrom derives a scouting configuration from a session
// configuration. A nil cfg yields the defaults.
func ScoutingConfigFrom(cfg *Config) *ScoutingConfig {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	timeout := time.Duration(cfg.Scouting.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = DefaultScoutingTimeoutMs * time.Millisecond
	}
	multicast := cfg.Scouting.Multicast
	multicast.Enabled = cloneBool(multicast.Enabled)
	return &ScoutingConfig{
		What:      defaultScoutingWhat,
		Timeout:   timeout,
		Multicast: multicast,
		Connect:   append([]string(nil), cfg.Connect.Endpoints...),
	}
}

// Package config loads the peer's tunables. The protocol's constants
// (5s ping period, 4 missed acks, ~1s socket timeouts, ~2s quit grace)
// are fixed by the spec, but exposing them as overridable, documented
// defaults — rather than literals sprinkled through the engine — makes
// the engine testable at compressed timings and leaves room for an
// operator to trade repair latency for probe traffic.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of a running peer.
type Config struct {
	Network   Network   `toml:"network"`
	Liveness  Liveness  `toml:"liveness"`
	Churn     Churn     `toml:"churn"`
	StatusAPI StatusAPI `toml:"status_api"`
}

// Network controls addressing and socket timeouts.
type Network struct {
	BindHost            string        `toml:"bind_host"`             // default "127.0.0.1"
	DatagramTimeout     time.Duration `toml:"datagram_timeout"`      // default 1s
	StreamAcceptTimeout time.Duration `toml:"stream_accept_timeout"` // default 1s
	DialTimeout         time.Duration `toml:"dial_timeout"`          // default 2s; not read by transport.DialSend, which always dials with a 2s timeout
}

// Liveness controls the ping protocol's pacing and death threshold.
type Liveness struct {
	PingPeriod      time.Duration `toml:"ping_period"`      // default 5s
	MissedThreshold int           `toml:"missed_threshold"` // default 4
}

// Churn controls graceful-departure pacing.
type Churn struct {
	QuitGrace time.Duration `toml:"quit_grace"` // default 2s
}

// StatusAPI controls the optional read-only HTTP status surface.
type StatusAPI struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"` // default "" (disabled unless set)
}

// Default returns the spec's fixed protocol constants as a Config, with
// networking defaulted to loopback and the status API disabled.
func Default() Config {
	return Config{
		Network: Network{
			BindHost:            "127.0.0.1",
			DatagramTimeout:     1 * time.Second,
			StreamAcceptTimeout: 1 * time.Second,
			DialTimeout:         2 * time.Second,
		},
		Liveness: Liveness{
			PingPeriod:      5 * time.Second,
			MissedThreshold: 4,
		},
		Churn: Churn{
			QuitGrace: 2 * time.Second,
		},
		StatusAPI: StatusAPI{
			Enabled: false,
			Addr:    "",
		},
	}
}

// Load reads a TOML config file and overlays it onto the defaults. A
// missing path is not an error — callers pass "" to mean "defaults only".
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

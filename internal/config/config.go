// Package config holds recall's tunables and resolves them from viper.
package config

import (
	"fmt"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"go.klb.dev/recall/internal/cycle"
	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/watcher"
)

// Viper keys.
const (
	KeyMaxItems     = "max-items"
	KeyPollInterval = "poll-interval"
	KeyCycleLimit   = "cycle-limit"
	KeyCycleTimeout = "cycle-timeout"
)

// Config is the effective configuration for one operation.
type Config struct {
	MaxItems     int           `toml:"max-items"`
	PollInterval time.Duration `toml:"poll-interval"`
	CycleLimit   int           `toml:"cycle-limit"`
	CycleTimeout time.Duration `toml:"cycle-timeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		MaxItems:     history.DefaultMaxItems,
		PollInterval: watcher.DefaultInterval,
		CycleLimit:   cycle.DefaultLimit,
		CycleTimeout: cycle.DefaultTimeout,
	}
}

// Normalize replaces every non-positive value with its default.
func (c Config) Normalize() Config {
	d := Defaults()
	if c.MaxItems <= 0 {
		c.MaxItems = d.MaxItems
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.CycleLimit <= 0 {
		c.CycleLimit = d.CycleLimit
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = d.CycleTimeout
	}
	return c
}

// TOML renders c in config-file form, durations as strings ("500ms").
func (c Config) TOML() ([]byte, error) {
	out, err := toml.Marshal(struct {
		MaxItems     int    `toml:"max-items"`
		PollInterval string `toml:"poll-interval"`
		CycleLimit   int    `toml:"cycle-limit"`
		CycleTimeout string `toml:"cycle-timeout"`
	}{c.MaxItems, c.PollInterval.String(), c.CycleLimit, c.CycleTimeout.String()})
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}

// Source yields the configuration in effect right now.
type Source interface {
	Current() Config
}

// Static is a fixed Source.
type Static Config

// Current implements Source.
func (s Static) Current() Config { return Config(s).Normalize() }

// Viper reads the configuration from v on every call, so values picked up by
// v.WatchConfig apply to the next operation.
type Viper struct {
	V *viper.Viper
}

// Current implements Source.
func (s Viper) Current() Config {
	return Config{
		MaxItems:     s.V.GetInt(KeyMaxItems),
		PollInterval: s.V.GetDuration(KeyPollInterval),
		CycleLimit:   s.V.GetInt(KeyCycleLimit),
		CycleTimeout: s.V.GetDuration(KeyCycleTimeout),
	}.Normalize()
}

// Package bridge implements the AGI server: the TCP accept loop that hands
// each connection from the telephony switch to a new protocol engine
// instance, and the configuration surface that governs it.
package bridge

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/go-agi/go-agi-bridge/lib/protocol"
	"github.com/go-agi/go-agi-bridge/lib/session"
)

// Default configuration values.
const (
	// DefaultListenAddr is the conventional FastAGI TCP listen address.
	DefaultListenAddr = ":4573"

	// DefaultIdleTimeout is the maximum allowed connection inactivity
	// before forced closure.
	DefaultIdleTimeout = 5000 * time.Millisecond

	// DefaultReadChunk is the per-read buffer size of the connection pump.
	DefaultReadChunk = 4096

	// envPrefix namespaces the environment variables consumed here
	// (AGI_LISTEN, AGI_TIMEOUT, ...).
	envPrefix = "AGI"
)

// Configuration validation errors.
var (
	ErrNoListenAddr      = errors.New("listen address must not be empty")
	ErrNegativeTimeout   = errors.New("idle timeout must not be negative")
	ErrInvalidBufferSize = errors.New("max buffer must be positive")
)

// Config holds the AGI server configuration. All fields have defaults; the
// zero value is not usable, start from DefaultConfig or FromEnv.
type Config struct {
	// ListenAddr is the TCP address the switch connects to.
	ListenAddr string

	// IdleTimeout bounds overall connection inactivity. Resolved once
	// here and injected into each session; the core never reads the
	// process environment itself. Zero disables the timeout.
	IdleTimeout time.Duration

	// MaxBuffer bounds each session's inbound buffer.
	MaxBuffer int

	// MaxConnections limits concurrent sessions (0 = no limit).
	MaxConnections int

	// RecentSessions is the capacity of the registry's closed-session
	// summary cache.
	RecentSessions int

	// Debug enables debug logging.
	Debug bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     DefaultListenAddr,
		IdleTimeout:    DefaultIdleTimeout,
		MaxBuffer:      protocol.DefaultMaxBuffer,
		MaxConnections: 0,
		RecentSessions: session.DefaultRecentSessions,
	}
}

// FromEnv resolves configuration from the process environment on top of the
// defaults. Recognized variables: AGI_LISTEN, AGI_TIMEOUT (milliseconds),
// AGI_MAX_BUFFER, AGI_MAX_CONNECTIONS, AGI_RECENT_SESSIONS, AGI_DEBUG.
func FromEnv() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("listen", DefaultListenAddr)
	v.SetDefault("timeout", DefaultIdleTimeout.Milliseconds())
	v.SetDefault("max_buffer", protocol.DefaultMaxBuffer)
	v.SetDefault("max_connections", 0)
	v.SetDefault("recent_sessions", session.DefaultRecentSessions)
	v.SetDefault("debug", false)

	cfg := &Config{
		ListenAddr:     v.GetString("listen"),
		IdleTimeout:    time.Duration(v.GetInt64("timeout")) * time.Millisecond,
		MaxBuffer:      v.GetInt("max_buffer"),
		MaxConnections: v.GetInt("max_connections"),
		RecentSessions: v.GetInt("recent_sessions"),
		Debug:          v.GetBool("debug"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return ErrNoListenAddr
	}
	if c.IdleTimeout < 0 {
		return ErrNegativeTimeout
	}
	if c.MaxBuffer <= 0 {
		return ErrInvalidBufferSize
	}
	return nil
}

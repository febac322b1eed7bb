package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/go-agi/go-agi-bridge/lib/protocol"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.IdleTimeout != 5000*time.Millisecond {
		t.Errorf("IdleTimeout = %v, want 5s", cfg.IdleTimeout)
	}
	if cfg.MaxBuffer != protocol.DefaultMaxBuffer {
		t.Errorf("MaxBuffer = %d, want %d", cfg.MaxBuffer, protocol.DefaultMaxBuffer)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
	if cfg.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("IdleTimeout = %v, want default %v", cfg.IdleTimeout, DefaultIdleTimeout)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("AGI_LISTEN", "127.0.0.1:14573")
	t.Setenv("AGI_TIMEOUT", "250")
	t.Setenv("AGI_MAX_CONNECTIONS", "8")
	t.Setenv("AGI_DEBUG", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:14573" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.IdleTimeout != 250*time.Millisecond {
		t.Errorf("IdleTimeout = %v, want 250ms", cfg.IdleTimeout)
	}
	if cfg.MaxConnections != 8 {
		t.Errorf("MaxConnections = %d, want 8", cfg.MaxConnections)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty listen address",
			mutate:  func(c *Config) { c.ListenAddr = "" },
			wantErr: ErrNoListenAddr,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.IdleTimeout = -time.Second },
			wantErr: ErrNegativeTimeout,
		},
		{
			name:    "zero buffer",
			mutate:  func(c *Config) { c.MaxBuffer = 0 },
			wantErr: ErrInvalidBufferSize,
		},
		{
			name:    "zero timeout allowed",
			mutate:  func(c *Config) { c.IdleTimeout = 0 },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

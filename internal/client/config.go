package client

import (
	"time"

	"github.com/openlaunch/gc2bridge/internal/protocol"
)

// BackoffConfig defines reconnect backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines connection and exchange timing defaults.
type Config struct {
	Host            string
	Port            int
	DialTimeout     time.Duration
	ExchangeTimeout time.Duration
	Backoff         BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            protocol.DefaultPort,
		DialTimeout:     5 * time.Second,
		ExchangeTimeout: 5 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

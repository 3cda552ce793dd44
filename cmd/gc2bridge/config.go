package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/openlaunch/gc2bridge/internal/bridge"
)

type fileConfig struct {
	DeviceAddr         string `toml:"device_addr"`
	SimulatorHost      string `toml:"simulator_host"`
	SimulatorPort      int    `toml:"simulator_port"`
	HeartbeatInterval  string `toml:"heartbeat_interval"`
	ExchangeTimeout    string `toml:"exchange_timeout"`
	DialTimeout        string `toml:"dial_timeout"`
	MaxConnectAttempts int    `toml:"max_connect_attempts"`
}

func loadBridgeConfig(path string) (bridge.Config, error) {
	cfg := bridge.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("load bridge config: %w", err)
	}

	if meta.IsDefined("device_addr") {
		addr := strings.TrimSpace(raw.DeviceAddr)
		if addr != "" {
			cfg.DeviceAddr = addr
		}
	}

	if meta.IsDefined("simulator_host") {
		host := strings.TrimSpace(raw.SimulatorHost)
		if host != "" {
			cfg.Simulator.Host = host
		}
	}

	if meta.IsDefined("simulator_port") {
		if raw.SimulatorPort <= 0 || raw.SimulatorPort > 65535 {
			return bridge.Config{}, fmt.Errorf("simulator_port out of range: %d", raw.SimulatorPort)
		}
		cfg.Simulator.Port = raw.SimulatorPort
	}

	if meta.IsDefined("heartbeat_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HeartbeatInterval))
		if err != nil {
			return bridge.Config{}, fmt.Errorf("parse heartbeat_interval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}

	if meta.IsDefined("exchange_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ExchangeTimeout))
		if err != nil {
			return bridge.Config{}, fmt.Errorf("parse exchange_timeout: %w", err)
		}
		cfg.Simulator.ExchangeTimeout = d
	}

	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return bridge.Config{}, fmt.Errorf("parse dial_timeout: %w", err)
		}
		cfg.Simulator.DialTimeout = d
	}

	if meta.IsDefined("max_connect_attempts") {
		cfg.MaxConnectAttempts = raw.MaxConnectAttempts
	}

	return cfg, nil
}

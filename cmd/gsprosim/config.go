package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/openlaunch/gc2bridge/internal/relay"
)

type serverConfig struct {
	Relay relay.Config
	// StatsAddr exposes /healthz, /stats and /metrics; empty disables it.
	StatsAddr string
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		Relay:     relay.DefaultConfig(),
		StatsAddr: "127.0.0.1:9921",
	}
}

type fileConfig struct {
	Addr          string `toml:"addr"`
	ResponseDelay string `toml:"response_delay"`
	StatsAddr     string `toml:"stats_addr"`

	Player struct {
		Handed           string `toml:"handed"`
		Club             string `toml:"club"`
		DistanceToTarget int    `toml:"distance_to_target"`
	} `toml:"player"`
}

func loadServerConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serverConfig{}, fmt.Errorf("load relay config: %w", err)
	}

	if meta.IsDefined("addr") {
		addr := strings.TrimSpace(raw.Addr)
		if addr != "" {
			cfg.Relay.Addr = addr
		}
	}

	if meta.IsDefined("response_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ResponseDelay))
		if err != nil {
			return serverConfig{}, fmt.Errorf("parse response_delay: %w", err)
		}
		cfg.Relay.ResponseDelay = d
	}

	if meta.IsDefined("stats_addr") {
		cfg.StatsAddr = strings.TrimSpace(raw.StatsAddr)
	}

	if meta.IsDefined("player", "handed") {
		cfg.Relay.Player.Handed = strings.TrimSpace(raw.Player.Handed)
	}
	if meta.IsDefined("player", "club") {
		cfg.Relay.Player.Club = strings.TrimSpace(raw.Player.Club)
	}
	if meta.IsDefined("player", "distance_to_target") {
		cfg.Relay.Player.DistanceToTarget = float64(raw.Player.DistanceToTarget)
	}

	return cfg, nil
}

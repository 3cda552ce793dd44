package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/openlaunch/gc2bridge/internal/device"
)

type fileConfig struct {
	Addr        string `toml:"addr"`
	ChunkSize   int    `toml:"chunk_size"`
	PacketDelay string `toml:"packet_delay"`
	EarlyDelay  string `toml:"early_delay"`
	FinalDelay  string `toml:"final_delay"`
}

func loadSimulatorConfig(path string) (device.SimulatorConfig, error) {
	cfg := device.DefaultSimulatorConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return device.SimulatorConfig{}, fmt.Errorf("load simulator config: %w", err)
	}

	if meta.IsDefined("addr") {
		addr := strings.TrimSpace(raw.Addr)
		if addr != "" {
			cfg.Addr = addr
		}
	}

	if meta.IsDefined("chunk_size") {
		if raw.ChunkSize <= 0 {
			return device.SimulatorConfig{}, fmt.Errorf("chunk_size must be positive, got %d", raw.ChunkSize)
		}
		cfg.ChunkSize = raw.ChunkSize
	}

	if meta.IsDefined("packet_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PacketDelay))
		if err != nil {
			return device.SimulatorConfig{}, fmt.Errorf("parse packet_delay: %w", err)
		}
		cfg.PacketDelay = d
	}

	if meta.IsDefined("early_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.EarlyDelay))
		if err != nil {
			return device.SimulatorConfig{}, fmt.Errorf("parse early_delay: %w", err)
		}
		cfg.EarlyDelay = d
	}

	if meta.IsDefined("final_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.FinalDelay))
		if err != nil {
			return device.SimulatorConfig{}, fmt.Errorf("parse final_delay: %w", err)
		}
		cfg.FinalDelay = d
	}

	return cfg, nil
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadBridgeConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
device_addr = "192.168.1.40:5555"
simulator_host = "192.168.1.2"
simulator_port = 922
heartbeat_interval = "30s"
exchange_timeout = "3s"
dial_timeout = "2s"
max_connect_attempts = 10
`)

	cfg, err := loadBridgeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DeviceAddr != "192.168.1.40:5555" {
		t.Fatalf("unexpected device addr: %q", cfg.DeviceAddr)
	}
	if cfg.Simulator.Host != "192.168.1.2" || cfg.Simulator.Port != 922 {
		t.Fatalf("unexpected simulator endpoint: %s:%d", cfg.Simulator.Host, cfg.Simulator.Port)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Fatalf("unexpected heartbeat interval: %v", cfg.HeartbeatInterval)
	}
	if cfg.Simulator.ExchangeTimeout != 3*time.Second {
		t.Fatalf("unexpected exchange timeout: %v", cfg.Simulator.ExchangeTimeout)
	}
	if cfg.Simulator.DialTimeout != 2*time.Second {
		t.Fatalf("unexpected dial timeout: %v", cfg.Simulator.DialTimeout)
	}
	if cfg.MaxConnectAttempts != 10 {
		t.Fatalf("unexpected max attempts: %d", cfg.MaxConnectAttempts)
	}
}

func TestLoadBridgeConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `simulator_host = "10.0.0.5"`)

	cfg, err := loadBridgeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Simulator.Port != 921 {
		t.Fatalf("default port lost: %d", cfg.Simulator.Port)
	}
	if cfg.DeviceAddr != "127.0.0.1:5555" {
		t.Fatalf("default device addr lost: %q", cfg.DeviceAddr)
	}
}

func TestLoadBridgeConfigRejectsBadValues(t *testing.T) {
	if _, err := loadBridgeConfig(writeConfig(t, `simulator_port = 70000`)); err == nil {
		t.Fatalf("expected error for out of range port")
	}
	if _, err := loadBridgeConfig(writeConfig(t, `heartbeat_interval = "often"`)); err == nil {
		t.Fatalf("expected error for unparsable duration")
	}
}

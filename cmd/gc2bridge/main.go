// Command gc2bridge connects a GC2 launch monitor to a GSPro
// simulator: it reassembles the chunked device stream and forwards
// final readings as Open Connect shots.
package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/bridge"
	"github.com/openlaunch/gc2bridge/internal/observability"
	"github.com/openlaunch/gc2bridge/internal/protocol"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config path")
	deviceAddr := flag.String("device", "", "launch monitor address override")
	simHost := flag.String("host", "", "simulator host override")
	simPort := flag.Int("port", 0, "simulator port override")
	flag.Parse()

	observability.InitLogger("gc2bridge")

	cfg := bridge.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadBridgeConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded bridge config")
	}
	if *deviceAddr != "" {
		cfg.DeviceAddr = *deviceAddr
	}
	if *simHost != "" {
		cfg.Simulator.Host = *simHost
	}
	if *simPort > 0 {
		cfg.Simulator.Port = *simPort
	}

	svc := bridge.NewService(cfg)
	svc.Client().OnResponse(func(resp protocol.Response) {
		if !resp.Accepted() {
			log.Warn().Int("code", resp.Code).Str("message", resp.Message).
				Msg("simulator rejected message")
		}
	})
	svc.Client().OnDisconnect(func() {
		log.Warn().Msg("simulator connection lost")
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bridge stopped")
	}
	log.Info().Msg("bridge shut down")
}

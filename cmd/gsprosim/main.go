// Command gsprosim runs a GSPro-compatible relay server for bench
// testing: it answers Open Connect shots on the telemetry port and
// serves counters and Prometheus metrics over HTTP.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/observability"
	"github.com/openlaunch/gc2bridge/internal/relay"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config path")
	addr := flag.String("addr", "", "telemetry listen address override")
	statsAddr := flag.String("stats-addr", "", "stats/metrics HTTP address override")
	delay := flag.Duration("delay", -1, "shot response delay override")
	flag.Parse()

	logger := observability.InitLogger("gsprosim")

	cfg := defaultServerConfig()
	if *configPath != "" {
		loaded, err := loadServerConfig(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded relay config")
	}
	if *addr != "" {
		cfg.Relay.Addr = *addr
	}
	if *statsAddr != "" {
		cfg.StatsAddr = *statsAddr
	}
	if *delay >= 0 {
		cfg.Relay.ResponseDelay = *delay
	}

	srv := relay.NewServer(cfg.Relay)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Relay.Addr).Msg("failed to start relay")
	}
	defer srv.Stop()

	if cfg.StatsAddr != "" {
		router := observability.NewStatsRouter(logger, func() any { return srv.Stats() })
		httpSrv := &http.Server{
			Addr:              cfg.StatsAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.StatsAddr).Msg("stats server listening")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("stats server failed")
			}
		}()
		defer httpSrv.Close()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	stats := srv.Stats()
	log.Info().
		Uint64("shots", stats.Shots).
		Uint64("heartbeats", stats.Heartbeats).
		Uint64("statuses", stats.Statuses).
		Msg("relay shutting down")
}

// Package bridge relays launch-monitor telemetry to the simulator: it
// consumes the chunk-fragmented device stream, reassembles readings, and
// forwards authoritative ones as shots.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/client"
	"github.com/openlaunch/gc2bridge/internal/gc2wire"
	"github.com/openlaunch/gc2bridge/internal/protocol"
)

// Config wires the two sides of the bridge together.
type Config struct {
	DeviceAddr         string
	Simulator          client.Config
	HeartbeatInterval  time.Duration
	MaxConnectAttempts int
}

func DefaultConfig() Config {
	return Config{
		DeviceAddr:         fmt.Sprintf("127.0.0.1:%d", gc2wire.DefaultPort),
		Simulator:          client.DefaultConfig(),
		HeartbeatInterval:  10 * time.Second,
		MaxConnectAttempts: 5,
	}
}

// Service runs the device->simulator relay loop.
type Service struct {
	cfg Config
	sim *client.Client
	rng *rand.Rand

	mu         sync.Mutex
	deviceConn net.Conn
	closed     bool
}

func NewService(cfg Config) *Service {
	return &Service{
		cfg: cfg,
		sim: client.New(cfg.Simulator),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Client exposes the simulator client for observer registration.
func (s *Service) Client() *client.Client {
	return s.sim
}

// Run connects both sides and relays until the device stream ends or ctx
// is canceled. Canceling ctx unblocks the pending device read.
func (s *Service) Run(ctx context.Context) error {
	if err := s.connectSimulator(ctx); err != nil {
		return err
	}
	defer s.sim.Close()

	conn, err := s.connectDevice(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.deviceConn = conn
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.shutdown() })
	defer stop()
	defer s.shutdown()

	go s.heartbeatLoop(ctx)

	err = s.relayLoop(conn)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Service) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.deviceConn != nil {
		s.deviceConn.Close()
	}
}

func (s *Service) connectSimulator(ctx context.Context) error {
	var lastErr error
	for attempt := 1; s.cfg.MaxConnectAttempts <= 0 || attempt <= s.cfg.MaxConnectAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = s.sim.Connect(); lastErr == nil {
			return nil
		}
		delay := client.NextBackoffDelay(s.cfg.Simulator.Backoff, attempt, s.rng)
		log.Warn().Err(lastErr).Int("attempt", attempt).Dur("retry_in", delay).
			Msg("simulator connect failed")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("bridge: simulator unreachable: %w", lastErr)
}

func (s *Service) connectDevice(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: s.cfg.Simulator.DialTimeout}
	var lastErr error
	for attempt := 1; s.cfg.MaxConnectAttempts <= 0 || attempt <= s.cfg.MaxConnectAttempts; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", s.cfg.DeviceAddr)
		if err == nil {
			log.Info().Str("addr", s.cfg.DeviceAddr).Msg("connected to device")
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		delay := client.NextBackoffDelay(s.cfg.Simulator.Backoff, attempt, s.rng)
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).
			Msg("device connect failed")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("bridge: device unreachable: %w", lastErr)
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	if s.cfg.HeartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sim.SendHeartbeat(); err != nil {
				if errors.Is(err, client.ErrNotConnected) {
					return
				}
				log.Warn().Err(err).Msg("heartbeat failed")
			}
		}
	}
}

func (s *Service) relayLoop(conn net.Conn) error {
	var dec gc2wire.Decoder
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("bridge: device read: %w", err)
		}
		dec.Write(buf[:n])

		for {
			msg, ok, err := dec.Next()
			if err != nil {
				// One bad device message is not fatal; the terminator
				// already resynchronized the stream.
				log.Warn().Err(err).Msg("device message dropped")
				continue
			}
			if !ok {
				break
			}
			s.relayMessage(msg)
		}
	}
}

func (s *Service) relayMessage(msg gc2wire.Message) {
	switch {
	case msg.Status != nil:
		status := protocol.BallStatus{
			IsReady:      msg.Status.Ready(),
			BallDetected: msg.Status.BallDetected(),
		}
		log.Info().Bool("ready", status.IsReady).Bool("ball", status.BallDetected).
			Msg("device status")
		if err := s.sim.SendStatus(status); err != nil {
			log.Warn().Err(err).Msg("status forward failed")
		}

	case msg.Reading != nil:
		r := *msg.Reading
		if !r.Final() {
			// The early reading has no spin; the final one repeats the
			// ballistics, so only the final reading becomes a shot.
			log.Info().Int("shot_id", r.ShotID).Msg("early reading, waiting for final")
			return
		}
		resp, err := s.sim.SendShot(TelemetryFromReading(r))
		switch {
		case errors.Is(err, client.ErrNoResponse):
			log.Warn().Int("shot_id", r.ShotID).Msg("shot sent, no simulator response")
		case err != nil:
			log.Error().Err(err).Int("shot_id", r.ShotID).Msg("shot forward failed")
		case resp != nil:
			log.Info().Int("shot_id", r.ShotID).Int("code", resp.Code).Msg("shot accepted")
		}
	}
}

// TelemetryFromReading maps a final device reading onto the simulator's
// telemetry shape.
func TelemetryFromReading(r gc2wire.Reading) protocol.ShotTelemetry {
	shot := protocol.ShotTelemetry{
		Speed:       r.SpeedMPH,
		LaunchAngle: r.ElevationDeg,
		Azimuth:     r.AzimuthDeg,
		TotalSpin:   r.SpinRPM,
		BackSpin:    r.BackRPM,
		SideSpin:    r.SideRPM,
	}
	if r.HasClub {
		shot.HasClubData = true
		shot.ClubSpeed = r.ClubSpeedMPH
		shot.Path = r.HPathDeg
		shot.AttackAngle = r.VPathDeg
		shot.FaceToTarget = r.FaceToTargetDeg
	}
	return shot
}

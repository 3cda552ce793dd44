// Package relay implements the simulator side of the Open Connect
// protocol for testing: it accepts client connections, demultiplexes the
// inbound stream into messages, classifies them, and answers shots.
package relay

import (
	"encoding/json"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/observability"
	"github.com/openlaunch/gc2bridge/internal/protocol"
	"github.com/openlaunch/gc2bridge/internal/protocol/frame"
)

// Config holds the relay's listener and timing knobs.
type Config struct {
	Addr string
	// ResponseDelay simulates processing latency before a shot response
	// and exercises the client's timeout path when raised above it.
	ResponseDelay time.Duration
	// Player is attached to every accepted-shot response.
	Player protocol.Player
}

func DefaultConfig() Config {
	return Config{
		Addr:          ":921",
		ResponseDelay: 50 * time.Millisecond,
		Player:        protocol.Player{Handed: "RH", Club: "DR", DistanceToTarget: 250},
	}
}

// Stats is a snapshot of the relay's message counters.
type Stats struct {
	Shots      uint64 `json:"shots"`
	Heartbeats uint64 `json:"heartbeats"`
	Statuses   uint64 `json:"statuses"`
}

// Server accepts simulator-protocol connections and runs one session
// goroutine per connection. Counters are owned by the instance, never
// package state.
type Server struct {
	cfg Config

	mu       sync.Mutex
	listener net.Listener

	shots      atomic.Uint64
	heartbeats atomic.Uint64
	statuses   atomic.Uint64
}

func NewServer(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Addr returns the bound listener address, usable after Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stats returns the current counter snapshot.
func (s *Server) Stats() Stats {
	return Stats{
		Shots:      s.shots.Load(),
		Heartbeats: s.heartbeats.Load(),
		Statuses:   s.statuses.Load(),
	}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).
		Dur("response_delay", s.cfg.ResponseDelay).
		Msg("relay listening")

	go s.acceptLoop(ln)
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Error().Err(err).Msg("relay accept failed")
			}
			return
		}
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		go s.handle(conn)
	}
}

// handle owns one connection session: its stream buffer lives here and
// dies with the connection. A buffered partial message at teardown is
// simply pending, not an error.
func (s *Server) handle(conn net.Conn) {
	defer func() {
		conn.Close()
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client disconnected")
	}()

	var buf []byte
	read := make([]byte, 4096)

	for {
		n, err := conn.Read(read)
		if err != nil {
			return
		}
		buf = append(buf, read[:n]...)
		observability.RecordBytesRead(n)

		for len(buf) > 0 {
			span, advance, err := frame.Extract(buf)
			if errors.Is(err, frame.ErrNoObject) || errors.Is(err, frame.ErrIncomplete) {
				break
			}
			if errors.Is(err, frame.ErrDecode) {
				// Skip past the broken frame start and try again; a
				// single malformed frame never kills the session.
				observability.RecordFrameRecovery()
				idx := frame.NextStart(buf)
				if idx < 0 {
					buf = buf[:0]
					break
				}
				log.Warn().Int("discarded", idx).Msg("malformed frame, skipping to next object start")
				buf = buf[idx:]
				continue
			}

			buf = buf[advance:]
			if err := s.dispatch(conn, span); err != nil {
				return
			}
		}
	}
}

func (s *Server) dispatch(conn net.Conn, span []byte) error {
	var msg protocol.ShotMessage
	if err := json.Unmarshal(span, &msg); err != nil {
		log.Warn().Err(err).Msg("frame does not match message shape, dropped")
		return nil
	}
	if err := msg.Validate(); err != nil {
		log.Warn().Err(err).Int("shot_number", msg.ShotNumber).Msg("invalid message dropped")
		return nil
	}

	kind := msg.Kind()
	observability.RecordMessage(kind.String())

	switch kind {
	case protocol.KindHeartbeat:
		count := s.heartbeats.Add(1)
		// Heartbeats are chatty; sample the log.
		if count%10 == 1 {
			log.Info().Uint64("count", count).
				Bool("ready", msg.ShotDataOptions.LaunchMonitorIsReady).
				Msg("heartbeat")
		}
		return nil

	case protocol.KindStatus:
		count := s.statuses.Add(1)
		log.Info().Uint64("count", count).
			Bool("ready", msg.ShotDataOptions.LaunchMonitorIsReady).
			Bool("ball_detected", msg.ShotDataOptions.LaunchMonitorBallDetected).
			Msg("status update")
		return nil

	default:
		return s.respondToShot(conn, msg)
	}
}

func (s *Server) respondToShot(conn net.Conn, msg protocol.ShotMessage) error {
	start := time.Now()
	count := s.shots.Add(1)

	// Validate already guaranteed BallData for shot messages.
	ball := msg.BallData
	event := log.Info().
		Uint64("count", count).
		Int("shot_number", msg.ShotNumber).
		Float64("speed", ball.Speed).
		Float64("vla", ball.VLA).
		Float64("hla", ball.HLA).
		Float64("back_spin", ball.BackSpin).
		Float64("side_spin", ball.SideSpin).
		Float64("total_spin", ball.TotalSpin)
	if msg.ClubData != nil {
		event = event.
			Float64("club_speed", msg.ClubData.Speed).
			Float64("club_path", msg.ClubData.Path).
			Float64("club_face", msg.ClubData.FaceToTarget)
	}
	event.Msg("shot received")

	// The 3500/0 pair is the launch monitor's substitute when spin never
	// arrived; 0/0 usually means a misread.
	switch {
	case ball.BackSpin == 3500 && ball.SideSpin == 0:
		log.Warn().Msg("default spin detected (3500/0), spin data missing")
	case ball.BackSpin == 0 && ball.SideSpin == 0:
		log.Warn().Msg("zero spin detected, possible misread")
	}

	if s.cfg.ResponseDelay > 0 {
		time.Sleep(s.cfg.ResponseDelay)
	}

	player := s.cfg.Player
	payload, err := json.Marshal(protocol.Response{
		Code:    protocol.CodeShotAccepted,
		Message: "Shot received",
		Player:  &player,
	})
	if err != nil {
		return err
	}
	if _, err := conn.Write(payload); err != nil {
		log.Error().Err(err).Msg("response write failed")
		return err
	}
	observability.RecordResponse(time.Since(start))
	return nil
}

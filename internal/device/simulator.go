package device

import (
	"errors"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/gc2wire"
)

// SimulatorConfig holds the simulator's listener and timing knobs.
type SimulatorConfig struct {
	Addr        string
	ChunkSize   int
	PacketDelay time.Duration
	EarlyDelay  time.Duration
	FinalDelay  time.Duration
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Addr:        ":5555",
		ChunkSize:   DefaultChunkSize,
		PacketDelay: DefaultPacketDelay,
		EarlyDelay:  DefaultEarlyDelay,
		FinalDelay:  DefaultFinalDelay,
	}
}

// simClient serializes all message emissions onto one accepted connection.
// Holding mu across a full two-phase emission keeps status sends from
// interleaving with a shot's packet stream.
type simClient struct {
	conn net.Conn
	mu   sync.Mutex
}

// Simulator is the GC2-side TCP server: it accepts plugin connections and
// replays device transmission behavior onto them.
type Simulator struct {
	cfg SimulatorConfig

	mu       sync.Mutex
	listener net.Listener
	clients  map[*simClient]struct{}
	shotID   int
	rng      *rand.Rand
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	return &Simulator{
		cfg:     cfg,
		clients: make(map[*simClient]struct{}),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Addr returns the bound listener address, usable after Start.
func (s *Simulator) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Simulator) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	log.Info().Str("addr", ln.Addr().String()).
		Dur("packet_delay", s.cfg.PacketDelay).
		Msg("gc2 simulator listening")

	go s.acceptLoop(ln)
	return nil
}

func (s *Simulator) Stop() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	clients := make([]*simClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*simClient]struct{})
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, c := range clients {
		c.conn.Close()
	}
	return err
}

func (s *Simulator) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Error().Err(err).Msg("gc2 simulator accept failed")
			}
			return
		}

		client := &simClient{conn: conn}
		s.mu.Lock()
		s.clients[client] = struct{}{}
		s.mu.Unlock()
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

		// Register presence with the fresh client: ready, one ball staged.
		go s.sendStatusTo(client, gc2wire.Status{Flags: 7, Balls: 1, Ball1: [3]float64{198, 206, 12}})

		go s.watch(client)
	}
}

// watch drains inbound bytes so a peer close is noticed promptly. The
// device protocol is one-directional; anything received is discarded.
func (s *Simulator) watch(client *simClient) {
	buf := make([]byte, 1024)
	for {
		if _, err := client.conn.Read(buf); err != nil {
			break
		}
	}
	s.drop(client)
	log.Info().Str("remote", client.conn.RemoteAddr().String()).Msg("client disconnected")
}

func (s *Simulator) drop(client *simClient) {
	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
	client.conn.Close()
}

func (s *Simulator) snapshot() []*simClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*simClient, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	return out
}

// ClientCount reports the number of connected plugin clients.
func (s *Simulator) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// ShotID reports the last fired shot identifier.
func (s *Simulator) ShotID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shotID
}

func (s *Simulator) newChunker() *Chunker {
	return NewChunker(s.cfg.ChunkSize, s.cfg.PacketDelay)
}

// FireShot generates one shot from the named profile and emits its
// two-phase sequence to every connected client. Emissions to different
// clients run independently; no cross-connection ordering is guaranteed.
func (s *Simulator) FireShot(profile string) Shot {
	s.mu.Lock()
	s.shotID++
	shot := GenerateShot(profile, s.shotID, s.rng)
	s.mu.Unlock()

	log.Info().
		Int("shot_id", shot.ID).
		Str("profile", profile).
		Float64("speed_mph", shot.SpeedMPH).
		Float64("back_spin", shot.BackSpin).
		Float64("side_spin", shot.SideSpin).
		Msg("firing shot")

	for _, client := range s.snapshot() {
		go s.emitTo(client, shot)
	}
	return shot
}

func (s *Simulator) emitTo(client *simClient, shot Shot) {
	client.mu.Lock()
	defer client.mu.Unlock()

	seq := NewSequencer(s.newChunker())
	seq.EarlyDelay = s.cfg.EarlyDelay
	seq.FinalDelay = s.cfg.FinalDelay

	if err := seq.Emit(client.conn, shot); err != nil {
		log.Error().Err(err).Int("shot_id", shot.ID).Msg("shot emission failed")
		s.drop(client)
	}
}

// SendStatus emits a 0M device status to every connected client.
func (s *Simulator) SendStatus(ready, ballDetected bool) {
	status := gc2wire.Status{Flags: 1, Balls: 0}
	if ready {
		status.Flags = 7
	}
	if ballDetected {
		status.Balls = 1
		status.Ball1 = [3]float64{198, 206, 12}
	}
	for _, client := range s.snapshot() {
		go s.sendStatusTo(client, status)
	}
}

func (s *Simulator) sendStatusTo(client *simClient, status gc2wire.Status) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if _, err := s.newChunker().Send(client.conn, gc2wire.EncodeStatus(status)); err != nil {
		log.Error().Err(err).Msg("status emission failed")
		s.drop(client)
	}
}

package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/protocol"
)

var (
	ErrNotConnected = errors.New("client: not connected")
	// ErrNoResponse means the simulator sent nothing within the exchange
	// timeout. The connection stays open; the caller may retry.
	ErrNoResponse = errors.New("client: no response within timeout")
	// ErrBadResponse means a response arrived but failed to decode. The
	// connection stays open; the response is dropped.
	ErrBadResponse = errors.New("client: malformed response")
)

// Token identifies one registered observer for later removal.
type Token uint64

const readBufferSize = 4096

// Client owns one outbound simulator connection. All exchanges on it are
// serialized: a second send never starts while one awaits its response.
type Client struct {
	cfg Config

	mu         sync.Mutex
	conn       net.Conn
	connected  bool
	shotNumber int
	player     *protocol.Player

	obsMu        sync.Mutex
	nextToken    Token
	respOrder    []Token
	respHandlers map[Token]func(protocol.Response)
	discOrder    []Token
	discHandlers map[Token]func()
}

func New(cfg Config) *Client {
	return &Client{
		cfg:          cfg,
		respHandlers: make(map[Token]func(protocol.Response)),
		discHandlers: make(map[Token]func()),
	}
}

// IsConnected reports the connection state.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ShotNumber reports the current session sequence number.
func (c *Client) ShotNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shotNumber
}

// CurrentPlayer returns the player context cached from the last accepted
// shot response, if any.
func (c *Client) CurrentPlayer() (protocol.Player, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		return protocol.Player{}, false
	}
	return *c.player, true
}

// OnResponse registers a response observer, invoked in registration order.
func (c *Client) OnResponse(fn func(protocol.Response)) Token {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.nextToken++
	tok := c.nextToken
	c.respOrder = append(c.respOrder, tok)
	c.respHandlers[tok] = fn
	return tok
}

// RemoveResponseObserver unregisters by token. Unknown tokens are ignored.
func (c *Client) RemoveResponseObserver(tok Token) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	delete(c.respHandlers, tok)
	c.respOrder = removeToken(c.respOrder, tok)
}

// OnDisconnect registers a disconnect observer, invoked exactly once per
// connected->disconnected transition.
func (c *Client) OnDisconnect(fn func()) Token {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.nextToken++
	tok := c.nextToken
	c.discOrder = append(c.discOrder, tok)
	c.discHandlers[tok] = fn
	return tok
}

// RemoveDisconnectObserver unregisters by token. Unknown tokens are ignored.
func (c *Client) RemoveDisconnectObserver(tok Token) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	delete(c.discHandlers, tok)
	c.discOrder = removeToken(c.discOrder, tok)
}

func removeToken(order []Token, tok Token) []Token {
	for i, t := range order {
		if t == tok {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// Connect opens the connection, disables send coalescing, and registers
// presence with one heartbeat. It never retries internally.
func (c *Client) Connect() error {
	c.mu.Lock()

	if c.connected {
		c.mu.Unlock()
		return nil
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, c.cfg.DialTimeout)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("client: connect %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// Latency beats throughput here; a shot must leave immediately.
		tcp.SetNoDelay(true)
	}

	c.conn = conn
	c.connected = true
	log.Info().Str("addr", addr).Msg("connected to simulator")

	// The simulator never answers heartbeats; this only registers presence.
	_, err = c.exchangeLocked(protocol.NewHeartbeat(c.shotNumber), false)
	dropped := !c.connected
	c.mu.Unlock()

	if dropped {
		c.notifyDisconnect()
		return fmt.Errorf("client: initial heartbeat: %w", err)
	}
	return nil
}

// Close tears the connection down without notifying disconnect observers;
// those fire only on transport failure.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// SendShot increments the session sequence number, sends the shot, and
// waits for the simulator's response.
func (c *Client) SendShot(shot protocol.ShotTelemetry) (*protocol.Response, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.shotNumber++
	msg := protocol.NewShot(c.shotNumber, shot)

	resp, err := c.exchangeLocked(msg, true)
	dropped := !c.connected
	c.mu.Unlock()

	if resp != nil {
		c.notifyResponse(*resp)
	}
	if dropped {
		c.notifyDisconnect()
	}
	return resp, err
}

// SendHeartbeat sends a keep-alive. No response is expected.
func (c *Client) SendHeartbeat() error {
	return c.sendFireAndForget(func(shotNumber int) protocol.ShotMessage {
		return protocol.NewHeartbeat(shotNumber)
	})
}

// SendStatus conveys device readiness. No response is expected.
func (c *Client) SendStatus(status protocol.BallStatus) error {
	return c.sendFireAndForget(func(shotNumber int) protocol.ShotMessage {
		return protocol.NewStatus(shotNumber, status)
	})
}

func (c *Client) sendFireAndForget(build func(int) protocol.ShotMessage) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	_, err := c.exchangeLocked(build(c.shotNumber), false)
	dropped := !c.connected
	c.mu.Unlock()

	if dropped {
		c.notifyDisconnect()
	}
	return err
}

// exchangeLocked runs one drain-send-read exchange. Callers hold c.mu.
// On transport failure it marks the client disconnected; the caller is
// responsible for firing disconnect observers after releasing the lock.
func (c *Client) exchangeLocked(msg protocol.ShotMessage, expectResponse bool) (*protocol.Response, error) {
	if err := c.drainStale(); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("client: drain: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("client: encode: %w", err)
	}

	// One write for the whole payload; the receiver may still see it
	// concatenated with neighbors and demultiplexes by framing.
	if _, err := c.conn.Write(payload); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("client: send: %w", err)
	}
	log.Debug().Int("bytes", len(payload)).Str("kind", msg.Kind().String()).Msg("message sent")

	if !expectResponse {
		return nil, nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ExchangeTimeout)); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("client: arm read deadline: %w", err)
	}
	buf := make([]byte, readBufferSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			// Non-fatal: the simulator may be slow, or a stray response
			// raced a message type that has none.
			log.Warn().Msg("timeout waiting for simulator response")
			return nil, ErrNoResponse
		}
		c.dropLocked()
		return nil, fmt.Errorf("client: receive: %w", err)
	}

	// Decode only the first object; responses are small and sent
	// atomically, so no cross-read reassembly is needed here.
	var resp protocol.Response
	dec := json.NewDecoder(bytes.NewReader(buf[:n]))
	if err := dec.Decode(&resp); err != nil {
		log.Error().Err(err).Msg("response failed to decode")
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	if resp.Accepted() && resp.Player != nil {
		player := *resp.Player
		c.player = &player
		log.Info().Str("handed", player.Handed).Str("club", player.Club).
			Float64("distance", player.DistanceToTarget).Msg("player context updated")
	}
	return &resp, nil
}

// drainStale discards whatever is already buffered on the connection so a
// leftover response from an abandoned exchange cannot be misattributed to
// this one. Blocking mode is restored afterward.
func (c *Client) drainStale() error {
	if err := c.conn.SetReadDeadline(time.Now()); err != nil {
		return err
	}
	defer c.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, readBufferSize)
	drained := 0
	for {
		n, err := c.conn.Read(buf)
		drained += n
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}
			return err
		}
	}
	if drained > 0 {
		log.Debug().Int("bytes", drained).Msg("cleared stale buffer data")
	}
	return nil
}

// dropLocked marks the connection dead after a transport failure.
// Callers hold c.mu and fire disconnect observers after unlocking.
func (c *Client) dropLocked() {
	if !c.connected {
		return
	}
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	log.Error().Msg("simulator connection lost")
}

func (c *Client) notifyResponse(resp protocol.Response) {
	c.obsMu.Lock()
	handlers := make([]func(protocol.Response), 0, len(c.respOrder))
	for _, tok := range c.respOrder {
		if fn, ok := c.respHandlers[tok]; ok {
			handlers = append(handlers, fn)
		}
	}
	c.obsMu.Unlock()

	for _, fn := range handlers {
		invokeResponseObserver(fn, resp)
	}
}

func (c *Client) notifyDisconnect() {
	c.obsMu.Lock()
	handlers := make([]func(), 0, len(c.discOrder))
	for _, tok := range c.discOrder {
		if fn, ok := c.discHandlers[tok]; ok {
			handlers = append(handlers, fn)
		}
	}
	c.obsMu.Unlock()

	for _, fn := range handlers {
		invokeDisconnectObserver(fn)
	}
}

// Observer failures are isolated per handler so one faulty observer
// cannot break the others or the client.
func invokeResponseObserver(fn func(protocol.Response), resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("response observer panicked")
		}
	}()
	fn(resp)
}

func invokeDisconnectObserver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("disconnect observer panicked")
		}
	}()
	fn()
}

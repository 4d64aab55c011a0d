// Package transport maintains the WebSocket connection to the assistant.
//
// The bridge is the connecting side: it dials a fixed local endpoint,
// reconnects with bounded exponential backoff, and queues outbound frames
// while disconnected. Queued frames are flushed in FIFO order on reconnect,
// before anything submitted afterwards. Keep-alive pings run while the
// connection is open; missed pongs are informational, the peer's close is
// the failure signal.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/monitoring"
	"github.com/pagelens/pagelens/internal/shared/wire"
)

// State is the connection state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Observers is the typed observer set for connection events. All callbacks
// run on transport goroutines and must not block.
type Observers struct {
	OnConnected    func()
	OnDisconnected func(reason error)
	OnMessage      func(frame []byte)
	OnError        func(err *wire.Error)
}

// Client is the reconnecting WebSocket client.
type Client struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	obs     Observers
	limiter *errLimiter
	pending *queue

	mu      sync.Mutex // guards cfg, conn, running, stop
	cfg     config.TransportConfig
	conn    *websocket.Conn
	running bool
	stop    chan struct{}

	// writeMu serialises all socket writes, including the reconnect
	// flush, so queued frames always precede post-reconnect sends.
	writeMu sync.Mutex

	state atomic.Int32
	wg    sync.WaitGroup
}

// NewClient builds a client for the configured endpoint. Connect starts it.
func NewClient(cfg config.TransportConfig, log *logging.Logger, metrics *monitoring.Metrics, obs Observers) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	return &Client{
		log:     log,
		metrics: metrics,
		obs:     obs,
		limiter: newErrLimiter(),
		pending: newQueue(cfg.QueueCapacity),
		cfg:     cfg,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// QueueDepth returns the number of frames awaiting delivery.
func (c *Client) QueueDepth() int {
	return c.pending.len()
}

// Endpoint returns the peer URL currently in effect.
func (c *Client) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.URL()
}

// SetEndpoint overrides the peer endpoint. The change takes effect on the
// next connection attempt.
func (c *Client) SetEndpoint(host string, port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if host != "" {
		c.cfg.Host = host
	}
	if port > 0 {
		c.cfg.Port = port
	}
}

// Connect starts the connection manager. It is idempotent while running;
// after Disconnect or attempt exhaustion it starts a fresh attempt series.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
}

// Disconnect closes the connection and disables reconnection until the
// next Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		c.state.Store(int32(StateClosed))
		return
	}
	c.running = false
	close(c.stop)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		conn.Close()
	}
	c.wg.Wait()
	c.state.Store(int32(StateClosed))
}

// Send serialises a frame and emits it when open, or queues it otherwise.
// Send never fails because the peer is away; only a frame that cannot be
// serialised is an error.
func (c *Client) Send(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sendRaw(raw)
	return nil
}

func (c *Client) sendRaw(raw []byte) {
	c.writeMu.Lock()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil || c.State() != StateOpen {
		c.writeMu.Unlock()
		c.enqueue(raw)
		return
	}

	err := conn.WriteMessage(websocket.TextMessage, raw)
	c.writeMu.Unlock()

	if err != nil {
		// The read loop notices the broken socket; the frame survives
		// in the queue for the next epoch.
		c.enqueue(raw)
		return
	}
	if c.metrics != nil {
		c.metrics.RecordSent()
	}
}

func (c *Client) enqueue(raw []byte) {
	if c.pending.push(raw) {
		c.log.Warn("offline queue full, dropped oldest frame")
		if c.metrics != nil {
			c.metrics.RecordQueueDrop()
		}
	}
	if c.metrics != nil {
		c.metrics.RecordQueueDepth(c.pending.len())
	}
}

// run is the connection manager loop: dial, serve, back off, repeat.
func (c *Client) run() {
	defer c.wg.Done()

	attempt := 0
	for {
		if c.stopped() {
			return
		}
		c.state.Store(int32(StateConnecting))

		conn, err := c.dial()
		if err != nil {
			attempt++
			if c.metrics != nil {
				c.metrics.RecordReconnect()
			}
			c.reportDialError(err, attempt)

			limit := c.maxAttempts()
			if limit > 0 && attempt >= limit {
				c.emitError(wire.NewError(wire.CodeConnectionFailed))
				c.log.Error("giving up after consecutive connection failures",
					zap.Int("attempts", attempt))
				c.state.Store(int32(StateIdle))
				c.mu.Lock()
				c.running = false
				c.mu.Unlock()
				return
			}

			if !c.sleep(c.backoff(attempt)) {
				return
			}
			continue
		}

		attempt = 0
		c.serve(conn)
	}
}

func (c *Client) stopped() bool {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()
	select {
	case <-stop:
		c.state.Store(int32(StateClosed))
		return true
	default:
		return false
	}
}

// sleep waits out a backoff delay, returning false when stopped.
func (c *Client) sleep(d time.Duration) bool {
	c.mu.Lock()
	stop := c.stop
	c.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-stop:
		c.state.Store(int32(StateClosed))
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) dial() (*websocket.Conn, error) {
	c.mu.Lock()
	url := c.cfg.URL()
	timeout := c.cfg.ConnectTimeout
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, _, err := dialer.DialContext(ctx, url, nil)
	return conn, err
}

func (c *Client) maxAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.MaxAttempts
}

// backoff computes delay_n = min(base * 2^(n-1), max).
func (c *Client) backoff(attempt int) time.Duration {
	c.mu.Lock()
	base, ceiling := c.cfg.ReconnectBase, c.cfg.ReconnectMax
	c.mu.Unlock()

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// serve owns one open connection: it flushes the queue, runs keep-alive,
// and reads frames until the socket dies.
func (c *Client) serve(conn *websocket.Conn) {
	c.writeMu.Lock()
	c.mu.Lock()
	c.conn = conn
	keepalive := c.cfg.KeepaliveInterval
	c.mu.Unlock()
	c.state.Store(int32(StateOpen))
	c.flushLocked(conn)
	c.writeMu.Unlock()

	c.log.Info("connected", zap.String("endpoint", conn.RemoteAddr().String()))
	if c.metrics != nil {
		c.metrics.RecordConnected(true)
	}
	if c.obs.OnConnected != nil {
		c.obs.OnConnected()
	}

	done := make(chan struct{})
	go c.keepalive(conn, keepalive, done)

	var reason error
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			reason = err
			break
		}
		if c.metrics != nil {
			c.metrics.RecordReceived()
		}
		if c.handleControl(conn, raw) {
			continue
		}
		if c.obs.OnMessage != nil {
			c.obs.OnMessage(raw)
		}
	}

	close(done)
	conn.Close()
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()

	c.log.Info("disconnected", zap.Error(reason))
	if c.metrics != nil {
		c.metrics.RecordConnected(false)
	}
	if c.obs.OnDisconnected != nil {
		c.obs.OnDisconnected(reason)
	}
}

// flushLocked drains the offline queue onto the new connection. Caller
// holds writeMu.
func (c *Client) flushLocked(conn *websocket.Conn) {
	frames := c.pending.drain()
	for i, raw := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			// Requeue what did not make it; the next epoch retries.
			for _, rest := range frames[i:] {
				c.pending.push(rest)
			}
			break
		}
		if c.metrics != nil {
			c.metrics.RecordSent()
		}
	}
	if c.metrics != nil {
		c.metrics.RecordQueueDepth(c.pending.len())
	}
}

// keepalive sends a ping frame every interval while the connection lives.
func (c *Client) keepalive(conn *websocket.Conn, interval time.Duration, done chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ping := wire.Ping{Type: wire.TypePing, Timestamp: wire.Now()}
			raw, err := json.Marshal(ping)
			if err != nil {
				return
			}
			c.writeMu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, raw)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleControl consumes keep-alive frames: inbound pings are answered
// with a pong, inbound pongs are informational only. A ping carrying a
// requestId is a correlated request and passes through to the dispatcher.
func (c *Client) handleControl(conn *websocket.Conn, raw []byte) bool {
	var frame struct {
		Type      string `json:"type"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return false
	}
	switch frame.Type {
	case wire.TypePing:
		if frame.RequestID != "" {
			return false
		}
		pong, err := json.Marshal(wire.Ping{Type: wire.TypePong, Timestamp: wire.Now()})
		if err != nil {
			return true
		}
		c.writeMu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, pong)
		c.writeMu.Unlock()
		return true
	case wire.TypePong:
		c.log.Debug("keepalive pong")
		return true
	default:
		return false
	}
}

// reportDialError surfaces a dial failure through the limiter.
func (c *Client) reportDialError(err error, attempt int) {
	c.log.Warn("connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))

	code := wire.CodeConnectionTimeout
	var netErr net.Error
	if !errors.Is(err, context.DeadlineExceeded) && !(errors.As(err, &netErr) && netErr.Timeout()) {
		code = wire.CodeConnectionFailed
	}
	if c.limiter.allow(string(code)) {
		c.emitError(wire.NewError(code))
	}
}

func (c *Client) emitError(err *wire.Error) {
	if c.obs.OnError != nil {
		c.obs.OnError(err)
	}
}

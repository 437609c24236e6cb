// Package stream maintains the live analysis connection to the
// Dev/Planet backend: one websocket per user, heartbeats, bounded
// reconnection and typed inbound dispatch.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"devplanet/internal/protocol"
	"devplanet/internal/slogutil"
)

// StreamPath is the backend's websocket mount point; the user id is
// appended as the final path segment.
const StreamPath = "/stream/ws/"

// DefaultHeartbeat is the heartbeat period once connected.
const DefaultHeartbeat = 30 * time.Second

// Handlers receives inbound frames and lifecycle events. Nil fields are
// skipped. Handlers run on the read goroutine; they must not block.
type Handlers struct {
	OnConnected      func(protocol.Connected)
	OnAnalysisResult func(protocol.AnalysisResult)
	OnAchievement    func(protocol.AchievementUnlocked)
	OnEvolution      func(protocol.PlanetEvolution)
	OnSessionStarted func(protocol.SessionStarted)
	OnSessionEnded   func(protocol.SessionEnded)
	OnStats          func(protocol.SessionStatsUpdate)
	OnStateChange    func(State)
	OnError          func(error)
	OnMaxAttempts    func()
}

// Options configures a Client.
type Options struct {
	// BaseURL is the websocket endpoint, e.g. ws://localhost:8000.
	BaseURL string

	// Heartbeat overrides the heartbeat period. Defaults to 30s.
	Heartbeat time.Duration

	// Retry overrides the reconnect policy.
	Retry RetryPolicy

	// Handlers receives inbound frames and lifecycle events.
	Handlers Handlers

	// Logger defaults to a discard logger when nil.
	Logger *slog.Logger
}

// Client owns at most one live connection to the analysis stream.
// All transport failures surface through state + handlers, never panics.
type Client struct {
	baseURL   string
	heartbeat time.Duration
	retry     RetryPolicy
	handlers  Handlers
	logger    *slog.Logger
	dialer    *websocket.Dialer

	mu            sync.Mutex
	conn          *websocket.Conn
	state         State
	userID        string
	gen           int // connection generation; invalidates stale loops
	attempts      int
	closed        bool // explicit Disconnect suppresses reconnection
	quit          chan struct{}
	reconnectQuit chan struct{}
}

// New creates a stream client. It does not dial.
func New(opts Options) *Client {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	if opts.Retry.MaxAttempts == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = slogutil.NewDiscardLogger()
	}
	return &Client{
		baseURL:   opts.BaseURL,
		heartbeat: opts.Heartbeat,
		retry:     opts.Retry,
		handlers:  opts.Handlers,
		logger:    opts.Logger,
		dialer:    websocket.DefaultDialer,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether frames can currently be sent.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// UserID returns the id the connection is scoped to.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Connect opens the connection scoped to userID. A no-op when a
// connection is already open or being opened.
func (c *Client) Connect(ctx context.Context, userID string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.userID = userID
	c.closed = false
	dialGen := c.gen
	c.mu.Unlock()
	c.notifyState(StateConnecting)

	conn, resp, err := c.dialer.DialContext(ctx, c.baseURL+StreamPath+userID, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		if c.state == StateConnecting && c.gen == dialGen {
			c.state = StateDisconnected
			c.mu.Unlock()
			c.notifyState(StateDisconnected)
		} else {
			c.mu.Unlock()
		}
		return fmt.Errorf("dial analysis stream: %w", err)
	}

	c.mu.Lock()
	// Disconnect (or a newer Connect) may have run while the dial was
	// in flight. The fresh connection must not be installed then: it
	// would heartbeat after an explicit teardown.
	if c.closed || c.state != StateConnecting || c.gen != dialGen {
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.gen++
	gen := c.gen
	quit := make(chan struct{})
	c.quit = quit
	c.mu.Unlock()
	c.notifyState(StateConnected)

	c.logger.Info("analysis stream connected", "user", userID)

	go c.readLoop(gen, conn)
	go c.heartbeatLoop(gen, quit)

	return nil
}

// Disconnect closes the connection and suppresses reconnection.
// Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	if c.reconnectQuit != nil {
		close(c.reconnectQuit)
		c.reconnectQuit = nil
	}
	if c.conn == nil && c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.gen++ // invalidate read and heartbeat loops
	if c.quit != nil {
		close(c.quit)
		c.quit = nil
	}
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"), deadline)
		_ = conn.Close()
	}
	c.notifyState(StateDisconnected)
	c.logger.Info("analysis stream disconnected")
}

// Send transmits a frame if and only if the state is Connected.
// Otherwise it logs a warning and returns ErrNotConnected without
// queueing: stale queued frames would corrupt session semantics.
func (c *Client) Send(f protocol.Outbound) error {
	c.mu.Lock()
	if c.state != StateConnected || c.conn == nil {
		c.mu.Unlock()
		c.logger.Warn("dropping frame, stream not connected", "frame", f.FrameType())
		return ErrNotConnected
	}
	gen := c.gen
	err := c.conn.WriteJSON(f)
	c.mu.Unlock()

	if err != nil {
		werr := fmt.Errorf("write %s frame: %w", f.FrameType(), err)
		c.handleDisconnect(gen, werr)
		return werr
	}
	return nil
}

// readLoop consumes inbound frames in arrival order until the
// connection dies. Malformed frames are dropped, not fatal.
func (c *Client) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(gen, fmt.Errorf("read frame: %w", err))
			return
		}

		frame, derr := protocol.Decode(data)
		if derr != nil {
			c.logger.Warn("dropping malformed frame", "error", derr)
			continue
		}
		c.dispatch(frame)
	}
}

// dispatch routes one inbound frame to its handler.
func (c *Client) dispatch(frame protocol.Inbound) {
	switch f := frame.(type) {
	case protocol.Connected:
		if h := c.handlers.OnConnected; h != nil {
			h(f)
		}
	case protocol.HeartbeatAck:
		// Liveness only; nothing to update.
	case protocol.AnalysisResult:
		if h := c.handlers.OnAnalysisResult; h != nil {
			h(f)
		}
	case protocol.AchievementUnlocked:
		if h := c.handlers.OnAchievement; h != nil {
			h(f)
		}
	case protocol.PlanetEvolution:
		if h := c.handlers.OnEvolution; h != nil {
			h(f)
		}
	case protocol.SessionStarted:
		if h := c.handlers.OnSessionStarted; h != nil {
			h(f)
		}
	case protocol.SessionEnded:
		if h := c.handlers.OnSessionEnded; h != nil {
			h(f)
		}
	case protocol.SessionStatsUpdate:
		if h := c.handlers.OnStats; h != nil {
			h(f)
		}
	case protocol.ErrorFrame:
		c.logger.Warn("server reported error", "message", f.Message)
		if h := c.handlers.OnError; h != nil {
			h(fmt.Errorf("server error: %s", f.Message))
		}
	case protocol.Unknown:
		c.logger.Debug("dropping unknown frame", "type", f.Type)
	}
}

// heartbeatLoop emits a heartbeat immediately and then on a fixed
// period for as long as this connection generation is live.
func (c *Client) heartbeatLoop(gen int, quit chan struct{}) {
	if !c.beat(gen) {
		return
	}
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if !c.beat(gen) {
				return
			}
		}
	}
}

// beat sends one heartbeat if this generation still owns the live
// connection. Returns false when the loop should stop.
func (c *Client) beat(gen int) bool {
	c.mu.Lock()
	if gen != c.gen || c.state != StateConnected || c.conn == nil {
		c.mu.Unlock()
		return false
	}
	err := c.conn.WriteJSON(protocol.NewHeartbeat(time.Now()))
	c.mu.Unlock()

	if err != nil {
		c.handleDisconnect(gen, fmt.Errorf("write heartbeat: %w", err))
		return false
	}
	return true
}

// handleDisconnect reacts to an unexpected connection loss. Stale
// generations (already replaced or explicitly closed) are ignored.
func (c *Client) handleDisconnect(gen int, cause error) {
	c.mu.Lock()
	if gen != c.gen || c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	if c.quit != nil {
		close(c.quit)
		c.quit = nil
	}
	closed := c.closed
	userID := c.userID
	c.mu.Unlock()

	c.notifyState(StateDisconnected)
	if h := c.handlers.OnError; h != nil && cause != nil {
		h(cause)
	}
	if closed {
		return
	}

	go c.reconnectLoop(userID)
}

// reconnectLoop retries with exponential backoff until a connect
// succeeds, the attempt budget is exhausted, or Disconnect intervenes.
func (c *Client) reconnectLoop(userID string) {
	quit := make(chan struct{})

	c.mu.Lock()
	if c.closed || c.state != StateDisconnected || c.reconnectQuit != nil {
		c.mu.Unlock()
		return
	}
	c.reconnectQuit = quit
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.reconnectQuit == quit {
			c.reconnectQuit = nil
		}
		c.mu.Unlock()
	}()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.attempts++
		attempt := c.attempts
		c.mu.Unlock()

		if c.retry.Exhausted(attempt) {
			c.logger.Error("analysis stream unreachable, giving up",
				"attempts", attempt-1)
			if h := c.handlers.OnError; h != nil {
				h(ErrMaxAttemptsReached)
			}
			if h := c.handlers.OnMaxAttempts; h != nil {
				h()
			}
			return
		}

		delay := c.retry.Delay(attempt)
		c.logger.Warn("analysis stream lost, reconnecting",
			"attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-quit:
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := c.Connect(context.Background(), userID); err == nil {
			return
		}
	}
}

func (c *Client) notifyState(s State) {
	if h := c.handlers.OnStateChange; h != nil {
		h(s)
	}
}

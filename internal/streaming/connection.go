package streaming

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/gridironlab/playbook/pkg/streaming"
)

const (
	sendChSize   = 1024
	ackChSize    = 16
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
	ackTimeout   = 10 * time.Second
)

// connection manages a WebSocket connection with a single write goroutine.
type connection struct {
	mu           sync.Mutex
	conn         *ws.Conn
	sendCh       chan []byte
	ackCh        chan streaming.AckMessage
	done         chan struct{} // closed on shutdown
	closed       bool
	reconnecting bool
	dropped      int

	wsURL  string
	secret string

	// last load_play message per session, replayed after a reconnect
	cachedLoads map[string][]byte

	baseBackoff time.Duration
	logger      *slog.Logger
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		sendCh:      make(chan []byte, sendChSize),
		ackCh:       make(chan streaming.AckMessage, ackChSize),
		done:        make(chan struct{}),
		cachedLoads: make(map[string][]byte),
		baseBackoff: time.Second,
		logger:      logger,
	}
}

// dial connects to the WebSocket server and starts read/write loops.
func (c *connection) dial(rawURL, secret string) error {
	c.wsURL = rawURL
	c.secret = secret

	conn, err := c.dialOnce()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.writeLoop(conn)
	go c.readLoop(conn)
	return nil
}

// dialOnce performs a single WebSocket dial with the secret query param.
func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if c.secret != "" {
		q := u.Query()
		q.Set("secret", c.secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// writeLoop drains sendCh and writes messages to conn.
// Only one writeLoop runs at a time; it returns on error or shutdown.
func (c *connection) writeLoop(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
				go c.reconnect(conn)
				return
			}
			if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				go c.reconnect(conn)
				return
			}
		}
	}
}

// readLoop reads ack messages from the renderer and routes them to ackCh.
func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("WebSocket read error", "error", err)
			go c.reconnect(conn)
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil {
			c.logger.Debug("Non-ack message received", "raw", string(message))
			continue
		}

		if ack.Type == streaming.TypeAck {
			select {
			case c.ackCh <- ack:
			default:
				c.logger.Debug("Ack channel full, dropping", "for", ack.For)
			}
		}
	}
}

// reconnect re-establishes the WebSocket connection with exponential
// backoff once failed has broken. Both loops report the same failure, so
// only the first caller for the current connection proceeds. On success it
// replays the cached load_play messages and restarts the loops.
func (c *connection) reconnect(failed *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.reconnecting || c.conn != failed {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	backoff := c.baseBackoff
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		c.logger.Info("Reconnecting to WebSocket", "attempt", attempt, "backoff", backoff)
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		replay := make([][]byte, 0, len(c.cachedLoads))
		for _, msg := range c.cachedLoads {
			replay = append(replay, msg)
		}
		c.conn = conn
		c.mu.Unlock()

		if err := replayAll(conn, replay); err != nil {
			c.logger.Warn("Failed to replay load_play after reconnect", "error", err)
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			_ = conn.Close()
			continue
		}

		c.logger.Info("WebSocket reconnected", "attempt", attempt)
		go c.writeLoop(conn)
		go c.readLoop(conn)
		return
	}

	c.logger.Error("WebSocket reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

func replayAll(conn *ws.Conn, msgs [][]byte) error {
	for _, msg := range msgs {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		if err := conn.WriteMessage(ws.TextMessage, msg); err != nil {
			return err
		}
	}
	return nil
}

// cacheLoad remembers the load_play message of a session for replay
func (c *connection) cacheLoad(session string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data == nil {
		delete(c.cachedLoads, session)
		return
	}
	c.cachedLoads[session] = data
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (c *connection) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		c.logger.Warn("WebSocket send channel full, dropping message")
	}
}

// sendAndWait sends data and blocks until the renderer acknowledges with a
// matching ack message or the timeout expires.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
			// Not our ack, keep waiting.
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// droppedCount returns how many messages were dropped on a full send queue
func (c *connection) droppedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// close sends a WebSocket close frame and shuts down all goroutines.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		return conn.Close()
	}
	return nil
}

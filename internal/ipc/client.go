// Package ipc implements the compositor IPC client (line-delimited JSON
// over a Unix domain socket, per SPEC_FULL §4.B) and its companion local
// IPC server for external tooling (§6).
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waypanel/waypanel/internal/compositor"
)

// socketEnvVars lists the compositor-specific environment variables
// probed in order, per SPEC_FULL §4.B.
var socketEnvVars = []string{"WAYFIRE_SOCKET", "SWAYSOCK"}

// defaultRequestTimeout is the default per-request deadline call always
// applies on top of the caller's context; a shorter deadline already on
// that context still wins, per spec.md:101 ("each request carries a
// timeout (default 10 s)").
const defaultRequestTimeout = 10 * time.Second

// EventHandler receives unsolicited compositor events.
type EventHandler func(compositor.Event)

// Client is a reconnecting line-delimited-JSON client over the
// compositor's Unix socket. It satisfies core.IPCAccessor.
type Client struct {
	logger   *slog.Logger
	envVar   string
	sockPath string

	health *healthTracker

	requestTimeout time.Duration

	mu       sync.Mutex
	conn     net.Conn
	writer   *bufio.Writer
	pending  map[string]chan compositor.Response
	handlers []EventHandler

	commandsMu sync.RWMutex
	commands   map[string]compositor.CommandHandler

	onConnect    func()
	onDisconnect func()
}

// NewClient resolves the compositor socket path from the environment and
// returns a Client not yet connected; call Run to start the
// connect/reconnect loop.
func NewClient(logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, name := range socketEnvVars {
		if path := os.Getenv(name); path != "" {
			return &Client{
				logger:         logger.With("component", "ipc-client", "env", name),
				envVar:         name,
				sockPath:       path,
				health:         newHealthTracker(defaultBackoffConfig()),
				requestTimeout: defaultRequestTimeout,
				pending:        make(map[string]chan compositor.Response),
				commands:       make(map[string]compositor.CommandHandler),
			}, nil
		}
	}
	return nil, ErrNoSocket
}

// SetRequestTimeout overrides the default per-request deadline applied
// in call. It must be called before Run starts issuing requests
// concurrently with other callers.
func (c *Client) SetRequestTimeout(d time.Duration) { c.requestTimeout = d }

// OnConnect/OnDisconnect register lifecycle callbacks the Host
// Application uses to publish compositor-connected /
// compositor-disconnected events (§8 scenario 4).
func (c *Client) OnConnect(fn func())    { c.onConnect = fn }
func (c *Client) OnDisconnect(fn func()) { c.onDisconnect = fn }

// Run drives the connect/reconnect loop until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if !c.health.IsAvailable() {
			wait := c.health.NextBackoff()
			if wait <= 0 {
				wait = 200 * time.Millisecond
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		conn, err := net.Dial("unix", c.sockPath)
		if err != nil {
			c.logger.Warn("connect failed", "error", err)
			c.health.RecordFailure()
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.writer = bufio.NewWriter(conn)
		c.mu.Unlock()
		c.health.RecordSuccess()
		c.logger.Info("connected to compositor", "socket", c.sockPath)
		if c.onConnect != nil {
			c.onConnect()
		}

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.writer = nil
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		c.health.RecordFailure()
		c.logger.Warn("disconnected from compositor", "socket", c.sockPath)
		if c.onDisconnect != nil {
			c.onDisconnect()
		}
	}
}

// readLoop consumes line-delimited JSON until the connection closes,
// dispatching responses by correlation ID and events to every registered
// handler.
func (c *Client) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()

		var probe struct {
			ID    string `json:"id"`
			Event string `json:"event"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			c.logger.Warn("malformed compositor message", "error", err)
			continue
		}

		if probe.ID != "" {
			var resp compositor.Response
			if err := json.Unmarshal(line, &resp); err != nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[resp.ID]
			if ok {
				delete(c.pending, resp.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- resp
				close(ch)
			}
			continue
		}

		if probe.Event != "" {
			var ev compositor.Event
			if err := json.Unmarshal(line, &ev); err != nil {
				continue
			}
			ev.Timestamp = time.Now()
			c.mu.Lock()
			handlers := append([]EventHandler(nil), c.handlers...)
			c.mu.Unlock()
			for _, h := range handlers {
				h(ev)
			}
		}
	}
}

// Watch registers a handler for every unsolicited compositor event.
func (c *Client) Watch(handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// call sends a request and blocks for its correlated response, bounded
// by ctx. ctx is wrapped with requestTimeout (default 10s per
// spec.md:101) so a caller that never sets its own deadline still gets
// one; a caller-supplied deadline shorter than requestTimeout still
// wins. Every call produces exactly one terminal outcome as required by
// §8: a result, a protocol/RPC error, a timeout, or ErrDisconnected.
func (c *Client) call(ctx context.Context, method string, data any) (json.RawMessage, error) {
	timeout := c.requestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrDisconnected
	}

	raw, err := json.Marshal(data)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: encoding request: %v", ErrProtocol, err)
	}
	req := compositor.Request{ID: uuid.NewString(), Method: method, Data: raw}
	reqBytes, err := json.Marshal(req)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: encoding envelope: %v", ErrProtocol, err)
	}

	ch := make(chan compositor.Response, 1)
	c.pending[req.ID] = ch
	writer := c.writer
	c.mu.Unlock()

	if _, err := writer.Write(reqBytes); err != nil {
		return nil, fmt.Errorf("%w: writing request: %v", ErrDisconnected, err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return nil, fmt.Errorf("%w: writing request: %v", ErrDisconnected, err)
	}
	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("%w: flushing request: %v", ErrDisconnected, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrDisconnected
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrProtocol, resp.Error)
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return nil, ErrTimeout
	}
}

func decodeInto[T any](raw json.RawMessage, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if unmarshalErr := json.Unmarshal(raw, &out); unmarshalErr != nil {
		return out, fmt.Errorf("%w: decoding result: %v", ErrProtocol, unmarshalErr)
	}
	return out, nil
}

// Package mpv talks to a running mpv over its JSON IPC socket.
//
// Start mpv with --input-ipc-server=/tmp/mpvsocket. One persistent
// connection carries both request/response traffic, correlated by
// request_id, and the event stream.
package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"skipintro/internal/logging"
	"skipintro/internal/player"
)

var (
	// ErrPropertyUnavailable reports a property mpv has no value for, for
	// example time-pos while nothing is loaded.
	ErrPropertyUnavailable = errors.New("mpv property unavailable")
	// ErrClosed reports use of a closed client or a lost connection.
	ErrClosed = errors.New("mpv connection closed")
)

const (
	defaultCommandTimeout = time.Second
	propertyAttempts      = 3
	propertyRetryDelay    = 100 * time.Millisecond
	eventBuffer           = 256
	maxLineSize           = 4 << 20

	timePosObserverID = 1
)

// Options configure a Client.
type Options struct {
	CommandTimeout time.Duration
	Logger         *slog.Logger
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type message struct {
	Event     string          `json:"event"`
	RequestID *int64          `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	Args      []string        `json:"args"`
}

// Client is a connection to one mpv instance.
type Client struct {
	socketPath string
	conn       net.Conn
	timeout    time.Duration
	logger     *slog.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan message

	subsMu  sync.Mutex
	subs    map[int]chan []string
	nextSub int

	events    chan player.Event
	closed    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the mpv socket at socketPath and starts observing the
// playback position.
func Dial(ctx context.Context, socketPath string, opts Options) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to mpv at %s: %w", socketPath, err)
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	c := &Client{
		socketPath: socketPath,
		conn:       conn,
		timeout:    opts.CommandTimeout,
		logger:     logging.NewComponentLogger(opts.Logger, "mpv"),
		pending:    make(map[int64]chan message),
		subs:       make(map[int]chan []string),
		events:     make(chan player.Event, eventBuffer),
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.readLoop()

	if _, err := c.Command(ctx, "observe_property", timePosObserverID, "time-pos"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("observe time-pos: %w", err)
	}
	c.logger.Debug("connected to mpv", logging.String("socket", socketPath))
	return c, nil
}

// Events delivers player notifications. It is closed when the connection
// ends. Position updates are dropped when the reader falls behind.
func (c *Client) Events() <-chan player.Event {
	return c.events
}

// Done is closed when the connection has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	<-c.done
	return err
}

// Command sends one IPC command and returns its data.
func (c *Client) Command(ctx context.Context, args ...any) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, errors.New("mpv command: no arguments")
	}
	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}

	id := c.nextID.Add(1)
	reply := make(chan message, 1)
	c.pendingMu.Lock()
	c.pending[id] = reply
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("mpv %v: marshal: %w", args[0], err)
	}
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	_, err = c.conn.Write(append(payload, '\n'))
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("mpv %v: write: %w", args[0], err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case msg := <-reply:
		switch msg.Error {
		case "success", "":
			return msg.Data, nil
		case "property unavailable":
			return nil, fmt.Errorf("mpv %v: %w", args, ErrPropertyUnavailable)
		default:
			return nil, fmt.Errorf("mpv %v: %s", args, msg.Error)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("mpv %v: %w", args[0], ctx.Err())
	case <-c.done:
		return nil, ErrClosed
	}
}

// GetProperty reads a property into out. Timeouts are retried a few times.
func (c *Client) GetProperty(ctx context.Context, name string, out any) error {
	var lastErr error
	for attempt := range propertyAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(propertyRetryDelay):
			}
		}
		data, err := c.Command(ctx, "get_property", name)
		if err == nil {
			if len(data) == 0 || string(data) == "null" {
				return fmt.Errorf("mpv %s: %w", name, ErrPropertyUnavailable)
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("mpv %s: decode %s: %w", name, data, err)
			}
			return nil
		}
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("mpv %s failed after %d attempts: %w", name, propertyAttempts, lastErr)
}

// Subscribe returns a channel receiving the args of every client-message
// event, and a function that stops the subscription.
func (c *Client) Subscribe() (<-chan []string, func()) {
	ch := make(chan []string, 8)
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subsMu.Unlock()
	return ch, func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		close(c.events)
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			c.logger.Debug("skipping unparseable mpv line", logging.String("line", line))
			continue
		}
		if msg.Event == "" {
			if msg.RequestID != nil {
				c.deliver(*msg.RequestID, msg)
			}
			continue
		}
		c.dispatch(msg)
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-c.closed:
		default:
			c.logger.Debug("mpv connection lost", logging.Error(err))
		}
	}
}

func (c *Client) deliver(id int64, msg message) {
	c.pendingMu.Lock()
	reply, ok := c.pending[id]
	c.pendingMu.Unlock()
	if ok {
		reply <- msg
	}
}

func (c *Client) dispatch(msg message) {
	switch msg.Event {
	case "start-file":
		c.emit(player.Event{Kind: player.EventStarted})
	case "file-loaded":
		c.emit(player.Event{Kind: player.EventAVStarted})
	case "end-file":
		switch msg.Reason {
		case "eof":
			c.emit(player.Event{Kind: player.EventEnded})
		case "redirect":
		default:
			c.emit(player.Event{Kind: player.EventStopped})
		}
	case "shutdown":
		c.emit(player.Event{Kind: player.EventStopped})
	case "property-change":
		if msg.Name != "time-pos" || len(msg.Data) == 0 || string(msg.Data) == "null" {
			return
		}
		var pos float64
		if err := json.Unmarshal(msg.Data, &pos); err != nil {
			return
		}
		select {
		case c.events <- player.Event{Kind: player.EventTime, Time: pos}:
		default:
		}
	case "client-message":
		c.broadcast(msg.Args)
		c.emit(player.Event{Kind: player.EventClientMessage, Args: msg.Args})
	}
}

func (c *Client) emit(ev player.Event) {
	select {
	case c.events <- ev:
	case <-c.closed:
	}
}

func (c *Client) broadcast(args []string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- args:
		default:
		}
	}
}

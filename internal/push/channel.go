package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxBackoff caps the reconnect delay.
const maxBackoff = 30 * time.Second

// envelope is the named-event wire format of the push channel.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler receives the raw payload of one push event. Handlers for a given
// channel are invoked sequentially in network-arrival order; a handler that
// blocks delays every later event.
type Handler func(data json.RawMessage)

// Config holds the settings for a push channel connection.
type Config struct {
	// URL is the ws:// or wss:// endpoint of the push channel.
	URL string

	// Token is the bearer credential attached to the handshake.
	Token string

	// Log receives connection diagnostics. Defaults to slog.Default.
	Log *slog.Logger
}

// subscription is one registered handler with its ordering id.
type subscription struct {
	id int
	fn Handler
}

// Channel is the process-wide push connection. It is opened once at
// application start and shared: views subscribe to the event names they
// care about and unsubscribe without closing the connection. Lost
// connections are re-dialed with exponential backoff; no events are
// synthesized for the gap, so reconnect hooks must trigger a fresh bulk
// fetch.
type Channel struct {
	url   string
	token string
	log   *slog.Logger

	mu          sync.Mutex
	subs        map[string][]subscription
	reconnectFn []subscription
	nextID      int
	conn        *websocket.Conn
	closed      bool
}

// New creates a push channel. Call Run to connect.
func New(cfg Config) *Channel {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Channel{
		url:   cfg.URL,
		token: cfg.Token,
		log:   log,
		subs:  make(map[string][]subscription),
	}
}

// URLFromHTTP converts a backend base URL and path into the websocket
// endpoint of the push channel.
func URLFromHTTP(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return "", fmt.Errorf("parsing push URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported push URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// Subscribe registers a handler for a named event and returns its
// unsubscribe function.
func (c *Channel) Subscribe(event string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs[event] = append(c.subs[event], subscription{id: id, fn: h})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		kept := c.subs[event][:0]
		for _, s := range c.subs[event] {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		c.subs[event] = kept
	}
}

// OnReconnect registers a hook invoked after the connection is
// re-established following a drop. It is not invoked for the first
// connect. Returns the hook's remove function.
func (c *Channel) OnReconnect(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.reconnectFn = append(c.reconnectFn, subscription{
		id: id,
		fn: func(json.RawMessage) { fn() },
	})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		kept := c.reconnectFn[:0]
		for _, s := range c.reconnectFn {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		c.reconnectFn = kept
	}
}

// Run connects and pumps events until ctx is canceled or Close is called.
// It blocks; run it on its own goroutine.
func (c *Channel) Run(ctx context.Context) error {
	connected := false
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosed() {
			return nil
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.log.Warn("push channel dial failed",
				"url", c.url, "error", err)
			if !c.sleep(ctx, backoff(attempt)) {
				return ctx.Err()
			}
			continue
		}

		attempt = -1 // reset backoff after a successful dial
		if connected {
			c.log.Info("push channel reconnected", "url", c.url)
			c.fireReconnect()
		} else {
			c.log.Info("push channel connected", "url", c.url)
			connected = true
		}

		c.setConn(conn)
		err = c.readLoop(conn)
		c.setConn(nil)
		conn.Close()

		if c.isClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("push channel dropped", "error", err)
		if !c.sleep(ctx, backoff(0)) {
			return ctx.Err()
		}
	}
}

// Close tears the channel down for application shutdown.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// dial opens the websocket with the bearer credential attached.
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing push channel (status %d): %w",
				resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing push channel: %w", err)
	}
	return conn, nil
}

// readLoop decodes envelopes and dispatches them in arrival order until
// the connection fails.
func (c *Channel) readLoop(conn *websocket.Conn) error {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		if env.Event == "" {
			c.log.Warn("push event without a name dropped")
			continue
		}
		c.dispatch(env)
	}
}

// dispatch invokes the handlers subscribed to the event, in subscription
// order, on the read-loop goroutine so ordering is preserved.
func (c *Channel) dispatch(env envelope) {
	c.mu.Lock()
	subs := make([]subscription, len(c.subs[env.Event]))
	copy(subs, c.subs[env.Event])
	c.mu.Unlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	for _, s := range subs {
		s.fn(env.Data)
	}
}

// fireReconnect runs the reconnect hooks outside the lock.
func (c *Channel) fireReconnect() {
	c.mu.Lock()
	hooks := make([]subscription, len(c.reconnectFn))
	copy(hooks, c.reconnectFn)
	c.mu.Unlock()

	sort.Slice(hooks, func(i, j int) bool { return hooks[i].id < hooks[j].id })
	for _, h := range hooks {
		h.fn(nil)
	}
}

func (c *Channel) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// sleep waits for d or until ctx is done; it reports whether the wait
// completed.
func (c *Channel) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// backoff computes the reconnect delay: 1s, 2s, 4s, ... capped at 30s.
func backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := time.Duration(1<<uint(min(attempt, 5))) * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

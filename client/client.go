// Package client implements the Go client for the realtime API.
//
// A Client owns at most one live session. On transport loss it does not try
// to resume anything: it dials a fresh session and replays its desired room
// joins, because a dead session's server-side state is already gone. Events
// published while the client was offline are dropped by design; consumers
// recover by re-fetching snapshots over REST and reconciling by id.
package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	jsonIter "github.com/json-iterator/go"
	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/trackpoint-app/realtime/model"
)

// ErrUnauthorized the server refused the handshake token. Not retried: the
// caller should fall back to polling until it obtains a fresh token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotConnected no live session to write to
var ErrNotConnected = errors.New("not connected")

const (
	reconnectMin   = time.Second
	reconnectMax   = 30 * time.Second
	presenceResync = 5 * time.Minute
	writeTimeout   = 5 * time.Second
)

// Options client settings
type Options struct {
	// URL websocket endpoint, e.g. wss://host/api/ws
	URL string
	// Token bearer token presented at the handshake
	Token string
	// Logger optional; zap.NewNop when nil
	Logger *zap.Logger
	// Dialer optional; websocket.DefaultDialer when nil
	Dialer *websocket.Dialer
}

// Client a reconnecting realtime API client
type Client struct {
	opts     Options
	registry *Registry
	logger   *zap.Logger
	dialer   *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	desired map[model.RoomKey]struct{}
}

// New creates a Client. Call Run to connect.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Client{
		opts:     opts,
		registry: NewRegistry(),
		logger:   logger.Named("realtime"),
		dialer:   dialer,
		desired:  make(map[model.RoomKey]struct{}),
	}
}

// Subscribe registers a handler for a server frame type. The handler runs
// on the read loop and must not block; it survives reconnects until the
// returned unsubscribe is called.
func (c *Client) Subscribe(eventType string, h Handler) (unsubscribe func()) {
	return c.registry.Subscribe(eventType, h)
}

// Run connects and keeps the session alive until ctx is cancelled,
// reconnecting with exponential backoff. Returns ErrUnauthorized without
// retrying when the handshake is refused.
func (c *Client) Run(ctx context.Context) error {
	bo := newBackoff(reconnectMin, reconnectMax)
	for {
		err := c.runOnce(ctx, bo)
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := bo.next()
		c.logger.Debug("reconnecting", zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) runOnce(ctx context.Context, bo *backoff) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.opts.Token)

	conn, resp, err := c.dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return ErrUnauthorized
		}
		return err
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	bo.reset()
	c.rejoin()

	done := make(chan struct{})
	defer close(done)
	go c.resyncLoop(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(data)
	}
}

// rejoin replays every desired room membership on a fresh session
func (c *Client) rejoin() {
	c.mu.Lock()
	rooms := make([]model.RoomKey, 0, len(c.desired))
	for rk := range c.desired {
		rooms = append(rooms, rk)
	}
	c.mu.Unlock()

	for _, rk := range rooms {
		if err := c.sendJoin(rk, true); err != nil {
			c.logger.Warn("failed to rejoin room", zap.Stringer("room", rk), zap.Error(err))
		}
	}
}

// resyncLoop periodically re-requests the presence snapshot. Jittered so a
// fleet of clients reconnecting together does not re-sync in lockstep.
func (c *Client) resyncLoop(done <-chan struct{}) {
	t := jitterbug.New(presenceResync, &jitterbug.Norm{Stdev: presenceResync / 10})
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			_ = c.RequestOnlineCount()
		}
	}
}

func (c *Client) dispatch(data []byte) {
	var m struct {
		Type string              `json:"type"`
		Body jsonIter.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Warn("dropping unparsable frame", zap.Error(err))
		return
	}
	c.registry.Dispatch(m.Type, m.Body)
}

// Join subscribes the session to a room and records it for replay after
// reconnects. Safe to call while disconnected.
func (c *Client) Join(rk model.RoomKey) error {
	c.mu.Lock()
	c.desired[rk] = struct{}{}
	c.mu.Unlock()
	err := c.sendJoin(rk, true)
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

// Leave unsubscribes the session from a room. Idempotent.
func (c *Client) Leave(rk model.RoomKey) error {
	c.mu.Lock()
	delete(c.desired, rk)
	c.mu.Unlock()
	err := c.sendJoin(rk, false)
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

// JoinProject joins the project room
func (c *Client) JoinProject(id uuid.UUID) error { return c.Join(model.ProjectRoom(id)) }

// JoinSprint joins the sprint room
func (c *Client) JoinSprint(id uuid.UUID) error { return c.Join(model.SprintRoom(id)) }

// JoinIssue joins the issue room
func (c *Client) JoinIssue(id uuid.UUID) error { return c.Join(model.IssueRoom(id)) }

// JoinConversation joins the chat conversation room
func (c *Client) JoinConversation(id uuid.UUID) error { return c.Join(model.ConversationRoom(id)) }

// SetTyping reports composing state for a conversation
func (c *Client) SetTyping(conversationID uuid.UUID, isTyping bool) error {
	return c.send("chat:typing", map[string]interface{}{
		"conversationId": conversationID,
		"isTyping":       isTyping,
	})
}

// RequestOnlineCount asks for a fresh presence snapshot
func (c *Client) RequestOnlineCount() error {
	return c.send("get:online-count", struct{}{})
}

func (c *Client) sendJoin(rk model.RoomKey, join bool) error {
	if rk.Kind == model.RoomConversation {
		t := "chat:leave"
		if join {
			t = "chat:join"
		}
		return c.send(t, map[string]interface{}{"conversationId": rk.ID})
	}
	t := "leave:" + rk.Kind.String()
	if join {
		t = "join:" + rk.Kind.String()
	}
	return c.send(t, map[string]interface{}{"id": rk.ID})
}

func (c *Client) send(t string, body interface{}) error {
	data, err := json.Marshal(map[string]interface{}{
		"type": t,
		"body": body,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	jsonIter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackpoint-app/realtime/model"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type receivedFrame struct {
	connSeq int
	Type    string
	Body    jsonIter.RawMessage
}

// stubServer accepts websocket sessions, records every client frame and
// lets the test push frames back or kill the live connection.
type stubServer struct {
	server   *httptest.Server
	frames   chan receivedFrame
	conns    chan *websocket.Conn
	connSeq  atomic.Int32
	lastAuth atomic.Value
}

func newStubServer(t *testing.T) *stubServer {
	t.Helper()

	ss := &stubServer{
		frames: make(chan receivedFrame, 64),
		conns:  make(chan *websocket.Conn, 8),
	}
	ss.server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ss.lastAuth.Store(r.Header.Get("Authorization"))
		conn, err := testUpgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		seq := int(ss.connSeq.Add(1))
		ss.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f receivedFrame
			if err := json.Unmarshal(data, &f); err != nil {
				continue
			}
			f.connSeq = seq
			ss.frames <- f
		}
	}))
	t.Cleanup(ss.server.Close)
	return ss
}

func (ss *stubServer) url() string {
	return "ws" + strings.TrimPrefix(ss.server.URL, "http")
}

func (ss *stubServer) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ss.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("client did not connect")
		return nil
	}
}

func (ss *stubServer) waitFrame(t *testing.T) receivedFrame {
	t.Helper()
	select {
	case f := <-ss.frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("no frame received")
		return receivedFrame{}
	}
}

func (ss *stubServer) push(t *testing.T, conn *websocket.Conn, typ string, body interface{}) {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"type": typ, "body": body})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func runClient(t *testing.T, c *Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Run(ctx) }()
}

// waitConnected blocks until the client has a live session
func waitConnected(t *testing.T, c *Client) {
	t.Helper()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.conn != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestClient_JoinAndDispatch(t *testing.T) {
	t.Parallel()

	ss := newStubServer(t)
	c := New(Options{URL: ss.url(), Token: "tok"})

	received := make(chan []byte, 1)
	c.Subscribe(EventChatMessage, func(body []byte) { received <- body })

	runClient(t, c)
	conn := ss.waitConn(t)
	waitConnected(t, c)
	assert.Equal(t, "Bearer tok", ss.lastAuth.Load())

	conversation := uuid.Must(uuid.NewV4())
	require.NoError(t, c.JoinConversation(conversation))

	f := ss.waitFrame(t)
	assert.Equal(t, "chat:join", f.Type)
	assert.Contains(t, string(f.Body), conversation.String())

	ss.push(t, conn, EventChatMessage, map[string]interface{}{"text": "hi"})
	select {
	case body := <-received:
		assert.Contains(t, string(body), "hi")
	case <-time.After(5 * time.Second):
		t.Fatal("frame not dispatched")
	}
}

func TestClient_ReplaysJoinsAfterReconnect(t *testing.T) {
	t.Parallel()

	ss := newStubServer(t)
	c := New(Options{URL: ss.url(), Token: "tok"})
	runClient(t, c)

	conn := ss.waitConn(t)
	waitConnected(t, c)

	project := uuid.Must(uuid.NewV4())
	require.NoError(t, c.JoinProject(project))
	f := ss.waitFrame(t)
	require.Equal(t, "join:project", f.Type)
	require.Equal(t, 1, f.connSeq)

	// kill the session; the client dials fresh and replays the join
	require.NoError(t, conn.Close())

	f = ss.waitFrame(t)
	assert.Equal(t, "join:project", f.Type)
	assert.Equal(t, 2, f.connSeq)
	assert.Contains(t, string(f.Body), project.String())
}

func TestClient_JoinWhileDisconnectedIsDeferred(t *testing.T) {
	t.Parallel()

	ss := newStubServer(t)
	c := New(Options{URL: ss.url(), Token: "tok"})

	sprint := uuid.Must(uuid.NewV4())
	require.NoError(t, c.JoinSprint(sprint))

	runClient(t, c)
	ss.waitConn(t)

	f := ss.waitFrame(t)
	assert.Equal(t, "join:sprint", f.Type)
	assert.Contains(t, string(f.Body), sprint.String())
}

func TestClient_LeaveStopsReplay(t *testing.T) {
	t.Parallel()

	ss := newStubServer(t)
	c := New(Options{URL: ss.url(), Token: "tok"})
	runClient(t, c)
	conn := ss.waitConn(t)
	waitConnected(t, c)

	issue := uuid.Must(uuid.NewV4())
	require.NoError(t, c.JoinIssue(issue))
	require.Equal(t, "join:issue", ss.waitFrame(t).Type)

	require.NoError(t, c.Leave(model.IssueRoom(issue)))
	require.Equal(t, "leave:issue", ss.waitFrame(t).Type)

	// a left room is not replayed on the next session
	require.NoError(t, conn.Close())
	ss.waitConn(t)
	select {
	case f := <-ss.frames:
		t.Fatalf("unexpected frame after reconnect: %s", f.Type)
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestClient_SetTyping(t *testing.T) {
	t.Parallel()

	ss := newStubServer(t)
	c := New(Options{URL: ss.url(), Token: "tok"})
	runClient(t, c)
	ss.waitConn(t)
	waitConnected(t, c)

	conversation := uuid.Must(uuid.NewV4())
	require.NoError(t, c.SetTyping(conversation, true))

	f := ss.waitFrame(t)
	assert.Equal(t, "chat:typing", f.Type)
	assert.Contains(t, string(f.Body), `"isTyping":true`)
}

func TestClient_UnauthorizedIsNotRetried(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "bad token", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	c := New(Options{URL: "ws" + strings.TrimPrefix(server.URL, "http"), Token: "expired"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.ErrorIs(t, c.Run(ctx), ErrUnauthorized)
	assert.NoError(t, ctx.Err(), "should fail fast, not spin until the deadline")
}

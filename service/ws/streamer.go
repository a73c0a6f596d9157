package ws

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/leandro-lugaresi/hub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/trackpoint-app/realtime/event"
	"github.com/trackpoint-app/realtime/model"
	"github.com/trackpoint-app/realtime/router/ctxkey"
	"github.com/trackpoint-app/realtime/service/counter"
	"github.com/trackpoint-app/realtime/service/typing"
	"github.com/trackpoint-app/realtime/utils/random"
)

var (
	// ErrAlreadyClosed the session or streamer is already closed
	ErrAlreadyClosed = errors.New("already closed")
	// ErrBufferIsFull the session's outbound queue is full
	ErrBufferIsFull = errors.New("buffer is full")
)

var (
	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "realtime",
		Name:      "ws_sessions",
	})
	messagesSentCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realtime",
		Name:      "ws_messages_sent_total",
	}, []string{"type"})
)

// Streamer owns every live session and performs room fan-out
type Streamer struct {
	hub      *hub.Hub
	registry *registry
	oc       *counter.OnlineCounter
	typing   *typing.Manager
	logger   *zap.Logger
	sessions map[*session]struct{}
	closed   bool
	mu       sync.RWMutex
}

// NewStreamer creates a started Streamer
func NewStreamer(hub *hub.Hub, oc *counter.OnlineCounter, tm *typing.Manager, logger *zap.Logger) *Streamer {
	return &Streamer{
		hub:      hub,
		registry: newRegistry(),
		oc:       oc,
		typing:   tm,
		logger:   logger.Named("ws"),
		sessions: make(map[*session]struct{}),
	}
}

func (s *Streamer) register(session *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session] = struct{}{}
	sessionsGauge.Inc()
}

func (s *Streamer) unregister(session *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
	sessionsGauge.Dec()
}

// IterateSessions iterates over all live sessions
func (s *Streamer) IterateSessions(f func(session Session)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for session := range s.sessions {
		f(session)
	}
}

// Broadcast delivers the event to every session subscribed to the room.
// Deliveries to the same room happen in broadcast order; a session whose
// join completed before the call is guaranteed to be in the snapshot.
func (s *Streamer) Broadcast(room model.RoomKey, t string, body interface{}) {
	m := &rawMessage{
		t:    websocket.TextMessage,
		data: makeMessage(t, body).toJSON(),
	}

	key := room.String()
	s.registry.locks.Lock(key)
	defer s.registry.locks.Unlock(key)

	for _, session := range s.registry.members(room) {
		s.deliver(session, m, t, body)
	}
}

// WriteMessage writes the event to every session matched by targetFunc
func (s *Streamer) WriteMessage(t string, body interface{}, targetFunc TargetFunc) {
	m := &rawMessage{
		t:    websocket.TextMessage,
		data: makeMessage(t, body).toJSON(),
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for session := range s.sessions {
		if targetFunc(session) {
			s.deliver(session, m, t, body)
		}
	}
}

// deliver enqueues a frame; a session that cannot keep up is closed so it
// never stalls the rest of the room.
func (s *Streamer) deliver(session *session, m *rawMessage, t string, body interface{}) {
	err := session.writeMessage(m)
	switch {
	case err == nil:
		messagesSentCounter.WithLabelValues(t).Inc()
	case errors.Is(err, ErrBufferIsFull):
		s.logger.Warn("closing session: send buffer overflow",
			zap.String("type", t), zap.Any("body", body),
			zap.Stringer("userID", session.userID), zap.String("key", session.key))
		session.close()
	}
}

// ServeHTTP implements http.Handler. The request context must carry the
// authenticated user id; the router's auth middleware refuses the upgrade
// otherwise.
func (s *Streamer) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	if s.closed {
		http.Error(rw, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	userID, ok := r.Context().Value(ctxkey.UserID).(uuid.UUID)
	if !ok {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(rw, r, rw.Header())
	if err != nil {
		return
	}

	session := &session{
		key:         random.AlphaNumeric(20),
		userID:      userID,
		connectedAt: time.Now(),
		open:        true,
		rooms:       make(map[model.RoomKey]struct{}),
		conn:        conn,
		streamer:    s,
		send:        make(chan *rawMessage, messageBufferSize),
	}

	s.register(session)
	s.logger.Debug("session connected",
		zap.String("key", session.key), zap.Stringer("userID", session.userID),
		zap.String("remoteAddr", r.RemoteAddr))
	s.hub.Publish(hub.Message{
		Name: event.WSConnected,
		Fields: hub.Fields{
			"user_id":     session.userID,
			"session_key": session.key,
		},
	})

	go session.writeLoop()
	_ = session.writeMessage(&rawMessage{
		t: websocket.TextMessage,
		data: makeMessage("connected", map[string]interface{}{
			"sessionKey": session.key,
			"userId":     session.userID,
		}).toJSON(),
	})
	session.readLoop()

	s.teardown(session)
}

// teardown releases everything a session holds: room memberships, its
// presence contribution and the registry entry. Every disconnect path
// (explicit close, read error, heartbeat timeout, streamer shutdown)
// funnels through here exactly once per session.
func (s *Streamer) teardown(session *session) {
	s.registry.removeSession(session)
	s.hub.Publish(hub.Message{
		Name: event.WSDisconnected,
		Fields: hub.Fields{
			"user_id":     session.userID,
			"session_key": session.key,
		},
	})
	s.unregister(session)
	session.close()
	s.logger.Debug("session disconnected",
		zap.String("key", session.key), zap.Stringer("userID", session.userID))
}

// Close stops the streamer and disconnects every session
func (s *Streamer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	s.closed = true
	sessions := make([]*session, 0, len(s.sessions))
	for session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	m := &rawMessage{
		t:    websocket.CloseMessage,
		data: websocket.FormatCloseMessage(websocket.CloseServiceRestart, "Server is stopping..."),
	}
	for _, session := range sessions {
		_ = session.writeMessage(m)
		session.close()
	}
	return nil
}

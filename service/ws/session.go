package ws

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"

	"github.com/trackpoint-app/realtime/model"
)

// Session one authenticated realtime connection
type Session interface {
	Key() string
	// UserID the authenticated user who owns this session
	UserID() uuid.UUID
	// ConnectedAt when the handshake completed
	ConnectedAt() time.Time
	// Rooms the rooms this session is currently joined to
	Rooms() []model.RoomKey
}

type session struct {
	key         string
	userID      uuid.UUID
	connectedAt time.Time

	mu    sync.RWMutex
	open  bool
	rooms map[model.RoomKey]struct{}

	conn     *websocket.Conn
	streamer *Streamer
	send     chan *rawMessage
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxReadMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		t, m, err := s.conn.ReadMessage()
		if err != nil {
			break
		}

		if t == websocket.TextMessage {
			s.commandHandler(m)
		}

		if t == websocket.BinaryMessage {
			// unsupported
			_ = s.writeMessage(&rawMessage{t: websocket.CloseMessage, data: websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "binary message is not supported.")})
			break
		}
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				return
			}

			if err := s.write(msg.t, msg.data); err != nil {
				return
			}

			if msg.t == websocket.CloseMessage {
				return
			}

		case <-ticker.C:
			_ = s.write(websocket.PingMessage, []byte{})
		}
	}
}

// writeMessage enqueues a frame on the bounded outbound queue.
// The read lock excludes close(), so the send channel cannot be
// closed mid-enqueue.
func (s *session) writeMessage(msg *rawMessage) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return ErrAlreadyClosed
	}

	select {
	case s.send <- msg:
	default:
		return ErrBufferIsFull
	}
	return nil
}

func (s *session) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// close tears the connection down. Safe to call more than once; only the
// first call has any effect.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return
	}
	s.open = false
	s.conn.Close()
	close(s.send)
}

// Key implements Session interface.
func (s *session) Key() string {
	return s.key
}

// UserID implements Session interface.
func (s *session) UserID() uuid.UUID {
	return s.userID
}

// ConnectedAt implements Session interface.
func (s *session) ConnectedAt() time.Time {
	return s.connectedAt
}

// Rooms implements Session interface.
func (s *session) Rooms() []model.RoomKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]model.RoomKey, 0, len(s.rooms))
	for rk := range s.rooms {
		rooms = append(rooms, rk)
	}
	return rooms
}

func (s *session) addRoom(rk model.RoomKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[rk] = struct{}{}
}

func (s *session) removeRoom(rk model.RoomKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, rk)
}

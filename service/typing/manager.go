package typing

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"

	"github.com/trackpoint-app/realtime/event"
)

// DefaultExpiry how long a typing signal stays alive without a refresh
const DefaultExpiry = 6 * time.Second

const minTick = 50 * time.Millisecond

// Manager tracks who is composing a message in which conversation.
// State is ephemeral: a start signal arms an expiry timer, refreshes keep it
// alive without re-broadcasting, and the sweeper synthesizes the stop signal
// when a client vanishes without sending one.
type Manager struct {
	hub    *hub.Hub
	expiry time.Duration

	mu            sync.Mutex
	conversations map[uuid.UUID]map[uuid.UUID]time.Time // conversation -> user -> expiresAt
}

// NewManager creates a started Manager
func NewManager(hub *hub.Hub, expiry time.Duration) *Manager {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	m := &Manager{
		hub:           hub,
		expiry:        expiry,
		conversations: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}

	tick := expiry / 4
	if tick < minTick {
		tick = minTick
	}
	go func() {
		for range time.NewTicker(tick).C {
			m.sweep(time.Now())
		}
	}()
	return m
}

// SetTyping records a typing signal. A start while already typing only
// refreshes the expiry; transitions in either direction publish exactly one
// event. A redundant stop is a no-op.
func (m *Manager) SetTyping(conversationID, userID uuid.UUID, isTyping bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users, ok := m.conversations[conversationID]

	if isTyping {
		if !ok {
			users = make(map[uuid.UUID]time.Time)
			m.conversations[conversationID] = users
		}
		_, already := users[userID]
		users[userID] = time.Now().Add(m.expiry)
		if already {
			return
		}
		m.publish(conversationID, userID, true)
		return
	}

	if !ok {
		return
	}
	if _, already := users[userID]; !already {
		return
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(m.conversations, conversationID)
	}
	m.publish(conversationID, userID, false)
}

// IsTyping reports whether the user currently counts as typing
func (m *Manager) IsTyping(conversationID, userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.conversations[conversationID][userID]
	return ok
}

// TypingUserIDs returns the users currently typing in the conversation
func (m *Manager) TypingUserIDs(conversationID uuid.UUID) []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]uuid.UUID, 0, len(m.conversations[conversationID]))
	for u := range m.conversations[conversationID] {
		users = append(users, u)
	}
	return users
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for cid, users := range m.conversations {
		for uid, expiresAt := range users {
			if expiresAt.After(now) {
				continue
			}
			delete(users, uid)
			m.publish(cid, uid, false)
		}
		if len(users) == 0 {
			delete(m.conversations, cid)
		}
	}
}

func (m *Manager) publish(conversationID, userID uuid.UUID, isTyping bool) {
	m.hub.Publish(hub.Message{
		Name: event.ChatTypingChanged,
		Fields: hub.Fields{
			"conversation_id": conversationID,
			"user_id":         userID,
			"is_typing":       isTyping,
		},
	})
}

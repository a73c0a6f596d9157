package readstate

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"

	"github.com/trackpoint-app/realtime/event"
)

// UnreadCounter computes how many messages after readAt the user has not
// seen. Backed by the message store; this package never touches messages
// itself.
type UnreadCounter interface {
	UnreadCount(conversationID, userID uuid.UUID, readAt time.Time) int
}

// NullUnreadCounter reports zero unread messages
type NullUnreadCounter struct{}

// UnreadCount implements UnreadCounter
func (NullUnreadCounter) UnreadCount(_, _ uuid.UUID, _ time.Time) int { return 0 }

// Tracker the authority for per-user read watermarks. Watermarks only move
// forward: a stale or duplicate markRead never regresses the stored value
// and never broadcasts.
type Tracker struct {
	hub *hub.Hub
	uc  UnreadCounter

	mu         sync.Mutex
	watermarks map[uuid.UUID]map[uuid.UUID]time.Time // conversation -> user -> lastReadAt
}

// NewTracker creates a Tracker. A nil counter falls back to
// NullUnreadCounter.
func NewTracker(hub *hub.Hub, uc UnreadCounter) *Tracker {
	if uc == nil {
		uc = NullUnreadCounter{}
	}
	return &Tracker{
		hub:        hub,
		uc:         uc,
		watermarks: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

// MarkRead advances the user's watermark in the conversation. Returns false
// when at does not advance the stored watermark.
func (t *Tracker) MarkRead(conversationID, userID uuid.UUID, at time.Time) bool {
	t.mu.Lock()
	users, ok := t.watermarks[conversationID]
	if !ok {
		users = make(map[uuid.UUID]time.Time)
		t.watermarks[conversationID] = users
	}
	if prev, ok := users[userID]; ok && !at.After(prev) {
		t.mu.Unlock()
		return false
	}
	users[userID] = at
	t.mu.Unlock()

	t.hub.Publish(hub.Message{
		Name: event.ChatRead,
		Fields: hub.Fields{
			"conversation_id": conversationID,
			"user_id":         userID,
			"read_at":         at,
			"unread_count":    t.uc.UnreadCount(conversationID, userID, at),
		},
	})
	return true
}

// LastRead returns the user's watermark in the conversation
func (t *Tracker) LastRead(conversationID, userID uuid.UUID) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.watermarks[conversationID][userID]
	return at, ok
}

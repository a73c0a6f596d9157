package client

import (
	"time"

	"github.com/gofrs/uuid"
	jsonIter "github.com/json-iterator/go"
)

var json = jsonIter.ConfigFastest

// Server frame types deliverable to subscribed handlers.
const (
	EventConnected          = "connected"
	EventOnlineCount        = "users:online-count"
	EventChatMessage        = "chat:message"
	EventChatMessageUpdated = "chat:message:updated"
	EventChatMessageDeleted = "chat:message:deleted"
	EventChatTyping         = "chat:typing"
	EventChatRead           = "chat:read"
	EventNotificationNew    = "notification:new"
	EventTimerAutoPaused    = "timer:auto-paused"
	EventProjectUpdated     = "project:updated"
	EventSprintUpdated      = "sprint:updated"
	EventIssueUpdated       = "issue:updated"
	EventError              = "ERROR"
)

// ConnectedEvent handshake acknowledgement
type ConnectedEvent struct {
	SessionKey string    `json:"sessionKey"`
	UserID     uuid.UUID `json:"userId"`
}

// OnlineCountEvent global presence snapshot. Absolute values: state derived
// from this frame replaces, never adjusts, whatever the client had, so push
// frames and poll responses can be mixed freely.
type OnlineCountEvent struct {
	Count   int         `json:"count"`
	UserIDs []uuid.UUID `json:"userIds"`
}

// TypingEvent a participant started or stopped composing
type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
	IsTyping       bool      `json:"isTyping"`
}

// ReadEvent a participant's read watermark advanced
type ReadEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
	ReadAt         time.Time `json:"readAt"`
	UnreadCount    int       `json:"unreadCount"`
}

// MessageDeletedEvent a conversation message was removed
type MessageDeletedEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
}

// Unmarshal decodes a frame body into v
func Unmarshal(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}

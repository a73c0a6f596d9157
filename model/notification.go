package model

import (
	"github.com/gofrs/uuid"
)

// Notification types routed by the client-side dispatcher.
const (
	NotificationTypeChatMessage = "chat_message"
	NotificationTypeMention     = "mention"
	NotificationTypeAchievement = "achievement"
	NotificationTypeSystem      = "system"
)

// NotificationEnvelope one push notification addressed to a single user.
// ID doubles as the dedup key: a session delivers an envelope at most once,
// and the client plays its audio cue at most once per ID.
type NotificationEnvelope struct {
	ID           uuid.UUID         `json:"notificationId"`
	Type         string            `json:"type"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	TargetUserID uuid.UUID         `json:"targetUserId"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ConversationID extracts the conversation metadata, if present.
func (n NotificationEnvelope) ConversationID() (uuid.UUID, bool) {
	v, ok := n.Metadata["conversationId"]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.FromString(v)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

package notification

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"

	"github.com/trackpoint-app/realtime/event"
	"github.com/trackpoint-app/realtime/model"
	"github.com/trackpoint-app/realtime/service/ws"
	"github.com/trackpoint-app/realtime/utils/set"
)

type eventHandler func(ns *Service, ev hub.Message)

var handlerMap = map[string]eventHandler{
	event.ChatMessageCreated:  chatMessageCreatedHandler,
	event.ChatMessageUpdated:  chatMessageUpdatedHandler,
	event.ChatMessageDeleted:  chatMessageDeletedHandler,
	event.ChatTypingChanged:   chatTypingChangedHandler,
	event.ChatRead:            chatReadHandler,
	event.NotificationCreated: notificationCreatedHandler,
	event.TimerAutoPaused:     timerAutoPausedHandler,
	event.ProjectUpdated:      projectUpdatedHandler,
	event.SprintUpdated:       sprintUpdatedHandler,
	event.IssueUpdated:        issueUpdatedHandler,
	event.UserOnline:          presenceChangedHandler,
	event.UserOffline:         presenceChangedHandler,
}

func chatMessageCreatedHandler(ns *Service, ev hub.Message) {
	cid := ev.Fields["conversation_id"].(uuid.UUID)
	ns.ws.Broadcast(model.ConversationRoom(cid), "chat:message", ev.Fields["message"])
}

func chatMessageUpdatedHandler(ns *Service, ev hub.Message) {
	cid := ev.Fields["conversation_id"].(uuid.UUID)
	ns.ws.Broadcast(model.ConversationRoom(cid), "chat:message:updated", ev.Fields["message"])
}

func chatMessageDeletedHandler(ns *Service, ev hub.Message) {
	cid := ev.Fields["conversation_id"].(uuid.UUID)
	ns.ws.Broadcast(model.ConversationRoom(cid), "chat:message:deleted", map[string]interface{}{
		"conversationId": cid,
		"messageId":      ev.Fields["message_id"].(uuid.UUID),
	})
}

func chatTypingChangedHandler(ns *Service, ev hub.Message) {
	cid := ev.Fields["conversation_id"].(uuid.UUID)
	ns.ws.Broadcast(model.ConversationRoom(cid), "chat:typing", map[string]interface{}{
		"conversationId": cid,
		"userId":         ev.Fields["user_id"].(uuid.UUID),
		"isTyping":       ev.Fields["is_typing"].(bool),
	})
}

func chatReadHandler(ns *Service, ev hub.Message) {
	cid := ev.Fields["conversation_id"].(uuid.UUID)
	ns.ws.Broadcast(model.ConversationRoom(cid), "chat:read", map[string]interface{}{
		"conversationId": cid,
		"userId":         ev.Fields["user_id"].(uuid.UUID),
		"readAt":         ev.Fields["read_at"].(time.Time),
		"unreadCount":    ev.Fields["unread_count"].(int),
	})
}

// notificationCreatedHandler delivers the envelope to its recipients.
// Group notifications carry an explicit recipient set that overrides the
// envelope's single target; an envelope with neither goes nowhere.
func notificationCreatedHandler(ns *Service, ev hub.Message) {
	env := ev.Fields["notification"].(model.NotificationEnvelope)

	target := ws.TargetNone()
	if env.TargetUserID != uuid.Nil {
		target = ws.TargetUsers(env.TargetUserID)
	}
	if ids, ok := ev.Fields["target_user_ids"].(set.UUID); ok {
		target = ws.TargetUserSets(ids)
	}
	ns.ws.WriteMessage("notification:new", env, target)
}

func timerAutoPausedHandler(ns *Service, ev hub.Message) {
	uid := ev.Fields["user_id"].(uuid.UUID)
	ns.ws.WriteMessage("timer:auto-paused", ev.Fields["payload"], ws.TargetUsers(uid))
}

func projectUpdatedHandler(ns *Service, ev hub.Message) {
	pid := ev.Fields["project_id"].(uuid.UUID)
	ns.ws.Broadcast(model.ProjectRoom(pid), "project:updated", ev.Fields["payload"])
}

func sprintUpdatedHandler(ns *Service, ev hub.Message) {
	sid := ev.Fields["sprint_id"].(uuid.UUID)
	ns.ws.Broadcast(model.SprintRoom(sid), "sprint:updated", ev.Fields["payload"])
}

func issueUpdatedHandler(ns *Service, ev hub.Message) {
	iid := ev.Fields["issue_id"].(uuid.UUID)
	ns.ws.Broadcast(model.IssueRoom(iid), "issue:updated", ev.Fields["payload"])
}

// presenceChangedHandler collapses bursts of online/offline transitions
// into at most one global broadcast per interval. The broadcast carries the
// absolute count and id list, so a coalesced burst loses nothing.
func presenceChangedHandler(ns *Service, _ hub.Message) {
	ns.presence.Trigger()
}

package event

const (
	// WSConnected a realtime session was established
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		session_key: string
	WSConnected = "ws.connected"
	// WSDisconnected a realtime session was torn down
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		session_key: string
	WSDisconnected = "ws.disconnected"

	// UserOnline a user's first session came up (0 -> 1)
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		datetime: time.Time
	UserOnline = "user.online"
	// UserOffline a user's last session went down (1 -> 0)
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		datetime: time.Time
	UserOffline = "user.offline"

	// ChatMessageCreated a conversation message was posted
	// 	Fields:
	// 		conversation_id: uuid.UUID
	// 		message: interface{} (opaque payload from the message store)
	ChatMessageCreated = "chat.message.created"
	// ChatMessageUpdated a conversation message was edited
	// 	Fields:
	// 		conversation_id: uuid.UUID
	// 		message: interface{}
	ChatMessageUpdated = "chat.message.updated"
	// ChatMessageDeleted a conversation message was removed
	// 	Fields:
	// 		conversation_id: uuid.UUID
	// 		message_id: uuid.UUID
	ChatMessageDeleted = "chat.message.deleted"

	// ChatTypingChanged a participant started or stopped composing
	// 	Fields:
	// 		conversation_id: uuid.UUID
	// 		user_id: uuid.UUID
	// 		is_typing: bool
	ChatTypingChanged = "chat.typing.changed"

	// ChatRead a participant's read watermark advanced
	// 	Fields:
	// 		conversation_id: uuid.UUID
	// 		user_id: uuid.UUID
	// 		read_at: time.Time
	// 		unread_count: int
	ChatRead = "chat.read"

	// NotificationCreated a notification envelope is ready for fan-out
	// 	Fields:
	// 		notification: model.NotificationEnvelope
	// 		target_user_ids: set.UUID (optional, overrides the envelope target for group delivery)
	NotificationCreated = "notification.created"

	// TimerAutoPaused a user's work timer was paused by the backend
	// 	Fields:
	// 		user_id: uuid.UUID
	// 		payload: interface{}
	TimerAutoPaused = "timer.auto_paused"

	// ProjectUpdated a project entity changed
	// 	Fields:
	// 		project_id: uuid.UUID
	// 		payload: interface{}
	ProjectUpdated = "project.updated"
	// SprintUpdated a sprint entity changed
	// 	Fields:
	// 		sprint_id: uuid.UUID
	// 		payload: interface{}
	SprintUpdated = "sprint.updated"
	// IssueUpdated an issue entity changed
	// 	Fields:
	// 		issue_id: uuid.UUID
	// 		payload: interface{}
	IssueUpdated = "issue.updated"
)

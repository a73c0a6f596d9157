package ws

import (
	"fmt"

	vd "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"

	"github.com/trackpoint-app/realtime/model"
)

type entityRef struct {
	ID uuid.UUID `json:"id"`
}

func (r entityRef) Validate() error {
	return vd.ValidateStruct(&r,
		vd.Field(&r.ID, vd.Required),
	)
}

type conversationRef struct {
	ConversationID uuid.UUID `json:"conversationId"`
}

func (r conversationRef) Validate() error {
	return vd.ValidateStruct(&r,
		vd.Field(&r.ConversationID, vd.Required),
	)
}

type typingRequest struct {
	ConversationID uuid.UUID `json:"conversationId"`
	IsTyping       bool      `json:"isTyping"`
}

func (r typingRequest) Validate() error {
	return vd.ValidateStruct(&r,
		vd.Field(&r.ConversationID, vd.Required),
	)
}

var joinKinds = map[string]func(uuid.UUID) model.RoomKey{
	"join:project":  model.ProjectRoom,
	"join:sprint":   model.SprintRoom,
	"join:issue":    model.IssueRoom,
	"leave:project": model.ProjectRoom,
	"leave:sprint":  model.SprintRoom,
	"leave:issue":   model.IssueRoom,
}

func (s *session) commandHandler(raw []byte) {
	var m clientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		s.sendErrorMessage("invalid frame: expected json object with type and body")
		return
	}

	switch m.Type {
	case "join:project", "join:sprint", "join:issue":
		var req entityRef
		if ok := s.bindBody(m, &req); !ok {
			return
		}
		s.streamer.registry.join(s, joinKinds[m.Type](req.ID))

	case "leave:project", "leave:sprint", "leave:issue":
		var req entityRef
		if ok := s.bindBody(m, &req); !ok {
			return
		}
		s.streamer.registry.leave(s, joinKinds[m.Type](req.ID))

	case "chat:join":
		var req conversationRef
		if ok := s.bindBody(m, &req); !ok {
			return
		}
		s.streamer.registry.join(s, model.ConversationRoom(req.ConversationID))

	case "chat:leave":
		var req conversationRef
		if ok := s.bindBody(m, &req); !ok {
			return
		}
		s.streamer.registry.leave(s, model.ConversationRoom(req.ConversationID))

	case "chat:typing":
		var req typingRequest
		if ok := s.bindBody(m, &req); !ok {
			return
		}
		s.streamer.typing.SetTyping(req.ConversationID, s.userID, req.IsTyping)

	case "get:online-count":
		ids := s.streamer.oc.GetOnlineUserIDs()
		_ = s.writeMessage(&rawMessage{
			t: websocket.TextMessage,
			data: makeMessage("users:online-count", map[string]interface{}{
				"count":   len(ids),
				"userIds": ids,
			}).toJSON(),
		})

	default:
		s.sendErrorMessage(fmt.Sprintf("unknown command: %s", m.Type))
	}
}

// bindBody unmarshals and validates an inbound body. Invalid frames get an
// ERROR frame back; they never cost the client its connection.
func (s *session) bindBody(m clientMessage, dst vd.Validatable) bool {
	if err := json.Unmarshal(m.Body, dst); err != nil {
		s.sendErrorMessage(fmt.Sprintf("invalid body for %s", m.Type))
		return false
	}
	if err := dst.Validate(); err != nil {
		s.sendErrorMessage(fmt.Sprintf("invalid body for %s: %s", m.Type, err))
		return false
	}
	return true
}

func (s *session) sendErrorMessage(message string) {
	_ = s.writeMessage(&rawMessage{
		t:    websocket.TextMessage,
		data: makeMessage("ERROR", message).toJSON(),
	})
}

package model

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

// RoomKind the kind of entity a room is keyed by
type RoomKind int

const (
	// RoomProject project dashboard room
	RoomProject RoomKind = iota
	// RoomSprint sprint board room
	RoomSprint
	// RoomIssue issue detail room
	RoomIssue
	// RoomConversation chat conversation room
	RoomConversation
)

// String returns the wire representation of the kind
func (k RoomKind) String() string {
	return roomKindStrings[k]
}

// RoomKindFromString converts a wire string into a RoomKind
func RoomKindFromString(s string) (RoomKind, bool) {
	k, ok := stringRoomKinds[strings.ToLower(s)]
	return k, ok
}

var (
	roomKindStrings = map[RoomKind]string{
		RoomProject:      "project",
		RoomSprint:       "sprint",
		RoomIssue:        "issue",
		RoomConversation: "conversation",
	}
	stringRoomKinds = map[string]RoomKind{}
)

func init() {
	for k, s := range roomKindStrings {
		stringRoomKinds[s] = k
	}
}

// RoomKey identifies a broadcast group. Rooms have no persistent existence;
// a room is exactly the set of sessions currently joined to its key.
type RoomKey struct {
	Kind RoomKind
	ID   uuid.UUID
}

// ProjectRoom room key for a project
func ProjectRoom(id uuid.UUID) RoomKey { return RoomKey{Kind: RoomProject, ID: id} }

// SprintRoom room key for a sprint
func SprintRoom(id uuid.UUID) RoomKey { return RoomKey{Kind: RoomSprint, ID: id} }

// IssueRoom room key for an issue
func IssueRoom(id uuid.UUID) RoomKey { return RoomKey{Kind: RoomIssue, ID: id} }

// ConversationRoom room key for a chat conversation
func ConversationRoom(id uuid.UUID) RoomKey { return RoomKey{Kind: RoomConversation, ID: id} }

// String returns "kind:id"
func (r RoomKey) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ParseRoomKey parses a "kind:id" string into a RoomKey
func ParseRoomKey(s string) (RoomKey, error) {
	kind, idStr, found := strings.Cut(s, ":")
	if !found {
		return RoomKey{}, fmt.Errorf("invalid room key: %s", s)
	}
	k, ok := RoomKindFromString(kind)
	if !ok {
		return RoomKey{}, fmt.Errorf("unknown room kind: %s", kind)
	}
	id, err := uuid.FromString(idStr)
	if err != nil {
		return RoomKey{}, fmt.Errorf("invalid room id: %w", err)
	}
	return RoomKey{Kind: k, ID: id}, nil
}

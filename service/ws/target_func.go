package ws

import (
	"github.com/gofrs/uuid"

	"github.com/trackpoint-app/realtime/utils/set"
)

// TargetFunc delivery predicate for WriteMessage
type TargetFunc func(s Session) bool

// TargetAll matches every session
func TargetAll() TargetFunc {
	return func(_ Session) bool {
		return true
	}
}

// TargetUsers matches sessions owned by any of the given users
func TargetUsers(userID ...uuid.UUID) TargetFunc {
	return func(s Session) bool {
		for _, u := range userID {
			if u == s.UserID() {
				return true
			}
		}
		return false
	}
}

// TargetUserSets matches sessions owned by users in any of the given sets
func TargetUserSets(sets ...set.UUID) TargetFunc {
	return func(s Session) bool {
		for _, set := range sets {
			if set.Contains(s.UserID()) {
				return true
			}
		}
		return false
	}
}

// TargetNone matches no session
func TargetNone() TargetFunc {
	return func(_ Session) bool {
		return false
	}
}

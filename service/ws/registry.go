package ws

import (
	"sync"

	"github.com/trackpoint-app/realtime/model"
	"github.com/trackpoint-app/realtime/utils"
)

// registry the room membership index. Broadcasts to the same room are
// serialized through a sharded key lock so every subscriber observes them
// in the same order; membership itself lives behind a separate RWMutex so
// joins and leaves on unrelated rooms never contend.
type registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomKey]map[*session]struct{}
	locks *utils.KeyMutex
}

func newRegistry() *registry {
	return &registry{
		rooms: make(map[model.RoomKey]map[*session]struct{}),
		locks: utils.NewKeyMutex(roomLockShards),
	}
}

// join adds the session to the room. Joining a room the session already
// belongs to is a no-op.
func (r *registry) join(s *session, rk model.RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[rk]
	if !ok {
		members = make(map[*session]struct{})
		r.rooms[rk] = members
	}
	if _, ok := members[s]; ok {
		return
	}
	members[s] = struct{}{}
	s.addRoom(rk)
}

// leave removes the session from the room. Safe to call redundantly.
func (r *registry) leave(s *session, rk model.RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(s, rk)
}

func (r *registry) leaveLocked(s *session, rk model.RoomKey) {
	members, ok := r.rooms[rk]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(r.rooms, rk)
	}
	s.removeRoom(rk)
}

// removeSession performs the implicit leave of every room the session
// joined. Cost is proportional to the session's own membership, not to the
// total number of rooms.
func (r *registry) removeSession(s *session) {
	rooms := s.Rooms()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rk := range rooms {
		r.leaveLocked(s, rk)
	}
}

// members returns a snapshot of the room's subscribers
func (r *registry) members(rk model.RoomKey) []*session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*session, 0, len(r.rooms[rk]))
	for s := range r.rooms[rk] {
		sessions = append(sessions, s)
	}
	return sessions
}

// memberCount returns the number of subscribers in the room
func (r *registry) memberCount(rk model.RoomKey) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[rk])
}

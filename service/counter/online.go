package counter

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trackpoint-app/realtime/event"
)

var onlineUsersCounter = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "realtime",
	Name:      "online_users",
})

// OnlineCounter reference-counts live sessions per user. A user is online
// while at least one session is up; only the 0->1 and 1->0 transitions are
// published, so multi-tab churn never reaches other clients.
type OnlineCounter struct {
	hub          *hub.Hub
	counters     map[uuid.UUID]*userCounter
	countersLock sync.Mutex
}

// NewOnlineCounter creates a started OnlineCounter
func NewOnlineCounter(hub *hub.Hub) *OnlineCounter {
	oc := &OnlineCounter{
		hub:      hub,
		counters: map[uuid.UUID]*userCounter{},
	}
	go func() {
		for e := range hub.Subscribe(8, event.WSConnected, event.WSDisconnected).Receiver {
			switch e.Topic() {
			case event.WSConnected:
				oc.Inc(e.Fields["user_id"].(uuid.UUID))
			case event.WSDisconnected:
				oc.Dec(e.Fields["user_id"].(uuid.UUID))
			}
		}
	}()
	return oc
}

// Inc increments the user's session count
func (oc *OnlineCounter) Inc(userID uuid.UUID) (toOnline bool) {
	oc.countersLock.Lock()
	c, ok := oc.counters[userID]
	if !ok {
		c = &userCounter{
			userID: userID,
		}
		oc.counters[userID] = c
	}
	oc.countersLock.Unlock()

	toOnline = c.inc()
	if toOnline {
		onlineUsersCounter.Inc()
		oc.hub.Publish(hub.Message{
			Name: event.UserOnline,
			Fields: hub.Fields{
				"user_id":  userID,
				"datetime": c.getLastUpdated(),
			},
		})
	}
	return
}

// Dec decrements the user's session count. A decrement without a matching
// session is ignored, so the count never goes negative.
func (oc *OnlineCounter) Dec(userID uuid.UUID) (toOffline bool) {
	oc.countersLock.Lock()
	c, ok := oc.counters[userID]
	if !ok {
		oc.countersLock.Unlock()
		return
	}
	oc.countersLock.Unlock()

	toOffline = c.dec()
	if toOffline {
		onlineUsersCounter.Dec()
		oc.hub.Publish(hub.Message{
			Name: event.UserOffline,
			Fields: hub.Fields{
				"user_id":  userID,
				"datetime": c.getLastUpdated(),
			},
		})
	}
	return
}

// IsOnline reports whether the user has at least one live session
func (oc *OnlineCounter) IsOnline(userID uuid.UUID) bool {
	oc.countersLock.Lock()
	c, ok := oc.counters[userID]
	oc.countersLock.Unlock()
	if !ok {
		return false
	}

	return c.isOnline()
}

// GetOnlineUserIDs returns the ids of all online users
func (oc *OnlineCounter) GetOnlineUserIDs() []uuid.UUID {
	oc.countersLock.Lock()
	users := make([]uuid.UUID, 0, len(oc.counters))
	for u, c := range oc.counters {
		if c.isOnline() {
			users = append(users, u)
		}
	}
	oc.countersLock.Unlock()
	return users
}

type userCounter struct {
	sync.RWMutex
	userID      uuid.UUID
	count       int
	lastUpdated time.Time
}

func (s *userCounter) isOnline() (r bool) {
	s.RLock()
	r = s.count > 0
	s.RUnlock()
	return
}

func (s *userCounter) inc() (toOnline bool) {
	s.Lock()
	s.count++
	s.lastUpdated = time.Now()
	if s.count == 1 {
		toOnline = true
	}
	s.Unlock()
	return
}

func (s *userCounter) dec() (toOffline bool) {
	s.Lock()
	if s.count > 0 {
		s.count--
		s.lastUpdated = time.Now()
		if s.count == 0 {
			toOffline = true
		}
	}
	s.Unlock()
	return
}

func (s *userCounter) getLastUpdated() (t time.Time) {
	s.RLock()
	t = s.lastUpdated
	s.RUnlock()
	return
}

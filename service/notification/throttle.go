package notification

import (
	"time"

	"github.com/boz/go-throttle"
)

// presenceThrottle rate-limits the global presence broadcast. Trailing mode
// guarantees a final broadcast after the last trigger in a burst.
type presenceThrottle struct {
	driver throttle.ThrottleDriver
}

func newPresenceThrottle(interval time.Duration, f func()) *presenceThrottle {
	return &presenceThrottle{
		driver: throttle.ThrottleFunc(interval, true, f),
	}
}

// Trigger schedules a broadcast
func (t *presenceThrottle) Trigger() {
	t.driver.Trigger()
}

// Stop releases the underlying throttle
func (t *presenceThrottle) Stop() {
	t.driver.Stop()
}

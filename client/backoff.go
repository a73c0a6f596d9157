package client

import (
	"math/rand"
	"time"
)

// backoff exponential reconnect delay with +/-20% jitter
type backoff struct {
	min     time.Duration
	max     time.Duration
	attempt int
}

func newBackoff(min, max time.Duration) *backoff {
	return &backoff{min: min, max: max}
}

func (b *backoff) next() time.Duration {
	d := b.min << b.attempt
	if d > b.max || d <= 0 {
		d = b.max
	} else {
		b.attempt++
	}
	jitter := time.Duration(rand.Int63n(int64(d)/5+1)) - d/10
	return d + jitter
}

func (b *backoff) reset() {
	b.attempt = 0
}

package client

import (
	"sync"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/trackpoint-app/realtime/model"
)

// AudioPlayer plays the notification cue. Implementations may fail freely
// (autoplay policies, missing device); the Dispatcher swallows the error.
type AudioPlayer interface {
	Play() error
}

// ToastFunc renders a notification to the user
type ToastFunc func(model.NotificationEnvelope)

// Dispatcher routes delivered notification envelopes to a presentation
// path and gates the audio cue to at most one play per envelope id.
// Presentation is never deduplicated: a re-delivered envelope renders
// again, it just stays silent.
type Dispatcher struct {
	chatToast ToastFunc
	toast     ToastFunc
	audio     AudioPlayer
	logger    *zap.Logger

	mu     sync.Mutex
	played map[uuid.UUID]struct{}
}

// NewDispatcher creates a Dispatcher. Either toast func may be nil to skip
// that path; a nil audio player disables the cue.
func NewDispatcher(chatToast, toast ToastFunc, audio AudioPlayer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		chatToast: chatToast,
		toast:     toast,
		audio:     audio,
		logger:    logger.Named("notification"),
		played:    make(map[uuid.UUID]struct{}),
	}
}

// Dispatch presents the envelope and plays the audio cue at most once per
// envelope id
func (d *Dispatcher) Dispatch(env model.NotificationEnvelope) {
	if _, ok := env.ConversationID(); ok && env.Type == model.NotificationTypeChatMessage {
		if d.chatToast != nil {
			d.chatToast(env)
		}
	} else if d.toast != nil {
		d.toast(env)
	}

	d.playOnce(env.ID)
}

func (d *Dispatcher) playOnce(id uuid.UUID) {
	if d.audio == nil {
		return
	}

	d.mu.Lock()
	if _, ok := d.played[id]; ok {
		d.mu.Unlock()
		return
	}
	d.played[id] = struct{}{}
	d.mu.Unlock()

	if err := d.audio.Play(); err != nil {
		d.logger.Debug("audio cue failed", zap.Error(err))
	}
}

// Bind subscribes the dispatcher to a client's notification:new frames.
// Returns the unsubscribe.
func (d *Dispatcher) Bind(c *Client) (unsubscribe func()) {
	return c.Subscribe(EventNotificationNew, func(body []byte) {
		var env model.NotificationEnvelope
		if err := Unmarshal(body, &env); err != nil {
			d.logger.Warn("dropping unparsable notification", zap.Error(err))
			return
		}
		d.Dispatch(env)
	})
}

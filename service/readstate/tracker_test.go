package readstate

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/leandro-lugaresi/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackpoint-app/realtime/event"
)

type fixedUnreadCounter int

func (c fixedUnreadCounter) UnreadCount(_, _ uuid.UUID, _ time.Time) int { return int(c) }

func waitRead(t *testing.T, sub hub.Subscription) hub.Message {
	t.Helper()
	select {
	case msg := <-sub.Receiver:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("read event not published")
		return hub.Message{}
	}
}

func assertNoRead(t *testing.T, sub hub.Subscription, window time.Duration) {
	t.Helper()
	select {
	case msg := <-sub.Receiver:
		t.Fatalf("unexpected read event: %+v", msg.Fields)
	case <-time.After(window):
	}
}

func TestTracker_MarkRead(t *testing.T) {
	t.Parallel()

	h := hub.New()
	sub := h.Subscribe(16, event.ChatRead)
	tr := NewTracker(h, fixedUnreadCounter(3))

	conversation := uuid.Must(uuid.NewV4())
	user := uuid.Must(uuid.NewV4())
	at := time.Now().Truncate(time.Millisecond)

	require.True(t, tr.MarkRead(conversation, user, at))

	msg := waitRead(t, sub)
	assert.Equal(t, conversation, msg.Fields["conversation_id"])
	assert.Equal(t, user, msg.Fields["user_id"])
	assert.Equal(t, at, msg.Fields["read_at"])
	assert.Equal(t, 3, msg.Fields["unread_count"])

	got, ok := tr.LastRead(conversation, user)
	require.True(t, ok)
	assert.Equal(t, at, got)
}

func TestTracker_WatermarkNeverRegresses(t *testing.T) {
	t.Parallel()

	h := hub.New()
	sub := h.Subscribe(16, event.ChatRead)
	tr := NewTracker(h, nil)

	conversation := uuid.Must(uuid.NewV4())
	user := uuid.Must(uuid.NewV4())
	at := time.Now()

	require.True(t, tr.MarkRead(conversation, user, at))
	waitRead(t, sub)

	// duplicate and stale marks are dropped silently
	assert.False(t, tr.MarkRead(conversation, user, at))
	assert.False(t, tr.MarkRead(conversation, user, at.Add(-time.Minute)))
	assertNoRead(t, sub, 300*time.Millisecond)

	got, _ := tr.LastRead(conversation, user)
	assert.Equal(t, at, got)

	// a later mark advances and broadcasts again
	require.True(t, tr.MarkRead(conversation, user, at.Add(time.Minute)))
	waitRead(t, sub)
}

func TestTracker_WatermarksArePerUserPerConversation(t *testing.T) {
	t.Parallel()

	h := hub.New()
	tr := NewTracker(h, nil)

	convA := uuid.Must(uuid.NewV4())
	convB := uuid.Must(uuid.NewV4())
	userA := uuid.Must(uuid.NewV4())
	userB := uuid.Must(uuid.NewV4())
	at := time.Now()

	require.True(t, tr.MarkRead(convA, userA, at))

	_, ok := tr.LastRead(convA, userB)
	assert.False(t, ok)
	_, ok = tr.LastRead(convB, userA)
	assert.False(t, ok)
}

func TestNullUnreadCounter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, NullUnreadCounter{}.UnreadCount(uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), time.Now()))
}

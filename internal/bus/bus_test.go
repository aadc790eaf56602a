package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoorayapp/hooray-sync/internal/models"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := New()
	events, cancel := b.Subscribe()
	defer cancel()

	b.Publish(CommentSynced{
		OfflineID:     "off-1",
		CelebrationID: 42,
		Comment:       models.Comment{ID: "c99", CelebrationID: 42, Text: "hi"},
	})

	select {
	case ev := <-events:
		assert.Equal(t, "off-1", ev.OfflineID)
		assert.Equal(t, int64(42), ev.CelebrationID)
		assert.Equal(t, "c99", ev.Comment.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestCanceledSubscriberStopsReceiving(t *testing.T) {
	b := New()
	events, cancel := b.Subscribe()
	cancel()

	b.Publish(CommentSynced{OfflineID: "off-2"})

	_, open := <-events
	assert.False(t, open, "channel should be closed after cancel")
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(CommentSynced{OfflineID: "flood"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	b := New()
	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	b.Publish(CommentSynced{OfflineID: "off-3"})

	require.Equal(t, "off-3", (<-first).OfflineID)
	require.Equal(t, "off-3", (<-second).OfflineID)
}

// Package bus carries in-process notifications between the sync workflow
// and whatever view is currently rendered. It replaces the browser's global
// "offline comment synced" event with a typed subscription.
package bus

import (
	"sync"

	"github.com/hoorayapp/hooray-sync/internal/models"
)

// CommentSynced announces that a queued comment was confirmed by the
// server. A detail view holding a pending placeholder with OfflineID swaps
// it for the canonical Comment.
type CommentSynced struct {
	OfflineID     string
	CelebrationID int64
	Comment       models.Comment
}

// Bus is a process-lifetime publish/subscribe hub for CommentSynced events.
type Bus struct {
	mu   sync.Mutex
	subs []chan CommentSynced
}

func New() *Bus {
	return &Bus{}
}

// Subscribe returns a buffered channel of synced-comment events and a
// cancel function that detaches and closes it.
func (b *Bus) Subscribe() (<-chan CommentSynced, func()) {
	ch := make(chan CommentSynced, 8)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish fans the event out to every subscriber. A subscriber with a full
// buffer misses the event rather than stalling the sync pass; the UI can
// always reconcile from the store on its next load.
func (b *Bus) Publish(ev CommentSynced) {
	b.mu.Lock()
	subs := make([]chan CommentSynced, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoorayapp/hooray-sync/internal/models"
	"github.com/hoorayapp/hooray-sync/internal/store"
	"github.com/hoorayapp/hooray-sync/pkg/metrics"
)

// ErrConsentRequired is returned by Enqueue when the user has not granted
// storage consent. Nothing is persisted in that case; the caller surfaces a
// notice and drops the action.
var ErrConsentRequired = errors.New("storage consent not granted")

// Queue is the durable, ordered staging area for actions that could not be
// sent immediately. It is the sole owner of queued action records. Every
// read re-parses the persisted array and every mutation rewrites it whole:
// expected depth is single-digit, so the simplicity wins over incremental
// appends.
//
// Unlike a single-threaded browser runtime, enqueue (UI side) and remove
// (sync side) can run on different goroutines here, so all mutation is
// serialized through a mutex.
type Queue struct {
	store  *store.Store
	logger *slog.Logger
	mu     sync.Mutex
}

func New(st *store.Store, logger *slog.Logger) *Queue {
	return &Queue{store: st, logger: logger}
}

// GetAll returns the full current queue in insertion order, read fresh from
// the store. Missing or corrupt data reads as an empty queue.
func (q *Queue) GetAll(ctx context.Context) []models.OfflineAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Enqueue appends the action to the persisted queue and returns the stored
// entry, assigning a fresh unique id if the caller supplied none. The
// caller uses the returned id to track the pending placeholder it rendered.
// Fails with ErrConsentRequired before touching storage if consent is
// missing.
func (q *Queue) Enqueue(ctx context.Context, action models.OfflineAction) (models.OfflineAction, error) {
	if err := action.Validate(); err != nil {
		return models.OfflineAction{}, err
	}
	if !q.store.StorageConsentGranted(ctx) {
		return models.OfflineAction{}, ErrConsentRequired
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if action.ID == "" {
		action.ID = NewActionID()
	}

	actions := append(q.load(ctx), action)
	if err := q.persist(ctx, actions); err != nil {
		return models.OfflineAction{}, err
	}

	metrics.PendingActions.Set(float64(len(actions)))
	q.logger.Info("Queued offline action", "id", action.ID, "kind", action.Kind)
	return action, nil
}

// Remove filters the id out of the persisted queue. Removing an id that is
// not queued is a no-op, not an error.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	actions := q.load(ctx)
	kept := actions[:0]
	for _, a := range actions {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(actions) {
		return nil
	}

	if err := q.persist(ctx, kept); err != nil {
		return err
	}
	metrics.PendingActions.Set(float64(len(kept)))
	return nil
}

// Clear empties the persisted queue unconditionally.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.persist(ctx, nil); err != nil {
		return err
	}
	metrics.PendingActions.Set(0)
	return nil
}

// Depth returns the current queue length.
func (q *Queue) Depth(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.load(ctx))
}

// NewActionID generates a queue-unique action id: submission time in epoch
// milliseconds plus a random suffix. Never reused.
func NewActionID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func (q *Queue) load(ctx context.Context) []models.OfflineAction {
	var actions []models.OfflineAction
	q.store.GetJSON(ctx, store.KeyOfflineQueue, &actions)
	return actions
}

func (q *Queue) persist(ctx context.Context, actions []models.OfflineAction) error {
	if actions == nil {
		actions = []models.OfflineAction{}
	}
	if err := q.store.PutJSON(ctx, store.KeyOfflineQueue, actions); err != nil {
		return fmt.Errorf("persist offline queue: %w", err)
	}
	return nil
}

package queue

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoorayapp/hooray-sync/internal/models"
	"github.com/hoorayapp/hooray-sync/internal/store"
)

func newTestQueue(t *testing.T, consent bool) (*Queue, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "hooray.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if consent {
		require.NoError(t, st.GrantStorageConsent(context.Background()))
	}
	return New(st, logger), st
}

func commentAction(user, text string) models.OfflineAction {
	return models.OfflineAction{
		Kind: models.ActionComment,
		Comment: &models.CommentAction{
			CelebrationID: 42,
			Text:          text,
			CreatedAt:     "2026-08-29T10:00:00Z",
			User:          models.UserSnapshot{ID: user, Name: "Ada", Email: "ada@example.com"},
		},
	}
}

func TestEnqueueAssignsUniqueIDs(t *testing.T) {
	q, _ := newTestQueue(t, true)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, commentAction("u1", "one"))
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, commentAction("u1", "two"))
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEnqueuePreservesSubmissionOrder(t *testing.T) {
	q, _ := newTestQueue(t, true)
	ctx := context.Background()

	texts := []string{"one", "two", "three"}
	for _, text := range texts {
		_, err := q.Enqueue(ctx, commentAction("u1", text))
		require.NoError(t, err)
	}

	actions := q.GetAll(ctx)
	require.Len(t, actions, 3)
	for i, a := range actions {
		assert.Equal(t, texts[i], a.Comment.Text)
	}
}

func TestEnqueueRequiresConsent(t *testing.T) {
	q, _ := newTestQueue(t, false)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, commentAction("u1", "no consent"))
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Empty(t, q.GetAll(ctx), "nothing may be persisted without consent")
}

func TestEnqueueRejectsMalformedAction(t *testing.T) {
	q, _ := newTestQueue(t, true)

	_, err := q.Enqueue(context.Background(), models.OfflineAction{Kind: models.ActionComment})
	assert.ErrorIs(t, err, models.ErrMalformedAction)
}

func TestRemoveSurvivingSetKeepsOrder(t *testing.T) {
	q, _ := newTestQueue(t, true)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"a", "b", "c", "d"} {
		stored, err := q.Enqueue(ctx, commentAction("u1", text))
		require.NoError(t, err)
		ids = append(ids, stored.ID)
	}

	require.NoError(t, q.Remove(ctx, ids[1]))
	require.NoError(t, q.Remove(ctx, ids[3]))

	actions := q.GetAll(ctx)
	require.Len(t, actions, 2)
	assert.Equal(t, "a", actions[0].Comment.Text)
	assert.Equal(t, "c", actions[1].Comment.Text)
}

func TestRemoveUnknownIDIsNoOp(t *testing.T) {
	q, _ := newTestQueue(t, true)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, commentAction("u1", "keep me"))
	require.NoError(t, err)

	require.NoError(t, q.Remove(ctx, "never-queued"))
	assert.Len(t, q.GetAll(ctx), 1)
}

func TestClear(t *testing.T) {
	q, _ := newTestQueue(t, true)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, commentAction("u1", "gone"))
	require.NoError(t, err)

	require.NoError(t, q.Clear(ctx))
	assert.Empty(t, q.GetAll(ctx))
	assert.Zero(t, q.Depth(ctx))
}

func TestQueueSurvivesReopen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "hooray.db")
	ctx := context.Background()

	st, err := store.Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, st.GrantStorageConsent(ctx))

	q := New(st, logger)
	stored, err := q.Enqueue(ctx, commentAction("u1", "durable"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = store.Open(path, logger)
	require.NoError(t, err)
	defer st.Close()

	reloaded := New(st, logger).GetAll(ctx)
	require.Len(t, reloaded, 1)
	assert.Equal(t, stored.ID, reloaded[0].ID)
	assert.Equal(t, "durable", reloaded[0].Comment.Text)
}

func TestCallerSuppliedIDIsKept(t *testing.T) {
	q, _ := newTestQueue(t, true)

	action := commentAction("u1", "pinned id")
	action.ID = "1756464000000-fixed"

	stored, err := q.Enqueue(context.Background(), action)
	require.NoError(t, err)
	assert.Equal(t, "1756464000000-fixed", stored.ID)
}

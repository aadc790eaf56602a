package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoorayapp/hooray-sync/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := Open(filepath.Join(t.TempDir(), "hooray.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPutGetJSONRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	in := map[string]int{"a": 1, "b": 2}
	require.NoError(t, st.PutJSON(ctx, "test_slot", in))

	var out map[string]int
	assert.True(t, st.GetJSON(ctx, "test_slot", &out))
	assert.Equal(t, in, out)
}

func TestGetJSONMissingKeyReadsAsAbsent(t *testing.T) {
	st := newTestStore(t)

	var out []string
	assert.False(t, st.GetJSON(context.Background(), "never_written", &out))
	assert.Empty(t, out)
}

func TestGetJSONCorruptSlotReadsAsAbsent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.putRaw(ctx, "broken", []byte("{definitely not json")))

	var out map[string]any
	assert.False(t, st.GetJSON(ctx, "broken", &out), "corrupt data must read as empty, not error")
}

func TestPutJSONOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutJSON(ctx, "slot", "first"))
	require.NoError(t, st.PutJSON(ctx, "slot", "second"))

	var out string
	require.True(t, st.GetJSON(ctx, "slot", &out))
	assert.Equal(t, "second", out)
}

func TestDeleteIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutJSON(ctx, "slot", 1))
	require.NoError(t, st.Delete(ctx, "slot"))
	require.NoError(t, st.Delete(ctx, "slot"))

	var out int
	assert.False(t, st.GetJSON(ctx, "slot", &out))
}

func TestCelebrationsCache(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assert.Empty(t, st.Celebrations(ctx))

	list := []models.Celebration{
		{ID: 2, Title: "Street feast", CreatedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)},
		{ID: 1, Title: "Park cleanup party", CreatedAt: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, st.SaveCelebrations(ctx, list))
	assert.Equal(t, list, st.Celebrations(ctx))
}

func TestLastUpdated(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assert.Zero(t, st.LastUpdated(ctx))
	require.NoError(t, st.SetLastUpdated(ctx, 1756464000000))
	assert.Equal(t, int64(1756464000000), st.LastUpdated(ctx))
}

func TestPermissionFlags(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	assert.False(t, st.StorageConsentGranted(ctx))
	require.NoError(t, st.GrantStorageConsent(ctx))
	assert.True(t, st.StorageConsentGranted(ctx))
	require.NoError(t, st.RevokeStorageConsent(ctx))
	assert.False(t, st.StorageConsentGranted(ctx))

	assert.False(t, st.LocationPromptShown(ctx))
	require.NoError(t, st.MarkLocationPromptShown(ctx))
	assert.True(t, st.LocationPromptShown(ctx))

	assert.False(t, st.CameraPromptAcked(ctx))
	require.NoError(t, st.AckCameraPrompt(ctx))
	assert.True(t, st.CameraPromptAcked(ctx))
}

func TestValuesSurviveReopen(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "hooray.db")
	ctx := context.Background()

	st, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, st.PutJSON(ctx, "slot", "durable"))
	require.NoError(t, st.GrantStorageConsent(ctx))
	require.NoError(t, st.Close())

	st, err = Open(path, logger)
	require.NoError(t, err)
	defer st.Close()

	var out string
	assert.True(t, st.GetJSON(ctx, "slot", &out))
	assert.Equal(t, "durable", out)
	assert.True(t, st.StorageConsentGranted(ctx))
}

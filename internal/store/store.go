package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hoorayapp/hooray-sync/internal/models"
)

// Storage slot keys. Values are JSON blobs except the marker flags, which
// are bare strings.
const (
	KeyOfflineQueue        = "offline_queue"
	KeyCelebrationsCache   = "celebrations_cache"
	KeyLastUpdated         = "last_updated"
	KeyStorageConsent      = "storage_consent"
	KeyLocationPromptShown = "location_prompt_shown"
	KeyCameraPromptAck     = "camera_prompt_ack"
)

// Store is the on-device persistence layer: one SQLite file with a single
// key/value table of JSON slots. Reads always go to disk so a value written
// by another process (the daemon vs. queuectl) is visible on the next call.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the backing file and schema if needed.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	// Local single-file store: one writer connection keeps SQLite happy
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("local store ping failed: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS slots (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local store schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetJSON reads a slot into dest and reports whether a usable value was
// found. Missing, unreadable, and corrupt slots all read as absent: the
// failure is logged, never raised. Availability beats strict durability for
// a cache of casual social content.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok := s.getRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("Corrupt slot treated as empty", "key", key, "error", err)
		return false
	}
	return true
}

// PutJSON serializes v and overwrites the slot.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize slot %s: %w", key, err)
	}
	return s.putRaw(ctx, key, raw)
}

// Delete drops a slot. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}

// Celebrations returns the cached celebration list, newest first. An empty
// or corrupt cache reads as empty.
func (s *Store) Celebrations(ctx context.Context) []models.Celebration {
	var list []models.Celebration
	s.GetJSON(ctx, KeyCelebrationsCache, &list)
	return list
}

// SaveCelebrations overwrites the cached celebration list.
func (s *Store) SaveCelebrations(ctx context.Context, list []models.Celebration) error {
	return s.PutJSON(ctx, KeyCelebrationsCache, list)
}

// LastUpdated returns the last cache refresh time in epoch milliseconds,
// zero if never set.
func (s *Store) LastUpdated(ctx context.Context) int64 {
	var ms int64
	s.GetJSON(ctx, KeyLastUpdated, &ms)
	return ms
}

func (s *Store) SetLastUpdated(ctx context.Context, ms int64) error {
	return s.PutJSON(ctx, KeyLastUpdated, ms)
}

func (s *Store) getRaw(ctx context.Context, key string) ([]byte, bool) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Unreadable slot treated as empty", "key", key, "error", err)
		}
		return nil, false
	}
	return raw, true
}

func (s *Store) putRaw(ctx context.Context, key string, raw []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, raw)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

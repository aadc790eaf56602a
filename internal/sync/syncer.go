package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hoorayapp/hooray-sync/internal/bus"
	"github.com/hoorayapp/hooray-sync/internal/dataurl"
	"github.com/hoorayapp/hooray-sync/internal/models"
	"github.com/hoorayapp/hooray-sync/internal/netwatch"
	"github.com/hoorayapp/hooray-sync/internal/queue"
	"github.com/hoorayapp/hooray-sync/internal/remote"
	"github.com/hoorayapp/hooray-sync/internal/store"
	"github.com/hoorayapp/hooray-sync/pkg/infra"
	"github.com/hoorayapp/hooray-sync/pkg/metrics"
)

var (
	// ErrOffline is returned when a pass is requested while the network
	// observer reports offline. No remote call is attempted.
	ErrOffline = errors.New("offline")

	// ErrPassInFlight is returned when a pass is already draining the
	// queue. The running pass will be followed by exactly one more.
	ErrPassInFlight = errors.New("sync pass already in flight")
)

// AuthService resolves the identity of the current session.
type AuthService interface {
	CurrentUser(ctx context.Context) (*models.UserSnapshot, error)
}

// CommentService submits comments to the remote backend.
type CommentService interface {
	AddComment(ctx context.Context, celebrationID int64, text string, user models.UserSnapshot) (*models.Comment, error)
}

// CelebrationService creates celebrations on the remote backend.
type CelebrationService interface {
	CreateCelebration(ctx context.Context, input remote.CelebrationInput, user models.UserSnapshot, loc models.Location) (*models.Celebration, error)
}

// MediaService stores image bytes and returns a durable storage path.
type MediaService interface {
	UploadFile(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// FeedPublisher announces confirmed celebrations on the realtime feed.
type FeedPublisher interface {
	PublishCelebrationCreated(ctx context.Context, celebration models.Celebration) error
}

// PassResult summarizes one drain pass.
type PassResult struct {
	Seen    int // actions found queued at the start of the pass
	Synced  int // confirmed remotely and removed
	Failed  int // errored, left queued for a later pass
	Skipped int // identity mismatch, left queued untouched
}

// Options wires the Syncer's collaborators. Feed is optional; everything
// else is required.
type Options struct {
	Queue        *queue.Queue
	Store        *store.Store
	Observer     *netwatch.Observer
	Auth         AuthService
	Comments     CommentService
	Celebrations CelebrationService
	Media        MediaService
	Feed         FeedPublisher
	Bus          *bus.Bus
	Backoff      *infra.Backoff
	Logger       *slog.Logger
}

// Syncer opportunistically drains the offline queue whenever the app
// believes it is online, converting queued descriptors into confirmed
// remote entities and patching local state to match.
//
// An action is removed from the queue only after the corresponding remote
// write returned a confirmed record. Failures are isolated per entry: one
// failing action never blocks or rolls back the rest of the pass.
type Syncer struct {
	queue        *queue.Queue
	store        *store.Store
	observer     *netwatch.Observer
	auth         AuthService
	comments     CommentService
	celebrations CelebrationService
	media        MediaService
	feed         FeedPublisher
	bus          *bus.Bus
	backoff      *infra.Backoff
	logger       *slog.Logger

	inFlight atomic.Bool
	rerun    atomic.Bool
}

func New(opts Options) *Syncer {
	return &Syncer{
		queue:        opts.Queue,
		store:        opts.Store,
		observer:     opts.Observer,
		auth:         opts.Auth,
		comments:     opts.Comments,
		celebrations: opts.Celebrations,
		media:        opts.Media,
		feed:         opts.Feed,
		bus:          opts.Bus,
		backoff:      opts.Backoff,
		logger:       opts.Logger,
	}
}

// RunPass performs one complete attempt to drain the queue. Safe to call
// from any goroutine; overlapping calls collapse into the running pass plus
// one follow-up.
func (s *Syncer) RunPass(ctx context.Context) (PassResult, error) {
	if !s.observer.Online() {
		return PassResult{}, ErrOffline
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.rerun.Store(true)
		return PassResult{}, ErrPassInFlight
	}
	defer s.inFlight.Store(false)

	start := time.Now()
	var result PassResult

	actions := s.queue.GetAll(ctx)
	result.Seen = len(actions)
	metrics.PassSize.Observe(float64(len(actions)))

	if len(actions) == 0 {
		metrics.PendingActions.Set(0)
		return result, nil
	}

	defer func() {
		metrics.PassDuration.Observe(time.Since(start).Seconds())
		s.logger.Info("Sync pass finished",
			"seen", result.Seen,
			"synced", result.Synced,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	// One identity lookup per pass: every action is checked against the
	// same session user.
	user, err := s.auth.CurrentUser(ctx)
	if err != nil && !errors.Is(err, remote.ErrNoSession) {
		s.logger.Warn("Could not resolve session user, treating all actions as skipped", "error", err)
	}

	for _, action := range actions {
		select {
		case <-ctx.Done():
			s.updatePendingGauge(context.WithoutCancel(ctx))
			return result, ctx.Err()
		default:
		}

		l := s.logger.With("action_id", action.ID, "kind", action.Kind)

		if err := action.Validate(); err != nil {
			// Never dropped: a malformed entry stays queued so no user
			// intent silently disappears, but it cannot be replayed.
			l.Error("Malformed queued action", "error", err)
			metrics.ActionsReplayed.WithLabelValues("malformed", string(action.Kind)).Inc()
			result.Failed++
			continue
		}

		if user == nil || user.ID != action.ActorID() {
			// A different user (or nobody) is signed in now. Leave the
			// action queued for a future pass under the right identity so
			// one user's offline draft is never posted under another
			// user's session.
			l.Debug("Identity mismatch, leaving action queued")
			metrics.ActionsReplayed.WithLabelValues("skipped_identity", string(action.Kind)).Inc()
			result.Skipped++
			continue
		}

		switch action.Kind {
		case models.ActionComment:
			err = s.replayComment(ctx, action)
		case models.ActionCelebration:
			err = s.replayCelebration(ctx, action, *user)
		}

		if err != nil {
			l.Error("Replay failed, action stays queued", "error", err)
			metrics.ActionsReplayed.WithLabelValues("failed", string(action.Kind)).Inc()
			result.Failed++
			continue
		}

		metrics.ActionsReplayed.WithLabelValues("synced", string(action.Kind)).Inc()
		result.Synced++
	}

	s.updatePendingGauge(ctx)
	return result, nil
}

// replayComment submits a queued comment under the identity captured at
// enqueue time, removes it from the queue on confirmation, and notifies the
// UI so the pending placeholder can be swapped for the canonical record.
func (s *Syncer) replayComment(ctx context.Context, action models.OfflineAction) error {
	payload := action.Comment

	comment, err := s.comments.AddComment(ctx, payload.CelebrationID, payload.Text, payload.User)
	if err != nil {
		return fmt.Errorf("submit comment: %w", err)
	}

	if err := s.queue.Remove(ctx, action.ID); err != nil {
		return fmt.Errorf("remove synced comment action: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(bus.CommentSynced{
			OfflineID:     action.ID,
			CelebrationID: payload.CelebrationID,
			Comment:       *comment,
		})
	}
	return nil
}

// replayCelebration turns a queued celebration draft into a confirmed
// remote entity: decode the inline image, upload it for a durable storage
// path, create the record, then patch the local cache.
func (s *Syncer) replayCelebration(ctx context.Context, action models.OfflineAction, user models.UserSnapshot) error {
	payload := action.Celebration

	mediaType, imageBytes, err := dataurl.Decode(payload.Draft.ImageDataURL)
	if err != nil {
		return fmt.Errorf("decode queued image: %w", err)
	}

	storagePath, err := s.media.UploadFile(ctx, action.ID+dataurl.Ext(mediaType), mediaType, imageBytes)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}

	input := remote.CelebrationInput{
		Title:       payload.Draft.Title,
		Description: payload.Draft.Description,
		ImageURL:    storagePath,
	}
	celebration, err := s.celebrations.CreateCelebration(ctx, input, user, payload.Location)
	if err != nil {
		return fmt.Errorf("create celebration: %w", err)
	}

	// Confirmed: patch local state, then unqueue. If the process dies
	// between these writes the action is replayed once more, which is the
	// documented duplicate risk of a non-idempotent create.
	cached := append([]models.Celebration{*celebration}, s.store.Celebrations(ctx)...)
	if err := s.store.SaveCelebrations(ctx, cached); err != nil {
		s.logger.Warn("Could not update celebrations cache", "error", err)
	}
	if err := s.store.SetLastUpdated(ctx, time.Now().UnixMilli()); err != nil {
		s.logger.Warn("Could not update last-updated timestamp", "error", err)
	}

	if err := s.queue.Remove(ctx, action.ID); err != nil {
		return fmt.Errorf("remove synced celebration action: %w", err)
	}

	// Best effort: the celebration exists either way, and retrying the
	// whole action would create it twice.
	if s.feed != nil {
		if err := s.feed.PublishCelebrationCreated(ctx, *celebration); err != nil {
			s.logger.Warn("Could not announce celebration on realtime feed", "celebration_id", celebration.ID, "error", err)
		}
	}
	return nil
}

func (s *Syncer) updatePendingGauge(ctx context.Context) {
	metrics.PendingActions.Set(float64(s.queue.Depth(ctx)))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hoorayapp/hooray-sync/internal/bus"
	"github.com/hoorayapp/hooray-sync/internal/config"
	"github.com/hoorayapp/hooray-sync/internal/feed"
	"github.com/hoorayapp/hooray-sync/internal/models"
	"github.com/hoorayapp/hooray-sync/internal/netwatch"
	"github.com/hoorayapp/hooray-sync/internal/queue"
	"github.com/hoorayapp/hooray-sync/internal/remote"
	"github.com/hoorayapp/hooray-sync/internal/store"
	syncer "github.com/hoorayapp/hooray-sync/internal/sync"
	"github.com/hoorayapp/hooray-sync/pkg/infra"
	"github.com/hoorayapp/hooray-sync/pkg/metrics"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		slog.Error("Fatal error opening local store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	backend, err := remote.NewBackend(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		slog.Error("Fatal error configuring backend client", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	auth := remote.NewAuthClient(cfg.AuthBaseURL, cfg.AuthAnonKey, logger)
	if cfg.AuthAccessToken != "" {
		if err := auth.SetSession(ctx, cfg.AuthAccessToken); err != nil {
			slog.Warn("Could not resolve session at startup, queued actions will wait", "error", err)
		}
	}

	media, err := remote.NewMediaUploader(ctx, cfg, logger)
	if err != nil {
		slog.Error("Fatal error configuring media uploader", "error", err)
		os.Exit(1)
	}

	q := queue.New(st, logger)
	metrics.PendingActions.Set(float64(q.Depth(ctx)))

	observer := netwatch.NewObserver(false, logger)
	prober := netwatch.NewProber(observer, cfg.ProbeURL, cfg.ProbeInterval, logger)
	observer.SetOnline(prober.ProbeOnce(ctx))

	link := &feedLink{}
	go maintainFeedLink(ctx, link, cfg, logger)

	hub := bus.New()
	go logSyncedComments(ctx, hub, logger)

	s := syncer.New(syncer.Options{
		Queue:        q,
		Store:        st,
		Observer:     observer,
		Auth:         sessionAuth{client: auth},
		Comments:     backend,
		Celebrations: backend,
		Media:        media,
		Feed:         link,
		Bus:          hub,
		Backoff:      infra.NewBackoff(cfg.RetryMinDelay, cfg.RetryMaxDelay, cfg.RetryMultiplier),
		Logger:       logger,
	})

	go prober.Run(ctx)
	go serveMetrics(ctx, cfg.MetricsAddr)

	slog.Info("🎉 Hooray sync daemon started", "pid", os.Getpid(), "queue_depth", q.Depth(ctx))

	s.Run(ctx)
	slog.Info("✅ Shutdown complete")
}

// sessionAuth adapts the auth client to the syncer's identity contract.
type sessionAuth struct {
	client *remote.AuthClient
}

func (a sessionAuth) CurrentUser(ctx context.Context) (*models.UserSnapshot, error) {
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	snap := user.Snapshot()
	return &snap, nil
}

// feedLink is the syncer's handle on the realtime feed. The broker can be
// down while the rest of the daemon keeps working, so the live client is
// swapped in and out behind a lock by maintainFeedLink.
type feedLink struct {
	mu     sync.Mutex
	client *feed.Client
}

func (f *feedLink) PublishCelebrationCreated(ctx context.Context, c models.Celebration) error {
	f.mu.Lock()
	client := f.client
	f.mu.Unlock()

	if client == nil || !client.IsHealthy() {
		return fmt.Errorf("realtime feed unavailable")
	}
	return client.PublishCelebrationCreated(ctx, c)
}

func (f *feedLink) swap(client *feed.Client) *feed.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	old := f.client
	f.client = client
	return old
}

func (f *feedLink) healthy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client != nil && f.client.IsHealthy()
}

// maintainFeedLink keeps the broker connection alive, rebuilding it with
// backoff whenever it drops.
func maintainFeedLink(ctx context.Context, link *feedLink, cfg *config.Config, logger *slog.Logger) {
	backoff := infra.NewBackoff(1*time.Second, 60*time.Second, 2.0)

	for {
		if link.healthy() {
			select {
			case <-time.After(5 * time.Second):
				continue
			case <-ctx.Done():
				if old := link.swap(nil); old != nil {
					old.Close()
				}
				return
			}
		}

		client, err := feed.NewClient(cfg.RabbitMQURL, logger)
		if err != nil {
			wait := backoff.Next()
			logger.Warn("Feed broker link failure, retrying", "wait", wait, "error", err)
			metrics.FeedReconnections.Inc()

			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return
			}
		}

		logger.Info("Feed broker link established")
		backoff.Reset()
		if old := link.swap(client); old != nil {
			old.Close()
		}
	}
}

// logSyncedComments is the daemon-side subscriber for sync notifications:
// a headless process has no placeholder to patch, so it records the
// confirmation for diagnostics.
func logSyncedComments(ctx context.Context, hub *bus.Bus, logger *slog.Logger) {
	events, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			logger.Info("Offline comment synced",
				"offline_id", ev.OfflineID,
				"celebration_id", ev.CelebrationID,
				"comment_id", ev.Comment.ID,
			)
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Metrics server failed", "error", err)
	}
}

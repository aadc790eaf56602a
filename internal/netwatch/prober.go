package netwatch

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Prober stands in for the browser's online/offline events: it issues a
// cheap HEAD request against the backend health endpoint on a fixed
// interval and feeds the result into the observer. Any HTTP response,
// including an error status, proves the network path is up; only transport
// failures count as offline.
type Prober struct {
	observer *Observer
	url      string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger
}

func NewProber(obs *Observer, url string, interval time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		observer: obs,
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

// ProbeOnce performs a single connectivity check and reports the result.
func (p *Prober) ProbeOnce(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.logger.Error("Invalid probe URL", "url", p.url, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Run probes on the configured interval and pushes transitions into the
// observer until the context is canceled. It blocks.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Connectivity prober started", "url", p.url, "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Connectivity prober stopping")
			return
		case <-ticker.C:
			p.observer.SetOnline(p.ProbeOnce(ctx))
		}
	}
}

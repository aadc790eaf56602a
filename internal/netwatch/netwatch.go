package netwatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hoorayapp/hooray-sync/pkg/metrics"
)

// Observer is the single process-wide connectivity signal. It holds two
// states, online and offline, and timestamps every transition. The observer
// itself never probes anything: transitions are fed in by a platform signal
// source (the Prober in this package, or a direct SetOnline call).
//
// A source that silently stops reporting leaves the observer stale, the
// same way a browser that never fires its offline event would.
type Observer struct {
	mu           sync.Mutex
	online       bool
	lastChangeAt time.Time
	subs         []chan bool
	logger       *slog.Logger
}

// NewObserver creates an observer with the given initial state, read from
// the platform's current connectivity at construction time.
func NewObserver(initialOnline bool, logger *slog.Logger) *Observer {
	o := &Observer{
		online:       initialOnline,
		lastChangeAt: time.Now(),
		logger:       logger,
	}
	setOnlineGauge(initialOnline)
	return o
}

// Online returns the current believed connectivity.
func (o *Observer) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

// LastChangeAt returns when the state last flipped.
func (o *Observer) LastChangeAt() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastChangeAt
}

// SetOnline records a connectivity transition. Reporting the current state
// again is a no-op; subscribers only hear actual flips.
func (o *Observer) SetOnline(online bool) {
	o.mu.Lock()
	if o.online == online {
		o.mu.Unlock()
		return
	}
	o.online = online
	o.lastChangeAt = time.Now()
	subs := make([]chan bool, len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	setOnlineGauge(online)
	o.logger.Info("Connectivity changed", "online", online)

	for _, ch := range subs {
		// Non-blocking: a subscriber that has not drained its previous
		// notification only needs to know a flip happened, not how many.
		select {
		case ch <- online:
		default:
		}
	}
}

// Subscribe returns a channel receiving each state flip and a cancel
// function that detaches it. The channel is buffered; notifications are
// dropped rather than blocking the reporting source.
func (o *Observer) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, 1)

	o.mu.Lock()
	o.subs = append(o.subs, ch)
	o.mu.Unlock()

	cancel := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, sub := range o.subs {
			if sub == ch {
				o.subs = append(o.subs[:i], o.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

func setOnlineGauge(online bool) {
	if online {
		metrics.NetworkOnline.Set(1)
	} else {
		metrics.NetworkOnline.Set(0)
	}
}

package sync

import (
	"context"
	"errors"
	"time"
)

// Run drives the syncer until the context is canceled. Passes are
// triggered by:
//   - one eager pass at startup, in case actions were queued in a previous
//     session and the app reloads already online;
//   - every offline→online transition reported by the network observer;
//   - a jittered backoff timer while replay failures remain, so a stuck
//     action is retried without hammering the backend.
//
// The backoff resets whenever a pass makes progress. It blocks.
func (s *Syncer) Run(ctx context.Context) {
	transitions, cancel := s.observer.Subscribe()
	defer cancel()

	var retryC <-chan time.Time

	schedule := func(result PassResult, err error) {
		switch {
		case err != nil && errors.Is(err, ErrOffline):
			// Reconnect is the next trigger; a timer would just burn
			// cycles against a dead link.
			retryC = nil
			s.backoff.Reset()
		case err != nil:
			retryC = time.After(s.backoff.Next())
		case s.rerun.Swap(false):
			// A trigger fired mid-pass; honor it with one follow-up.
			retryC = time.After(time.Second)
		case result.Failed > 0:
			if result.Synced > 0 {
				s.backoff.Reset()
			}
			retryC = time.After(s.backoff.Next())
		default:
			s.backoff.Reset()
			retryC = nil
		}
	}

	s.logger.Info("Sync workflow started")
	schedule(s.RunPass(ctx))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync workflow stopping")
			return
		case online := <-transitions:
			if !online {
				retryC = nil
				s.backoff.Reset()
				continue
			}
			schedule(s.RunPass(ctx))
		case <-retryC:
			schedule(s.RunPass(ctx))
		}
	}
}

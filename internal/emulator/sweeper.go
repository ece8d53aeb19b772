package emulator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically purges expired secret versions from the store,
// so a long-running emulator doesn't accumulate dead material.
type Sweeper struct {
	store    Store
	log      *logrus.Entry
	interval time.Duration
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(store Store, log *logrus.Entry, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		log:      log,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is canceled. It blocks; run it in
// its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.interval.String()).Info("expiry sweeper started")

	// Sweep once at startup so restarts clear stale material promptly.
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.log.Info("expiry sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	purged, err := s.store.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		s.log.WithError(err).Warn("expiry sweep failed")
		return
	}
	if purged > 0 {
		secretVersionsPurged.Add(float64(purged))
		s.log.WithField("purged", purged).Info("purged expired secret versions")
	}
}

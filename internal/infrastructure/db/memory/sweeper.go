package memory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/api/metrics"
)

// Sweeper periodically evicts deliveries that stopped reporting.
type Sweeper struct {
	store    *TrackingStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewSweeper returns a Sweeper that evicts deliveries idle for longer than ttl,
// checking every interval.
func NewSweeper(store *TrackingStore, ttl, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{store: store, ttl: ttl, interval: interval, now: time.Now, log: log}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Sweeper) sweepOnce() int {
	removed := s.store.Sweep(s.now().Add(-s.ttl))
	if len(removed) > 0 {
		metrics.RetentionEvictionsTotal.WithLabelValues("sweep").Add(float64(len(removed)))
		metrics.TrackedDeliveries.Set(float64(s.store.Len()))
		s.log.Info().Int("evicted", len(removed)).Dur("ttl", s.ttl).Msg("idle deliveries evicted")
	}
	return len(removed)
}

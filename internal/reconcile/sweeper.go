package reconcile

import (
	"context"
	"time"

	"maib-checkout/internal/metrics"
	"maib-checkout/internal/payment"

	"go.uber.org/zap"
)

type Sweeper struct {
	payments     payment.Service
	worker       *Worker
	interval     time.Duration
	stalledAfter time.Duration
	batchSize    int
	stats        *metrics.ReconcileStats
	now          func() time.Time
	log          *zap.Logger
}

func NewSweeper(payments payment.Service, worker *Worker, interval, stalledAfter time.Duration, batchSize int, stats *metrics.ReconcileStats, log *zap.Logger) *Sweeper {
	return &Sweeper{
		payments:     payments,
		worker:       worker,
		interval:     interval,
		stalledAfter: stalledAfter,
		batchSize:    batchSize,
		stats:        stats,
		now:          time.Now,
		log:          log,
	}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Stalled payment sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("stalled_after", s.stalledAfter),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce feeds every currently stalled payment to the worker, one by
// one, and returns how many were handed over.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	timer := metrics.StartTimer()
	s.stats.Sweeps.Inc()

	ids, err := s.payments.ListStalled(ctx, s.now().Add(-s.stalledAfter), s.batchSize)
	if err != nil {
		s.log.Error("Failed to list stalled payments", zap.Error(err))
		return 0
	}

	n := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		s.worker.ProcessItem(ctx, id)
		n++
	}

	if n > 0 {
		s.log.Info("Swept stalled payments", zap.Int("count", n), zap.Duration("took", timer.Duration()))
	}
	return n
}

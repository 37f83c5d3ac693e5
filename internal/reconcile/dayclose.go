package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type DayCloser interface {
	CloseDay(ctx context.Context) error
}

// DayCloseJob closes the merchant's business day at a fixed interval.
type DayCloseJob struct {
	gateway  DayCloser
	interval time.Duration
	log      *zap.Logger
}

func NewDayCloseJob(gateway DayCloser, interval time.Duration, log *zap.Logger) *DayCloseJob {
	return &DayCloseJob{gateway: gateway, interval: interval, log: log}
}

func (j *DayCloseJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *DayCloseJob) RunOnce(ctx context.Context) {
	if err := j.gateway.CloseDay(ctx); err != nil {
		j.log.Error("Failed to close business day", zap.Error(err))
	}
}

// Package jobs runs the periodic housekeeping tasks.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	PurgeResetCodesSpec = "@every 1h"
	PruneLimitersSpec   = "@every 10m"

	// LimiterIdle is how long a client IP may stay quiet before its bucket is dropped.
	LimiterIdle = 30 * time.Minute
)

type ResetPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type LimiterPruner interface {
	Cleanup(maxIdle time.Duration) int
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New registers the housekeeping jobs. Limiters may be empty.
func New(resets ResetPurger, limiters []LimiterPruner, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		log:  log,
	}

	if _, err := s.cron.AddFunc(PurgeResetCodesSpec, func() { PurgeResetCodes(resets, log) }); err != nil {
		return nil, err
	}
	if len(limiters) > 0 {
		if _, err := s.cron.AddFunc(PruneLimitersSpec, func() { PruneLimiters(limiters, log) }); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func PurgeResetCodes(resets ResetPurger, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := resets.PurgeExpired(ctx)
	if err != nil {
		log.Error("purge reset codes", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("purged expired reset codes", zap.Int64("count", n))
	}
}

func PruneLimiters(limiters []LimiterPruner, log *zap.Logger) {
	total := 0
	for _, l := range limiters {
		total += l.Cleanup(LimiterIdle)
	}
	log.Debug("pruned idle rate limiters", zap.Int("count", total))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs or for ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

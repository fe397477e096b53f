// Package jobs runs the engine's scheduled maintenance: expiring stuck
// PENDING transactions and rolling spend counters over their daily and
// monthly windows.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"payvo/internal/repositories"
	"payvo/internal/services/ledger"
	"payvo/internal/services/limits"
)

const resetSweepBatch = 500

// Scheduler owns the cron runner.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  *ledger.Sweeper
	enforcer *limits.Enforcer
	repo     repositories.WalletRepository
}

func NewScheduler(sweeper *ledger.Sweeper, enforcer *limits.Enforcer, repo repositories.WalletRepository) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sweeper:  sweeper,
		enforcer: enforcer,
		repo:     repo,
	}
}

// Start registers the jobs and begins the schedule: pending sweeps every
// 30 seconds, counter resets just after the UTC day boundary.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 30s", func() {
		s.sweeper.Sweep(context.Background())
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("1 0 * * *", func() {
		if err := s.enforcer.SweepDueResets(context.Background(), s.repo, time.Now(), resetSweepBatch); err != nil {
			log.Printf("limit reset sweep: %v", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

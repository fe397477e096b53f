package ledger

import (
	"context"
	"log"
	"time"

	"payvo/internal/repositories"
)

// Default sweep settings
const (
	DefaultPendingTimeout = 15 * time.Minute
	DefaultSweepBatch     = 100
)

// Sweeper fails PENDING entries that never received a finalize, rolling
// back their holds. No reservation is ever left in limbo behind an
// unresponsive provider.
type Sweeper struct {
	ledger  Service
	repo    repositories.WalletRepository
	timeout time.Duration
	batch   int
}

func NewSweeper(ledger Service, repo repositories.WalletRepository, timeout time.Duration) *Sweeper {
	if timeout <= 0 {
		timeout = DefaultPendingTimeout
	}
	return &Sweeper{
		ledger:  ledger,
		repo:    repo,
		timeout: timeout,
		batch:   DefaultSweepBatch,
	}
}

// Sweep finalizes every expired PENDING entry as failed. Errors on one
// entry do not stop the rest.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.timeout)
	expired, err := s.repo.ListPendingBefore(cutoff, s.batch)
	if err != nil {
		log.Printf("pending sweep: list failed: %v", err)
		return
	}

	for _, entry := range expired {
		if _, err := s.ledger.Finalize(ctx, entry.Reference, OutcomeFailure); err != nil {
			log.Printf("pending sweep: failed to expire %s: %v", entry.Reference, err)
			continue
		}
		log.Printf("pending sweep: expired %s (%s, age > %s)",
			entry.Reference, entry.Type, s.timeout)
	}
}

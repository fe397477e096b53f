// Package limits tracks daily and monthly spend against KYC-tier limits.
// Counters live on the wallet row and are only touched under the wallet's
// exclusion, so a reset can never race an in-flight debit.
package limits

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "payvo/internal/errors"
	"payvo/internal/models"
	"payvo/internal/repositories"
	"payvo/internal/services/wallet"
)

var ErrLimitExceeded = apperrors.ErrLimitExceeded

// TierLimits caps user-initiated debits for one KYC tier.
type TierLimits struct {
	Daily   decimal.Decimal
	Monthly decimal.Decimal
}

// Config maps KYC tier level to its limits.
type Config map[int]TierLimits

// DefaultConfig returns the stock tier ladder. Unknown tiers fall back to
// tier 1.
func DefaultConfig() Config {
	return Config{
		1: {Daily: decimal.NewFromInt(50_000), Monthly: decimal.NewFromInt(500_000)},
		2: {Daily: decimal.NewFromInt(200_000), Monthly: decimal.NewFromInt(2_000_000)},
		3: {Daily: decimal.NewFromInt(5_000_000), Monthly: decimal.NewFromInt(20_000_000)},
	}
}

// Enforcer checks and maintains spend counters.
type Enforcer struct {
	cfg     Config
	wallets wallet.Service
}

func NewEnforcer(cfg Config, wallets wallet.Service) *Enforcer {
	if len(cfg) == 0 {
		cfg = DefaultConfig()
	}
	return &Enforcer{cfg: cfg, wallets: wallets}
}

// LimitsFor resolves the limits for a tier level.
func (e *Enforcer) LimitsFor(tier int) TierLimits {
	if l, ok := e.cfg[tier]; ok {
		return l
	}
	return e.cfg[1]
}

// Rollover zeroes counters whose window has elapsed: the daily counter at
// the UTC day boundary, the monthly counter on calendar-month rollover.
// Returns true when anything changed. Must run under the wallet's exclusion.
func (e *Enforcer) Rollover(w *models.Wallet, now time.Time) bool {
	now = now.UTC()
	last := w.LastResetAt.UTC()
	changed := false

	if last.Year() != now.Year() || last.YearDay() != now.YearDay() {
		w.DailySpent = decimal.Zero
		changed = true
	}
	if last.Year() != now.Year() || last.Month() != now.Month() {
		w.MonthlySpent = decimal.Zero
		changed = true
	}
	if changed {
		w.LastResetAt = now
	}
	return changed
}

// Check rejects a debit that would push either counter past its tier
// limit. Outstanding pending-debit holds count as spend in flight, so
// concurrent in-limit debits cannot settle past the cap together. Call
// after Rollover, under the wallet's exclusion, before the new hold is
// applied.
func (e *Enforcer) Check(w *models.Wallet, amount decimal.Decimal) error {
	l := e.LimitsFor(w.TierLevel)
	projected := amount.Add(w.HeldAmount())
	if w.DailySpent.Add(projected).GreaterThan(l.Daily) {
		return ErrLimitExceeded.WithMessage("daily spending limit exceeded")
	}
	if w.MonthlySpent.Add(projected).GreaterThan(l.Monthly) {
		return ErrLimitExceeded.WithMessage("monthly spending limit exceeded")
	}
	return nil
}

// Guard returns a reservation guard combining Rollover and Check.
func (e *Enforcer) Guard(amount decimal.Decimal, now time.Time) func(w *models.Wallet) error {
	return func(w *models.Wallet) error {
		e.Rollover(w, now)
		return e.Check(w, amount)
	}
}

// RecordSpend bumps both counters for a finalized user-initiated debit.
// Runs inside the same atomic unit as the balance commit.
func (e *Enforcer) RecordSpend(w *models.Wallet, amount decimal.Decimal, now time.Time) {
	e.Rollover(w, now)
	w.DailySpent = w.DailySpent.Add(amount)
	w.MonthlySpent = w.MonthlySpent.Add(amount)
}

// Reset is the explicit admin reset. It zeroes both counters, stamps
// LastResetAt and journals a zero-amount audit entry in the same unit.
func (e *Enforcer) Reset(ctx context.Context, walletID uint, actorID uint, reference string) (*models.Wallet, *models.Transaction, error) {
	var (
		updated *models.Wallet
		entry   *models.Transaction
	)
	err := e.wallets.WithExclusive(ctx, walletID, func(tx repositories.WalletRepository, w *models.Wallet) error {
		w.DailySpent = decimal.Zero
		w.MonthlySpent = decimal.Zero
		now := time.Now().UTC()
		w.LastResetAt = now

		entry = &models.Transaction{
			WalletID:      w.ID,
			Type:          models.TransactionTypeLimitReset,
			Status:        models.TransactionStatusCompleted,
			Amount:        decimal.Zero,
			Reference:     reference,
			BalanceBefore: w.Balance,
			BalanceAfter:  w.Balance,
			Description:   "spend limits reset",
			ActorID:       &actorID,
			CompletedAt:   &now,
		}
		if err := tx.CreateTransaction(entry); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, entry, nil
}

// SweepDueResets rolls over counters for wallets whose reset stamp is
// stale, keeping snapshot reads accurate between transactions. Invoked on
// a schedule.
func (e *Enforcer) SweepDueResets(ctx context.Context, repo repositories.WalletRepository, now time.Time, batch int) error {
	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	ids, err := repo.GetStaleResetWallets(dayStart, batch)
	if err != nil {
		return err
	}
	for _, id := range ids {
		err := e.wallets.WithExclusive(ctx, id, func(tx repositories.WalletRepository, w *models.Wallet) error {
			e.Rollover(w, now)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

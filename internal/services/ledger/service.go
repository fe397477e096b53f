// Package ledger is the append-only, idempotent record of every
// balance-affecting event. Entries move PENDING -> COMPLETED | FAILED, and
// COMPLETED -> REVERSED; nothing else, and never backwards. Finalization
// shares one atomic unit with the paired balance mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payvo/internal/models"
	"payvo/internal/repositories"
	"payvo/internal/services/events"
	"payvo/internal/services/limits"
	"payvo/internal/services/wallet"
)

// Service is the transaction ledger.
type Service interface {
	// Record creates a PENDING entry, or returns the existing one for a
	// replayed reference. The second result reports whether a new entry
	// was created.
	Record(ctx context.Context, req RecordRequest) (*models.Transaction, bool, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	// Finalize resolves a PENDING entry exactly once; repeated calls with
	// the same reference return the already-final entry unchanged.
	Finalize(ctx context.Context, reference string, outcome Outcome) (*models.Transaction, error)
	// Reverse compensates a COMPLETED entry with a new linked REVERSAL
	// entry. The original is marked REVERSED but never edited.
	Reverse(ctx context.Context, transactionID uint, reason string, actorID uint) (*models.Transaction, error)
	History(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)
}

type service struct {
	repo     repositories.WalletRepository
	wallets  wallet.Service
	enforcer *limits.Enforcer
	events   events.Publisher
}

func NewService(
	repo repositories.WalletRepository,
	wallets wallet.Service,
	enforcer *limits.Enforcer,
	publisher events.Publisher,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if enforcer == nil {
		panic("limit enforcer is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{
		repo:     repo,
		wallets:  wallets,
		enforcer: enforcer,
		events:   publisher,
	}
}

// NewPendingEntry builds the PENDING journal row for a request. Callers
// holding a wallet's exclusion create it through their own transaction so
// the row and the paired balance mutation commit as one unit.
func NewPendingEntry(req RecordRequest) *models.Transaction {
	return &models.Transaction{
		WalletID:         req.WalletID,
		Type:             req.Type,
		Status:           models.TransactionStatusPending,
		Amount:           req.Amount,
		Fee:              req.Fee,
		CashbackAmount:   req.CashbackAmount,
		CashbackRedeemed: req.CashbackRedeemed,
		Reference:        req.Reference,
		BalanceBefore:    req.BalanceBefore,
		ServiceType:      req.ServiceType,
		Provider:         req.Provider,
		Description:      req.Description,
		Metadata:         req.Metadata,
	}
}

func (s *service) Record(ctx context.Context, req RecordRequest) (*models.Transaction, bool, error) {
	if req.Reference == "" {
		return nil, false, ErrMissingReference
	}
	if !req.Amount.IsPositive() {
		return nil, false, ErrInvalidAmount
	}

	if existing, err := s.repo.GetTransactionByReference(req.Reference); err == nil {
		return existing, false, nil
	}

	entry := NewPendingEntry(req)
	if err := s.repo.CreateTransaction(entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicateReference) {
			// Lost the race to a concurrent replay; resolve to the winner.
			existing, ferr := s.repo.GetTransactionByReference(req.Reference)
			if ferr != nil {
				return nil, false, fmt.Errorf("failed to resolve duplicate reference: %w", ferr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to record transaction: %w", err)
	}
	return entry, true, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	entry, err := s.repo.GetTransactionByReference(reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	entry, err := s.repo.GetTransactionByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) Finalize(ctx context.Context, reference string, outcome Outcome) (*models.Transaction, error) {
	entry, err := s.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if entry.IsFinal() {
		return entry, nil
	}

	var result *models.Transaction
	err = s.wallets.WithExclusive(ctx, entry.WalletID, func(tx repositories.WalletRepository, w *models.Wallet) error {
		fresh, err := tx.GetTransactionByReference(reference)
		if err != nil {
			return err
		}
		if fresh.IsFinal() {
			result = fresh
			return nil
		}

		now := time.Now().UTC()
		if outcome == OutcomeSuccess {
			s.settle(w, fresh, now)
		} else {
			s.release(w, fresh)
		}
		if err := tx.UpdateTransaction(fresh); err != nil {
			return err
		}
		result = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishFinalized(ctx, result)
	return result, nil
}

// settle applies a successful outcome: a debit's hold becomes a real
// debit, and the requested amount (not fees or redemption) counts against
// spend limits; a credit lands on both balances. Earned cashback accrues
// here, never before.
func (s *service) settle(w *models.Wallet, entry *models.Transaction, now time.Time) {
	if entry.IsDebit() {
		hold := entry.HoldAmount()
		wallet.ApplyCommit(w, hold)
		if entry.IsUserInitiated() {
			s.enforcer.RecordSpend(w, entry.Amount, now)
		}
		entry.BalanceAfter = entry.BalanceBefore.Sub(hold)
	} else {
		wallet.ApplyCredit(w, entry.Amount)
		entry.BalanceAfter = entry.BalanceBefore.Add(entry.Amount)
	}
	if entry.CashbackAmount.IsPositive() {
		wallet.ApplyCashbackAccrual(w, entry.CashbackAmount)
	}
	entry.Status = models.TransactionStatusCompleted
	entry.CompletedAt = &now
}

// release applies a failed outcome: the hold and any redeemed cashback go
// back; a pending credit never touched the balance.
func (s *service) release(w *models.Wallet, entry *models.Transaction) {
	if entry.IsDebit() {
		wallet.ApplyRollback(w, entry.HoldAmount(), entry.CashbackRedeemed)
	}
	entry.Status = models.TransactionStatusFailed
	entry.BalanceAfter = entry.BalanceBefore
}

func (s *service) Reverse(ctx context.Context, transactionID uint, reason string, actorID uint) (*models.Transaction, error) {
	entry, err := s.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.TransactionStatusCompleted {
		return nil, ErrInvalidStatus.WithMessage("only completed transactions can be reversed")
	}

	var reversal *models.Transaction
	err = s.wallets.WithExclusive(ctx, entry.WalletID, func(tx repositories.WalletRepository, w *models.Wallet) error {
		fresh, err := tx.GetTransactionByID(transactionID)
		if err != nil {
			return err
		}
		if fresh.Status != models.TransactionStatusCompleted {
			return ErrInvalidStatus.WithMessage("only completed transactions can be reversed")
		}

		before := w.Balance
		if fresh.IsDebit() {
			wallet.ApplyCredit(w, fresh.HoldAmount())
			if fresh.CashbackRedeemed.IsPositive() {
				wallet.ApplyCashbackAccrual(w, fresh.CashbackRedeemed)
			}
			if fresh.CashbackAmount.IsPositive() {
				wallet.ApplyCashbackClawback(w, fresh.CashbackAmount)
			}
		} else {
			if err := wallet.ApplyDebit(w, fresh.Amount, false); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		reversal = &models.Transaction{
			WalletID:             fresh.WalletID,
			Type:                 models.TransactionTypeReversal,
			Status:               models.TransactionStatusCompleted,
			Amount:               fresh.Amount,
			Fee:                  fresh.Fee,
			CashbackRedeemed:     fresh.CashbackRedeemed,
			Reference:            "REV-" + fresh.Reference,
			BalanceBefore:        before,
			BalanceAfter:         w.Balance,
			Description:          reason,
			ActorID:              &actorID,
			RelatedTransactionID: &fresh.ID,
			CompletedAt:          &now,
		}
		if err := tx.CreateTransaction(reversal); err != nil {
			if errors.Is(err, repositories.ErrDuplicateReference) {
				return ErrInvalidStatus.WithMessage("transaction already reversed")
			}
			return err
		}

		fresh.Status = models.TransactionStatusReversed
		return tx.UpdateTransaction(fresh)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.Event{
		Name:      events.TransactionReversed,
		WalletID:  reversal.WalletID,
		Reference: reversal.Reference,
		Payload: models.NewJSON(map[string]interface{}{
			"reversed_transaction_id": transactionID,
			"amount":                  reversal.Amount,
			"actor_id":                actorID,
		}),
	})
	return reversal, nil
}

func (s *service) History(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetTransactionHistory(ctx, walletID, limit, offset)
}

func (s *service) publishFinalized(ctx context.Context, entry *models.Transaction) {
	name := events.TransactionCompleted
	if entry.Status == models.TransactionStatusFailed {
		name = events.TransactionFailed
	}
	s.events.Publish(ctx, events.Event{
		Name:      name,
		WalletID:  entry.WalletID,
		Reference: entry.Reference,
		Payload: models.NewJSON(map[string]interface{}{
			"type":   entry.Type,
			"amount": entry.Amount,
			"fee":    entry.Fee,
			"status": entry.Status,
		}),
	})
}

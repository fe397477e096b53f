// Package admin is the gateway for administrative wallet operations. Every
// mutation is actor-attributed and produces exactly one linked ledger
// entry; there is no path to a silent balance change.
package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "payvo/internal/errors"
	"payvo/internal/models"
	"payvo/internal/services/events"
	"payvo/internal/services/ledger"
	"payvo/internal/services/limits"
	"payvo/internal/services/wallet"
)

var (
	ErrReasonRequired = apperrors.ErrValidation.WithMessage("a reason is required")
	ErrActorRequired  = apperrors.ErrValidation.WithMessage("an acting admin is required")
)

// AdjustRequest is an administrative balance adjustment.
type AdjustRequest struct {
	WalletID      uint
	Amount        decimal.Decimal
	Direction     string
	Reason        string
	ActorID       uint
	AllowNegative bool
}

// Gateway orchestrates audited admin overrides on top of the wallet store,
// ledger and limit enforcer.
type Gateway struct {
	wallets  wallet.Service
	ledger   ledger.Service
	enforcer *limits.Enforcer
	events   events.Publisher
}

func NewGateway(
	wallets wallet.Service,
	ledgerSvc ledger.Service,
	enforcer *limits.Enforcer,
	publisher events.Publisher,
) *Gateway {
	if wallets == nil {
		panic("wallet service is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if enforcer == nil {
		panic("limit enforcer is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Gateway{
		wallets:  wallets,
		ledger:   ledgerSvc,
		enforcer: enforcer,
		events:   publisher,
	}
}

// Lock freezes a wallet. User-initiated mutations fail WalletLocked until
// an unlock; admin operations still go through.
func (g *Gateway) Lock(ctx context.Context, walletID uint, reason string, actorID uint) (*models.Wallet, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if actorID == 0 {
		return nil, ErrActorRequired
	}

	w, entry, err := g.wallets.Lock(ctx, walletID, reason, actorID)
	if err != nil {
		return nil, err
	}

	g.events.Publish(ctx, events.Event{
		Name:      events.WalletLocked,
		WalletID:  walletID,
		Reference: entry.Reference,
		Payload: models.NewJSON(map[string]interface{}{
			"reason":   reason,
			"actor_id": actorID,
		}),
	})
	return w, nil
}

// Unlock releases a frozen wallet.
func (g *Gateway) Unlock(ctx context.Context, walletID uint, reason string, actorID uint) (*models.Wallet, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if actorID == 0 {
		return nil, ErrActorRequired
	}

	w, entry, err := g.wallets.Unlock(ctx, walletID, reason, actorID)
	if err != nil {
		return nil, err
	}

	g.events.Publish(ctx, events.Event{
		Name:      events.WalletUnlocked,
		WalletID:  walletID,
		Reference: entry.Reference,
		Payload: models.NewJSON(map[string]interface{}{
			"reason":   reason,
			"actor_id": actorID,
		}),
	})
	return w, nil
}

// Adjust applies a direct credit or debit, bypassing limit checks but not
// atomicity or auditing. A debit that would drive the balance negative is
// rejected unless AllowNegative is set, and the flag itself is journaled.
func (g *Gateway) Adjust(ctx context.Context, req AdjustRequest) (*models.Wallet, *models.Transaction, error) {
	if req.Reason == "" {
		return nil, nil, ErrReasonRequired
	}
	if req.ActorID == 0 {
		return nil, nil, ErrActorRequired
	}

	w, entry, err := g.wallets.Adjust(ctx, wallet.AdjustRequest{
		WalletID:      req.WalletID,
		Amount:        req.Amount,
		Direction:     req.Direction,
		Reason:        req.Reason,
		ActorID:       req.ActorID,
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		return nil, nil, err
	}

	g.events.Publish(ctx, events.Event{
		Name:      events.TransactionCompleted,
		WalletID:  req.WalletID,
		Reference: entry.Reference,
		Payload: models.NewJSON(map[string]interface{}{
			"type":     entry.Type,
			"amount":   entry.Amount,
			"actor_id": req.ActorID,
		}),
	})
	return w, entry, nil
}

// ResetLimits zeroes the wallet's spend counters, stamping the reset time.
func (g *Gateway) ResetLimits(ctx context.Context, walletID uint, actorID uint) (*models.Wallet, error) {
	if actorID == 0 {
		return nil, ErrActorRequired
	}
	w, _, err := g.enforcer.Reset(ctx, walletID, actorID, "RESET-"+uuid.NewString())
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ReverseTransaction compensates a completed transaction.
func (g *Gateway) ReverseTransaction(ctx context.Context, transactionID uint, reason string, actorID uint) (*models.Transaction, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if actorID == 0 {
		return nil, ErrActorRequired
	}
	return g.ledger.Reverse(ctx, transactionID, reason, actorID)
}

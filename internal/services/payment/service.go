// Package payment orchestrates user-initiated money movement: limit check,
// fee and cashback computation, reservation, pending ledger entry, and the
// eventual finalize driven by a provider callback or timeout.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "payvo/internal/errors"
	"payvo/internal/models"
	"payvo/internal/repositories"
	"payvo/internal/services/cashback"
	"payvo/internal/services/events"
	"payvo/internal/services/fees"
	"payvo/internal/services/ledger"
	"payvo/internal/services/limits"
	"payvo/internal/services/wallet"
)

// Service initiates and finalizes payment operations.
type Service interface {
	Purchase(ctx context.Context, req PurchaseRequest) (*Result, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*Result, error)
	Deposit(ctx context.Context, req DepositRequest) (*Result, error)
	Transfer(ctx context.Context, req TransferRequest) (*Result, error)
	// Finalize is the single entry point for provider callbacks.
	Finalize(ctx context.Context, reference string, outcome ledger.Outcome) (*models.Transaction, error)
}

type service struct {
	wallets  wallet.Service
	ledger   ledger.Service
	fees     *fees.Calculator
	cashback *cashback.Engine
	enforcer *limits.Enforcer
	events   events.Publisher
}

func NewService(
	wallets wallet.Service,
	ledgerSvc ledger.Service,
	feeCalc *fees.Calculator,
	cashbackEngine *cashback.Engine,
	enforcer *limits.Enforcer,
	publisher events.Publisher,
) Service {
	if wallets == nil {
		panic("wallet service is required")
	}
	if ledgerSvc == nil {
		panic("ledger service is required")
	}
	if feeCalc == nil {
		panic("fee calculator is required")
	}
	if cashbackEngine == nil {
		panic("cashback engine is required")
	}
	if enforcer == nil {
		panic("limit enforcer is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &service{
		wallets:  wallets,
		ledger:   ledgerSvc,
		fees:     feeCalc,
		cashback: cashbackEngine,
		enforcer: enforcer,
		events:   publisher,
	}
}

func (s *service) Purchase(ctx context.Context, req PurchaseRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Reference == "" {
		return nil, ErrMissingReference
	}
	txType, ok := serviceTransactionTypes[req.ServiceType]
	if !ok {
		return nil, ErrUnknownServiceType
	}

	if existing, err := s.ledger.GetByReference(ctx, req.Reference); err == nil {
		return replayResult(existing), nil
	}

	w, err := s.wallets.GetWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	comp, err := s.cashback.Compute(req.ServiceType, req.Provider, req.Amount)
	if err != nil {
		return nil, err
	}

	redeemed := decimal.Zero
	if req.RedeemCashback {
		redeemed = cashback.PlanRedemption(w.CashbackBalance, req.Amount)
	}
	total := req.Amount.Sub(redeemed)

	return s.initiateDebit(ctx, w, ledger.RecordRequest{
		WalletID:         req.WalletID,
		Type:             txType,
		Amount:           req.Amount,
		CashbackAmount:   comp.Cashback,
		CashbackRedeemed: redeemed,
		Reference:        req.Reference,
		ServiceType:      req.ServiceType,
		Provider:         req.Provider,
		Description:      req.Description,
	}, total, redeemed)
}

func (s *service) Withdraw(ctx context.Context, req WithdrawRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Reference == "" {
		return nil, ErrMissingReference
	}

	if existing, err := s.ledger.GetByReference(ctx, req.Reference); err == nil {
		return replayResult(existing), nil
	}

	w, err := s.wallets.GetWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}

	quote, err := s.fees.Quote(req.Amount, w.TierLevel)
	if err != nil {
		return nil, err
	}

	return s.initiateDebit(ctx, w, ledger.RecordRequest{
		WalletID:    req.WalletID,
		Type:        models.TransactionTypeWithdrawal,
		Amount:      req.Amount,
		Fee:         quote.Fee,
		Reference:   req.Reference,
		Description: req.Description,
	}, quote.TotalDebit, decimal.Zero)
}

// initiateDebit runs the common debit pipeline. The limit check, the hold
// and the PENDING ledger entry commit as one atomic unit, so a crash or a
// lost reference race can never leave a hold without a journal row to
// resolve it.
func (s *service) initiateDebit(ctx context.Context, w *models.Wallet, rec ledger.RecordRequest, total, redeemed decimal.Decimal) (*Result, error) {
	var entry *models.Transaction
	_, err := s.wallets.Reserve(ctx, wallet.ReserveRequest{
		WalletID:  w.ID,
		Amount:    total,
		Redeem:    redeemed,
		Reference: rec.Reference,
		Guard: func(locked *models.Wallet) error {
			rec.BalanceBefore = locked.Balance
			s.enforcer.Rollover(locked, time.Now())
			return s.enforcer.Check(locked, rec.Amount)
		},
		Journal: func(tx repositories.WalletRepository, _ *models.Wallet) error {
			entry = ledger.NewPendingEntry(rec)
			return tx.CreateTransaction(entry)
		},
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateReference) {
			// A concurrent replay won the reference; the hold rolled back
			// with the transaction. Resolve to the winner.
			existing, ferr := s.ledger.GetByReference(ctx, rec.Reference)
			if ferr != nil {
				return nil, ferr
			}
			return replayResult(existing), nil
		}
		if errors.Is(err, apperrors.ErrLimitExceeded) {
			s.events.Publish(ctx, events.Event{
				Name:      events.LimitExceeded,
				WalletID:  w.ID,
				Reference: rec.Reference,
				Payload: models.NewJSON(map[string]interface{}{
					"amount": rec.Amount,
					"type":   rec.Type,
				}),
			})
		}
		return nil, err
	}

	return &Result{
		Transaction:      entry,
		Fee:              entry.Fee,
		CashbackEarned:   entry.CashbackAmount,
		CashbackRedeemed: entry.CashbackRedeemed,
		TotalDebit:       entry.HoldAmount(),
	}, nil
}

func (s *service) Deposit(ctx context.Context, req DepositRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Reference == "" {
		return nil, ErrMissingReference
	}

	if existing, err := s.ledger.GetByReference(ctx, req.Reference); err == nil {
		return replayResult(existing), nil
	}

	w, err := s.wallets.GetWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}
	if w.IsLocked {
		return nil, ErrWalletLocked
	}

	entry, created, err := s.ledger.Record(ctx, ledger.RecordRequest{
		WalletID:      req.WalletID,
		Type:          models.TransactionTypeDeposit,
		Amount:        req.Amount,
		Reference:     req.Reference,
		BalanceBefore: w.Balance,
		Provider:      req.Provider,
		Description:   req.Description,
	})
	if err != nil {
		return nil, err
	}
	res := &Result{Transaction: entry}
	res.Replayed = !created
	return res, nil
}

// Transfer settles immediately: both legs commit or fail together, and the
// two exclusions are taken in ascending wallet order.
func (s *service) Transfer(ctx context.Context, req TransferRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.Reference == "" {
		req.Reference = "TRF-" + uuid.NewString()
	}
	if req.FromWalletID == req.ToWalletID {
		return nil, ErrSelfTransfer
	}

	if existing, err := s.ledger.GetByReference(ctx, req.Reference); err == nil {
		return replayResult(existing), nil
	}

	var outLeg *models.Transaction
	err := s.wallets.WithExclusivePair(ctx, req.FromWalletID, req.ToWalletID,
		func(tx repositories.WalletRepository, src, dst *models.Wallet) error {
			if src.IsLocked || dst.IsLocked {
				return ErrWalletLocked
			}
			now := time.Now().UTC()
			s.enforcer.Rollover(src, now)
			if err := s.enforcer.Check(src, req.Amount); err != nil {
				return err
			}
			if src.Balance.LessThan(req.Amount) {
				return ErrInsufficientFunds
			}

			srcBefore, dstBefore := src.Balance, dst.Balance
			if err := wallet.ApplyDebit(src, req.Amount, false); err != nil {
				return err
			}
			wallet.ApplyCredit(dst, req.Amount)
			s.enforcer.RecordSpend(src, req.Amount, now)

			outLeg = &models.Transaction{
				WalletID:      src.ID,
				Type:          models.TransactionTypeTransferOut,
				Status:        models.TransactionStatusCompleted,
				Amount:        req.Amount,
				Reference:     req.Reference,
				BalanceBefore: srcBefore,
				BalanceAfter:  src.Balance,
				Description:   req.Description,
				CompletedAt:   &now,
				Metadata: models.NewJSON(map[string]interface{}{
					"counterparty_wallet_id": dst.ID,
				}),
			}
			if err := tx.CreateTransaction(outLeg); err != nil {
				return err
			}
			inLeg := &models.Transaction{
				WalletID:             dst.ID,
				Type:                 models.TransactionTypeTransferIn,
				Status:               models.TransactionStatusCompleted,
				Amount:               req.Amount,
				Reference:            req.Reference + "-IN",
				BalanceBefore:        dstBefore,
				BalanceAfter:         dst.Balance,
				Description:          req.Description,
				RelatedTransactionID: &outLeg.ID,
				CompletedAt:          &now,
				Metadata: models.NewJSON(map[string]interface{}{
					"counterparty_wallet_id": src.ID,
				}),
			}
			return tx.CreateTransaction(inLeg)
		})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.Event{
		Name:      events.TransactionCompleted,
		WalletID:  req.FromWalletID,
		Reference: req.Reference,
		Payload: models.NewJSON(map[string]interface{}{
			"type":                models.TransactionTypeTransferOut,
			"amount":              req.Amount,
			"counterparty_wallet": req.ToWalletID,
		}),
	})
	return &Result{Transaction: outLeg, TotalDebit: req.Amount}, nil
}

func (s *service) Finalize(ctx context.Context, reference string, outcome ledger.Outcome) (*models.Transaction, error) {
	return s.ledger.Finalize(ctx, reference, outcome)
}

func replayResult(entry *models.Transaction) *Result {
	return &Result{
		Transaction:      entry,
		Fee:              entry.Fee,
		CashbackEarned:   entry.CashbackAmount,
		CashbackRedeemed: entry.CashbackRedeemed,
		TotalDebit:       entry.HoldAmount(),
		Replayed:         true,
	}
}

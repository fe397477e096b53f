package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payvo/internal/models"
	"payvo/internal/repositories"
)

type service struct {
	repo    repositories.WalletRepository
	cache   repositories.CacheRepository
	locks   *lockManager
	config  Config
	metrics MetricsCollector
}

// NewService creates a new wallet service
func NewService(
	repo repositories.WalletRepository,
	cache repositories.CacheRepository,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}

	if config.DefaultCurrency == "" {
		config.DefaultCurrency = DefaultCurrency
	}
	if config.LockTimeout == 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   cache,
		locks:   newLockManager(config.LockTimeout),
		config:  config,
		metrics: metrics,
	}
}

func (s *service) CreateWallet(ctx context.Context, userID uint, currency string, tierLevel int) (*models.Wallet, error) {
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	if tierLevel <= 0 {
		tierLevel = 1
	}

	w := &models.Wallet{
		UserID:    userID,
		Currency:  currency,
		TierLevel: tierLevel,
	}
	if err := s.repo.Create(w); err != nil {
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			return nil, ErrDuplicateWallet
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	s.cache.SetWallet(ctx, w)
	return w, nil
}

func (s *service) GetWallet(ctx context.Context, walletID uint) (*models.Wallet, error) {
	// Try cache first
	if w, err := s.cache.GetWallet(ctx, walletID); err == nil {
		return w, nil
	}

	w, err := s.repo.GetByID(walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	s.cache.SetWallet(ctx, w)
	return w, nil
}

func (s *service) GetWalletByUser(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	w, err := s.repo.GetByUserID(userID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// GetBalance is a snapshot read; it never waits behind writers.
func (s *service) GetBalance(ctx context.Context, walletID uint) (*BalanceSnapshot, error) {
	w, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return &BalanceSnapshot{
		WalletID:        w.ID,
		Balance:         w.Balance,
		LedgerBalance:   w.LedgerBalance,
		CashbackBalance: w.CashbackBalance,
		IsLocked:        w.IsLocked,
		AsOf:            time.Now().UTC(),
	}, nil
}

func (s *service) WithExclusive(ctx context.Context, walletID uint, fn ExclusiveFn) error {
	release, err := s.locks.Acquire(ctx, walletID)
	if err != nil {
		s.metrics.RecordError("exclusive", "lock_timeout")
		return err
	}
	defer release()

	start := time.Now()
	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		w, err := tx.GetByIDForUpdate(walletID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		before := w.Balance
		if err := fn(tx, w); err != nil {
			return err
		}
		s.metrics.RecordBalanceChange(walletID, before, w.Balance)
		return tx.Update(w)
	})
	s.metrics.RecordOperationDuration("exclusive", time.Since(start))

	if err == nil {
		s.cache.DeleteWallet(ctx, walletID)
	}
	return err
}

func (s *service) WithExclusivePair(ctx context.Context, firstID, secondID uint, fn PairFn) error {
	if firstID == secondID {
		return s.WithExclusive(ctx, firstID, func(tx repositories.WalletRepository, w *models.Wallet) error {
			return fn(tx, w, w)
		})
	}

	release, err := s.locks.AcquireMany(ctx, firstID, secondID)
	if err != nil {
		s.metrics.RecordError("exclusive_pair", "lock_timeout")
		return err
	}
	defer release()

	err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		// Row locks follow the same ascending order as the in-process locks.
		lowID, highID := firstID, secondID
		if lowID > highID {
			lowID, highID = highID, lowID
		}
		low, err := tx.GetByIDForUpdate(lowID)
		if err != nil {
			return err
		}
		high, err := tx.GetByIDForUpdate(highID)
		if err != nil {
			return err
		}

		first, second := low, high
		if firstID != lowID {
			first, second = high, low
		}
		if err := fn(tx, first, second); err != nil {
			return err
		}
		if err := tx.Update(first); err != nil {
			return err
		}
		return tx.Update(second)
	})

	if err == nil {
		s.cache.DeleteWallet(ctx, firstID)
		s.cache.DeleteWallet(ctx, secondID)
	}
	return err
}

// Reserve places a hold for a user-initiated debit. It fails while the
// wallet is locked; administrative mutations go through Adjust instead.
func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*Reservation, error) {
	if req.Amount.IsNegative() || req.Redeem.IsNegative() {
		return nil, ErrInvalidAmount
	}
	// A zero hold is valid when cashback covers the whole debit; a zero
	// reservation overall is not.
	if !req.Amount.Add(req.Redeem).IsPositive() {
		return nil, ErrInvalidAmount
	}

	res := &Reservation{
		WalletID:  req.WalletID,
		Amount:    req.Amount,
		Redeemed:  req.Redeem,
		Reference: req.Reference,
	}
	err := s.WithExclusive(ctx, req.WalletID, func(tx repositories.WalletRepository, w *models.Wallet) error {
		if w.IsLocked {
			return ErrWalletLocked
		}
		if req.Guard != nil {
			if err := req.Guard(w); err != nil {
				return err
			}
		}
		if err := ApplyReserve(w, req.Amount, req.Redeem); err != nil {
			return err
		}
		if req.Journal != nil {
			return req.Journal(tx, w)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("reserve", "rejected")
		return nil, err
	}
	return res, nil
}

// Adjust performs a direct administrative mutation. It works on locked
// wallets and always journals exactly one completed ledger entry.
func (s *service) Adjust(ctx context.Context, req AdjustRequest) (*models.Wallet, *models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}
	if req.Direction != DirectionCredit && req.Direction != DirectionDebit {
		return nil, nil, ErrInvalidAmount.WithMessage("direction must be CREDIT or DEBIT")
	}
	reference := req.Reference
	if reference == "" {
		reference = "ADJ-" + uuid.NewString()
	}

	var (
		updated *models.Wallet
		entry   *models.Transaction
	)
	err := s.WithExclusive(ctx, req.WalletID, func(tx repositories.WalletRepository, w *models.Wallet) error {
		before := w.Balance
		txType := models.TransactionTypeAdminCredit
		if req.Direction == DirectionCredit {
			ApplyCredit(w, req.Amount)
		} else {
			txType = models.TransactionTypeAdminDebit
			if err := ApplyDebit(w, req.Amount, req.AllowNegative); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		entry = &models.Transaction{
			WalletID:      w.ID,
			Type:          txType,
			Status:        models.TransactionStatusCompleted,
			Amount:        req.Amount,
			Reference:     reference,
			BalanceBefore: before,
			BalanceAfter:  w.Balance,
			Description:   req.Reason,
			ActorID:       &req.ActorID,
			CompletedAt:   &now,
			Metadata: models.NewJSON(map[string]interface{}{
				"allow_negative": req.AllowNegative,
			}),
		}
		if err := tx.CreateTransaction(entry); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		s.metrics.RecordError("adjust", "rejected")
		return nil, nil, err
	}

	s.metrics.RecordTransaction(entry.Type, req.Amount)
	return updated, entry, nil
}

func (s *service) Lock(ctx context.Context, walletID uint, reason string, actorID uint) (*models.Wallet, *models.Transaction, error) {
	return s.setLocked(ctx, walletID, true, reason, actorID)
}

func (s *service) Unlock(ctx context.Context, walletID uint, reason string, actorID uint) (*models.Wallet, *models.Transaction, error) {
	return s.setLocked(ctx, walletID, false, reason, actorID)
}

// setLocked flips the lock flag and journals a zero-amount audit entry in
// the same atomic unit, so no silent state change is possible.
func (s *service) setLocked(ctx context.Context, walletID uint, locked bool, reason string, actorID uint) (*models.Wallet, *models.Transaction, error) {
	var (
		updated *models.Wallet
		entry   *models.Transaction
	)
	err := s.WithExclusive(ctx, walletID, func(tx repositories.WalletRepository, w *models.Wallet) error {
		w.IsLocked = locked
		if locked {
			w.LockReason = reason
		} else {
			w.LockReason = ""
		}

		txType := models.TransactionTypeAdminLock
		prefix := "LOCK-"
		if !locked {
			txType = models.TransactionTypeAdminUnlock
			prefix = "UNLOCK-"
		}
		now := time.Now().UTC()
		entry = &models.Transaction{
			WalletID:      w.ID,
			Type:          txType,
			Status:        models.TransactionStatusCompleted,
			Amount:        decimal.Zero,
			Reference:     prefix + uuid.NewString(),
			BalanceBefore: w.Balance,
			BalanceAfter:  w.Balance,
			Description:   reason,
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

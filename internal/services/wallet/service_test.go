package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payvo/internal/models"
	"payvo/internal/repositories"
)

func newTestService(t *testing.T) (Service, *repositories.MemoryWalletRepository) {
	t.Helper()
	repo := repositories.NewMemoryWalletRepository()
	svc := NewService(repo, repositories.NewMemoryCacheRepository(), Config{}, &NoopMetricsCollector{})
	return svc, repo
}

func createFundedWallet(t *testing.T, svc Service, userID uint, balance int64) *models.Wallet {
	t.Helper()
	w, err := svc.CreateWallet(context.Background(), userID, "", 1)
	require.NoError(t, err)
	if balance > 0 {
		w, _, err = svc.Adjust(context.Background(), AdjustRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(balance),
			Direction: DirectionCredit,
			Reason:    "test funding",
			ActorID:   99,
		})
		require.NoError(t, err)
	}
	return w
}

func TestWalletService_CreateWallet(t *testing.T) {
	svc, _ := newTestService(t)

	w, err := svc.CreateWallet(context.Background(), 1, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "NGN", w.Currency)
	assert.Equal(t, 1, w.TierLevel)
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.LedgerBalance.IsZero())

	_, err = svc.CreateWallet(context.Background(), 1, "NGN", 1)
	assert.ErrorIs(t, err, ErrDuplicateWallet)

	// Same user, different currency is a distinct wallet.
	w2, err := svc.CreateWallet(context.Background(), 1, "USD", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, w2.TierLevel)
}

func TestWalletService_GetBalance(t *testing.T) {
	svc, _ := newTestService(t)
	w := createFundedWallet(t, svc, 1, 500)

	snapshot, err := svc.GetBalance(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, snapshot.LedgerBalance.Equal(decimal.NewFromInt(500)))
	assert.False(t, snapshot.IsLocked)

	_, err = svc.GetBalance(context.Background(), 999)
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWalletService_Reserve(t *testing.T) {
	t.Run("hold reduces available balance only", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 1000)

		res, err := svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(400),
			Reference: "TEST-RES-1",
		})
		require.NoError(t, err)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(400)))

		updated, err := svc.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(600)))
		assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("insufficient funds leaves the wallet untouched", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 100)

		_, err := svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(200),
			Reference: "TEST-RES-2",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		updated, err := svc.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(100)))
	})

	t.Run("locked wallet rejects reservations", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 1000)

		_, _, err := svc.Lock(context.Background(), w.ID, "fraud review", 99)
		require.NoError(t, err)

		_, err = svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(10),
			Reference: "TEST-RES-3",
		})
		assert.ErrorIs(t, err, ErrWalletLocked)
	})

	t.Run("zero hold is valid when cashback covers the debit", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 1000)

		err := svc.WithExclusive(context.Background(), w.ID, func(tx repositories.WalletRepository, lw *models.Wallet) error {
			ApplyCashbackAccrual(lw, decimal.NewFromInt(50))
			return nil
		})
		require.NoError(t, err)

		res, err := svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.Zero,
			Redeem:    decimal.NewFromInt(50),
			Reference: "TEST-RES-5",
		})
		require.NoError(t, err)
		assert.True(t, res.Amount.IsZero())
		assert.True(t, res.Redeemed.Equal(decimal.NewFromInt(50)))

		updated, err := svc.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(1000)))
		assert.True(t, updated.CashbackBalance.IsZero())
	})

	t.Run("zero amount with no redemption is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 1000)

		_, err := svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.Zero,
			Reference: "TEST-RES-6",
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("guard failure rejects inside the same atomic unit", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 1000)

		guardErr := ErrInvalidAmount.WithMessage("guard says no")
		_, err := svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(10),
			Reference: "TEST-RES-4",
			Guard:     func(w *models.Wallet) error { return guardErr },
		})
		assert.ErrorIs(t, err, guardErr)

		updated, err := svc.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("journal failure rolls the hold back with it", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 1000)

		journalErr := ErrInvalidAmount.WithMessage("journal says no")
		_, err := svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(400),
			Reference: "TEST-RES-7",
			Journal: func(tx repositories.WalletRepository, lw *models.Wallet) error {
				return journalErr
			},
		})
		assert.ErrorIs(t, err, journalErr)

		updated, err := svc.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(1000)))
		assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("journal row commits with the hold", func(t *testing.T) {
		svc, repo := newTestService(t)
		w := createFundedWallet(t, svc, 1, 1000)

		_, err := svc.Reserve(context.Background(), ReserveRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(400),
			Reference: "TEST-RES-8",
			Journal: func(tx repositories.WalletRepository, lw *models.Wallet) error {
				return tx.CreateTransaction(&models.Transaction{
					WalletID:      lw.ID,
					Type:          models.TransactionTypeWithdrawal,
					Status:        models.TransactionStatusPending,
					Amount:        decimal.NewFromInt(400),
					Reference:     "TEST-RES-8",
					BalanceBefore: decimal.NewFromInt(1000),
				})
			},
		})
		require.NoError(t, err)

		entry, err := repo.GetTransactionByReference("TEST-RES-8")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, entry.Status)

		updated, err := svc.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(600)))
	})
}

func TestWalletService_ConcurrentReserves(t *testing.T) {
	svc, _ := newTestService(t)
	w := createFundedWallet(t, svc, 1, 100)

	const workers = 10
	amount := decimal.NewFromInt(30)

	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), ReserveRequest{
				WalletID: w.ID,
				Amount:   amount,
			})
			if err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	var count int
	for range successes {
		count++
	}

	// 100 / 30: exactly three holds fit, and the balance never crosses zero.
	assert.Equal(t, 3, count)

	updated, err := svc.GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(10)))
	assert.False(t, updated.Balance.IsNegative())
	assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(100)))
}

func TestWalletService_Adjust(t *testing.T) {
	t.Run("credit journals a completed entry", func(t *testing.T) {
		svc, repo := newTestService(t)
		w := createFundedWallet(t, svc, 1, 0)

		updated, entry, err := svc.Adjust(context.Background(), AdjustRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(250),
			Direction: DirectionCredit,
			Reason:    "manual correction",
			ActorID:   42,
		})
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(250)))

		assert.Equal(t, models.TransactionTypeAdminCredit, entry.Type)
		assert.Equal(t, models.TransactionStatusCompleted, entry.Status)
		assert.True(t, entry.BalanceBefore.IsZero())
		assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(250)))
		require.NotNil(t, entry.ActorID)
		assert.Equal(t, uint(42), *entry.ActorID)

		stored, err := repo.GetTransactionByReference(entry.Reference)
		require.NoError(t, err)
		assert.Equal(t, entry.ID, stored.ID)
	})

	t.Run("debit past zero is rejected without allow_negative", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 100)

		_, _, err := svc.Adjust(context.Background(), AdjustRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(150),
			Direction: DirectionDebit,
			Reason:    "clawback",
			ActorID:   42,
		})
		assert.ErrorIs(t, err, ErrNegativeBalance)
	})

	t.Run("allow_negative is honored and journaled", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 100)

		updated, entry, err := svc.Adjust(context.Background(), AdjustRequest{
			WalletID:      w.ID,
			Amount:        decimal.NewFromInt(150),
			Direction:     DirectionDebit,
			Reason:        "chargeback",
			ActorID:       42,
			AllowNegative: true,
		})
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(-50)))
		assert.Equal(t, models.TransactionTypeAdminDebit, entry.Type)
		assert.Equal(t, true, entry.Metadata["allow_negative"])
	})

	t.Run("works on a locked wallet", func(t *testing.T) {
		svc, _ := newTestService(t)
		w := createFundedWallet(t, svc, 1, 100)

		_, _, err := svc.Lock(context.Background(), w.ID, "review", 99)
		require.NoError(t, err)

		updated, _, err := svc.Adjust(context.Background(), AdjustRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(50),
			Direction: DirectionCredit,
			Reason:    "refund while locked",
			ActorID:   99,
		})
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(150)))
	})
}

func TestWalletService_LockUnlock(t *testing.T) {
	svc, _ := newTestService(t)
	w := createFundedWallet(t, svc, 1, 100)

	locked, entry, err := svc.Lock(context.Background(), w.ID, "fraud review", 7)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, "fraud review", locked.LockReason)
	assert.Equal(t, models.TransactionTypeAdminLock, entry.Type)
	assert.True(t, entry.Amount.IsZero())

	unlocked, entry, err := svc.Unlock(context.Background(), w.ID, "cleared", 7)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
	assert.Empty(t, unlocked.LockReason)
	assert.Equal(t, models.TransactionTypeAdminUnlock, entry.Type)
}

func TestWalletService_ExclusionTimeout(t *testing.T) {
	repo := repositories.NewMemoryWalletRepository()
	svc := NewService(repo, repositories.NewMemoryCacheRepository(), Config{
		LockTimeout: 50 * time.Millisecond,
	}, &NoopMetricsCollector{})

	w, err := svc.CreateWallet(context.Background(), 1, "", 1)
	require.NoError(t, err)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	go func() {
		_ = svc.WithExclusive(context.Background(), w.ID, func(tx repositories.WalletRepository, w *models.Wallet) error {
			close(entered)
			<-proceed
			return nil
		})
	}()

	<-entered
	err = svc.WithExclusive(context.Background(), w.ID, func(tx repositories.WalletRepository, w *models.Wallet) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	close(proceed)
}

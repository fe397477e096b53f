package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payvo/internal/models"
	"payvo/internal/repositories"
	"payvo/internal/services/cashback"
	"payvo/internal/services/events"
	"payvo/internal/services/fees"
	"payvo/internal/services/ledger"
	"payvo/internal/services/limits"
	"payvo/internal/services/wallet"
)

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

type fixture struct {
	wallets wallet.Service
	ledger  ledger.Service
	payment Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repositories.NewMemoryWalletRepository()
	configRepo := &repositories.MemoryConfigRepository{
		WithdrawalConfigs: []models.WithdrawalConfig{
			{
				ID:            1,
				FeeType:       models.FeeTypePercentage,
				FeeValue:      decimal.NewFromFloat(1.5),
				MinFee:        decimal.NewFromInt(15),
				MaxFee:        decPtr(500),
				MinWithdrawal: decimal.NewFromInt(100),
				MaxWithdrawal: decimal.NewFromInt(1000000),
				IsActive:      true,
			},
		},
		CashbackConfigs: []models.CashbackConfig{
			{
				ID:          1,
				ServiceType: "AIRTIME",
				Percentage:  decimal.NewFromInt(2),
				MinAmount:   decimal.NewFromInt(100),
				MaxCashback: decPtr(50),
				IsActive:    true,
			},
		},
	}

	walletSvc := wallet.NewService(repo, repositories.NewMemoryCacheRepository(), wallet.Config{}, &wallet.NoopMetricsCollector{})
	enforcer := limits.NewEnforcer(nil, walletSvc)
	ledgerSvc := ledger.NewService(repo, walletSvc, enforcer, events.NoopPublisher{})
	paymentSvc := NewService(walletSvc, ledgerSvc, fees.NewCalculator(configRepo), cashback.NewEngine(configRepo), enforcer, events.NoopPublisher{})

	return &fixture{wallets: walletSvc, ledger: ledgerSvc, payment: paymentSvc}
}

func (f *fixture) fundedWallet(t *testing.T, userID uint, balance int64) *models.Wallet {
	t.Helper()
	w, err := f.wallets.CreateWallet(context.Background(), userID, "", 1)
	require.NoError(t, err)
	if balance > 0 {
		w, _, err = f.wallets.Adjust(context.Background(), wallet.AdjustRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(balance),
			Direction: wallet.DirectionCredit,
			Reason:    "test funding",
			ActorID:   99,
		})
		require.NoError(t, err)
	}
	return w
}

func TestPayment_Purchase(t *testing.T) {
	t.Run("reserves the amount and records pending cashback", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 5000)

		res, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "AIRTIME",
			Provider:    "MTN",
			Amount:      decimal.NewFromInt(1000),
			Reference:   "PUR-1",
		})
		require.NoError(t, err)

		assert.Equal(t, models.TransactionTypeAirtime, res.Transaction.Type)
		assert.Equal(t, models.TransactionStatusPending, res.Transaction.Status)
		// 2% of 1000, pending until settlement.
		assert.True(t, res.CashbackEarned.Equal(decimal.NewFromInt(20)))
		assert.True(t, res.TotalDebit.Equal(decimal.NewFromInt(1000)))

		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(4000)))
		assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(5000)))
		assert.True(t, updated.CashbackBalance.IsZero())
	})

	t.Run("settlement lands balance and cashback together", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 5000)

		_, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "AIRTIME",
			Provider:    "MTN",
			Amount:      decimal.NewFromInt(1000),
			Reference:   "PUR-2",
		})
		require.NoError(t, err)

		_, err = f.payment.Finalize(context.Background(), "PUR-2", ledger.OutcomeSuccess)
		require.NoError(t, err)

		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(4000)))
		assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(4000)))
		assert.True(t, updated.CashbackBalance.Equal(decimal.NewFromInt(20)))
		assert.True(t, updated.DailySpent.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("redeems accrued cashback against the purchase", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 5000)

		// Earn 20 cashback first.
		_, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "AIRTIME",
			Provider:    "MTN",
			Amount:      decimal.NewFromInt(1000),
			Reference:   "PUR-3",
		})
		require.NoError(t, err)
		_, err = f.payment.Finalize(context.Background(), "PUR-3", ledger.OutcomeSuccess)
		require.NoError(t, err)

		res, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:       w.ID,
			ServiceType:    "AIRTIME",
			Provider:       "MTN",
			Amount:         decimal.NewFromInt(500),
			Reference:      "PUR-4",
			RedeemCashback: true,
		})
		require.NoError(t, err)
		assert.True(t, res.CashbackRedeemed.Equal(decimal.NewFromInt(20)))
		// Only 480 comes out of the cash balance.
		assert.True(t, res.TotalDebit.Equal(decimal.NewFromInt(480)))

		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(3520)))
		assert.True(t, updated.CashbackBalance.IsZero())
	})

	t.Run("cashback can cover the whole purchase", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 5000)

		// Earn 20 cashback first.
		_, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "AIRTIME",
			Provider:    "MTN",
			Amount:      decimal.NewFromInt(1000),
			Reference:   "PUR-8",
		})
		require.NoError(t, err)
		_, err = f.payment.Finalize(context.Background(), "PUR-8", ledger.OutcomeSuccess)
		require.NoError(t, err)

		res, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:       w.ID,
			ServiceType:    "AIRTIME",
			Provider:       "MTN",
			Amount:         decimal.NewFromInt(20),
			Reference:      "PUR-9",
			RedeemCashback: true,
		})
		require.NoError(t, err)
		assert.True(t, res.CashbackRedeemed.Equal(decimal.NewFromInt(20)))
		assert.True(t, res.TotalDebit.IsZero())

		_, err = f.payment.Finalize(context.Background(), "PUR-9", ledger.OutcomeSuccess)
		require.NoError(t, err)

		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		// The cash balance never moved for the second purchase.
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(4000)))
		assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(4000)))
		assert.True(t, updated.CashbackBalance.IsZero())
	})

	t.Run("unknown service type", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 1000)

		_, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "LOTTERY",
			Amount:      decimal.NewFromInt(100),
			Reference:   "PUR-5",
		})
		assert.ErrorIs(t, err, ErrUnknownServiceType)
	})

	t.Run("replayed reference returns the original, once", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 5000)

		first, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "AIRTIME",
			Provider:    "MTN",
			Amount:      decimal.NewFromInt(1000),
			Reference:   "PUR-6",
		})
		require.NoError(t, err)
		assert.False(t, first.Replayed)

		replay, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "AIRTIME",
			Provider:    "MTN",
			Amount:      decimal.NewFromInt(1000),
			Reference:   "PUR-6",
		})
		require.NoError(t, err)
		assert.True(t, replay.Replayed)
		assert.Equal(t, first.Transaction.ID, replay.Transaction.ID)

		// Exactly one hold exists.
		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(4000)))
	})

	t.Run("limit exceeded rejects before any hold", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 100_000)

		_, err := f.payment.Purchase(context.Background(), PurchaseRequest{
			WalletID:    w.ID,
			ServiceType: "AIRTIME",
			Provider:    "MTN",
			Amount:      decimal.NewFromInt(60_000),
			Reference:   "PUR-7",
		})
		assert.ErrorIs(t, err, limits.ErrLimitExceeded)

		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(100_000)))
	})
}

func TestPayment_Withdraw(t *testing.T) {
	t.Run("fee is charged on top of the amount", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 10_000)

		res, err := f.payment.Withdraw(context.Background(), WithdrawRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(1000),
			Reference: "WD-1",
		})
		require.NoError(t, err)

		// 1.5% of 1000 is 15, at the minimum fee.
		assert.True(t, res.Fee.Equal(decimal.NewFromInt(15)))
		assert.True(t, res.TotalDebit.Equal(decimal.NewFromInt(1015)))

		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(8985)))
	})

	t.Run("failed withdrawal restores amount plus fee", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 10_000)

		_, err := f.payment.Withdraw(context.Background(), WithdrawRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(1000),
			Reference: "WD-2",
		})
		require.NoError(t, err)

		_, err = f.payment.Finalize(context.Background(), "WD-2", ledger.OutcomeFailure)
		require.NoError(t, err)

		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(10_000)))
		assert.True(t, updated.DailySpent.IsZero())
	})

	t.Run("pending holds count toward the daily limit", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 100_000)

		// Tier 1 allows 50,000 a day; two 30,000 withdrawals fit it
		// individually but not together.
		_, err := f.payment.Withdraw(context.Background(), WithdrawRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(30_000),
			Reference: "WD-HOLD-1",
		})
		require.NoError(t, err)

		_, err = f.payment.Withdraw(context.Background(), WithdrawRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(30_000),
			Reference: "WD-HOLD-2",
		})
		assert.ErrorIs(t, err, limits.ErrLimitExceeded)

		// Only the first hold exists: 30,000 plus its 450 fee.
		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(69_550)))
		assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(100_000)))

		_, err = f.payment.Finalize(context.Background(), "WD-HOLD-1", ledger.OutcomeSuccess)
		require.NoError(t, err)
		updated, err = f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.DailySpent.Equal(decimal.NewFromInt(30_000)))
	})

	t.Run("amount below the configured minimum", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 10_000)

		_, err := f.payment.Withdraw(context.Background(), WithdrawRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(50),
			Reference: "WD-3",
		})
		assert.ErrorIs(t, err, fees.ErrAmountOutOfRange)
	})

	t.Run("insufficient funds for amount plus fee", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 1000)

		// 1000 + 15 fee exceeds the balance.
		_, err := f.payment.Withdraw(context.Background(), WithdrawRequest{
			WalletID:  w.ID,
			Amount:    decimal.NewFromInt(1000),
			Reference: "WD-4",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}

func TestPayment_DebitJournalIsAtomic(t *testing.T) {
	t.Run("losing a reference race leaves no hold behind", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 5000)

		// Another request claims the reference before this one reserves.
		winner, created, err := f.ledger.Record(context.Background(), ledger.RecordRequest{
			WalletID:  w.ID,
			Type:      models.TransactionTypeAirtime,
			Amount:    decimal.NewFromInt(1000),
			Reference: "PUR-RACE",
		})
		require.NoError(t, err)
		require.True(t, created)

		svc := f.payment.(*service)
		res, err := svc.initiateDebit(context.Background(), w, ledger.RecordRequest{
			WalletID:  w.ID,
			Type:      models.TransactionTypeAirtime,
			Amount:    decimal.NewFromInt(1000),
			Reference: "PUR-RACE",
		}, decimal.NewFromInt(1000), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, res.Replayed)
		assert.Equal(t, winner.ID, res.Transaction.ID)

		// The hold rolled back with the rejected journal row.
		updated, err := f.wallets.GetWallet(context.Background(), w.ID)
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(5000)))
		assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(5000)))
	})
}

func TestPayment_Deposit(t *testing.T) {
	f := newFixture(t)
	w := f.fundedWallet(t, 1, 0)

	res, err := f.payment.Deposit(context.Background(), DepositRequest{
		WalletID:  w.ID,
		Amount:    decimal.NewFromInt(2000),
		Reference: "DEP-1",
		Provider:  "paystack",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, res.Transaction.Status)

	// Nothing lands until the provider confirms.
	pending, err := f.wallets.GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, pending.Balance.IsZero())

	_, err = f.payment.Finalize(context.Background(), "DEP-1", ledger.OutcomeSuccess)
	require.NoError(t, err)

	updated, err := f.wallets.GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(2000)))
	assert.True(t, updated.LedgerBalance.Equal(decimal.NewFromInt(2000)))
}

func TestPayment_Transfer(t *testing.T) {
	t.Run("both legs settle atomically", func(t *testing.T) {
		f := newFixture(t)
		src := f.fundedWallet(t, 1, 5000)
		dst := f.fundedWallet(t, 2, 100)

		res, err := f.payment.Transfer(context.Background(), TransferRequest{
			FromWalletID: src.ID,
			ToWalletID:   dst.ID,
			Amount:       decimal.NewFromInt(1500),
			Reference:    "TRF-1",
		})
		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeTransferOut, res.Transaction.Type)
		assert.Equal(t, models.TransactionStatusCompleted, res.Transaction.Status)

		srcW, err := f.wallets.GetWallet(context.Background(), src.ID)
		require.NoError(t, err)
		dstW, err := f.wallets.GetWallet(context.Background(), dst.ID)
		require.NoError(t, err)

		assert.True(t, srcW.Balance.Equal(decimal.NewFromInt(3500)))
		assert.True(t, dstW.Balance.Equal(decimal.NewFromInt(1600)))
		assert.True(t, srcW.DailySpent.Equal(decimal.NewFromInt(1500)))
		assert.True(t, dstW.DailySpent.IsZero())

		inLeg, err := f.ledger.GetByReference(context.Background(), "TRF-1-IN")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeTransferIn, inLeg.Type)
		require.NotNil(t, inLeg.RelatedTransactionID)
		assert.Equal(t, res.Transaction.ID, *inLeg.RelatedTransactionID)
	})

	t.Run("insufficient funds moves nothing", func(t *testing.T) {
		f := newFixture(t)
		src := f.fundedWallet(t, 1, 100)
		dst := f.fundedWallet(t, 2, 0)

		_, err := f.payment.Transfer(context.Background(), TransferRequest{
			FromWalletID: src.ID,
			ToWalletID:   dst.ID,
			Amount:       decimal.NewFromInt(500),
			Reference:    "TRF-2",
		})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		dstW, err := f.wallets.GetWallet(context.Background(), dst.ID)
		require.NoError(t, err)
		assert.True(t, dstW.Balance.IsZero())
	})

	t.Run("locked destination rejects the transfer", func(t *testing.T) {
		f := newFixture(t)
		src := f.fundedWallet(t, 1, 1000)
		dst := f.fundedWallet(t, 2, 0)

		_, _, err := f.wallets.Lock(context.Background(), dst.ID, "fraud review", 99)
		require.NoError(t, err)

		_, err = f.payment.Transfer(context.Background(), TransferRequest{
			FromWalletID: src.ID,
			ToWalletID:   dst.ID,
			Amount:       decimal.NewFromInt(100),
			Reference:    "TRF-3",
		})
		assert.ErrorIs(t, err, ErrWalletLocked)
	})

	t.Run("self transfer is rejected", func(t *testing.T) {
		f := newFixture(t)
		w := f.fundedWallet(t, 1, 1000)

		_, err := f.payment.Transfer(context.Background(), TransferRequest{
			FromWalletID: w.ID,
			ToWalletID:   w.ID,
			Amount:       decimal.NewFromInt(100),
		})
		assert.ErrorIs(t, err, ErrSelfTransfer)
	})
}

package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"payvo/internal/models"
	"payvo/internal/repositories"
)

// Reservation is a tentative hold against available balance, pending
// finalization. Amount is the total held (amount + fee - cashback
// redeemed); Redeemed is the slice taken from the cashback balance.
type Reservation struct {
	WalletID  uint
	Amount    decimal.Decimal
	Redeemed  decimal.Decimal
	Reference string
}

// ReserveRequest asks for a hold on a wallet. Guard, when set, runs under
// the wallet's exclusion before the hold is applied; returning an error
// rejects the reservation. The limit layer uses it so its check and the
// hold are one atomic unit. Journal, when set, runs after the hold inside
// the same transaction; returning an error rolls the hold back with it,
// so a hold can never commit without its journal row.
type ReserveRequest struct {
	WalletID  uint
	Amount    decimal.Decimal
	Redeem    decimal.Decimal
	Reference string
	Guard     func(w *models.Wallet) error
	Journal   func(tx repositories.WalletRepository, w *models.Wallet) error
}

// AdjustRequest is a direct administrative balance mutation. It bypasses
// limit checks but not atomicity or auditing; AllowNegative must be set
// explicitly for a debit that drives the balance below zero.
type AdjustRequest struct {
	WalletID      uint
	Amount        decimal.Decimal
	Direction     string
	Reason        string
	ActorID       uint
	AllowNegative bool
	Reference     string
}

// BalanceSnapshot is a non-blocking point-in-time read.
type BalanceSnapshot struct {
	WalletID        uint            `json:"wallet_id"`
	Balance         decimal.Decimal `json:"balance"`
	LedgerBalance   decimal.Decimal `json:"ledger_balance"`
	CashbackBalance decimal.Decimal `json:"cashback_balance"`
	IsLocked        bool            `json:"is_locked"`
	AsOf            time.Time       `json:"as_of"`
}

// Config holds wallet service configuration.
type Config struct {
	DefaultCurrency string
	LockTimeout     time.Duration
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordBalanceChange(walletID uint, oldBalance, newBalance decimal.Decimal)
	RecordError(operation, errType string)
	RecordTransaction(txType string, amount decimal.Decimal)
}

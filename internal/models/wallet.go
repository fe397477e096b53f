package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet statuses exposed to API consumers.
const (
	WalletStatusActive = "active"
	WalletStatusLocked = "locked"
)

// Wallet is the canonical per-user, per-currency balance record.
//
// Balance is the spendable amount. LedgerBalance additionally includes
// amounts held by PENDING debit transactions, so LedgerBalance >= Balance
// holds at all times and LedgerBalance - Balance is the outstanding hold.
type Wallet struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	UserID          uint            `gorm:"uniqueIndex:idx_wallets_user_currency;not null" json:"user_id"`
	Currency        string          `gorm:"uniqueIndex:idx_wallets_user_currency;size:8;default:'NGN'" json:"currency"`
	Balance         decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"balance"`
	LedgerBalance   decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"ledger_balance"`
	CashbackBalance decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"cashback_balance"`
	DailySpent      decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"daily_spent"`
	MonthlySpent    decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"monthly_spent"`
	TierLevel       int             `gorm:"default:1" json:"tier_level"`
	IsLocked        bool            `gorm:"default:false" json:"is_locked"`
	LockReason      string          `gorm:"default:''" json:"lock_reason,omitempty"`
	LastResetAt     time.Time       `json:"last_reset_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// A wallet always starts empty with fresh counters.
	w.Balance = decimal.Zero
	w.LedgerBalance = decimal.Zero
	w.CashbackBalance = decimal.Zero
	w.DailySpent = decimal.Zero
	w.MonthlySpent = decimal.Zero
	if w.LastResetAt.IsZero() {
		w.LastResetAt = time.Now().UTC()
	}
	return nil
}

// Status reports the wallet state as a string.
func (w *Wallet) Status() string {
	if w.IsLocked {
		return WalletStatusLocked
	}
	return WalletStatusActive
}

// HeldAmount is the total currently reserved by pending debits.
func (w *Wallet) HeldAmount() decimal.Decimal {
	return w.LedgerBalance.Sub(w.Balance)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeDeposit     = "DEPOSIT"
	TransactionTypeWithdrawal  = "WITHDRAWAL"
	TransactionTypeAirtime     = "AIRTIME"
	TransactionTypeData        = "DATA"
	TransactionTypeCableTV     = "CABLE_TV"
	TransactionTypeElectricity = "ELECTRICITY"
	TransactionTypeTransferOut = "TRANSFER_OUT"
	TransactionTypeTransferIn  = "TRANSFER_IN"
	TransactionTypeRefund      = "REFUND"
	TransactionTypeReversal    = "REVERSAL"
	TransactionTypeAdminCredit = "ADMIN_CREDIT"
	TransactionTypeAdminDebit  = "ADMIN_DEBIT"
	TransactionTypeAdminLock   = "ADMIN_LOCK"
	TransactionTypeAdminUnlock = "ADMIN_UNLOCK"
	TransactionTypeLimitReset  = "ADMIN_LIMIT_RESET"
)

// Transaction statuses. Transitions are monotonic:
// PENDING -> COMPLETED | FAILED, COMPLETED -> REVERSED.
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
	TransactionStatusReversed  = "REVERSED"
)

// Transaction is an append-only ledger entry. Reference is the
// caller-supplied idempotency key; replaying it never creates a second row.
// A reversed transaction is never edited: the compensating entry links back
// through RelatedTransactionID.
type Transaction struct {
	ID                   uint            `gorm:"primarykey" json:"id"`
	WalletID             uint            `gorm:"index;not null" json:"wallet_id"`
	Type                 string          `gorm:"size:32;not null" json:"type"`
	Status               string          `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	Amount               decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Fee                  decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"fee"`
	CashbackAmount       decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"cashback_amount"`
	CashbackRedeemed     decimal.Decimal `gorm:"type:numeric(20,4);default:0" json:"cashback_redeemed"`
	Reference            string          `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	BalanceBefore        decimal.Decimal `gorm:"type:numeric(20,4)" json:"balance_before"`
	BalanceAfter         decimal.Decimal `gorm:"type:numeric(20,4)" json:"balance_after"`
	ServiceType          string          `gorm:"size:32" json:"service_type,omitempty"`
	Provider             string          `gorm:"size:64" json:"provider,omitempty"`
	Description          string          `json:"description,omitempty"`
	ActorID              *uint           `gorm:"index" json:"actor_id,omitempty"`
	RelatedTransactionID *uint           `gorm:"index" json:"related_transaction_id,omitempty"`
	Metadata             JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
}

// IsDebit reports whether the type moves funds out of the wallet.
func (t *Transaction) IsDebit() bool {
	switch t.Type {
	case TransactionTypeWithdrawal, TransactionTypeAirtime, TransactionTypeData,
		TransactionTypeCableTV, TransactionTypeElectricity, TransactionTypeTransferOut,
		TransactionTypeAdminDebit:
		return true
	}
	return false
}

// IsUserInitiated reports whether the transaction counts against spend limits.
func (t *Transaction) IsUserInitiated() bool {
	switch t.Type {
	case TransactionTypeWithdrawal, TransactionTypeAirtime, TransactionTypeData,
		TransactionTypeCableTV, TransactionTypeElectricity, TransactionTypeTransferOut:
		return true
	}
	return false
}

// IsFinal reports whether the status can no longer change, except for the
// COMPLETED -> REVERSED transition.
func (t *Transaction) IsFinal() bool {
	return t.Status != TransactionStatusPending
}

// HoldAmount is the total reserved against the wallet for a debit:
// amount + fee - cashback redeemed.
func (t *Transaction) HoldAmount() decimal.Decimal {
	return t.Amount.Add(t.Fee).Sub(t.CashbackRedeemed)
}

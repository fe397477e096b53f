package payment

import (
	"github.com/shopspring/decimal"

	"payvo/internal/models"
)

// PurchaseRequest pays for a VTU service (airtime, data, cable TV,
// electricity) out of a wallet. Reference is the caller's idempotency key.
type PurchaseRequest struct {
	WalletID       uint
	ServiceType    string
	Provider       string
	Amount         decimal.Decimal
	Reference      string
	RedeemCashback bool
	Description    string
}

// WithdrawRequest moves funds out to an external destination. The fee is
// charged on top of the requested amount.
type WithdrawRequest struct {
	WalletID    uint
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// DepositRequest records an incoming credit pending provider confirmation.
type DepositRequest struct {
	WalletID    uint
	Amount      decimal.Decimal
	Reference   string
	Provider    string
	Description string
}

// TransferRequest moves funds between two wallets in one atomic unit.
type TransferRequest struct {
	FromWalletID uint
	ToWalletID   uint
	Amount       decimal.Decimal
	Reference    string
	Description  string
}

// Result is the outcome of initiating a payment operation.
type Result struct {
	Transaction      *models.Transaction `json:"transaction"`
	Fee              decimal.Decimal     `json:"fee"`
	CashbackEarned   decimal.Decimal     `json:"cashback_earned"`
	CashbackRedeemed decimal.Decimal     `json:"cashback_redeemed"`
	TotalDebit       decimal.Decimal     `json:"total_debit"`
	Replayed         bool                `json:"replayed"`
}

// serviceTransactionTypes maps purchase service types to ledger entry types.
var serviceTransactionTypes = map[string]string{
	"AIRTIME":     models.TransactionTypeAirtime,
	"DATA":        models.TransactionTypeData,
	"CABLE_TV":    models.TransactionTypeCableTV,
	"ELECTRICITY": models.TransactionTypeElectricity,
}

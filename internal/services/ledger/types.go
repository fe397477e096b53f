package ledger

import (
	"github.com/shopspring/decimal"

	"payvo/internal/models"
)

// Outcome is the finalization verdict for a pending transaction.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// RecordRequest creates one PENDING ledger entry. Reference is the
// idempotency key: replaying the same reference returns the existing entry.
type RecordRequest struct {
	WalletID         uint
	Type             string
	Amount           decimal.Decimal
	Fee              decimal.Decimal
	CashbackAmount   decimal.Decimal
	CashbackRedeemed decimal.Decimal
	Reference        string
	BalanceBefore    decimal.Decimal
	ServiceType      string
	Provider         string
	Description      string
	Metadata         models.JSON
}

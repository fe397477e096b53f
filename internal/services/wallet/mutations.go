package wallet

import (
	"github.com/shopspring/decimal"

	"payvo/internal/models"
)

// The functions below are the only code that touches balance arithmetic.
// They operate on a wallet already loaded under its exclusion and keep the
// invariants: balance >= 0 and ledgerBalance >= balance, where
// ledgerBalance - balance is the sum of outstanding pending-debit holds.

// ApplyReserve moves hold out of the available balance while leaving the
// ledger balance untouched, and takes redeem from the cashback balance.
func ApplyReserve(w *models.Wallet, hold, redeem decimal.Decimal) error {
	if w.Balance.LessThan(hold) {
		return ErrInsufficientFunds
	}
	if redeem.IsPositive() && w.CashbackBalance.LessThan(redeem) {
		return ErrInsufficientCashback
	}
	w.Balance = w.Balance.Sub(hold)
	w.CashbackBalance = w.CashbackBalance.Sub(redeem)
	return nil
}

// ApplyCommit finalizes a hold into a real debit: the held amount leaves
// the ledger balance.
func ApplyCommit(w *models.Wallet, hold decimal.Decimal) {
	w.LedgerBalance = w.LedgerBalance.Sub(hold)
}

// ApplyRollback restores the available and cashback balances from a hold.
func ApplyRollback(w *models.Wallet, hold, redeem decimal.Decimal) {
	w.Balance = w.Balance.Add(hold)
	w.CashbackBalance = w.CashbackBalance.Add(redeem)
}

// ApplyCredit applies a settled credit to both balances.
func ApplyCredit(w *models.Wallet, amount decimal.Decimal) {
	w.Balance = w.Balance.Add(amount)
	w.LedgerBalance = w.LedgerBalance.Add(amount)
}

// ApplyDebit applies a settled debit to both balances without a prior
// reservation. Used by administrative adjustments and reversals of
// credits; allowNegative must be set for the balance to cross zero.
func ApplyDebit(w *models.Wallet, amount decimal.Decimal, allowNegative bool) error {
	if !allowNegative && w.Balance.LessThan(amount) {
		return ErrNegativeBalance
	}
	w.Balance = w.Balance.Sub(amount)
	w.LedgerBalance = w.LedgerBalance.Sub(amount)
	return nil
}

// ApplyCashbackAccrual credits earned cashback.
func ApplyCashbackAccrual(w *models.Wallet, amount decimal.Decimal) {
	w.CashbackBalance = w.CashbackBalance.Add(amount)
}

// ApplyCashbackClawback removes accrued cashback when its source
// transaction is reversed, flooring at zero if some was already spent.
func ApplyCashbackClawback(w *models.Wallet, amount decimal.Decimal) {
	w.CashbackBalance = w.CashbackBalance.Sub(amount)
	if w.CashbackBalance.IsNegative() {
		w.CashbackBalance = decimal.Zero
	}
}

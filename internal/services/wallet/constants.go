package wallet

import "time"

// Adjustment directions
const (
	DirectionCredit = "CREDIT"
	DirectionDebit  = "DEBIT"
)

// Default configuration values
const (
	DefaultCurrency    = "NGN"
	DefaultLockTimeout = 5 * time.Second
)

package wallet

import apperrors "payvo/internal/errors"

// Service errors
var (
	ErrWalletNotFound       = apperrors.ErrWalletNotFound
	ErrWalletLocked         = apperrors.ErrWalletLocked
	ErrInsufficientFunds    = apperrors.ErrInsufficientFunds
	ErrInsufficientCashback = apperrors.ErrInsufficientFunds.WithMessage("insufficient cashback balance")
	ErrLockTimeout          = apperrors.ErrConcurrencyTimeout
	ErrNegativeBalance      = apperrors.ErrNegativeBalanceRejected
	ErrInvalidAmount        = apperrors.ErrValidation.WithMessage("amount must be greater than zero")
	ErrDuplicateWallet      = apperrors.ErrValidation.WithMessage("wallet already exists for user and currency")
)

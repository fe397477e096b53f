package payment

import apperrors "payvo/internal/errors"

// Service errors
var (
	ErrInvalidAmount      = apperrors.ErrValidation.WithMessage("amount must be greater than zero")
	ErrMissingReference   = apperrors.ErrValidation.WithMessage("reference is required")
	ErrUnknownServiceType = apperrors.ErrValidation.WithMessage("unknown service type")
	ErrSelfTransfer       = apperrors.ErrValidation.WithMessage("cannot transfer to the same wallet")
	ErrInsufficientFunds  = apperrors.ErrInsufficientFunds
	ErrWalletLocked       = apperrors.ErrWalletLocked
)

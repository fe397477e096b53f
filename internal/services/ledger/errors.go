package ledger

import apperrors "payvo/internal/errors"

// Service errors
var (
	ErrTransactionNotFound = apperrors.ErrTransactionNotFound
	ErrInvalidStatus       = apperrors.ErrInvalidStatus
	ErrDuplicateReference  = apperrors.ErrDuplicateReference
	ErrInvalidAmount       = apperrors.ErrValidation.WithMessage("amount must be greater than zero")
	ErrMissingReference    = apperrors.ErrValidation.WithMessage("reference is required")
)

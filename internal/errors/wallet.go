package errors

import "net/http"

var (
	ErrValidation = &DomainError{
		Code:    "VALIDATION_ERROR",
		Message: "invalid request",
		Status:  http.StatusBadRequest,
	}
	ErrInsufficientFunds = &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient wallet balance",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrWalletLocked = &DomainError{
		Code:    "WALLET_LOCKED",
		Message: "wallet is locked",
		Status:  http.StatusForbidden,
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
		Status:  http.StatusNotFound,
	}
	ErrConfigNotFound = &DomainError{
		Code:    "CONFIG_NOT_FOUND",
		Message: "no active configuration matches",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrAmountOutOfRange = &DomainError{
		Code:    "RANGE_ERROR",
		Message: "amount is outside the configured bounds",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrLimitExceeded = &DomainError{
		Code:    "LIMIT_EXCEEDED",
		Message: "spending limit exceeded",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrDuplicateReference = &DomainError{
		Code:    "DUPLICATE_REFERENCE",
		Message: "reference already processed",
		Status:  http.StatusConflict,
	}
	ErrConcurrencyTimeout = &DomainError{
		Code:    "CONCURRENCY_TIMEOUT",
		Message: "could not acquire wallet exclusion in time",
		Status:  http.StatusServiceUnavailable,
	}
	ErrNegativeBalanceRejected = &DomainError{
		Code:    "NEGATIVE_BALANCE_REJECTED",
		Message: "adjustment would drive balance below zero",
		Status:  http.StatusUnprocessableEntity,
	}
	ErrTransactionNotFound = &DomainError{
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
		Status:  http.StatusNotFound,
	}
	ErrInvalidStatus = &DomainError{
		Code:    "INVALID_STATUS",
		Message: "transaction status does not allow this operation",
		Status:  http.StatusConflict,
	}
)

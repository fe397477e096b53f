// Package fees computes withdrawal fees from tiered configuration. The fee
// is additive: the caller receives the requested amount and the wallet is
// debited amount plus fee.
package fees

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "payvo/internal/errors"
	"payvo/internal/models"
	"payvo/internal/repositories"
)

var (
	ErrConfigNotFound   = apperrors.ErrConfigNotFound.WithMessage("no active withdrawal configuration")
	ErrAmountOutOfRange = apperrors.ErrAmountOutOfRange
	ErrInvalidAmount    = apperrors.ErrValidation.WithMessage("amount must be greater than zero")
)

var oneHundred = decimal.NewFromInt(100)

// Quote is the outcome of a fee computation.
type Quote struct {
	Amount          decimal.Decimal `json:"amount"`
	Fee             decimal.Decimal `json:"fee"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	AmountToReceive decimal.Decimal `json:"amount_to_receive"`
	ConfigID        uint            `json:"config_id"`
}

// Calculator resolves withdrawal fee rules and prices withdrawals.
type Calculator struct {
	configs repositories.ConfigRepository
}

func NewCalculator(configs repositories.ConfigRepository) *Calculator {
	if configs == nil {
		panic("config repository is required")
	}
	return &Calculator{configs: configs}
}

// Resolve returns the active rule for the tier, falling back to the global
// rule when no tier-specific one exists.
func (c *Calculator) Resolve(tierLevel int) (*models.WithdrawalConfig, error) {
	cfg, err := c.configs.GetActiveWithdrawalConfig(&tierLevel)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repositories.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to resolve withdrawal config: %w", err)
	}

	cfg, err = c.configs.GetActiveWithdrawalConfig(nil)
	if err != nil {
		if errors.Is(err, repositories.ErrConfigNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to resolve withdrawal config: %w", err)
	}
	return cfg, nil
}

// Quote prices a withdrawal of amount for the tier: the fee is FLAT or
// PERCENTAGE per the resolved rule, then clamped to [minFee, maxFee].
func (c *Calculator) Quote(amount decimal.Decimal, tierLevel int) (*Quote, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	cfg, err := c.Resolve(tierLevel)
	if err != nil {
		return nil, err
	}

	if amount.LessThan(cfg.MinWithdrawal) {
		return nil, ErrAmountOutOfRange.WithMessage(
			fmt.Sprintf("minimum withdrawal is %s", cfg.MinWithdrawal))
	}
	if cfg.MaxWithdrawal.IsPositive() && amount.GreaterThan(cfg.MaxWithdrawal) {
		return nil, ErrAmountOutOfRange.WithMessage(
			fmt.Sprintf("maximum withdrawal is %s", cfg.MaxWithdrawal))
	}

	fee := cfg.FeeValue
	if cfg.FeeType == models.FeeTypePercentage {
		fee = amount.Mul(cfg.FeeValue).Div(oneHundred)
	}
	if fee.LessThan(cfg.MinFee) {
		fee = cfg.MinFee
	}
	if cfg.MaxFee != nil && fee.GreaterThan(*cfg.MaxFee) {
		fee = *cfg.MaxFee
	}

	return &Quote{
		Amount:          amount,
		Fee:             fee,
		TotalDebit:      amount.Add(fee),
		AmountToReceive: amount,
		ConfigID:        cfg.ID,
	}, nil
}

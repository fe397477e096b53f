// Package cashback computes promotional cashback for service purchases and
// plans redemptions. Accrual and redemption bookkeeping happen in the
// ledger's atomic unit; this package only decides amounts.
package cashback

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"payvo/internal/models"
	"payvo/internal/repositories"
)

var oneHundred = decimal.NewFromInt(100)

// Computation is the cashback decision for a purchase. Eligible is false
// when no active rule matches or the amount is below the rule's minimum;
// Cashback is zero in that case.
type Computation struct {
	Amount   decimal.Decimal `json:"amount"`
	Cashback decimal.Decimal `json:"cashback"`
	Eligible bool            `json:"eligible"`
	ConfigID uint            `json:"config_id,omitempty"`
}

// Engine resolves cashback rules and computes eligible amounts.
type Engine struct {
	configs repositories.ConfigRepository
}

func NewEngine(configs repositories.ConfigRepository) *Engine {
	if configs == nil {
		panic("config repository is required")
	}
	return &Engine{configs: configs}
}

// Resolve returns the matching active rule: provider-specific first, then
// the provider-agnostic rule for the service type. Nil when none matches.
func (e *Engine) Resolve(serviceType, provider string) (*models.CashbackConfig, error) {
	if provider != "" {
		cfg, err := e.configs.GetActiveCashbackConfig(serviceType, &provider)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, repositories.ErrConfigNotFound) {
			return nil, fmt.Errorf("failed to resolve cashback config: %w", err)
		}
	}

	cfg, err := e.configs.GetActiveCashbackConfig(serviceType, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve cashback config: %w", err)
	}
	return cfg, nil
}

// Compute returns the cashback earned by a purchase:
// min(amount * percentage / 100, maxCashback), zero below the rule's
// minimum amount or when no rule matches.
func (e *Engine) Compute(serviceType, provider string, amount decimal.Decimal) (*Computation, error) {
	out := &Computation{Amount: amount, Cashback: decimal.Zero}
	if !amount.IsPositive() {
		return out, nil
	}

	cfg, err := e.Resolve(serviceType, provider)
	if err != nil {
		return nil, err
	}
	if cfg == nil || amount.LessThan(cfg.MinAmount) {
		return out, nil
	}

	cb := amount.Mul(cfg.Percentage).Div(oneHundred)
	if cfg.MaxCashback != nil && cb.GreaterThan(*cfg.MaxCashback) {
		cb = *cfg.MaxCashback
	}

	out.Cashback = cb
	out.Eligible = true
	out.ConfigID = cfg.ID
	return out, nil
}

// PlanRedemption decides how much accrued cashback a purchase can consume:
// never more than is available and never more than the purchase amount.
func PlanRedemption(available, amount decimal.Decimal) decimal.Decimal {
	if !available.IsPositive() || !amount.IsPositive() {
		return decimal.Zero
	}
	if available.LessThan(amount) {
		return available
	}
	return amount
}

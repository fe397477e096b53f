package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal fee types
const (
	FeeTypeFlat       = "FLAT"
	FeeTypePercentage = "PERCENTAGE"
)

// WithdrawalConfig is a tiered fee rule. A nil TierLevel makes the rule
// global; a tier-specific active rule always wins over the global one.
type WithdrawalConfig struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	TierLevel     *int             `gorm:"index" json:"tier_level,omitempty"`
	FeeType       string           `gorm:"size:16;not null" json:"fee_type"`
	FeeValue      decimal.Decimal  `gorm:"type:numeric(20,4);not null" json:"fee_value"`
	MinFee        decimal.Decimal  `gorm:"type:numeric(20,4);default:0" json:"min_fee"`
	MaxFee        *decimal.Decimal `gorm:"type:numeric(20,4)" json:"max_fee,omitempty"`
	MinWithdrawal decimal.Decimal  `gorm:"type:numeric(20,4);default:0" json:"min_withdrawal"`
	MaxWithdrawal decimal.Decimal  `gorm:"type:numeric(20,4)" json:"max_withdrawal"`
	IsActive      bool             `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CashbackConfig is a promotional cashback rule. A nil Provider applies the
// rule to every provider of the service type; a provider-specific active
// rule takes precedence.
type CashbackConfig struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	ServiceType string           `gorm:"size:32;not null;index" json:"service_type"`
	Provider    *string          `gorm:"size:64;index" json:"provider,omitempty"`
	Percentage  decimal.Decimal  `gorm:"type:numeric(8,4);not null" json:"percentage"`
	MinAmount   decimal.Decimal  `gorm:"type:numeric(20,4);default:0" json:"min_amount"`
	MaxCashback *decimal.Decimal `gorm:"type:numeric(20,4)" json:"max_cashback,omitempty"`
	IsActive    bool             `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

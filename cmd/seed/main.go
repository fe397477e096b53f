// Package main seeds the default pricing configuration: a global
// withdrawal fee rule and baseline cashback rules for the supported
// service types. Existing rules are left untouched.
package main

import (
	"log"

	"github.com/shopspring/decimal"

	"payvo/internal/config"
	"payvo/internal/models"
	"payvo/internal/repositories"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			sqlDB, err := repositories.DB.DB()
			if err != nil {
				log.Printf("⚠️ Failed to get SQL DB instance: %v", err)
			} else if err := sqlDB.Close(); err != nil {
				log.Printf("⚠️ Failed to close PostgreSQL connection: %v", err)
			}
		}
		if repositories.RedisClient != nil {
			if err := repositories.RedisClient.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}
	}()

	seedWithdrawalConfig()
	seedCashbackConfigs()

	log.Println("✅ Default pricing configuration seeded")
}

func seedWithdrawalConfig() {
	var count int64
	repositories.DB.Model(&models.WithdrawalConfig{}).
		Where("tier_level IS NULL AND is_active = ?", true).
		Count(&count)
	if count > 0 {
		log.Println("Global withdrawal config already exists")
		return
	}

	maxFee := decimal.NewFromInt(1000)
	global := models.WithdrawalConfig{
		FeeType:       models.FeeTypePercentage,
		FeeValue:      decimal.NewFromFloat(1.5),
		MinFee:        decimal.NewFromInt(50),
		MaxFee:        &maxFee,
		MinWithdrawal: decimal.NewFromInt(100),
		MaxWithdrawal: decimal.NewFromInt(500000),
		IsActive:      true,
	}
	if err := repositories.DB.Create(&global).Error; err != nil {
		log.Fatalf("Failed to seed withdrawal config: %v", err)
	}
}

func seedCashbackConfigs() {
	defaults := []models.CashbackConfig{
		{ServiceType: "AIRTIME", Percentage: decimal.NewFromInt(2), MinAmount: decimal.NewFromInt(100), IsActive: true},
		{ServiceType: "DATA", Percentage: decimal.NewFromFloat(1.5), MinAmount: decimal.NewFromInt(200), IsActive: true},
		{ServiceType: "CABLE_TV", Percentage: decimal.NewFromInt(1), MinAmount: decimal.NewFromInt(1000), IsActive: true},
		{ServiceType: "ELECTRICITY", Percentage: decimal.NewFromInt(1), MinAmount: decimal.NewFromInt(1000), IsActive: true},
	}

	maxCashback := decimal.NewFromInt(500)
	for i := range defaults {
		defaults[i].MaxCashback = &maxCashback

		var count int64
		repositories.DB.Model(&models.CashbackConfig{}).
			Where("service_type = ? AND provider IS NULL AND is_active = ?", defaults[i].ServiceType, true).
			Count(&count)
		if count > 0 {
			log.Printf("Cashback config for %s already exists", defaults[i].ServiceType)
			continue
		}

		if err := repositories.DB.Create(&defaults[i]).Error; err != nil {
			log.Fatalf("Failed to seed cashback config for %s: %v", defaults[i].ServiceType, err)
		}
	}
}

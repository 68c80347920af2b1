package main

import (
	"context"
	"glowmart-backend/config"
	"glowmart-backend/internal/domain"
	"glowmart-backend/internal/repository/memory"
	"glowmart-backend/pkg/logger"
	"glowmart-backend/pkg/utils"
	"time"
)

// seedDemoData fills the memory driver with a small catalog and two accounts
// so the API can be exercised without Postgres.
func seedDemoData(ctx context.Context, cfg *config.Config, users *memory.UserRepository, catalog *memory.ProductCatalog) error {
	now := time.Now().UTC()
	sale := int64(1800)
	products := []domain.ProductSnapshot{
		{ID: "prod-serum", Name: "Vitamin C Serum", BasePrice: 2400, SalePrice: &sale, IsActive: true},
		{ID: "prod-cleanser", Name: "Gentle Foam Cleanser", BasePrice: 1000, IsActive: true},
		{ID: "prod-sunscreen", Name: "SPF 50 Sunscreen", BasePrice: 500, IsActive: true},
		{ID: "prod-retired", Name: "Discontinued Toner", BasePrice: 900, IsActive: false},
	}
	for _, p := range products {
		if err := catalog.Upsert(ctx, p); err != nil {
			return err
		}
	}

	accounts := []domain.User{
		{ID: "user-admin", Email: "admin@glowmart.test", Role: domain.RoleAdmin, FirstName: "Store", LastName: "Admin", CreatedAt: now, UpdatedAt: now},
		{ID: "user-demo", Email: "customer@glowmart.test", Role: domain.RoleCustomer, FirstName: "Demo", LastName: "Customer", Phone: "0771234567", CreatedAt: now, UpdatedAt: now},
	}
	for i := range accounts {
		if err := users.Create(ctx, &accounts[i]); err != nil {
			return err
		}
	}

	if cfg.Env != "development" {
		return nil
	}
	for _, u := range accounts {
		token, err := utils.GenerateJWT(u.ID, u.Email, u.Role, 24*time.Hour)
		if err != nil {
			return err
		}
		logger.Info().Str("user_id", u.ID).Str("role", u.Role).Str("token", token).Msg("Demo account")
	}
	return nil
}

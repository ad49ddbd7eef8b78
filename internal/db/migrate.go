package db

import (
	"context"

	"team-workspace-server/internal/domain"
	"team-workspace-server/internal/history"
	"team-workspace-server/internal/note"
	"team-workspace-server/internal/tenant"
	"team-workspace-server/internal/user"

	"github.com/rs/zerolog/log"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&domain.Company{},
		&domain.User{},
		&note.Note{},
		&note.NoteLine{},
		&history.Operation{},
	)

	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	log.Info().Msg("Database schema migrated successfully")
}

// SeedData seeds the database with initial data (for development only)
func SeedData() {
	ctx := context.Background()

	companyRepo := tenant.NewRepository(AppDb)
	noteRepo := note.NewRepository(AppDb)
	tenantService := tenant.NewService(companyRepo, noteRepo)

	exists, err := companyRepo.CodeExists(ctx, "acme")
	if err != nil {
		log.Error().Err(err).Msg("seed check failed")
		return
	}
	if !exists {
		if _, err := tenantService.Provision(ctx, "Acme Inc", "acme"); err != nil {
			log.Error().Err(err).Msg("error provisioning test company")
		} else {
			log.Info().Msg("Provisioned test company: acme")
		}
	}

	userRepo := user.NewRepository(AppDb)
	userService := user.NewService(userRepo, companyRepo)

	testUser := &domain.User{
		Name:        "Test User",
		Username:    "testuser",
		Email:       "test@example.com",
		Password:    "password123",
		CompanyCode: "acme",
		IsActive:    true,
	}

	// Check if user exists
	if _, err := userRepo.FindByEmail(testUser.Email); err != nil {
		// User doesn't exist, create it
		if err := userService.Register(ctx, testUser); err != nil {
			log.Error().Err(err).Msg("error creating test user")
		} else {
			log.Info().Str("email", testUser.Email).Msg("Created test user")
		}
	} else {
		log.Info().Str("email", testUser.Email).Msg("Test user already exists")
	}
}

package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/vetted-notifier/internal/config"
	"github.com/noah-isme/vetted-notifier/internal/models"
	"github.com/noah-isme/vetted-notifier/internal/repository"
	"github.com/noah-isme/vetted-notifier/pkg/postgrest"
)

// OpenCongratsStore reaches the candidate database directly when a DSN is
// configured, otherwise through its REST data API. The delivery log table is
// migrated on direct connections; REST deployments own their schema.
func OpenCongratsStore(cfg config.BackendConfig, logger zerolog.Logger) (repository.CongratsStore, func() error, error) {
	if cfg.Direct() {
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return repository.CongratsStore{}, nil, fmt.Errorf("congrats: %w", err)
		}
		if err := db.AutoMigrate(&models.WebhookDelivery{}); err != nil {
			return repository.CongratsStore{}, nil, fmt.Errorf("congrats: migrate delivery log: %w", err)
		}
		logger.Info().Str("backend", "congrats").Str("mode", "postgres").Msg("data store ready")
		return repository.NewGormCongratsStore(db), closer(db), nil
	}

	client, err := postgrest.New(postgrest.Config{URL: cfg.URL, APIKey: cfg.APIKey()}, logger)
	if err != nil {
		return repository.CongratsStore{}, nil, fmt.Errorf("congrats: %w", err)
	}
	logger.Info().Str("backend", "congrats").Str("mode", "rest").Msg("data store ready")
	return repository.NewRESTCongratsStore(client), noopClose, nil
}

// OpenVettedStore is the client-side counterpart of OpenCongratsStore. It
// returns ok=false when the vetted backend is not configured.
func OpenVettedStore(cfg config.BackendConfig, logger zerolog.Logger) (store repository.VettedStore, closeFn func() error, ok bool, err error) {
	if !cfg.Configured() {
		return repository.VettedStore{}, noopClose, false, nil
	}

	if cfg.Direct() {
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return repository.VettedStore{}, nil, false, fmt.Errorf("vetted: %w", err)
		}
		logger.Info().Str("backend", "vetted").Str("mode", "postgres").Msg("data store ready")
		return repository.NewGormVettedStore(db), closer(db), true, nil
	}

	client, err := postgrest.New(postgrest.Config{URL: cfg.URL, APIKey: cfg.APIKey()}, logger)
	if err != nil {
		return repository.VettedStore{}, nil, false, fmt.Errorf("vetted: %w", err)
	}
	logger.Info().Str("backend", "vetted").Str("mode", "rest").Msg("data store ready")
	return repository.NewRESTVettedStore(client), noopClose, true, nil
}

func closer(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
}

func noopClose() error { return nil }

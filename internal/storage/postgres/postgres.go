// Package postgresstorage implements the storage.Backend interface on a
// PostgreSQL connection. It wraps the GORM backend via composition; the only
// Postgres-specific concerns are the connection itself and connection-pool
// sizing.
package postgresstorage

import (
	"fmt"
	"log/slog"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/database"
	gormstorage "github.com/microrover/missionctl/internal/storage/gorm"
)

// Backend wraps the GORM backend over a Postgres connection.
type Backend struct {
	*gormstorage.Backend
}

// New connects to Postgres using the viper db.* settings and wraps the GORM
// backend around the connection.
func New(phaseIDs *cache.NameIDCache, logger *slog.Logger) (*Backend, error) {
	db, err := database.GetPostgresDBStandalone()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:       db,
			PhaseIDs: phaseIDs,
			Logger:   logger,
		}),
	}, nil
}

// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/config"
	"github.com/microrover/missionctl/internal/storage/memory"
	postgresstorage "github.com/microrover/missionctl/internal/storage/postgres"
	sqlitestorage "github.com/microrover/missionctl/internal/storage/sqlite"
	"github.com/microrover/missionctl/internal/storage/websocket"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, phaseIDs *cache.NameIDCache, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgresstorage.New(phaseIDs, logger)
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
		}, phaseIDs, logger)
	case "websocket":
		return websocket.New(websocket.Config{
			URL:    cfg.Websocket.URL,
			Secret: cfg.Websocket.Secret,
		}, logger), nil
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

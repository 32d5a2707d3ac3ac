// Package sqlitestorage implements the storage.Backend interface using an
// in-memory SQLite database with periodic disk dumps via VACUUM INTO. It
// wraps the GORM backend via composition; the only SQLite-specific concerns
// are creating the in-memory DB and the periodic dump.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/database"
	gormstorage "github.com/microrover/missionctl/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, phaseIDs *cache.NameIDCache, logger *slog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:       db,
		PhaseIDs: phaseIDs,
		Logger:   logger,
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend, and
// writes a final disk snapshot so the finished run survives shutdown.
func (b *Backend) Close() error {
	close(b.stopChan)
	err := b.Backend.Close()

	if b.cfg.DumpPath != "" {
		if dumpErr := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); dumpErr != nil {
			b.log.Error("Final SQLite dump failed", "error", dumpErr)
			if err == nil {
				err = dumpErr
			}
		}
	}
	return err
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via
// VACUUM INTO. VACUUM INTO creates a point-in-time snapshot, so no pause
// mechanism is needed.
func (b *Backend) dumpLoop() {
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			} else {
				b.log.Debug("Dumped to disk", "duration", time.Since(start))
			}
		}
	}
}

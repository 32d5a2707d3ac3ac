// Package gormstorage implements the storage.Backend interface on a GORM
// database handle with internal write queues and a background writer
// goroutine. The postgres and sqlite backends are thin wrappers around it.
package gormstorage

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/model"
	"github.com/microrover/missionctl/internal/model/convert"
	"github.com/microrover/missionctl/internal/queue"
	"github.com/microrover/missionctl/pkg/core"
)

// writeInterval is how often the background writer drains the queues.
const writeInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB       *gorm.DB
	PhaseIDs *cache.NameIDCache
	Logger   *slog.Logger
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Ticks            *queue.Queue[model.TickRecord]
	PhaseTransitions *queue.Queue[model.PhaseTransition]
	ScanDetections   *queue.Queue[model.ScanDetection]
	ControlEvents    *queue.Queue[model.ControlEvent]
}

func newQueues() *queues {
	return &queues{
		Ticks:            queue.New[model.TickRecord](),
		PhaseTransitions: queue.New[model.PhaseTransition](),
		ScanDetections:   queue.New[model.ScanDetection](),
		ControlEvents:    queue.New[model.ControlEvent](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps        Dependencies
	queues      *queues
	runID       atomic.Uint64
	nextPhaseID atomic.Uint32 // used only when no DB is attached
	lastWriteNs atomic.Int64
	stopChan    chan struct{}
	dbReady     bool
}

// New creates a new GORM storage backend. A nil DB leaves the backend in
// queue-only mode, which the unit tests use.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PhaseIDs == nil {
		deps.PhaseIDs = cache.NewNameIDCache()
	}
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues, runs schema migration, and starts the DB
// writer goroutine if a database is attached.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil {
		return nil
	}

	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.dbReady = true

	b.startDBWriter()
	return nil
}

// setupDB migrates tables and creates default robot settings if they don't exist.
func (b *Backend) setupDB() error {
	db := b.deps.DB
	log := b.deps.Logger

	if !db.Migrator().HasTable(&model.RobotInfo{}) {
		if err := db.AutoMigrate(&model.RobotInfo{}); err != nil {
			return fmt.Errorf("failed to auto-migrate RobotInfo: %w", err)
		}
		if err := db.Create(&model.RobotInfo{
			RobotName: "rover-1",
			Chassis:   "3-wheel",
		}).Error; err != nil {
			return fmt.Errorf("failed to create robot_info entry: %w", err)
		}
	}

	log.Info("Migrating schema")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database setup complete")
	return nil
}

// Close drains the queues one last time and stops the writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	if b.dbReady {
		b.drainOnce()
	}
	return nil
}

// StartRun performs arena get-or-insert and run create in the DB, and
// assigns the DB-generated IDs back to the passed pointers.
func (b *Backend) StartRun(coreRun *core.Run, coreArena *core.Arena) error {
	if b.deps.DB == nil {
		return nil
	}

	db := b.deps.DB

	gormArena := convert.ArenaToModel(*coreArena)
	if _, err := gormArena.GetOrInsert(db); err != nil {
		return fmt.Errorf("failed to get or insert arena: %w", err)
	}

	gormRun := convert.RunToModel(*coreRun)
	gormRun.Arena = gormArena
	gormRun.ArenaID = gormArena.ID
	if err := db.Create(&gormRun).Error; err != nil {
		return fmt.Errorf("failed to insert new run: %w", err)
	}

	coreRun.ID = gormRun.ID
	coreRun.ArenaID = gormArena.ID
	coreArena.ID = gormArena.ID

	// Store run ID for the DB writer goroutine
	b.runID.Store(uint64(gormRun.ID))

	return nil
}

// SetRunID sets the current run ID for the DB writer (used by CLI tools).
func (b *Backend) SetRunID(id uint) {
	b.runID.Store(uint64(id))
}

// EndRun flushes whatever is still queued for the finished run.
func (b *Backend) EndRun() error {
	if b.dbReady {
		b.drainOnce()
	}
	return nil
}

// phaseNameID resolves a phase name to its interned ID, inserting the
// dictionary row on first sight.
func (b *Backend) phaseNameID(name string) uint {
	if id, ok := b.deps.PhaseIDs.Get(name); ok {
		return id
	}

	if b.deps.DB == nil {
		id := uint(b.nextPhaseID.Add(1))
		b.deps.PhaseIDs.Set(name, id)
		return id
	}

	row := model.PhaseName{Name: name}
	if err := b.deps.DB.Where(model.PhaseName{Name: name}).FirstOrCreate(&row).Error; err != nil {
		b.deps.Logger.Error("Failed to intern phase name", "phase", name, "error", err)
		return 0
	}
	b.deps.PhaseIDs.Set(name, row.ID)
	return row.ID
}

// RecordTick converts a tick sample and pushes it to the write queue.
func (b *Backend) RecordTick(s *core.TickSample) error {
	gormObj := convert.TickToModel(*s, b.phaseNameID(s.Phase))
	b.queues.Ticks.Push(gormObj)
	return nil
}

// RecordPhaseChange converts and queues a phase transition.
func (b *Backend) RecordPhaseChange(p *core.PhaseChange) error {
	gormObj := convert.PhaseChangeToModel(*p)
	b.queues.PhaseTransitions.Push(gormObj)
	return nil
}

// RecordScanDetection converts and queues a scan detection.
func (b *Backend) RecordScanDetection(d *core.ScanDetection) error {
	gormObj := convert.ScanDetectionToModel(*d)
	b.queues.ScanDetections.Push(gormObj)
	return nil
}

// RecordControlEvent converts and queues a control event.
func (b *Backend) RecordControlEvent(e *core.ControlEvent) error {
	gormObj := convert.ControlEventToModel(*e)
	b.queues.ControlEvents.Push(gormObj)
	return nil
}

// QueueDepths reports the current write queue lengths for monitoring.
func (b *Backend) QueueDepths() map[string]int {
	return map[string]int{
		"ticks":            b.queues.Ticks.Len(),
		"phaseTransitions": b.queues.PhaseTransitions.Len(),
		"scanDetections":   b.queues.ScanDetections.Len(),
		"controlEvents":    b.queues.ControlEvents.Len(),
	}
}

// GetLastDBWriteDuration returns the duration of the last write cycle.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNs.Load())
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, logger *slog.Logger, prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		logger.Error("Error writing batch", "records", name, "error", err)
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
}

// drainOnce runs a single write cycle over every queue.
func (b *Backend) drainOnce() {
	runID := uint(b.runID.Load())

	stampTicks := func(items []model.TickRecord) {
		for i := range items {
			items[i].RunID = runID
		}
	}
	stampPhaseTransitions := func(items []model.PhaseTransition) {
		for i := range items {
			items[i].RunID = runID
		}
	}
	stampScanDetections := func(items []model.ScanDetection) {
		for i := range items {
			items[i].RunID = runID
		}
	}
	stampControlEvents := func(items []model.ControlEvent) {
		for i := range items {
			items[i].RunID = runID
		}
	}

	start := time.Now()
	writeQueue(b.deps.DB, b.queues.Ticks, "ticks", b.deps.Logger, stampTicks)
	writeQueue(b.deps.DB, b.queues.PhaseTransitions, "phase transitions", b.deps.Logger, stampPhaseTransitions)
	writeQueue(b.deps.DB, b.queues.ScanDetections, "scan detections", b.deps.Logger, stampScanDetections)
	writeQueue(b.deps.DB, b.queues.ControlEvents, "control events", b.deps.Logger, stampControlEvents)
	b.lastWriteNs.Store(int64(time.Since(start)))
}

// startDBWriter starts the background goroutine that periodically drains
// queues into the DB.
func (b *Backend) startDBWriter() {
	go func() {
		for {
			select {
			case <-b.stopChan:
				return
			default:
			}

			if !b.dbReady {
				time.Sleep(1 * time.Second)
				continue
			}

			b.drainOnce()
			time.Sleep(writeInterval)
		}
	}()
}

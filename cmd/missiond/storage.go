package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/microrover/missionctl/internal/api"
	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/config"
	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/internal/geo"
	"github.com/microrover/missionctl/internal/geometry"
	"github.com/microrover/missionctl/internal/mission"
	"github.com/microrover/missionctl/internal/storage"
	"github.com/microrover/missionctl/internal/worker"
	"github.com/microrover/missionctl/pkg/core"
)

// initStorage creates the configured storage backend and hangs the worker
// manager's handlers off the dispatcher.
func initStorage(d *dispatcher.Dispatcher, state *cache.StateCache) (storage.Backend, *worker.Manager, error) {
	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, cache.NewNameIDCache(), Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s storage backend: %w", storageCfg.Type, err)
	}
	if err := backend.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize %s storage backend: %w", storageCfg.Type, err)
	}

	manager := worker.NewManager(worker.Dependencies{
		LogManager: SlogManager,
		State:      state,
	}, backend)
	manager.RegisterHandlers(d)

	Logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return backend, manager, nil
}

// startRun opens the recording for this session and publishes the run
// context. The dispatcher call is synchronous so records never race the
// backend's run setup.
func startRun(d *dispatcher.Dispatcher, missionCtx *mission.Context, arena *geometry.Arena, name string) (*core.Run, error) {
	cfg := arena.Config()
	coreArena := &core.Arena{
		Name:            viper.GetString("arena.name"),
		WidthMM:         cfg.CourseWidthMM,
		LengthMM:        cfg.CourseLengthMM,
		RampLengthMM:    cfg.RampLengthMM,
		RampWidthMM:     cfg.RampWidthMM,
		SensorOffsetMM:  cfg.SensorOffsetMM,
		OriginLatitude:  viper.GetFloat64("arena.originLatitude"),
		OriginLongitude: viper.GetFloat64("arena.originLongitude"),
	}
	run := &core.Run{
		Name:            name,
		RobotName:       viper.GetString("robotName"),
		StartTime:       SessionStartTime,
		TickRateHz:      viper.GetFloat64("loop.tickRateHz"),
		DaemonVersion:   CurrentDaemonVersion,
		FirmwareVersion: viper.GetString("firmwareVersion"),
		Tag:             viper.GetString("defaultTag"),
	}

	result, err := d.Dispatch(dispatcher.Event{
		Command:   worker.CmdRunStart,
		Payload:   worker.RunStart{Run: run, Arena: coreArena},
		Timestamp: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	if id, ok := result.(uint); ok {
		run.ID = id
	}

	missionCtx.SetRun(run, arena)
	return run, nil
}

// finishRun closes the recording, writes the dead-reckoned track, and uploads
// the exported archive when the backend produced one.
func finishRun(d *dispatcher.Dispatcher, backend storage.Backend, est *geo.Estimator) {
	if _, err := d.Dispatch(dispatcher.Event{
		Command:   worker.CmdRunEnd,
		Timestamp: time.Now(),
	}); err != nil {
		Logger.Error("Failed to end run", "error", err)
	}

	if err := backend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}

	exportTrack(est)

	if up, ok := backend.(storage.Uploadable); ok {
		uploadRun(up)
	}
}

// exportTrack writes the dead-reckoned path as WKT next to the logs.
func exportTrack(est *geo.Estimator) {
	track := est.Track()
	if len(track) < 2 {
		return
	}
	ls, err := geo.TrackLineString(track)
	if err != nil {
		Logger.Warn("Failed to build track linestring", "error", err)
		return
	}

	path := filepath.Join(viper.GetString("logsDir"),
		fmt.Sprintf("track.%s.wkt", SessionStartTime.Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(ls.AsText()), 0644); err != nil {
		Logger.Warn("Failed to write track file", "error", err)
		return
	}
	Logger.Info("Wrote dead-reckoned track", "path", path, "points", len(track))
}

// uploadRun ships the exported run archive to the fleet telemetry server.
func uploadRun(up storage.Uploadable) {
	path := up.GetExportedFilePath()
	if path == "" {
		Logger.Debug("No exported run archive to upload")
		return
	}

	serverURL := viper.GetString("api.serverUrl")
	if serverURL == "" {
		return
	}

	client := api.New(serverURL, viper.GetString("api.apiKey"))
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("Telemetry server offline, keeping local archive only",
			"path", path, "error", err)
		return
	}

	start := time.Now()
	if err := client.Upload(path, up.GetExportMetadata()); err != nil {
		Logger.Error("Failed to upload run archive", "path", path, "error", err)
		return
	}
	Logger.Info("Uploaded run archive", "path", path, "duration", time.Since(start))
}

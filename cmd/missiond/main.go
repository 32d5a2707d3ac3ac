// missiond is the mission-control daemon for the rover. It owns the sensor
// head link, the drive controller, the mission state machine and the
// telemetry pipeline; one process per run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gorm.io/gorm"

	"github.com/microrover/missionctl/internal/cache"
	"github.com/microrover/missionctl/internal/config"
	"github.com/microrover/missionctl/internal/database"
	"github.com/microrover/missionctl/internal/dispatcher"
	"github.com/microrover/missionctl/internal/drive"
	"github.com/microrover/missionctl/internal/geo"
	"github.com/microrover/missionctl/internal/geometry"
	"github.com/microrover/missionctl/internal/handlers"
	"github.com/microrover/missionctl/internal/influx"
	"github.com/microrover/missionctl/internal/logging"
	"github.com/microrover/missionctl/internal/mission"
	"github.com/microrover/missionctl/internal/monitor"
	intOtel "github.com/microrover/missionctl/internal/otel"
	"github.com/microrover/missionctl/internal/parser"
	"github.com/microrover/missionctl/internal/sensors"
	"github.com/microrover/missionctl/internal/serial"
)

// Version info - BuildDate can be set at build time via ldflags.
var (
	CurrentDaemonVersion string = "0.0.1"
	BuildDate            string = "unknown"

	DaemonName string = "missiond"
)

var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	SessionStartTime time.Time = time.Now()
)

func main() {
	configDir := flag.String("config", ".", "directory containing missiond.cfg.json")
	replayFile := flag.String("replay", "", "replay recorded sensor frames from a file instead of opening the serial port")
	runName := flag.String("name", "", "run name (default: timestamped)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s)\n", DaemonName, CurrentDaemonVersion, BuildDate)
		return
	}

	// Bootstrap logging to the console until the config tells us where the
	// log file lives.
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logFile, err := setupLogging()
	if err != nil {
		Logger.Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	name := *runName
	if name == "" {
		name = fmt.Sprintf("Run %s", SessionStartTime.Format("20060102_150405"))
	}

	if err := run(name, *replayFile); err != nil {
		Logger.Error("Daemon exited with error", "error", err)
		os.Exit(1)
	}
}

// setupLogging opens the session log file and rebuilds the slog manager with
// file, optional OTel and optional GELF outputs.
func setupLogging() (*os.File, error) {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}

	logPath := logging.LogFilePath(logsDir, DaemonName, SessionStartTime)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
			OTelProvider = nil
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	var extra []slog.Handler
	if viper.GetBool("graylog.enabled") {
		gelfHandler, err := logging.NewGelfHandler(
			viper.GetString("graylog.address"),
			viper.GetString("logLevel"),
		)
		if err != nil {
			Logger.Error("Failed to connect GELF handler, continuing without it", "error", err)
		} else {
			extra = append(extra, gelfHandler)
		}
	}

	SlogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logPath)
	return logFile, nil
}

// openPort opens the sensor head link: the configured serial device, or a
// mock port fed by the replay pump when -replay is given.
func openPort(replayFile string) (serial.Port, error) {
	if replayFile != "" {
		Logger.Info("Replaying recorded frames", "file", replayFile)
		return &serial.MockPort{
			LinesChan: make(chan string),
			Logger:    Logger,
		}, nil
	}

	portName := viper.GetString("serial.port")
	baudRate := viper.GetInt("serial.baudRate")
	port, err := serial.OpenDevice(portName, baudRate, Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open sensor head port %s: %w", portName, err)
	}
	Logger.Info("Sensor head port open", "port", portName, "baud", baudRate)
	return port, nil
}

func run(runName, replayFile string) error {
	// SIGINT/SIGTERM end the run; SIGUSR1/SIGUSR2 are control inputs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	zlog := zerolog.New(os.Stdout).With().Timestamp().Str("daemon", DaemonName).Logger()

	port, err := openPort(replayFile)
	if err != nil {
		return err
	}

	sensorCfg, err := config.Sensors()
	if err != nil {
		return err
	}
	head := sensors.NewHead(port, parser.NewParser(Logger), sensorCfg, Logger)

	arenaCfg, err := config.Geometry()
	if err != nil {
		return err
	}
	arena, err := geometry.NewArena(arenaCfg)
	if err != nil {
		return fmt.Errorf("invalid arena geometry: %w", err)
	}

	policy, err := config.CorrectionPolicy()
	if err != nil {
		return err
	}
	drv := drive.NewController(newSerialWheels(port), policy, Logger)

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	stateCache := cache.NewStateCache()
	backend, workerManager, err := initStorage(eventDispatcher, stateCache)
	if err != nil {
		return err
	}

	robotName := viper.GetString("robotName")
	influxManager := initInflux(zlog)
	sink := newTelemetrySink(eventDispatcher, influxManager, robotName, Logger)

	missionCfg, err := config.Mission()
	if err != nil {
		return err
	}
	machine := mission.NewMachine(drv, arena, missionCfg, sink, Logger)

	// The loop logs through a handler that stamps every record with the
	// live phase and tick state.
	loopLog := slog.New(logging.NewContextHandler(Logger.Handler(), func() []slog.Attr {
		attrs := []slog.Attr{slog.String("phase", machine.Phase().String())}
		if snap, ok := stateCache.Snapshot(); ok {
			attrs = append(attrs, slog.Uint64("tick", snap.Tick))
		}
		return attrs
	}))

	estimator := geo.NewEstimator(viper.GetFloat64("geo.metersPerSecAt100"))
	loop := mission.NewLoop(machine, head, drv, stateCache, sink, estimator,
		viper.GetFloat64("loop.tickRateHz"), loopLog)

	missionCtx := mission.NewContext()

	controlService := handlers.NewService(handlers.Dependencies{
		Machine:    machine,
		Dispatch:   eventDispatcher,
		LogManager: SlogManager,
	})
	controlService.WatchButtons(ctx, head.Buttons())

	userSignals := make(chan os.Signal, 1)
	signal.Notify(userSignals, syscall.SIGUSR1, syscall.SIGUSR2)
	controlService.WatchSignals(ctx, userSignals)

	// A db-backed monitor needs its own connection; the storage backends
	// keep theirs private.
	var dbManager *database.Manager
	if config.GetStorageConfig().Type == "postgres" {
		dbManager = database.NewManager(zlog)
		if err := dbManager.Connect(); err != nil {
			Logger.Warn("Monitor database unavailable, status file only", "error", err)
			dbManager = nil
		} else if err := dbManager.Setup(); err != nil {
			Logger.Warn("Monitor database migration failed", "error", err)
			dbManager = nil
		}
	}
	monitorService := monitor.NewService(monitor.Dependencies{
		DB:             monitorDB(dbManager),
		LogManager:     SlogManager,
		MissionContext: missionCtx,
		WorkerManager:  workerManager,
		Phase:          func() string { return machine.Phase().String() },
		StatusDir:      viper.GetString("logsDir"),
		IsDatabaseValid: func() bool {
			return dbManager != nil && dbManager.IsValid
		},
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start status monitor", "error", err)
	}

	if influxManager != nil {
		go reportPerformance(ctx, monitorService, influxManager, robotName)
	}

	activeRun, err := startRun(eventDispatcher, missionCtx, arena, runName)
	if err != nil {
		return err
	}
	Logger.Info("Run started", "run", activeRun.Name, "runID", activeRun.ID, "robot", robotName)

	go func() {
		if err := head.Run(ctx); err != nil {
			Logger.Error("Sensor head service failed", "error", err)
		}
	}()

	monitorErr := make(chan error, 1)
	if replayFile != "" {
		// Replay steps the loop itself, one tick per attitude frame.
		mock := port.(*serial.MockPort)
		go func() {
			if err := replay(ctx, replayFile, mock, loop); err != nil {
				Logger.Error("Replay failed", "error", err)
			}
			// Replay input is finite; drained means the run is over.
			cancel()
		}()
	} else {
		go func() {
			monitorErr <- port.Monitor(ctx)
		}()
		go func() {
			if err := loop.Run(ctx); err != nil {
				Logger.Error("Control loop failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	Logger.Info("Shutting down", "uptime", time.Since(SessionStartTime))

	if err := drv.Stop(); err != nil {
		Logger.Warn("Failed to stop wheels on shutdown", "error", err)
	}

	if replayFile == "" {
		select {
		case err := <-monitorErr:
			if err != nil {
				Logger.Error("Sensor head port failed", "error", err)
			}
		case <-time.After(2 * time.Second):
		}
	}

	monitorService.Stop()
	finishRun(eventDispatcher, backend, estimator)

	if influxManager != nil {
		if err := influxManager.Close(); err != nil {
			Logger.Warn("Failed to close InfluxDB manager", "error", err)
		}
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := SlogManager.Flush(flushCtx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(flushCtx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	return nil
}

// initInflux connects the live telemetry writer. Returns nil when disabled.
func initInflux(zlog zerolog.Logger) *influx.Manager {
	if !viper.GetBool("influx.enabled") {
		return nil
	}
	backupPath := logging.LogFilePath(viper.GetString("logsDir"), "influx_backup", SessionStartTime) + ".gz"
	m := influx.NewManager(zlog, backupPath)
	if err := m.Connect(); err != nil {
		Logger.Warn("InfluxDB unavailable, live telemetry disabled", "error", err)
		return nil
	}
	return m
}

func monitorDB(m *database.Manager) *gorm.DB {
	if m == nil {
		return nil
	}
	return m.DB
}

// reportPerformance ships a daemon performance sample to InfluxDB every ten
// seconds while the run is active.
func reportPerformance(ctx context.Context, mon *monitor.Service, ifx *influx.Manager, robotName string) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, perf := mon.GetProgramStatus(true, true)
			if err := ifx.WritePoint(ctx, influx.BucketPerformance,
				influx.PerformancePoint(robotName, perf)); err != nil {
				Logger.Debug("Failed to write performance point", "error", err)
			}
		}
	}
}

package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/microrover/missionctl/internal/model"
	"github.com/microrover/missionctl/pkg/core"
)

// Buckets the daemon writes to.
const (
	BucketTelemetry   = "run_telemetry"
	BucketPhases      = "mission_phases"
	BucketPerformance = "daemon_performance"
)

// DefaultBucketNames are the InfluxDB buckets ensured on connect. Telegraf
// ships host metrics from the robot alongside the daemon's own buckets.
var DefaultBucketNames = []string{
	BucketTelemetry,
	BucketPhases,
	BucketPerformance,
	"Telegraf",
}

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		IsValid:     false,
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect() error {
	if !viper.GetBool("influx.enabled") {
		return errors.New("influxdb.Enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf(
			"%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(context.Background())

	if err != nil || !running {
		m.IsValid = false
		// create backup writer
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %v", err)
			}
			m.BackupWriter = gzip.NewWriter(file)
		}
	} else {
		m.IsValid = true
	}

	if m.IsValid {
		err = m.setupOrganizationAndBuckets()
		if err != nil {
			return err
		}
		m.CreateWriters()
		m.Logger.Info().Msg("InfluxDB client initialized")
	} else {
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
	}

	return nil
}

func (m *Manager) setupOrganizationAndBuckets() error {
	ctx := context.Background()
	orgName := viper.GetString("influx.org")

	// ensure org exists
	_, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		_, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// get influxOrg
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Error().Err(err).Str("org", orgName).Msg("Error getting organization")
		return err
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		_, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket)
		if err != nil {
			m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

			rule := domain.RetentionRuleTypeExpire
			_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
				Type:         &rule,
				EverySeconds: 60 * 60 * 24 * 90, // 90 days
			})
			if err != nil {
				m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
				return err
			}
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	orgName := viper.GetString("influx.org")
	for _, bucket := range m.BucketNames {
		m.Logger.Trace().Str("bucket", bucket).Msg("Creating InfluxDB writer")
		m.Writers[bucket] = m.Client.WriteAPI(orgName, bucket)

		errorsCh := m.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)

		m.Logger.Trace().Str("bucket", bucket).Msg("InfluxDB writer created")
	}

	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	if m.IsValid {
		if _, ok := m.Writers[bucket]; !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		m.Writers[bucket].WritePoint(point)
	} else {
		if m.BackupWriter == nil {
			return fmt.Errorf("influxDB client not initialized and backup writer not available")
		}

		lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Duration(1*time.Nanosecond))
		_, err := m.BackupWriter.Write([]byte(lineProtocol + "\n"))
		if err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
		}
	}

	return nil
}

// Close flushes pending writes and releases the client or backup file.
func (m *Manager) Close() error {
	if m.IsValid {
		for _, w := range m.Writers {
			w.Flush()
		}
		m.Client.Close()
		return nil
	}
	if m.BackupWriter != nil {
		return m.BackupWriter.Close()
	}
	return nil
}

// TickPoint builds a run_telemetry point from one control tick sample.
func TickPoint(robotName string, s core.TickSample) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("tick").
		AddTag("robot", robotName).
		AddTag("phase", s.Phase).
		AddTag("direction", s.Direction).
		AddField("tick", int64(s.Tick)).
		AddField("yaw", float64(s.Yaw)).
		AddField("pitch", float64(s.Pitch)).
		AddField("roll", float64(s.Roll)).
		AddField("range_mm", s.RangeMM).
		AddField("range_valid", s.RangeValid).
		AddField("speed_pct", s.SpeedPct).
		AddField("wheel_front", s.Wheels.Front).
		AddField("wheel_left", s.Wheels.Left).
		AddField("wheel_right", s.Wheels.Right).
		AddField("pos_x", s.Position.X).
		AddField("pos_y", s.Position.Y).
		SetTime(s.Time)
}

// PhasePoint builds a mission_phases point from a phase transition.
func PhasePoint(robotName string, pc core.PhaseChange) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("phase_change").
		AddTag("robot", robotName).
		AddTag("from", pc.From).
		AddTag("to", pc.To).
		AddField("tick", int64(pc.Tick)).
		AddField("reason", pc.Reason).
		AddField("forced", pc.Forced).
		SetTime(pc.Time)
}

// PerformancePoint builds a daemon_performance point from a perf sample.
func PerformancePoint(robotName string, perf model.RunPerformance) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement("daemon_performance").
		AddTag("robot", robotName).
		AddField("queue_ticks", int(perf.WriteQueueLengths.Ticks)).
		AddField("queue_phase_transitions", int(perf.WriteQueueLengths.PhaseTransitions)).
		AddField("queue_scan_detections", int(perf.WriteQueueLengths.ScanDetections)).
		AddField("queue_control_events", int(perf.WriteQueueLengths.ControlEvents)).
		AddField("last_write_ms", float64(perf.LastWriteDurationMs)).
		SetTime(perf.Time)
}

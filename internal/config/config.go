package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/microrover/missionctl/internal/drive"
	"github.com/microrover/missionctl/internal/geometry"
	"github.com/microrover/missionctl/internal/mission"
	"github.com/microrover/missionctl/internal/sensors"
)

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds local sqlite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
}

// WebsocketConfig holds the live streaming backend settings
type WebsocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and tunes the telemetry storage backend
type StorageConfig struct {
	Type      string          `json:"type" mapstructure:"type"`
	Memory    MemoryConfig    `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig    `json:"sqlite" mapstructure:"sqlite"`
	Websocket WebsocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry export settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("defaultTag", "Trial")
	viper.SetDefault("logsDir", "./missionlogs")
	viper.SetDefault("robotName", "rover-1")

	viper.SetDefault("serial.port", "/dev/ttyUSB0")
	viper.SetDefault("serial.baudRate", 115200)

	viper.SetDefault("sensors.invertedMount", true)
	viper.SetDefault("sensors.sensorOffsetMm", 95.0)

	viper.SetDefault("arena.name", "reference course")
	viper.SetDefault("arena.courseWidthMM", 1200.0)
	viper.SetDefault("arena.courseLengthMM", 2400.0)
	viper.SetDefault("arena.rampLengthMM", 400.0)
	viper.SetDefault("arena.rampWidthMM", 600.0)
	viper.SetDefault("arena.sensorOffsetMM", 95.0)
	viper.SetDefault("arena.originLatitude", 0.0)
	viper.SetDefault("arena.originLongitude", 0.0)

	viper.SetDefault("loop.tickRateHz", 50.0)

	viper.SetDefault("firmwareVersion", "unknown")

	// Straight-line speed at 100% duty, used by the dead-reckoning estimator.
	viper.SetDefault("geo.metersPerSecAt100", 0.35)

	m := mission.DefaultConfig()
	viper.SetDefault("mission.climbStartPitchDeg", m.ClimbStartPitchDeg)
	viper.SetDefault("mission.crestPitchDeg", m.CrestPitchDeg)
	viper.SetDefault("mission.descendPitchDeg", m.DescendPitchDeg)
	viper.SetDefault("mission.levelPitchDeg", m.LevelPitchDeg)
	viper.SetDefault("mission.crestDebounceTicks", m.CrestDebounceTicks)
	viper.SetDefault("mission.descendDebounceTicks", m.DescendDebounceTicks)
	viper.SetDefault("mission.levelDebounceTicks", m.LevelDebounceTicks)
	viper.SetDefault("mission.approachSpeedPct", m.ApproachSpeedPct)
	viper.SetDefault("mission.climbSpeedPct", m.ClimbSpeedPct)
	viper.SetDefault("mission.crossSpeedPct", m.CrossSpeedPct)
	viper.SetDefault("mission.descendSpeedPct", m.DescendSpeedPct)
	viper.SetDefault("mission.scanSpeedPct", m.ScanSpeedPct)
	viper.SetDefault("mission.targetSpeedPct", m.TargetSpeedPct)
	viper.SetDefault("mission.scanLimitDeg", m.ScanLimitDeg)
	viper.SetDefault("mission.detectionBufferMM", m.DetectionBufferMM)
	viper.SetDefault("mission.contactRangeMM", m.ContactRangeMM)
	viper.SetDefault("mission.contactPitchDeg", m.ContactPitchDeg)
	viper.SetDefault("mission.contactRollDeg", m.ContactRollDeg)
	viper.SetDefault("mission.contactDebounceTicks", m.ContactDebounceTicks)
	viper.SetDefault("mission.rollGuard", m.RollGuard)

	viper.SetDefault("drive.policy", "bangbang")
	p := drive.DefaultProportionalConfig()
	viper.SetDefault("drive.proportional.kp", p.Kp)
	viper.SetDefault("drive.proportional.ki", p.Ki)
	viper.SetDefault("drive.proportional.kd", p.Kd)
	viper.SetDefault("drive.proportional.outputClamp", p.OutputClamp)
	viper.SetDefault("drive.proportional.baseVeerPct", p.BaseVeerPct)
	b := drive.DefaultBangBangConfig()
	viper.SetDefault("drive.bangbang.deadBandDeg", float64(b.DeadBand))
	viper.SetDefault("drive.bangbang.thresholdDeg", float64(b.Threshold))
	viper.SetDefault("drive.bangbang.veerPct", b.VeerPct)

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "missionctl")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "missionctl-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./recordings/missionctl.db")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5001/ws")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "missiond")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("missiond.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Mission returns the mission state machine thresholds.
func Mission() (mission.Config, error) {
	cfg := mission.DefaultConfig()
	if err := viper.UnmarshalKey("mission", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling mission config: %w", err)
	}
	return cfg, nil
}

// Geometry returns the arena dimensions.
func Geometry() (geometry.Config, error) {
	var cfg geometry.Config
	if err := viper.UnmarshalKey("arena", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling arena config: %w", err)
	}
	return cfg, nil
}

// Sensors returns the sensor head settings.
func Sensors() (sensors.Config, error) {
	var cfg sensors.Config
	if err := viper.UnmarshalKey("sensors", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling sensors config: %w", err)
	}
	return cfg, nil
}

// CorrectionPolicy builds the configured heading-correction policy.
func CorrectionPolicy() (drive.CorrectionPolicy, error) {
	switch name := viper.GetString("drive.policy"); name {
	case "proportional":
		var cfg drive.ProportionalConfig
		if err := viper.UnmarshalKey("drive.proportional", &cfg); err != nil {
			return nil, fmt.Errorf("error unmarshalling proportional policy config: %w", err)
		}
		return drive.NewProportional(cfg), nil
	case "bangbang":
		var cfg drive.BangBangConfig
		if err := viper.UnmarshalKey("drive.bangbang", &cfg); err != nil {
			return nil, fmt.Errorf("error unmarshalling bangbang policy config: %w", err)
		}
		return drive.NewBangBang(cfg), nil
	default:
		return nil, fmt.Errorf("unknown drive policy %q", name)
	}
}

// GetStorageConfig returns the storage backend selection and tuning.
func GetStorageConfig() StorageConfig {
	var cfg StorageConfig
	// Defaults are registered in Load, so decode errors only come from a
	// malformed config file and were already surfaced there.
	_ = viper.UnmarshalKey("storage", &cfg)
	return cfg
}

// GetOTelConfig returns the OpenTelemetry export settings.
func GetOTelConfig() OTelConfig {
	var cfg OTelConfig
	_ = viper.UnmarshalKey("otel", &cfg)
	return cfg
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat returns a float config value.
func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

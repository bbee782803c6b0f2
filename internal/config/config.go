package config

import (
	"fmt"
	"math"
	"time"

	"github.com/courtlab/drillboard/internal/geo"
	"github.com/courtlab/drillboard/internal/path"
	"github.com/courtlab/drillboard/internal/trajectory"
	"github.com/spf13/viper"
)

// FileName is the name of the config file looked up in the config dir.
const FileName = "drillboard.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the drill storage backend
type StorageConfig struct {
	Type     string       `json:"type" mapstructure:"type"`
	Memory   MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Postgres DBConfig     `json:"postgres" mapstructure:"postgres"`
}

// AutosaveConfig holds the debounced local persistence settings
type AutosaveConfig struct {
	Enabled bool
	Delay   time.Duration
	Key     string
}

// StatusConfig holds the status monitor settings
type StatusConfig struct {
	File     string
	Interval time.Duration
}

// GridConfig holds drag snapping settings
type GridConfig struct {
	Snap      bool
	Frequency int
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// LoadDefaults only registers default values. Used when running without a
// config file.
func LoadDefaults() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./drillboardlogs")
	viper.SetDefault("logToFile", false)
	viper.SetDefault("logJSON", false)

	viper.SetDefault("frame.scale", geo.DefaultScale)
	viper.SetDefault("frame.centerX", geo.DefaultCenterX)
	viper.SetDefault("frame.centerY", geo.DefaultCenterY)

	p := path.DefaultParams()
	viper.SetDefault("path.objOffset", p.ObjOffset)
	viper.SetDefault("path.headLength", p.HeadLength)
	viper.SetDefault("path.headSpreadDeg", 30)
	viper.SetDefault("path.waveAmplitude", p.WaveAmplitude)
	viper.SetDefault("path.waveFrequency", p.WaveFrequency)
	viper.SetDefault("path.lightningOffset", p.LightningOffset)

	viper.SetDefault("grid.snap", false)
	viper.SetDefault("grid.frequency", 1)

	c := trajectory.DefaultConstants()
	viper.SetDefault("trajectory.netHeight", c.NetHeight)
	viper.SetDefault("trajectory.netClearance", c.NetClearance)
	viper.SetDefault("trajectory.playerHeight", c.PlayerHeight)
	viper.SetDefault("trajectory.jumpOffset", c.JumpOffset)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./drills")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "./drills.db")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "drillboard")

	viper.SetDefault("autosave.enabled", true)
	viper.SetDefault("autosave.delay", "500ms")
	viper.SetDefault("autosave.key", "vball_drill_state")

	viper.SetDefault("api.listen", "127.0.0.1:8080")

	viper.SetDefault("status.file", "")
	viper.SetDefault("status.interval", "1s")
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

// GetFrame returns the court frame.
func GetFrame() geo.Frame {
	return geo.Frame{
		Scale:   viper.GetFloat64("frame.scale"),
		CenterX: viper.GetFloat64("frame.centerX"),
		CenterY: viper.GetFloat64("frame.centerY"),
	}
}

// GetPathParams returns the path synthesis parameters. Keys not exposed in
// the config keep their defaults.
func GetPathParams() path.Params {
	p := path.DefaultParams()
	p.ObjOffset = viper.GetFloat64("path.objOffset")
	p.HeadLength = viper.GetFloat64("path.headLength")
	p.HeadSpread = viper.GetFloat64("path.headSpreadDeg") * math.Pi / 180
	p.WaveAmplitude = viper.GetFloat64("path.waveAmplitude")
	p.WaveFrequency = viper.GetFloat64("path.waveFrequency")
	p.LightningOffset = viper.GetFloat64("path.lightningOffset")
	return p
}

// GetGridConfig returns the drag snapping settings.
func GetGridConfig() GridConfig {
	return GridConfig{
		Snap:      viper.GetBool("grid.snap"),
		Frequency: viper.GetInt("grid.frequency"),
	}
}

// GetTrajectoryConstants returns the 3D arc constants. Hands height is
// derived from the player height.
func GetTrajectoryConstants() trajectory.Constants {
	c := trajectory.DefaultConstants()
	c.NetHeight = viper.GetFloat64("trajectory.netHeight")
	c.NetClearance = viper.GetFloat64("trajectory.netClearance")
	c.PlayerHeight = viper.GetFloat64("trajectory.playerHeight")
	c.HandsHeight = c.PlayerHeight * 1.1
	c.JumpOffset = viper.GetFloat64("trajectory.jumpOffset")
	return c
}

// GetStorageConfig returns the storage backend configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetAutosaveConfig returns the autosave settings.
func GetAutosaveConfig() AutosaveConfig {
	return AutosaveConfig{
		Enabled: viper.GetBool("autosave.enabled"),
		Delay:   viper.GetDuration("autosave.delay"),
		Key:     viper.GetString("autosave.key"),
	}
}

// GetStatusConfig returns the status monitor settings.
func GetStatusConfig() StatusConfig {
	return StatusConfig{
		File:     viper.GetString("status.file"),
		Interval: viper.GetDuration("status.interval"),
	}
}

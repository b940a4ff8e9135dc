// Package config loads playbook.cfg.json through viper and exposes typed
// views of its sections.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory
const FileName = "playbook.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings. An empty Path keeps
// the database in memory and dumps it to DumpPath every DumpInterval.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the play storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"` // memory, sqlite, postgres
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// AnimationConfig holds playback defaults
type AnimationConfig struct {
	SpeedFps     float64 `json:"speedFps" mapstructure:"speedFps"`
	FrameRate    int     `json:"frameRate" mapstructure:"frameRate"`
	DefaultSpeed float64 `json:"defaultSpeed" mapstructure:"defaultSpeed"`
	Loop         bool    `json:"loop" mapstructure:"loop"`
}

// InfluxConfig holds playback telemetry settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// RendererConfig holds the websocket endpoint frames are streamed to
type RendererConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// OTelConfig holds OpenTelemetry settings
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
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("api.serverUrl", "http://localhost:3000")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./playbooks")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./playbook.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "playbook")

	viper.SetDefault("animation.speedFps", 15.0)
	viper.SetDefault("animation.frameRate", 60)
	viper.SetDefault("animation.defaultSpeed", 1.0)
	viper.SetDefault("animation.loop", false)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "playbook")
	viper.SetDefault("influx.bucket", "playback")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("renderer.enabled", false)
	viper.SetDefault("renderer.url", "ws://localhost:8080/frames")
	viper.SetDefault("renderer.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "playbook")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
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

// GetStorageConfig returns the storage section
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
	}
}

// GetAnimationConfig returns the animation section
func GetAnimationConfig() AnimationConfig {
	return AnimationConfig{
		SpeedFps:     viper.GetFloat64("animation.speedFps"),
		FrameRate:    viper.GetInt("animation.frameRate"),
		DefaultSpeed: viper.GetFloat64("animation.defaultSpeed"),
		Loop:         viper.GetBool("animation.loop"),
	}
}

// GetInfluxConfig returns the influx section
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetRendererConfig returns the renderer section
func GetRendererConfig() RendererConfig {
	return RendererConfig{
		Enabled: viper.GetBool("renderer.enabled"),
		URL:     viper.GetString("renderer.url"),
		Secret:  viper.GetString("renderer.secret"),
	}
}

// GetOTelConfig returns the otel section
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

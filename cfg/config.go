package cfg

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// MutationLogConfiguration controls the durable mutation log
type MutationLogConfiguration struct {
	Path                   string `toml:"path"`
	CompressThresholdBytes int    `toml:"compress_threshold_bytes"` // Records below this size stay uncompressed
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// TypesConfiguration extends the type registry
type TypesConfiguration struct {
	Aliases map[string]string `toml:"aliases"` // extra name -> canonical family
}

// Configuration is the main configuration structure
type Configuration struct {
	DataDir string `toml:"data_dir"`

	MutationLog MutationLogConfiguration `toml:"mutation_log"`
	Logging     LoggingConfiguration     `toml:"logging"`
	Prometheus  PrometheusConfiguration  `toml:"prometheus"`
	Types       TypesConfiguration       `toml:"types"`
}

// Command line flags
var (
	ConfigPathFlag = flag.String("config", "config.toml", "Path to configuration file")
	DataDirFlag    = flag.String("data-dir", "", "Data directory (overrides config)")
)

// Default configuration
var Config = &Configuration{
	DataDir: "./stratum-data",

	MutationLog: MutationLogConfiguration{
		Path:                   "", // defaults to <data_dir>/mutations
		CompressThresholdBytes: 4096,
	},

	Logging: LoggingConfiguration{
		Verbose: false,
		Format:  "console",
	},

	Prometheus: PrometheusConfiguration{
		Enabled: false,
		Address: "0.0.0.0",
		Port:    9090,
	},

	Types: TypesConfiguration{
		Aliases: map[string]string{},
	},
}

func Load(configPath string) error {
	// Load from file if it exists
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	// Apply CLI overrides
	if *DataDirFlag != "" {
		Config.DataDir = *DataDirFlag
	}

	if Config.MutationLog.Path == "" {
		Config.MutationLog.Path = Config.DataDir + "/mutations"
	}

	// Ensure data directory exists
	if err := os.MkdirAll(Config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	return nil
}

// Validate checks configuration for errors
func Validate() error {
	switch Config.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging format: %q", Config.Logging.Format)
	}

	if Config.Prometheus.Enabled && (Config.Prometheus.Port < 1 || Config.Prometheus.Port > 65535) {
		return fmt.Errorf("invalid Prometheus port: %d", Config.Prometheus.Port)
	}

	if Config.MutationLog.CompressThresholdBytes < 0 {
		return fmt.Errorf("compress threshold must be >= 0")
	}

	return nil
}

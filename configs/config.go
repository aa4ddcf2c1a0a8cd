package configs

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/edf2cfs/pkg/conditioning"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	Quiet        bool   `mapstructure:"quiet"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Batch conversion settings
	Conversion ConversionConfig `mapstructure:"conversion"`

	// Channel labels for the four roles
	Channels ChannelsConfig `mapstructure:"channels"`

	// Filter design parameters
	Filter conditioning.Config `mapstructure:"filter"`

	// HTML diagnostics log
	Log LogConfig `mapstructure:"log"`

	// StatsD metrics
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ConversionConfig contains batch conversion settings
type ConversionConfig struct {
	Workers              int    `mapstructure:"workers"`
	Scheduler            string `mapstructure:"scheduler"`
	Overwrite            bool   `mapstructure:"overwrite"`
	OutputDir            string `mapstructure:"output_dir"`
	ResampleQuality      string `mapstructure:"resample_quality"`
	MaxOpenFiles         int    `mapstructure:"max_open_files"`
	MaxSamplesPerChannel int    `mapstructure:"max_samples_per_channel"`
}

// ChannelsConfig names the EDF channels used for each role. A montage file
// fills in any label left empty.
type ChannelsConfig struct {
	EEGLeft     string `mapstructure:"eeg_left"`
	EEGRight    string `mapstructure:"eeg_right"`
	EOGLeft     string `mapstructure:"eog_left"`
	EOGRight    string `mapstructure:"eog_right"`
	MontageFile string `mapstructure:"montage_file"`
}

// LogConfig contains diagnostics log settings
type LogConfig struct {
	Save bool   `mapstructure:"save"`
	Dir  string `mapstructure:"dir"`
}

// MetricsConfig contains StatsD settings. An empty address disables metrics.
type MetricsConfig struct {
	StatsdAddr string   `mapstructure:"statsd_addr"`
	Namespace  string   `mapstructure:"namespace"`
	Tags       []string `mapstructure:"tags"`
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validOutputFormats = []string{"text", "json", "yaml"}
	validSchedulers    = []string{"wave", "queue"}
)

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load decodes configuration from v, filling defaults for unset keys
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Conversion.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}

	if !slices.Contains(validSchedulers, config.Conversion.Scheduler) {
		return fmt.Errorf("scheduler must be one of %v", validSchedulers)
	}

	if _, err := conditioning.ParseQuality(config.Conversion.ResampleQuality); err != nil {
		return err
	}

	if config.Conversion.MaxOpenFiles <= 0 {
		return fmt.Errorf("max open files must be positive")
	}

	if config.Conversion.MaxSamplesPerChannel <= 0 {
		return fmt.Errorf("max samples per channel must be positive")
	}

	if config.Filter.FilterOrder <= 0 || config.Filter.FilterOrder%2 != 0 {
		return fmt.Errorf("filter order must be a positive even number")
	}

	for name, band := range map[string]conditioning.Band{"eeg": config.Filter.EEGBand, "eog": config.Filter.EOGBand} {
		if band.Low <= 0 || band.High <= band.Low {
			return fmt.Errorf("%s band must satisfy 0 < low < high", name)
		}
	}

	if !slices.Contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("log level must be one of %v", validLogLevels)
	}

	if !slices.Contains(validOutputFormats, config.OutputFormat) {
		return fmt.Errorf("output format must be one of %v", validOutputFormats)
	}

	if config.Verbose && config.Quiet {
		return fmt.Errorf("verbose and quiet cannot both be set")
	}

	return nil
}

package configs

import (
	"github.com/RyanBlaney/edf2cfs/pkg/conditioning"
	"github.com/RyanBlaney/edf2cfs/pkg/recording"
	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Application defaults
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "text")
	}

	// Conversion defaults. Zero workers means one per CPU.
	if !v.IsSet("conversion.workers") {
		v.Set("conversion.workers", 0)
	}
	if !v.IsSet("conversion.scheduler") {
		v.Set("conversion.scheduler", "wave")
	}
	if !v.IsSet("conversion.resample_quality") {
		v.Set("conversion.resample_quality", "medium")
	}
	if !v.IsSet("conversion.max_open_files") {
		v.Set("conversion.max_open_files", recording.DefaultMaxOpen)
	}
	if !v.IsSet("conversion.max_samples_per_channel") {
		v.Set("conversion.max_samples_per_channel", recording.DefaultMaxSamples)
	}

	// Filter defaults
	if !v.IsSet("filter.filter_order") {
		v.Set("filter.filter_order", conditioning.DefaultFilterOrder)
	}
	if !v.IsSet("filter.eeg_band") {
		v.Set("filter.eeg_band", map[string]any{"low": conditioning.EEGBand.Low, "high": conditioning.EEGBand.High})
	}
	if !v.IsSet("filter.eog_band") {
		v.Set("filter.eog_band", map[string]any{"low": conditioning.EOGBand.Low, "high": conditioning.EOGBand.High})
	}

	// Metrics defaults
	if !v.IsSet("metrics.namespace") {
		v.Set("metrics.namespace", "edf2cfs.")
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		OutputFormat: "text",
		Conversion: ConversionConfig{
			Scheduler:            "wave",
			ResampleQuality:      "medium",
			MaxOpenFiles:         recording.DefaultMaxOpen,
			MaxSamplesPerChannel: recording.DefaultMaxSamples,
		},
		Filter: conditioning.DefaultConfig(),
		Metrics: MetricsConfig{
			Namespace: "edf2cfs.",
		},
	}
}

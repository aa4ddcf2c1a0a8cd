package configs

import (
	"strings"
	"testing"

	"github.com/RyanBlaney/edf2cfs/pkg/conditioning"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
log_level: debug
output_format: json
conversion:
  workers: 8
  scheduler: queue
  overwrite: true
  output_dir: /data/cfs
channels:
  eeg_left: C3-A2
  montage_file: /etc/edf2cfs/montage.yaml
filter:
  eog_band:
    low: 0.5
    high: 10
log:
  save: true
metrics:
  statsd_addr: 127.0.0.1:8125
  tags: [site:lab]
`)))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 8, cfg.Conversion.Workers)
	assert.Equal(t, "queue", cfg.Conversion.Scheduler)
	assert.True(t, cfg.Conversion.Overwrite)
	assert.Equal(t, "/data/cfs", cfg.Conversion.OutputDir)
	assert.Equal(t, "C3-A2", cfg.Channels.EEGLeft)
	assert.Equal(t, "/etc/edf2cfs/montage.yaml", cfg.Channels.MontageFile)
	assert.Equal(t, conditioning.Band{Low: 0.5, High: 10}, cfg.Filter.EOGBand)
	assert.Equal(t, conditioning.EEGBand, cfg.Filter.EEGBand)
	assert.True(t, cfg.Log.Save)
	assert.Equal(t, []string{"site:lab"}, cfg.Metrics.Tags)
	assert.Equal(t, "edf2cfs.", cfg.Metrics.Namespace)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Conversion.Workers = -1 }},
		{"unknown scheduler", func(c *Config) { c.Conversion.Scheduler = "fifo" }},
		{"unknown quality", func(c *Config) { c.Conversion.ResampleQuality = "ultra" }},
		{"no open files", func(c *Config) { c.Conversion.MaxOpenFiles = 0 }},
		{"no samples", func(c *Config) { c.Conversion.MaxSamplesPerChannel = 0 }},
		{"odd filter order", func(c *Config) { c.Filter.FilterOrder = 51 }},
		{"inverted band", func(c *Config) { c.Filter.EEGBand = conditioning.Band{Low: 45, High: 0.3} }},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }},
		{"unknown format", func(c *Config) { c.OutputFormat = "csv" }},
		{"verbose and quiet", func(c *Config) { c.Verbose, c.Quiet = true, true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.modify(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

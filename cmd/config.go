package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/RyanBlaney/edf2cfs/configs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the effective configuration",
	Long: `Load the configuration from defaults, the config file, EDF2CFS_*
environment variables and flags, validate it and display every value.

Examples:
  # Show the configuration found on the default search path
  edf2cfs config

  # Check a specific config file
  edf2cfs --config /etc/edf2cfs/edf2cfs.yaml config`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fmt.Fprintln(w, "EDF2CFS CONFIGURATION")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	printSection(w, "APPLICATION SETTINGS")
	printKeyValue(w, "Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue(w, "Quiet", fmt.Sprintf("%t", config.Quiet))
	printKeyValue(w, "Log Level", config.LogLevel)
	printKeyValue(w, "Output Format", config.OutputFormat)

	printSection(w, "CONVERSION")
	workers := "one per CPU"
	if config.Conversion.Workers > 0 {
		workers = fmt.Sprintf("%d", config.Conversion.Workers)
	}
	printKeyValue(w, "Workers", workers)
	printKeyValue(w, "Scheduler", config.Conversion.Scheduler)
	printKeyValue(w, "Overwrite", fmt.Sprintf("%t", config.Conversion.Overwrite))
	printKeyValue(w, "Output Directory", orDefault(config.Conversion.OutputDir, "next to each input"))
	printKeyValue(w, "Resample Quality", config.Conversion.ResampleQuality)
	printKeyValue(w, "Max Open Files", fmt.Sprintf("%d", config.Conversion.MaxOpenFiles))
	printKeyValue(w, "Max Samples Per Channel", fmt.Sprintf("%d", config.Conversion.MaxSamplesPerChannel))

	printSection(w, "CHANNELS")
	printKeyValue(w, "Left EEG (C3)", orDefault(config.Channels.EEGLeft, "ask"))
	printKeyValue(w, "Right EEG (C4)", orDefault(config.Channels.EEGRight, "ask"))
	printKeyValue(w, "Left EOG (EL)", orDefault(config.Channels.EOGLeft, "ask"))
	printKeyValue(w, "Right EOG (ER)", orDefault(config.Channels.EOGRight, "ask"))
	printKeyValue(w, "Montage File", orDefault(config.Channels.MontageFile, "none"))

	printSection(w, "FILTER")
	printKeyValue(w, "Order", fmt.Sprintf("%d", config.Filter.FilterOrder))
	printKeyValue(w, "EEG Band", fmt.Sprintf("%g-%g Hz", config.Filter.EEGBand.Low, config.Filter.EEGBand.High))
	printKeyValue(w, "EOG Band", fmt.Sprintf("%g-%g Hz", config.Filter.EOGBand.Low, config.Filter.EOGBand.High))

	printSection(w, "DIAGNOSTICS LOG")
	printKeyValue(w, "Save", fmt.Sprintf("%t", config.Log.Save))
	printKeyValue(w, "Directory", orDefault(config.Log.Dir, "first input's directory"))

	printSection(w, "METRICS")
	printKeyValue(w, "StatsD Address", orDefault(config.Metrics.StatsdAddr, "disabled"))
	printKeyValue(w, "Namespace", config.Metrics.Namespace)
	if len(config.Metrics.Tags) > 0 {
		printKeyValue(w, "Tags", strings.Join(config.Metrics.Tags, ", "))
	}

	fmt.Fprintln(w)
	printKeyValue(w, "Config file", orDefault(viper.ConfigFileUsed(), "none"))
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if err := configs.ValidateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

func printKeyValue(w io.Writer, key, value string) {
	if value == "" {
		fmt.Fprintf(w, "%-30s\n", key)
	} else {
		fmt.Fprintf(w, "%-30s %s\n", key+":", value)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

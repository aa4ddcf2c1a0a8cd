package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/edf2cfs/internal/app"
	"github.com/spf13/cobra"
)

var (
	convertDir         string
	convertOutputFile  string
	convertSaveMontage string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert [flags] [file.edf...]",
	Short: "Convert EDF recordings to CFS files",
	Long: `Convert EDF recordings to CFS files.

Channels are selected by label for the four roles: left EEG (C3), right EEG
(C4), left EOG (EL) and right EOG (ER). Labels missing from flags, config and
the montage file are chosen interactively from the first file's channels.
Each output is written next to its input, or into --output-dir.

Examples:
  # Convert two recordings with explicit channels
  edf2cfs convert -a C3-A2 -b C4-A1 -x EOG-L -z EOG-R night1.edf night2.edf

  # Convert every .edf under a directory, overwriting and saving a log
  edf2cfs convert -o -l -d /data/study --montage study.yaml

  # Pick channels interactively once and keep the selection
  edf2cfs convert --save-montage study.yaml night1.edf`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.StringP("c3", "a", "", "label of the left EEG channel")
	flags.StringP("c4", "b", "", "label of the right EEG channel")
	flags.StringP("el", "x", "", "label of the left EOG channel")
	flags.StringP("er", "z", "", "label of the right EOG channel")
	flags.String("montage", "", "YAML file with channel labels for any role not given as a flag")
	flags.StringVar(&convertSaveMontage, "save-montage", "", "save an interactive channel selection to this YAML file")

	flags.StringVarP(&convertDir, "dir", "d", "", "convert every .edf file under this directory")
	flags.BoolP("overwrite", "o", false, "overwrite existing CFS files")
	flags.String("output-dir", "", "write CFS files here instead of next to each input")
	flags.IntP("workers", "j", 0, "files converted at once (default: one per CPU, at least 2)")
	flags.String("scheduler", "wave", "wave runs files in groups; queue starts the next file as soon as a worker is free")
	flags.String("resample-quality", "medium", "resampler quality (quick, low, medium, high, veryhigh)")

	flags.BoolP("log", "l", false, "save an HTML diagnostics log")
	flags.String("log-dir", "", "directory for the diagnostics log (default: the first input's directory)")
	flags.StringVar(&convertOutputFile, "output-file", "", "write the json or yaml summary to this file")
	flags.String("statsd", "", "StatsD address for conversion metrics")

	bindKey(flags, "c3", "channels.eeg_left")
	bindKey(flags, "c4", "channels.eeg_right")
	bindKey(flags, "el", "channels.eog_left")
	bindKey(flags, "er", "channels.eog_right")
	bindKey(flags, "montage", "channels.montage_file")
	bindKey(flags, "overwrite", "conversion.overwrite")
	bindKey(flags, "output-dir", "conversion.output_dir")
	bindKey(flags, "workers", "conversion.workers")
	bindKey(flags, "scheduler", "conversion.scheduler")
	bindKey(flags, "resample-quality", "conversion.resample_quality")
	bindKey(flags, "log", "log.save")
	bindKey(flags, "log-dir", "log.dir")
	bindKey(flags, "statsd", "metrics.statsd_addr")
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conversion, err := app.NewConversionApp(&app.Context{
		Files:       args,
		Dir:         convertDir,
		OutputFile:  convertOutputFile,
		SaveMontage: convertSaveMontage,
		Stdin:       cmd.InOrStdin(),
		Stdout:      cmd.OutOrStdout(),
		Stderr:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	// Per-file failures are reported in the summary and do not change the
	// exit status
	_, err = conversion.Run(ctx)
	return err
}

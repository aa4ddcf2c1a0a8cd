package cmd

import (
	"fmt"

	"github.com/RyanBlaney/edf2cfs/internal/app"
	"github.com/RyanBlaney/edf2cfs/internal/report"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

var channelsCmd = &cobra.Command{
	Use:   "channels file.edf",
	Short: "List the channels of an EDF recording",
	Long: `List the channels of an EDF recording with their 1-based number, label,
physical unit, sample rate and sample count. Use the labels with the
convert command's channel flags.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ListChannels(afero.NewOsFs(), args[0], cmd.OutOrStdout())
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify file.cfs...",
	Short: "Check CFS files",
	Long: `Decode CFS files and check the header, the payload length and the SHA-1
digest of the decompressed spectrograms.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()
	formatter, err := report.Formatter(viper.GetString("output_format"))
	if err != nil {
		return err
	}

	var failures error
	reports := make([]*app.VerifyReport, 0, len(args))
	for _, path := range args {
		rep, err := app.VerifyFile(fs, path)
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", path, err))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: FAILED: %v\n", path, err)
			continue
		}
		reports = append(reports, rep)
		if formatter == nil {
			fmt.Fprint(cmd.OutOrStdout(), rep.String())
		}
	}

	if formatter != nil {
		data, err := formatter.Format(reports, true)
		if err != nil {
			return fmt.Errorf("failed to format output data: %w", err)
		}
		cmd.OutOrStdout().Write(data)
	}
	return failures
}

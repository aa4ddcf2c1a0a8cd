package report

import (
	"fmt"
	"io"

	"github.com/RyanBlaney/edf2cfs/internal/batch"
	"github.com/RyanBlaney/edf2cfs/internal/convert"
)

// Console prints batch progress for humans
type Console struct {
	out     io.Writer
	quiet   bool
	logPath string
}

// NewConsole creates a console reporter. logPath is empty when no HTML
// log is being written.
func NewConsole(out io.Writer, quiet bool, logPath string) *Console {
	return &Console{out: out, quiet: quiet, logPath: logPath}
}

// Start announces the batch
func (c *Console) Start(workers int) {
	if c.logPath != "" {
		fmt.Fprintf(c.out, "Log will be saved at:\n%s\n", c.logPath)
	}
	if !c.quiet {
		fmt.Fprintf(c.out, "Processing up to %d files simultaneously...\n", workers)
	}
}

// Result prints the line for one file. Failures are printed even when quiet.
func (c *Console) Result(r *convert.FileResult) {
	switch {
	case r.Success:
		if !c.quiet {
			fmt.Fprintf(c.out, "Filename: %s, processed successfully\n", r.Input)
		}
	case c.logPath != "":
		fmt.Fprintf(c.out, "ERROR: Filename: %s, please check log.\n", r.Input)
	default:
		fmt.Fprintf(c.out, "ERROR: Filename: %s, please enable logging to see details.\n", r.Input)
	}
}

// Summary prints the batch totals
func (c *Console) Summary(s *batch.Summary) {
	fmt.Fprintf(c.out, "%d Files processed in %d seconds.\n%d Files converted successfully. %d Files could not be converted.\n",
		s.Processed, int(s.Elapsed.Seconds()), s.Succeeded, s.Failed)
	if n := s.Cancelled(); n > 0 {
		fmt.Fprintf(c.out, "%d Files were not started.\n", n)
	}
}

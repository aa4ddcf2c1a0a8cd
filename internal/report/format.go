package report

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/edf2cfs/internal/batch"
	"github.com/RyanBlaney/latency-benchmark-common/output"
)

// Formats lists the structured output formats
var Formats = []string{"text", "json", "yaml"}

// Formatter returns the structured formatter for format, or nil for text
func Formatter(format string) (output.Formatter, error) {
	switch format {
	case "", "text":
		return nil, nil
	case "json":
		return &output.JSONFormatter{}, nil
	case "yaml":
		return &output.YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// SummaryData flattens a summary into the document written by json and
// yaml output. Diagnostics are included only when verbose.
func SummaryData(s *batch.Summary, verbose bool) map[string]any {
	files := make([]map[string]any, 0, len(s.Results))
	for _, r := range s.Results {
		file := map[string]any{
			"index":            r.Index,
			"input":            r.Input,
			"success":          r.Success,
			"duration_seconds": r.Duration.Seconds(),
		}
		if r.Success {
			file["output"] = r.Output
			file["epochs"] = r.Epochs
			file["size_bytes"] = r.Size
		} else {
			file["code"] = r.Code
			file["error"] = r.Error
		}
		if verbose {
			file["diagnostics"] = r.Diagnostics
		}
		files = append(files, file)
	}

	return map[string]any{
		"summary": map[string]any{
			"start_time":      s.StartTime.Format(time.RFC3339),
			"end_time":        s.EndTime.Format(time.RFC3339),
			"elapsed":         output.FormatDuration(s.Elapsed),
			"elapsed_seconds": s.Elapsed.Seconds(),
			"files":           s.Total,
			"processed":       s.Processed,
			"succeeded":       s.Succeeded,
			"failed":          s.Failed,
			"skipped":         s.Skipped,
			"cancelled":       s.Cancelled(),
			"workers":         s.Workers,
			"scheduler":       string(s.Scheduler),
		},
		"performance": batch.CalculatePerformanceMetrics(s),
		"files":       files,
	}
}

// Render formats the summary. It returns nil for text output, which the
// console reporter already printed.
func Render(s *batch.Summary, format string, verbose bool) ([]byte, error) {
	formatter, err := Formatter(format)
	if err != nil || formatter == nil {
		return nil, err
	}
	data, err := formatter.Format(SummaryData(s, verbose), true)
	if err != nil {
		return nil, fmt.Errorf("failed to format summary: %w", err)
	}
	return data, nil
}

package batch

import (
	"time"

	"github.com/RyanBlaney/edf2cfs/internal/convert"
	"go.uber.org/multierr"
)

// Summary aggregates the results of a batch run
type Summary struct {
	Results   []*convert.FileResult `json:"results" yaml:"results"`
	Total     int                   `json:"total" yaml:"total"`
	Processed int                   `json:"processed" yaml:"processed"`
	Succeeded int                   `json:"succeeded" yaml:"succeeded"`
	Failed    int                   `json:"failed" yaml:"failed"`
	Skipped   int                   `json:"skipped" yaml:"skipped"`
	Workers   int                   `json:"workers" yaml:"workers"`
	Scheduler Scheduler             `json:"scheduler" yaml:"scheduler"`
	StartTime time.Time             `json:"start_time" yaml:"start_time"`
	EndTime   time.Time             `json:"end_time" yaml:"end_time"`
	Elapsed   time.Duration         `json:"elapsed" yaml:"elapsed"`
}

func (s *Summary) add(r *convert.FileResult) {
	s.Results = append(s.Results, r)
	s.Processed++
	switch {
	case r.Success:
		s.Succeeded++
	case convert.IsSkipped(r):
		s.Skipped++
		s.Failed++
	default:
		s.Failed++
	}
}

// Cancelled is the number of files that were never started
func (s *Summary) Cancelled() int {
	return s.Total - s.Processed
}

// Err combines every per-file failure, or returns nil
func (s *Summary) Err() error {
	var err error
	for _, r := range s.Results {
		if !r.Success {
			err = multierr.Append(err, r.Err())
		}
	}
	return err
}

// Outputs lists the CFS files written by the run, in input order
func (s *Summary) Outputs() []string {
	var out []string
	for _, r := range s.Results {
		if r.Success {
			out = append(out, r.Output)
		}
	}
	return out
}

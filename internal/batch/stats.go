package batch

import (
	"math"
	"slices"

	"github.com/RyanBlaney/edf2cfs/internal/convert"
	"gonum.org/v1/gonum/stat"
)

// DurationStats summarizes per-file conversion times, in seconds
type DurationStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Count  int     `json:"count" yaml:"count"`
}

// PerformanceMetrics describes how a batch performed
type PerformanceMetrics struct {
	FileDuration      *DurationStats `json:"file_duration" yaml:"file_duration"`
	FilesPerSecond    float64        `json:"files_per_second" yaml:"files_per_second"`
	EpochsPerSecond   float64        `json:"epochs_per_second" yaml:"epochs_per_second"`
	BytesWritten      int64          `json:"bytes_written" yaml:"bytes_written"`
	Epochs            int            `json:"epochs" yaml:"epochs"`
	SuccessRate       float64        `json:"success_rate" yaml:"success_rate"`
	ErrorDistribution map[string]int `json:"error_distribution" yaml:"error_distribution"`
}

// CalculatePerformanceMetrics derives timing and throughput figures from
// the results of a batch. Only successful files contribute to the
// duration statistics.
func CalculatePerformanceMetrics(s *Summary) *PerformanceMetrics {
	m := &PerformanceMetrics{ErrorDistribution: make(map[string]int)}

	var durations []float64
	for _, r := range s.Results {
		if !r.Success {
			m.ErrorDistribution[errorCategory(r)]++
			continue
		}
		durations = append(durations, r.Duration.Seconds())
		m.BytesWritten += int64(r.Size)
		m.Epochs += r.Epochs
	}
	m.FileDuration = calculateStats(durations)

	if s.Processed > 0 {
		m.SuccessRate = float64(s.Succeeded) / float64(s.Processed)
	}
	if secs := s.Elapsed.Seconds(); secs > 0 {
		m.FilesPerSecond = float64(s.Processed) / secs
		m.EpochsPerSecond = float64(m.Epochs) / secs
	}
	return m
}

func errorCategory(r *convert.FileResult) string {
	if r.Code == "" {
		return "other"
	}
	return r.Code
}

// calculateStats calculates statistical measures for a dataset
func calculateStats(data []float64) *DurationStats {
	if len(data) == 0 {
		return &DurationStats{}
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	stats := &DurationStats{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Mean:   mean,
		StdDev: std,
	}

	// A single sample has no spread
	if math.IsNaN(stats.StdDev) {
		stats.StdDev = 0
	}
	return stats
}

package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/RyanBlaney/edf2cfs/internal/convert"
	"github.com/RyanBlaney/edf2cfs/pkg/common"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

// Scheduler selects how files are handed to workers
type Scheduler string

const (
	// SchedulerWave runs consecutive groups of Workers files and waits for
	// each group to finish before starting the next
	SchedulerWave Scheduler = "wave"
	// SchedulerQueue starts the next file as soon as any worker is free
	SchedulerQueue Scheduler = "queue"
)

// ParseScheduler validates a scheduler name
func ParseScheduler(s string) (Scheduler, error) {
	switch Scheduler(s) {
	case "", SchedulerWave:
		return SchedulerWave, nil
	case SchedulerQueue:
		return SchedulerQueue, nil
	default:
		return "", fmt.Errorf("unknown scheduler %q (want wave or queue)", s)
	}
}

// DefaultWorkers is the hardware parallelism, but never less than 2
func DefaultWorkers() int {
	return max(runtime.NumCPU(), 2)
}

// FileConverter converts a single file
type FileConverter interface {
	Convert(index int, input string) *convert.FileResult
}

// OutputPather is implemented by converters that know their output path
// up front. The driver uses it to keep two inputs from claiming one output.
type OutputPather interface {
	OutputPath(input string) string
}

// Options configures a Driver
type Options struct {
	Workers   int
	Scheduler Scheduler
	// OnResult is called from the Run goroutine for every finished file,
	// in input order
	OnResult func(*convert.FileResult)
}

// Driver converts a list of files with bounded concurrency
type Driver struct {
	conv    FileConverter
	opts    Options
	logger  logging.Logger
	metrics statsd.ClientInterface
}

// NewDriver creates a batch driver
func NewDriver(conv FileConverter, opts Options, logger logging.Logger, metrics statsd.ClientInterface) *Driver {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if metrics == nil {
		metrics = &statsd.NoOpClient{}
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.Scheduler == "" {
		opts.Scheduler = SchedulerWave
	}
	return &Driver{conv: conv, opts: opts, logger: logger, metrics: metrics}
}

// Run converts every path. A failing file never stops the batch; a
// cancelled context stops new files from starting.
func (d *Driver) Run(ctx context.Context, paths []string) *Summary {
	summary := &Summary{
		StartTime: time.Now(),
		Total:     len(paths),
		Workers:   d.opts.Workers,
		Scheduler: d.opts.Scheduler,
	}

	d.logger.Debug("Starting batch conversion", logging.Fields{
		"files":     len(paths),
		"workers":   d.opts.Workers,
		"scheduler": string(d.opts.Scheduler),
	})

	emit := func(r *convert.FileResult) {
		summary.add(r)
		d.record(r)
		if d.opts.OnResult != nil {
			d.opts.OnResult(r)
		}
	}

	conflicts := d.outputConflicts(paths)
	task := func(i int) *convert.FileResult {
		if err := conflicts[i]; err != nil {
			return convert.FailedResult(i, paths[i], err)
		}
		return d.convert(i, paths[i])
	}

	switch d.opts.Scheduler {
	case SchedulerQueue:
		d.runQueue(ctx, len(paths), task, emit)
	default:
		d.runWaves(ctx, len(paths), task, emit)
	}

	summary.EndTime = time.Now()
	summary.Elapsed = summary.EndTime.Sub(summary.StartTime)

	_ = d.metrics.Gauge("batch.files", float64(summary.Total), nil, 1)
	_ = d.metrics.Timing("batch.elapsed", summary.Elapsed, nil, 1)

	d.logger.Debug("Batch conversion completed", logging.Fields{
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"elapsed_s": summary.Elapsed.Seconds(),
	})
	return summary
}

// outputConflicts fails every input whose output path an earlier input
// already claims. Input order decides the owner.
func (d *Driver) outputConflicts(paths []string) []error {
	conflicts := make([]error, len(paths))
	pather, ok := d.conv.(OutputPather)
	if !ok {
		return conflicts
	}

	owners := make(map[string]string, len(paths))
	for i, p := range paths {
		out := filepath.Clean(pather.OutputPath(p))
		if owner, taken := owners[out]; taken {
			conflicts[i] = common.NewConversionError(common.ErrCodeAlreadyConverted, p,
				fmt.Sprintf("output %s is already written by %s", out, owner), nil)
			d.logger.Warn("Duplicate output path", logging.Fields{"file": p, "output": out, "owner": owner})
			continue
		}
		owners[out] = p
	}
	return conflicts
}

// runWaves processes consecutive groups of Workers files
func (d *Driver) runWaves(ctx context.Context, n int, task func(int) *convert.FileResult, emit func(*convert.FileResult)) {
	results := make([]*convert.FileResult, n)

	for start := 0; start < n; start += d.opts.Workers {
		if ctx.Err() != nil {
			d.logger.Warn("Batch cancelled", logging.Fields{"remaining": n - start})
			return
		}
		end := min(start+d.opts.Workers, n)

		var wg conc.WaitGroup
		for i := start; i < end; i++ {
			wg.Go(func() {
				results[i] = task(i)
			})
		}
		wg.Wait()

		for i := start; i < end; i++ {
			emit(results[i])
		}
	}
}

// runQueue keeps Workers files in flight and reports them in input order
func (d *Driver) runQueue(ctx context.Context, n int, task func(int) *convert.FileResult, emit func(*convert.FileResult)) {
	results := make([]*convert.FileResult, n)
	ready := make([]chan struct{}, n)
	for i := range ready {
		ready[i] = make(chan struct{})
	}
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		var g errgroup.Group
		g.SetLimit(d.opts.Workers)
		for i := range n {
			if ctx.Err() != nil {
				d.logger.Warn("Batch cancelled", logging.Fields{"remaining": n - i})
				break
			}
			g.Go(func() error {
				defer close(ready[i])
				results[i] = task(i)
				return nil
			})
		}
		_ = g.Wait()
	}()

	for i := range n {
		select {
		case <-ready[i]:
		case <-finished:
			select {
			case <-ready[i]:
			default:
				return
			}
		}
		emit(results[i])
	}
	<-finished
}

// convert shields the batch from converters that panic
func (d *Driver) convert(index int, path string) (result *convert.FileResult) {
	defer func() {
		if r := recover(); r != nil {
			err := common.NewConversionError(common.ErrCodeInternal, path, fmt.Sprintf("unexpected failure: %v", r), nil)
			result = convert.FailedResult(index, path, err)
		}
	}()
	return d.conv.Convert(index, path)
}

func (d *Driver) record(r *convert.FileResult) {
	status := "status:success"
	if !r.Success {
		status = "status:failure"
	}
	tags := []string{status}
	if r.Code != "" {
		tags = append(tags, "code:"+r.Code)
	}

	if err := d.metrics.Incr("conversion.files", tags, 1); err != nil {
		d.logger.Debug("Failed to send metric", logging.Fields{"error": err.Error()})
	}
	_ = d.metrics.Timing("conversion.duration", r.Duration, tags, 1)
	if r.Success {
		_ = d.metrics.Count("conversion.epochs", int64(r.Epochs), nil, 1)
	}
}

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/RyanBlaney/edf2cfs/configs"
	"github.com/RyanBlaney/edf2cfs/internal/batch"
	"github.com/RyanBlaney/edf2cfs/internal/convert"
	"github.com/RyanBlaney/edf2cfs/internal/report"
	"github.com/RyanBlaney/edf2cfs/pkg/cfs"
	"github.com/RyanBlaney/edf2cfs/pkg/conditioning"
	"github.com/RyanBlaney/edf2cfs/pkg/montage"
	"github.com/RyanBlaney/edf2cfs/pkg/recording"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/afero"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	Files       []string // EDF files named on the command line
	Dir         string   // Directory scanned for .edf files
	OutputFile  string   // Structured summary destination (stdout when empty)
	SaveMontage string   // Where to save an interactive channel selection

	// I/O
	Fs     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// ConversionApp handles the conversion application lifecycle
type ConversionApp struct {
	ctx     *Context
	config  *configs.Config
	logger  logging.Logger
	fs      afero.Fs
	metrics statsd.ClientInterface
}

// NewConversionApp creates a new conversion application
func NewConversionApp(ctx *Context) (*ConversionApp, error) {
	if ctx.Config == nil {
		config, err := configs.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		ctx.Config = config
	}
	if err := configs.ValidateConfig(ctx.Config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if ctx.Fs == nil {
		ctx.Fs = afero.NewOsFs()
	}
	if ctx.Stdin == nil {
		ctx.Stdin = os.Stdin
	}
	if ctx.Stdout == nil {
		ctx.Stdout = os.Stdout
	}
	if ctx.Stderr == nil {
		ctx.Stderr = os.Stderr
	}

	// Set up logging
	logger := setupLogging(ctx)
	ctx.Logger = logger

	logger.Debug("Conversion application initialized", logging.Fields{
		"files":         len(ctx.Files),
		"dir":           ctx.Dir,
		"workers":       ctx.Config.Conversion.Workers,
		"scheduler":     ctx.Config.Conversion.Scheduler,
		"output_format": ctx.Config.OutputFormat,
	})

	return &ConversionApp{
		ctx:     ctx,
		config:  ctx.Config,
		logger:  logger,
		fs:      ctx.Fs,
		metrics: newMetricsClient(ctx.Config.Metrics, logger),
	}, nil
}

// Run converts every input. Per-file failures are reported in the summary,
// not as an error.
func (app *ConversionApp) Run(ctx context.Context) (*batch.Summary, error) {
	defer app.metrics.Close()

	inputs, err := DiscoverInputs(app.fs, app.ctx.Files, app.ctx.Dir)
	if err != nil {
		return nil, err
	}

	roles, err := app.resolveRoles(inputs[0])
	if err != nil {
		return nil, err
	}

	converter, options, err := app.newPipeline(roles)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var htmlLog *report.HTMLLog
	if app.config.Log.Save {
		htmlLog, err = report.CreateHTMLLog(app.fs, report.LogDir(app.config.Log.Dir, inputs[0]), started, roles)
		if err != nil {
			app.logger.Warn("Diagnostics log disabled", logging.Fields{"error": err.Error()})
			htmlLog = nil
		}
	}

	logPath := ""
	if htmlLog != nil {
		logPath = htmlLog.Path()
	}
	console := report.NewConsole(app.consoleWriter(), app.config.Quiet, logPath)
	console.Start(options.Workers)

	options.OnResult = func(r *convert.FileResult) {
		console.Result(r)
		if htmlLog != nil {
			if err := htmlLog.Record(r); err != nil {
				app.logger.Warn("Failed to write diagnostics log", logging.Fields{"error": err.Error()})
			}
		}
	}

	summary := batch.NewDriver(converter, options, app.logger, app.metrics).Run(ctx, inputs)

	if htmlLog != nil {
		if err := htmlLog.Close(summary); err != nil {
			app.logger.Warn("Failed to close diagnostics log", logging.Fields{"error": err.Error()})
		}
	}
	console.Summary(summary)

	if err := app.outputResults(summary); err != nil {
		return summary, fmt.Errorf("failed to output results: %w", err)
	}

	if summary.Cancelled() > 0 {
		return summary, fmt.Errorf("conversion interrupted: %w", context.Cause(ctx))
	}
	return summary, nil
}

// resolveRoles completes the role map, prompting with the channels of the
// first input when labels are still missing.
func (app *ConversionApp) resolveRoles(first string) (montage.RoleMap, error) {
	roles, err := configuredRoles(app.fs, app.config.Channels)
	if err != nil {
		return roles, err
	}
	if roles.Complete() {
		return roles, nil
	}

	opener := recording.NewOpener(app.fs, recording.Options{MaxSamples: app.config.Conversion.MaxSamplesPerChannel})
	rec, err := opener.Open(first)
	if err != nil {
		return roles, fmt.Errorf("cannot list channels for selection: %w", err)
	}
	channels := rec.Channels()
	rec.Close()

	roles, err = montage.Prompt(app.ctx.Stdin, app.ctx.Stdout, channels, roles)
	if err != nil {
		return roles, err
	}

	if app.ctx.SaveMontage != "" {
		if err := montage.Save(app.fs, app.ctx.SaveMontage, roles); err != nil {
			return roles, err
		}
		app.logger.Info("Saved channel selection", logging.Fields{"montage_file": app.ctx.SaveMontage})
	}
	return roles, nil
}

// newPipeline wires the per-file converter and the batch options from config
func (app *ConversionApp) newPipeline(roles montage.RoleMap) (*convert.Converter, batch.Options, error) {
	cfg := app.config

	quality, err := conditioning.ParseQuality(cfg.Conversion.ResampleQuality)
	if err != nil {
		return nil, batch.Options{}, err
	}
	scheduler, err := batch.ParseScheduler(cfg.Conversion.Scheduler)
	if err != nil {
		return nil, batch.Options{}, err
	}

	converter := convert.NewConverter(
		convert.Config{
			Roles:        roles,
			OutputDir:    cfg.Conversion.OutputDir,
			Conditioning: cfg.Filter,
		},
		recording.NewOpener(app.fs, recording.Options{
			MaxOpen:    cfg.Conversion.MaxOpenFiles,
			MaxSamples: cfg.Conversion.MaxSamplesPerChannel,
		}),
		conditioning.NewConditioner(cfg.Filter, conditioning.NewDesignCache()),
		conditioning.NewRateMatcher(conditioning.Resampler(quality)),
		cfs.NewEncoder(app.fs, cfs.Options{Overwrite: cfg.Conversion.Overwrite}, app.logger),
		app.logger,
	)

	workers := cfg.Conversion.Workers
	if workers == 0 {
		workers = batch.DefaultWorkers()
	}

	return converter, batch.Options{Workers: workers, Scheduler: scheduler}, nil
}

// consoleWriter keeps stdout clean for structured output
func (app *ConversionApp) consoleWriter() io.Writer {
	if app.structuredOutput() && app.ctx.OutputFile == "" {
		return app.ctx.Stderr
	}
	return app.ctx.Stdout
}

func (app *ConversionApp) structuredOutput() bool {
	f := app.config.OutputFormat
	return f != "" && f != "text"
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	logger := ctx.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	level := logging.InfoLevel
	switch strings.ToLower(ctx.Config.LogLevel) {
	case "debug":
		level = logging.DebugLevel
	case "warn":
		level = logging.WarnLevel
	case "error":
		level = logging.ErrorLevel
	}
	if ctx.Config.Verbose {
		level = logging.DebugLevel
	}
	if ctx.Config.Quiet && level < logging.WarnLevel {
		level = logging.WarnLevel
	}

	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)
	return logger
}

// outputResults writes the json or yaml summary
func (app *ConversionApp) outputResults(summary *batch.Summary) error {
	data, err := report.Render(summary, app.config.OutputFormat, app.config.Verbose)
	if err != nil || data == nil {
		return err
	}

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(data)
	}

	_, err = app.ctx.Stdout.Write(data)
	return err
}

// writeToFile writes data to the specified output file
func (app *ConversionApp) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := app.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := afero.WriteFile(app.fs, app.ctx.OutputFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}

package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/RyanBlaney/edf2cfs/pkg/cfs"
	"github.com/RyanBlaney/edf2cfs/pkg/common"
	"github.com/RyanBlaney/edf2cfs/pkg/conditioning"
	"github.com/RyanBlaney/edf2cfs/pkg/montage"
	"github.com/RyanBlaney/edf2cfs/pkg/recording"
	"github.com/RyanBlaney/edf2cfs/pkg/spectrogram"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// Config holds everything a Converter needs that is shared between tasks
type Config struct {
	Roles        montage.RoleMap
	OutputDir    string
	Conditioning conditioning.Config
	Geometry     spectrogram.Geometry
}

// FileResult is the outcome of converting one recording
type FileResult struct {
	Index       int           `json:"index"`
	Input       string        `json:"input"`
	Output      string        `json:"output"`
	Success     bool          `json:"success"`
	Code        string        `json:"code,omitempty"`
	Error       string        `json:"error,omitempty"`
	Epochs      int           `json:"epochs"`
	Size        int           `json:"size_bytes"`
	Duration    time.Duration `json:"duration"`
	Diagnostics []string      `json:"diagnostics"`

	err error
}

// Err returns the failure, if any
func (r *FileResult) Err() error {
	return r.err
}

func (r *FileResult) note(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}

// Converter runs the per-file pipeline. Shared collaborators are safe for
// concurrent use; each call to Convert builds its own extractor.
type Converter struct {
	cfg         Config
	opener      *recording.Opener
	conditioner *conditioning.Conditioner
	matcher     *conditioning.RateMatcher
	encoder     *cfs.Encoder
	logger      logging.Logger
}

// NewConverter wires a converter from its collaborators
func NewConverter(cfg Config, opener *recording.Opener, conditioner *conditioning.Conditioner,
	matcher *conditioning.RateMatcher, encoder *cfs.Encoder, logger logging.Logger) *Converter {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if cfg.Geometry == (spectrogram.Geometry{}) {
		cfg.Geometry = spectrogram.DefaultGeometry()
	}
	return &Converter{
		cfg:         cfg,
		opener:      opener,
		conditioner: conditioner,
		matcher:     matcher,
		encoder:     encoder,
		logger:      logger,
	}
}

// OutputPath returns where the CFS file for input goes
func (c *Converter) OutputPath(input string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + cfs.Extension
	dir := filepath.Dir(input)
	if c.cfg.OutputDir != "" {
		dir = c.cfg.OutputDir
	}
	return filepath.Join(dir, name)
}

// Convert converts one recording. It never panics; every failure is
// reported through the result.
func (c *Converter) Convert(index int, input string) (result *FileResult) {
	start := time.Now()
	result = &FileResult{Index: index, Input: input, Output: c.OutputPath(input)}
	logger := c.logger.WithFields(logging.Fields{"file": input})

	defer func() {
		if r := recover(); r != nil {
			result.fail(common.NewConversionError(common.ErrCodeInternal, input,
				fmt.Sprintf("unexpected failure: %v", r), nil))
			logger.Debug("Conversion panicked", logging.Fields{"stack": string(debug.Stack())})
		}
		result.Duration = time.Since(start)
		if result.Success {
			logger.Debug("Converted recording", logging.Fields{
				"output":     result.Output,
				"epochs":     result.Epochs,
				"size_bytes": result.Size,
				"duration_s": result.Duration.Seconds(),
			})
		} else {
			logger.Debug("Conversion failed", logging.Fields{"code": result.Code, "error": result.Error})
		}
	}()

	if err := c.run(result); err != nil {
		result.fail(err)
		return result
	}
	result.Success = true
	return result
}

// FailedResult builds the result for a file that could not be processed
func FailedResult(index int, input string, err error) *FileResult {
	r := &FileResult{Index: index, Input: input}
	r.fail(err)
	return r
}

func (r *FileResult) fail(err error) {
	r.Success = false
	r.err = err
	r.Code = common.CodeOf(err)
	r.Error = err.Error()
	r.note("Error: %s", err)
}

func (c *Converter) run(result *FileResult) error {
	if err := c.encoder.CheckTarget(result.Output); err != nil {
		return err
	}

	rec, err := c.opener.Open(result.Input)
	if err != nil {
		return common.NewConversionError(common.ErrCodeFileOpen, result.Input, "cannot open recording", err)
	}
	defer rec.Close()

	resolved, err := montage.Resolve(rec, c.cfg.Roles)
	if err != nil {
		return err
	}

	inputs, err := c.read(rec, resolved, result)
	if err != nil {
		return err
	}

	derivations, err := c.conditioner.Condition(inputs)
	if err != nil {
		return common.NewConversionError(common.ErrCodeInternal, result.Input, "cannot condition signals", err)
	}

	matched, err := c.matcher.MatchAll(derivations)
	if err != nil {
		return common.NewConversionError(common.ErrCodeResample, result.Input, "cannot resample signals", err)
	}

	extractor, err := spectrogram.NewExtractor(c.cfg.Geometry)
	if err != nil {
		return common.NewConversionError(common.ErrCodeInternal, result.Input, "cannot build extractor", err)
	}

	values, err := extractor.Extract(matched[conditioning.EEG].Samples,
		matched[conditioning.EOGLeft].Samples, matched[conditioning.EOGRight].Samples)
	if err != nil {
		return common.NewConversionError(common.ErrCodeInternal, result.Input, "cannot extract features", err)
	}

	epochs := c.cfg.Geometry.Epochs(len(matched[conditioning.EEG].Samples))
	result.note("Epochs: %d", epochs)

	artifact, err := c.encoder.EncodeFile(result.Output, values, epochs)
	if err != nil {
		return err
	}

	result.Epochs = epochs
	result.Size = artifact.Size()
	return nil
}

// read loads the four role channels, each with its own sample count
func (c *Converter) read(rec *recording.Recording, resolved *montage.Resolved, result *FileResult) (conditioning.Inputs, error) {
	var raw [len(montage.Roles)]conditioning.Channel

	result.note("Total samples: %d", resolved.Channels[montage.EEGLeft].SampleCount)
	for _, role := range montage.Roles {
		ch := resolved.Channels[role]
		result.note("%s: %q at %g Hz in %s", role, ch.Label, ch.SampleRate, ch.Unit)

		samples, err := rec.ReadPhysical(ch.Index)
		if err != nil {
			return conditioning.Inputs{}, common.NewConversionError(common.ErrCodeChannelRead, result.Input,
				"cannot read channel", err).WithRole(role.String())
		}
		raw[role] = conditioning.Channel{
			Samples:    samples,
			Rate:       ch.SampleRate,
			Multiplier: resolved.Multipliers[role],
		}
	}

	return conditioning.Inputs{
		EEGLeft:  raw[montage.EEGLeft],
		EEGRight: raw[montage.EEGRight],
		EOGLeft:  raw[montage.EOGLeft],
		EOGRight: raw[montage.EOGRight],
	}, nil
}

// IsSkipped reports whether a result failed only because its output existed
func IsSkipped(r *FileResult) bool {
	var ce *common.ConversionError
	return !r.Success && errors.As(r.err, &ce) && ce.Code == common.ErrCodeAlreadyConverted
}

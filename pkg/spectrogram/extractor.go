package spectrogram

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-sonar/algorithms/windowing"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Extractor turns rate-matched derivations into per-epoch magnitude grids.
//
// An Extractor owns its FFT plan and scratch buffers and is not safe for
// concurrent use. Create one per conversion task.
type Extractor struct {
	geo    Geometry
	fft    *fourier.FFT
	window *windowing.Hamming
	frame  []float64
	coeffs []complex128
}

// NewExtractor creates an extractor for the given geometry
func NewExtractor(geo Geometry) (*Extractor, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		geo:    geo,
		fft:    fourier.NewFFT(geo.WindowSize),
		window: windowing.NewHamming(geo.WindowSize, true),
		frame:  make([]float64, geo.WindowSize),
		coeffs: make([]complex128, geo.WindowSize/2+1),
	}, nil
}

// Geometry returns the extractor's layout
func (e *Extractor) Geometry() Geometry {
	return e.geo
}

// Extract computes the feature payload for the given channels, EEG first.
// The epoch count comes from the first channel; samples past the end of a
// shorter channel read as zero.
func (e *Extractor) Extract(channels ...[]float64) ([]float64, error) {
	if len(channels) != e.geo.Channels {
		return nil, fmt.Errorf("expected %d channels, got %d", e.geo.Channels, len(channels))
	}

	epochs := e.geo.Epochs(len(channels[0]))
	out := make([]float64, epochs*e.geo.BlockSize())

	for epoch := 0; epoch < epochs; epoch++ {
		base := epoch * e.geo.EpochSamples
		for c, samples := range channels {
			for t := 0; t < e.geo.TimeBins; t++ {
				if err := e.transform(samples, base+t*e.geo.Hop); err != nil {
					return nil, err
				}
				row := out[e.geo.Index(epoch, c, t, 0):]
				for f := 0; f < e.geo.FreqBins; f++ {
					row[f] = cmplx.Abs(e.coeffs[f])
				}
			}
		}
	}
	return out, nil
}

// transform windows the frame starting at offset and leaves its spectrum in e.coeffs
func (e *Extractor) transform(samples []float64, offset int) error {
	n := 0
	if offset < len(samples) {
		n = copy(e.frame, samples[offset:])
	}
	clear(e.frame[n:])

	if err := e.window.ApplyInPlace(e.frame); err != nil {
		return err
	}
	e.coeffs = e.fft.Coefficients(e.coeffs, e.frame)
	return nil
}

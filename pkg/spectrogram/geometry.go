package spectrogram

import "fmt"

// Fixed feature geometry expected by the scoring engine
const (
	EpochSamples = 3000 // 30 s at 100 Hz
	WindowSize   = 128
	Hop          = 90
	TimeBins     = 32
	FreqBins     = 32
	Channels     = 3
)

// Geometry describes how epochs are cut into windowed-FFT grids
type Geometry struct {
	EpochSamples int
	WindowSize   int
	Hop          int
	TimeBins     int
	FreqBins     int
	Channels     int
}

// DefaultGeometry returns the 3x32x32 per-epoch layout
func DefaultGeometry() Geometry {
	return Geometry{
		EpochSamples: EpochSamples,
		WindowSize:   WindowSize,
		Hop:          Hop,
		TimeBins:     TimeBins,
		FreqBins:     FreqBins,
		Channels:     Channels,
	}
}

// Validate checks that every window starts inside its epoch and that the
// requested bins exist in a real FFT of the window size
func (g Geometry) Validate() error {
	if g.EpochSamples <= 0 || g.WindowSize <= 0 || g.Hop <= 0 || g.TimeBins <= 0 || g.FreqBins <= 0 || g.Channels <= 0 {
		return fmt.Errorf("geometry fields must be positive: %+v", g)
	}
	if (g.TimeBins-1)*g.Hop >= g.EpochSamples {
		return fmt.Errorf("last window offset %d is outside a %d-sample epoch", (g.TimeBins-1)*g.Hop, g.EpochSamples)
	}
	if g.FreqBins > g.WindowSize/2+1 {
		return fmt.Errorf("%d frequency bins exceed a %d-point real FFT", g.FreqBins, g.WindowSize)
	}
	return nil
}

// ChannelSize is the number of values per channel per epoch
func (g Geometry) ChannelSize() int {
	return g.TimeBins * g.FreqBins
}

// BlockSize is the number of values per epoch
func (g Geometry) BlockSize() int {
	return g.Channels * g.ChannelSize()
}

// Epochs returns how many whole epochs fit in n samples
func (g Geometry) Epochs(n int) int {
	return n / g.EpochSamples
}

// Index returns the payload position of one magnitude value
func (g Geometry) Index(epoch, channel, t, f int) int {
	return epoch*g.BlockSize() + channel*g.ChannelSize() + t*g.FreqBins + f
}

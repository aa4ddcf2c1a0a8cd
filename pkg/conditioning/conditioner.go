package conditioning

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DerivationKind tags the three conditioned signals
type DerivationKind int

const (
	EEG DerivationKind = iota
	EOGLeft
	EOGRight
)

func (k DerivationKind) String() string {
	switch k {
	case EEG:
		return "eeg"
	case EOGLeft:
		return "eog_left"
	case EOGRight:
		return "eog_right"
	default:
		return "unknown"
	}
}

// Channel is one raw input channel with its native rate and unit multiplier
type Channel struct {
	Samples    []float64
	Rate       float64
	Multiplier float64
}

// Inputs holds the four role channels of a recording
type Inputs struct {
	EEGLeft  Channel
	EEGRight Channel
	EOGLeft  Channel
	EOGRight Channel
}

// Derivation is a conditioned signal at a known sampling rate
type Derivation struct {
	Kind    DerivationKind
	Samples []float64
	Rate    float64
}

// Derivations is the full conditioner output, in extraction order
type Derivations [3]Derivation

// Config holds the signal conditioning parameters
type Config struct {
	FilterOrder int  `mapstructure:"filter_order"`
	EEGBand     Band `mapstructure:"eeg_band"`
	EOGBand     Band `mapstructure:"eog_band"`
}

// DefaultConfig returns the standard conditioning parameters
func DefaultConfig() Config {
	return Config{
		FilterOrder: DefaultFilterOrder,
		EEGBand:     EEGBand,
		EOGBand:     EOGBand,
	}
}

// Conditioner scales and bandpass-filters raw channels into derivations.
// It is safe for concurrent use when the cache is.
type Conditioner struct {
	cfg   Config
	cache *DesignCache
}

// NewConditioner creates a conditioner; a nil cache gets a private one
func NewConditioner(cfg Config, cache *DesignCache) *Conditioner {
	if cache == nil {
		cache = NewDesignCache()
	}
	if cfg.FilterOrder == 0 {
		cfg.FilterOrder = DefaultFilterOrder
	}
	return &Conditioner{cfg: cfg, cache: cache}
}

// Condition produces the EEG, EOG-left and EOG-right derivations.
//
// The EEG derivation is the mean of both filtered EEG channels at the left
// channel's rate. The right EOG kernel is only designed separately when both
// EOG rates are identical; otherwise the left kernel is reused as is.
func (c *Conditioner) Condition(in Inputs) (Derivations, error) {
	var out Derivations

	eegKernel, err := c.cache.Get(c.cfg.FilterOrder, c.cfg.EEGBand, in.EEGLeft.Rate)
	if err != nil {
		return out, fmt.Errorf("designing EEG filter: %w", err)
	}

	eogLeftKernel, err := c.cache.Get(c.cfg.FilterOrder, c.cfg.EOGBand, in.EOGLeft.Rate)
	if err != nil {
		return out, fmt.Errorf("designing EOG filter: %w", err)
	}

	eogRightKernel := eogLeftKernel
	if in.EOGRight.Rate == in.EOGLeft.Rate {
		eogRightKernel, err = c.cache.Get(c.cfg.FilterOrder, c.cfg.EOGBand, in.EOGRight.Rate)
		if err != nil {
			return out, fmt.Errorf("designing EOG filter: %w", err)
		}
	}

	left := ConvolveSame(scaled(in.EEGLeft), eegKernel)
	right := ConvolveSame(scaled(in.EEGRight), eegKernel)

	n := min(len(left), len(right))
	eeg := make([]float64, n)
	floats.AddTo(eeg, left[:n], right[:n])
	floats.Scale(0.5, eeg)

	out[EEG] = Derivation{Kind: EEG, Samples: eeg, Rate: in.EEGLeft.Rate}
	out[EOGLeft] = Derivation{
		Kind:    EOGLeft,
		Samples: ConvolveSame(scaled(in.EOGLeft), eogLeftKernel),
		Rate:    in.EOGLeft.Rate,
	}
	out[EOGRight] = Derivation{
		Kind:    EOGRight,
		Samples: ConvolveSame(scaled(in.EOGRight), eogRightKernel),
		Rate:    in.EOGRight.Rate,
	}
	return out, nil
}

func scaled(ch Channel) []float64 {
	dst := make([]float64, len(ch.Samples))
	return floats.ScaleTo(dst, ch.Multiplier, ch.Samples)
}

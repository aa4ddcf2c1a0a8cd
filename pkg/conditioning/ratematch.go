package conditioning

import (
	"fmt"
	"math"
	"strings"
	"sync"

	resampler "github.com/tphakala/go-audio-resampler"
)

// TargetRate is the sampling rate every derivation is brought to
const TargetRate = 100.0

// ResampleFunc converts input sampled at source Hz into target Hz
type ResampleFunc func(target, source float64, input []float64) ([]float64, error)

// ParseQuality maps a config string to a resampler quality preset
func ParseQuality(s string) (resampler.QualityPreset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quick":
		return resampler.QualityQuick, nil
	case "low":
		return resampler.QualityLow, nil
	case "", "medium":
		return resampler.QualityMedium, nil
	case "high":
		return resampler.QualityHigh, nil
	case "veryhigh", "very_high", "very-high":
		return resampler.QualityVeryHigh, nil
	default:
		return 0, fmt.Errorf("unknown resample quality %q", s)
	}
}

// Resampler returns a ResampleFunc backed by a one-shot polyphase engine at
// the given quality. Output sample k lines up with time k/target: the
// engine's delay is measured once per rate pair and removed.
func Resampler(quality resampler.QualityPreset) ResampleFunc {
	delays := &delayCache{quality: quality, delays: make(map[ratePair]engineDelay)}
	return func(target, source float64, input []float64) ([]float64, error) {
		if len(input) == 0 {
			return []float64{}, nil
		}

		delay, err := delays.get(target, source)
		if err != nil {
			return nil, err
		}

		padded := make([]float64, delay.pad+len(input)+delay.pad)
		copy(padded[delay.pad:], input)
		out, err := resampler.ResampleMono(padded, source, target, quality)
		if err != nil {
			return nil, err
		}

		aligned := make([]float64, OutputLength(len(input), target, source))
		if delay.start < len(out) {
			copy(aligned, out[delay.start:])
		}
		return aligned, nil
	}
}

// OutputLength is the number of samples n input samples span at target Hz
func OutputLength(n int, target, source float64) int {
	return int(math.Ceil(float64(n)*target/source - 1e-9))
}

// alignPadSeconds of silence surround every resampled signal so that the
// samples the engine withholds at either edge are silence
var alignPadSeconds = []float64{10, 40, 160}

type ratePair struct {
	target float64
	source float64
}

// engineDelay locates input sample 0 in the output of a padded signal
type engineDelay struct {
	pad   int
	start int
}

type delayCache struct {
	quality resampler.QualityPreset
	mu      sync.Mutex
	delays  map[ratePair]engineDelay
}

func (c *delayCache) get(target, source float64) (engineDelay, error) {
	key := ratePair{target: target, source: source}

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.delays[key]; ok {
		return d, nil
	}
	for _, secs := range alignPadSeconds {
		d, ok, err := measureDelay(target, source, c.quality, int(math.Round(secs*source)))
		if err != nil {
			return engineDelay{}, err
		}
		if ok {
			c.delays[key] = d
			return d, nil
		}
	}
	return engineDelay{}, fmt.Errorf("cannot locate resampler delay from %g Hz to %g Hz", source, target)
}

// measureDelay resamples a unit impulse placed after pad samples of silence
// and finds where its peak lands. ok is false when the impulse was lost in
// the samples the engine withholds.
func measureDelay(target, source float64, quality resampler.QualityPreset, pad int) (engineDelay, bool, error) {
	impulse := make([]float64, 2*pad+1)
	impulse[pad] = 1

	out, err := resampler.ResampleMono(impulse, source, target, quality)
	if err != nil {
		return engineDelay{}, false, err
	}
	if len(out) == 0 {
		return engineDelay{}, false, nil
	}

	peak := 0
	for i, v := range out {
		if math.Abs(v) > math.Abs(out[peak]) {
			peak = i
		}
	}

	// A band-limited impulse peaks at about min(1, target/source)
	if math.Abs(out[peak]) < 0.25*math.Min(1, target/source) || peak == 0 || peak == len(out)-1 {
		return engineDelay{}, false, nil
	}

	// Parabolic refinement of the peak between output samples
	prev, cur, next := out[peak-1], out[peak], out[peak+1]
	pos := float64(peak)
	if den := prev - 2*cur + next; den != 0 {
		pos += 0.5 * (prev - next) / den
	}
	return engineDelay{pad: pad, start: int(math.Round(pos))}, true, nil
}

// RateMatcher brings derivations to TargetRate
type RateMatcher struct {
	target   float64
	resample ResampleFunc
}

// NewRateMatcher creates a rate matcher; a nil resample func uses the medium preset
func NewRateMatcher(resample ResampleFunc) *RateMatcher {
	if resample == nil {
		resample = Resampler(resampler.QualityMedium)
	}
	return &RateMatcher{target: TargetRate, resample: resample}
}

// NeedsResampling reports whether a native rate differs from the target
// after integer truncation
func (m *RateMatcher) NeedsResampling(rate float64) bool {
	return int(rate) != int(m.target)
}

// Match returns d at the target rate. Derivations whose truncated rate is
// already the target pass through unchanged.
func (m *RateMatcher) Match(d Derivation) (Derivation, error) {
	if !m.NeedsResampling(d.Rate) {
		d.Rate = m.target
		return d, nil
	}

	out, err := m.resample(m.target, d.Rate, d.Samples)
	if err != nil {
		return d, fmt.Errorf("resampling %s from %g Hz: %w", d.Kind, d.Rate, err)
	}
	return Derivation{Kind: d.Kind, Samples: out, Rate: m.target}, nil
}

// MatchAll rate-matches every derivation in order
func (m *RateMatcher) MatchAll(ds Derivations) (Derivations, error) {
	var out Derivations
	for i, d := range ds {
		matched, err := m.Match(d)
		if err != nil {
			return out, err
		}
		out[i] = matched
	}
	return out, nil
}

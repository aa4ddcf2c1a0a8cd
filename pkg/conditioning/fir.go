package conditioning

import (
	"fmt"
	"math"
	"sync"

	"github.com/mjibson/go-dsp/window"
)

// DefaultFilterOrder gives 51-tap kernels
const DefaultFilterOrder = 50

// Band is a passband in Hz
type Band struct {
	Low  float64 `mapstructure:"low" yaml:"low" json:"low"`
	High float64 `mapstructure:"high" yaml:"high" json:"high"`
}

var (
	// EEGBand is applied to both EEG channels
	EEGBand = Band{Low: 0.3, High: 45}
	// EOGBand is applied to each EOG channel
	EOGBand = Band{Low: 0.3, High: 12}
)

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// DesignBandpass returns the order+1 coefficients of a Hamming-windowed sinc
// bandpass filter. fl and fh are normalized to the Nyquist frequency.
func DesignBandpass(order int, fl, fh float64) []float64 {
	hamming := window.Hamming(order + 1)
	half := float64(order) / 2.0

	b := make([]float64, order+1)
	for i := range b {
		x := float64(i) - half
		b[i] = hamming[i] * (sinc(fh*x)*fh - sinc(fl*x)*fl)
	}
	return b
}

// Normalize converts a band in Hz to cutoffs relative to the Nyquist frequency
// of the given sampling rate.
func Normalize(band Band, rate float64) (fl, fh float64) {
	return band.Low * 2 / rate, band.High * 2 / rate
}

type designKey struct {
	order int
	band  Band
	rate  float64
}

// DesignCache memoizes bandpass kernels. Returned kernels are shared and must
// not be modified by callers.
type DesignCache struct {
	mu      sync.Mutex
	designs map[designKey][]float64
}

// NewDesignCache creates an empty design cache
func NewDesignCache() *DesignCache {
	return &DesignCache{designs: make(map[designKey][]float64)}
}

// Get returns the kernel for band at rate, designing it on first use
func (c *DesignCache) Get(order int, band Band, rate float64) ([]float64, error) {
	if order <= 0 || order%2 != 0 {
		return nil, fmt.Errorf("filter order must be a positive even number, got %d", order)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %g", rate)
	}

	key := designKey{order: order, band: band, rate: rate}

	c.mu.Lock()
	defer c.mu.Unlock()

	if k, ok := c.designs[key]; ok {
		return k, nil
	}

	fl, fh := Normalize(band, rate)
	k := DesignBandpass(order, fl, fh)
	c.designs[key] = k
	return k, nil
}

// Len returns the number of cached designs
func (c *DesignCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.designs)
}

package conditioning

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesignBandpassShape(t *testing.T) {
	fl, fh := Normalize(EEGBand, 256)
	b := DesignBandpass(DefaultFilterOrder, fl, fh)

	require.Len(t, b, DefaultFilterOrder+1)

	for i := range b {
		assert.InDelta(t, b[i], b[len(b)-1-i], 1e-15, "coefficient %d not symmetric", i)
	}

	// The window peaks at 1.0 in the middle and sinc(0) is 1
	assert.InDelta(t, fh-fl, b[DefaultFilterOrder/2], 1e-12)
}

func TestDesignBandpassTaps(t *testing.T) {
	const order = DefaultFilterOrder
	hamming := func(i int) float64 {
		return 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/order)
	}
	windowedSinc := func(fl, fh float64, i int) float64 {
		x := math.Pi * (float64(i) - order/2)
		return hamming(i) * (math.Sin(fh*x)/x - math.Sin(fl*x)/x)
	}

	tests := []struct {
		name string
		band Band
		rate float64
		tap  int
	}{
		{"eeg 256 Hz first tap", EEGBand, 256, 0},
		{"eeg 256 Hz tap 10", EEGBand, 256, 10},
		{"eeg 256 Hz last tap", EEGBand, 256, order},
		{"eog 200 Hz tap 3", EOGBand, 200, 3},
		{"eog 200 Hz tap 24", EOGBand, 200, 24},
		{"eeg 128 Hz tap 17", EEGBand, 128, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl, fh := Normalize(tt.band, tt.rate)
			b := DesignBandpass(order, fl, fh)
			assert.InDelta(t, windowedSinc(fl, fh, tt.tap), b[tt.tap], 1e-12)
		})
	}

	// End taps carry the 0.08 floor of the Hamming window
	fl, fh := Normalize(EEGBand, 256)
	b := DesignBandpass(order, fl, fh)
	x := math.Pi * float64(order) / 2
	assert.InDelta(t, 0.08*(math.Sin(fh*x)-math.Sin(fl*x))/x, b[0], 1e-12)
}

func TestDesignBandpassDeterministic(t *testing.T) {
	a := DesignBandpass(50, 0.006, 0.9)
	b := DesignBandpass(50, 0.006, 0.9)
	assert.Equal(t, a, b)
}

func TestNormalize(t *testing.T) {
	fl, fh := Normalize(Band{Low: 0.3, High: 12}, 100)
	assert.InDelta(t, 0.006, fl, 1e-15)
	assert.InDelta(t, 0.24, fh, 1e-15)
}

func TestDesignCacheSharesKernels(t *testing.T) {
	cache := NewDesignCache()

	var wg sync.WaitGroup
	kernels := make([][]float64, 8)
	for i := range kernels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := cache.Get(DefaultFilterOrder, EOGBand, 200)
			assert.NoError(t, err)
			kernels[i] = k
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
	for _, k := range kernels[1:] {
		assert.Same(t, &kernels[0][0], &k[0])
	}

	fl, fh := Normalize(EOGBand, 200)
	assert.Equal(t, DesignBandpass(DefaultFilterOrder, fl, fh), kernels[0])
}

func TestDesignCacheRejectsBadInput(t *testing.T) {
	cache := NewDesignCache()

	_, err := cache.Get(51, EEGBand, 100)
	assert.Error(t, err)

	_, err = cache.Get(50, EEGBand, 0)
	assert.Error(t, err)
}

package spectrogram

import (
	"math"
	"math/cmplx"
	"math/rand"
	"sync"
	"testing"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSignal(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = r.NormFloat64() * 20
	}
	return out
}

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultGeometry())
	require.NoError(t, err)
	return e
}

func TestExtractLength(t *testing.T) {
	e := newExtractor(t)

	for _, n := range []int{0, 2999, 3000, 3001, 9000, 10500} {
		sig := randomSignal(1, n)
		out, err := e.Extract(sig, sig, sig)
		require.NoError(t, err)
		assert.Len(t, out, (n/3000)*3072, "length for %d samples", n)
	}
}

func TestExtractToneLandsInBin(t *testing.T) {
	e := newExtractor(t)

	// 12.5 Hz at 100 Hz is exactly bin 16 of a 128-point FFT
	tone := make([]float64, 3000)
	for i := range tone {
		tone[i] = math.Sin(2 * math.Pi * 12.5 * float64(i) / 100)
	}
	silent := make([]float64, 3000)

	out, err := e.Extract(tone, silent, silent)
	require.NoError(t, err)

	geo := e.Geometry()
	for tb := 0; tb < geo.TimeBins; tb++ {
		peak := 0
		for f := 1; f < geo.FreqBins; f++ {
			if out[geo.Index(0, 0, tb, f)] > out[geo.Index(0, 0, tb, peak)] {
				peak = f
			}
		}
		assert.Equal(t, 16, peak, "time bin %d", tb)

		for f := 0; f < geo.FreqBins; f++ {
			assert.Zero(t, out[geo.Index(0, 1, tb, f)])
			assert.Zero(t, out[geo.Index(0, 2, tb, f)])
		}
	}
}

func TestExtractMatchesReferenceFFT(t *testing.T) {
	e := newExtractor(t)
	eeg := randomSignal(2, 6000)
	eogL := randomSignal(3, 6000)
	eogR := randomSignal(4, 6000)

	out, err := e.Extract(eeg, eogL, eogR)
	require.NoError(t, err)

	geo := e.Geometry()
	ham := window.Hamming(WindowSize)
	channels := [][]float64{eeg, eogL, eogR}

	for _, pos := range []struct{ epoch, channel, t int }{{0, 0, 0}, {0, 1, 17}, {1, 2, 31}, {1, 0, 5}} {
		start := pos.epoch*EpochSamples + pos.t*Hop
		frame := make([]float64, WindowSize)
		for i := range frame {
			frame[i] = channels[pos.channel][start+i] * ham[i]
		}
		spectrum := fft.FFTReal(frame)

		for f := 0; f < FreqBins; f++ {
			want := cmplx.Abs(spectrum[f])
			got := out[geo.Index(pos.epoch, pos.channel, pos.t, f)]
			assert.InDelta(t, want, got, 1e-9*math.Max(1, want), "epoch %d channel %d t %d f %d", pos.epoch, pos.channel, pos.t, f)
		}
	}
}

func TestExtractZeroFillsShortChannel(t *testing.T) {
	e := newExtractor(t)
	eeg := randomSignal(5, 3000)
	short := randomSignal(6, 100)

	out, err := e.Extract(eeg, short, short)
	require.NoError(t, err)
	require.Len(t, out, 3072)

	geo := e.Geometry()
	// Window 2 starts at sample 180, entirely past the short channel
	for f := 0; f < FreqBins; f++ {
		assert.Zero(t, out[geo.Index(0, 1, 2, f)])
	}
	assert.NotZero(t, out[geo.Index(0, 1, 0, 0)])
}

func TestExtractConcurrentMatchesSerial(t *testing.T) {
	sig := randomSignal(7, 9000)

	serial, err := newExtractor(t).Extract(sig, sig, sig)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := NewExtractor(DefaultGeometry())
			if !assert.NoError(t, err) {
				return
			}
			results[i], err = e.Extract(sig, sig, sig)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, serial, r)
	}
}

func TestExtractChannelCount(t *testing.T) {
	e := newExtractor(t)
	_, err := e.Extract(randomSignal(1, 3000))
	assert.Error(t, err)
}

func TestGeometry(t *testing.T) {
	g := DefaultGeometry()
	require.NoError(t, g.Validate())

	assert.Equal(t, 1024, g.ChannelSize())
	assert.Equal(t, 3072, g.BlockSize())
	assert.Equal(t, 17, g.Epochs(51200))
	assert.Equal(t, 2*3072+1024+5*32+7, g.Index(2, 1, 5, 7))

	bad := g
	bad.Hop = 100
	assert.Error(t, bad.Validate())

	bad = g
	bad.FreqBins = 66
	assert.Error(t, bad.Validate())
}

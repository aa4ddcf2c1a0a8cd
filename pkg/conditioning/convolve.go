package conditioning

import "gonum.org/v1/gonum/floats"

// ConvolveSame returns the central part of the full linear convolution of x
// and kernel, with the same length as x. Output index i corresponds to full
// convolution index i + len(kernel)/2.
func ConvolveSame(x, kernel []float64) []float64 {
	out := make([]float64, len(x))
	m := len(kernel)
	if m == 0 || len(x) == 0 {
		return out
	}

	reversed := make([]float64, m)
	for j, v := range kernel {
		reversed[m-1-j] = v
	}

	offset := m / 2
	for i := range out {
		n := i + offset

		// full[n] = sum_t reversed[t] * x[n-m+1+t] over the overlapping range
		tLo := max(0, m-1-n)
		tHi := min(m-1, len(x)+m-2-n)
		if tLo > tHi {
			continue
		}
		start := n - m + 1 + tLo
		out[i] = floats.Dot(reversed[tLo:tHi+1], x[start:start+tHi-tLo+1])
	}
	return out
}

package conditioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplier(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{"nV", 0.001},
		{"uV", 1.0},
		{"mV", 1000.0},
		{"V", 1000000.0},
		{"uVolts", 1.0},
		{"Volt", 1000000.0},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			got, err := Multiplier(tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMultiplierInvalid(t *testing.T) {
	for _, unit := range []string{"", "mv", "UV", "µV", "%", "degC", " uV"} {
		t.Run(unit, func(t *testing.T) {
			_, err := Multiplier(unit)
			assert.ErrorIs(t, err, ErrInvalidUnit)
		})
	}
}

package conditioning

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidUnit is returned for physical dimensions that are not a volt multiple
var ErrInvalidUnit = errors.New("invalid physical unit")

// unitPrefixes are checked in order; the bare "V" must come last
var unitPrefixes = []struct {
	prefix     string
	multiplier float64
}{
	{"nV", 0.001},
	{"uV", 1.0},
	{"mV", 1000.0},
	{"V", 1000000.0},
}

// Multiplier returns the factor that converts samples in the given physical
// unit to microvolts. Matching is case-sensitive and looks only at the prefix.
func Multiplier(unit string) (float64, error) {
	for _, u := range unitPrefixes {
		if strings.HasPrefix(unit, u.prefix) {
			return u.multiplier, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
}

package montage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RyanBlaney/edf2cfs/pkg/recording"
)

// ErrNoSelection is returned when input ends before every role is chosen
var ErrNoSelection = errors.New("channel selection aborted")

// Prompt lists channels on out and asks for a channel number for every role
// missing from m. Numbers are 1-based; invalid entries are asked again.
func Prompt(in io.Reader, out io.Writer, channels []recording.Channel, m RoleMap) (RoleMap, error) {
	if len(channels) == 0 {
		return m, errors.New("recording has no channels to choose from")
	}

	fmt.Fprintln(out, "Available channels:")
	for i, ch := range channels {
		fmt.Fprintf(out, "  %2d  %-16s %-8s %g Hz\n", i+1, ch.Label, ch.Unit, ch.SampleRate)
	}

	scanner := bufio.NewScanner(in)
	for _, role := range m.Missing() {
		for {
			fmt.Fprintf(out, "Select the %s (%s) channel [1-%d]: ", role.Description(), role, len(channels))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return m, err
				}
				return m, ErrNoSelection
			}

			n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil || n < 1 || n > len(channels) {
				fmt.Fprintf(out, "Please enter a number between 1 and %d.\n", len(channels))
				continue
			}
			m = m.With(role, channels[n-1].Label)
			break
		}
	}
	return m, nil
}

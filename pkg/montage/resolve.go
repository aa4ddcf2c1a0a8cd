package montage

import (
	"fmt"

	"github.com/RyanBlaney/edf2cfs/pkg/common"
	"github.com/RyanBlaney/edf2cfs/pkg/conditioning"
	"github.com/RyanBlaney/edf2cfs/pkg/recording"
)

// ChannelSource is anything that can list a recording's channels
type ChannelSource interface {
	Path() string
	Channels() []recording.Channel
}

// Resolved holds the channel selected for each role with its rate and
// unit multiplier
type Resolved struct {
	Channels    [len(Roles)]recording.Channel
	Multipliers [len(Roles)]float64
}

// Index returns the channel index for r
func (rc *Resolved) Index(r Role) int {
	return rc.Channels[r].Index
}

// Rate returns the sampling rate for r
func (rc *Resolved) Rate(r Role) float64 {
	return rc.Channels[r].SampleRate
}

// Resolve matches each role against the source's folded channel labels and
// validates every unit, then the EEG rates. Only metadata is read.
func Resolve(src ChannelSource, m RoleMap) (*Resolved, error) {
	channels := src.Channels()
	folded := make([]string, len(channels))
	for i, ch := range channels {
		folded[i] = Fold(ch.Label)
	}

	rc := &Resolved{}
	for _, role := range Roles {
		idx := -1
		for i, label := range folded {
			if label == m[role] {
				idx = i
				break
			}
		}
		if idx < 0 || m[role] == "" {
			return nil, common.NewConversionError(common.ErrCodeChannelNotFound, src.Path(),
				fmt.Sprintf("channel %q not found", m[role]), nil).WithRole(role.String())
		}
		rc.Channels[role] = channels[idx]
	}

	for _, role := range Roles {
		mult, err := conditioning.Multiplier(rc.Channels[role].Unit)
		if err != nil {
			return nil, common.NewConversionError(common.ErrCodeInvalidUnit, src.Path(),
				"unsupported physical unit", err).WithRole(role.String())
		}
		rc.Multipliers[role] = mult
	}

	left, right := rc.Rate(EEGLeft), rc.Rate(EEGRight)
	if int(left) != int(right) {
		return nil, common.NewConversionError(common.ErrCodeSampleRateMismatch, src.Path(),
			fmt.Sprintf("EEG sample rates differ: %g Hz vs %g Hz", left, right), nil)
	}
	return rc, nil
}

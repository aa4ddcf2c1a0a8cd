package montage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/RyanBlaney/edf2cfs/pkg/common"
	"github.com/RyanBlaney/edf2cfs/pkg/recording"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	path     string
	channels []recording.Channel
}

func (f *fakeSource) Path() string                  { return f.path }
func (f *fakeSource) Channels() []recording.Channel { return f.channels }

func source(channels ...recording.Channel) *fakeSource {
	for i := range channels {
		channels[i].Index = i
	}
	return &fakeSource{path: "night.edf", channels: channels}
}

func ch(label, unit string, rate float64) recording.Channel {
	return recording.Channel{Label: label, Unit: unit, SampleRate: rate}
}

func TestResolve(t *testing.T) {
	src := source(
		ch("EMG", "uV", 512),
		ch("C4-A1", "uV", 256),
		ch("C3-A2", "mV", 256),
		ch("EOG(L)", "uV", 128),
		ch("EOG(R)", "nV", 64),
	)

	rc, err := Resolve(src, NewRoleMap("c3-a2", "C4-A1", "eog(l)", "EOG(R)"))
	require.NoError(t, err)

	assert.Equal(t, 2, rc.Index(EEGLeft))
	assert.Equal(t, 1, rc.Index(EEGRight))
	assert.Equal(t, 3, rc.Index(EOGLeft))
	assert.Equal(t, 4, rc.Index(EOGRight))
	assert.Equal(t, 64.0, rc.Rate(EOGRight))
	assert.Equal(t, [4]float64{1000, 1, 1, 0.001}, rc.Multipliers)
}

func TestResolveChannelNotFound(t *testing.T) {
	src := source(ch("C3", "uV", 100), ch("C4", "uV", 100), ch("EL", "uV", 100))

	_, err := Resolve(src, NewRoleMap("c3", "c4", "el", "er"))
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeChannelNotFound))

	var ce *common.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ER", ce.Role)
}

func TestResolveEmptyLabelNeverMatches(t *testing.T) {
	src := source(ch("", "uV", 100), ch("C4", "uV", 100), ch("EL", "uV", 100), ch("ER", "uV", 100))

	_, err := Resolve(src, NewRoleMap("", "c4", "el", "er"))
	assert.True(t, common.IsCode(err, common.ErrCodeChannelNotFound))
}

func TestResolveSampleRateMismatch(t *testing.T) {
	src := source(ch("C3", "uV", 256), ch("C4", "uV", 200), ch("EL", "uV", 100), ch("ER", "uV", 100))

	_, err := Resolve(src, NewRoleMap("c3", "c4", "el", "er"))
	assert.True(t, common.IsCode(err, common.ErrCodeSampleRateMismatch))
}

func TestResolveRateTruncation(t *testing.T) {
	src := source(ch("C3", "uV", 256.2), ch("C4", "uV", 256.9), ch("EL", "uV", 100), ch("ER", "uV", 100))

	_, err := Resolve(src, NewRoleMap("c3", "c4", "el", "er"))
	assert.NoError(t, err)
}

func TestResolveInvalidUnit(t *testing.T) {
	src := source(ch("C3", "uV", 100), ch("C4", "uV", 100), ch("EL", "degC", 100), ch("ER", "uV", 100))

	_, err := Resolve(src, NewRoleMap("c3", "c4", "el", "er"))
	assert.True(t, common.IsCode(err, common.ErrCodeInvalidUnit))

	var ce *common.ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "EL", ce.Role)
}

func TestResolveUnitCheckedBeforeRate(t *testing.T) {
	src := source(ch("C3", "uV", 256), ch("C4", "uV", 200), ch("EL", "uV", 100), ch("ER", "furlong", 100))

	_, err := Resolve(src, NewRoleMap("c3", "c4", "el", "er"))
	assert.True(t, common.IsCode(err, common.ErrCodeInvalidUnit))
	assert.False(t, common.IsCode(err, common.ErrCodeSampleRateMismatch))
}

func TestRoleMap(t *testing.T) {
	m := NewRoleMap(" C3 ", "", "EL", "")
	assert.Equal(t, "c3", m.Label(EEGLeft))
	assert.Equal(t, []Role{EEGRight, EOGRight}, m.Missing())
	assert.False(t, m.Complete())

	m = m.With(EEGRight, "C4").With(EOGRight, "ER")
	assert.True(t, m.Complete())
	assert.Equal(t, RoleMap{"c3", "c4", "el", "er"}, m)
}

func TestRoleNames(t *testing.T) {
	names := make([]string, 0, len(Roles))
	for _, r := range Roles {
		names = append(names, r.String())
	}
	assert.Equal(t, []string{"C3", "C4", "EL", "ER"}, names)
	assert.Equal(t, "right EOG", EOGRight.Description())
}

func TestMontageFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewRoleMap("C3-A2", "C4-A1", "LOC", "ROC")

	require.NoError(t, Save(fs, "/etc/edf2cfs/montage.yaml", m))

	b, err := afero.ReadFile(fs, "/etc/edf2cfs/montage.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(b), "eeg_left: c3-a2")

	loaded, err := Load(fs, "/etc/edf2cfs/montage.yaml")
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestLoadFoldsLabels(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "m.yaml", []byte("eeg_left: C3\neeg_right: C4\neog_left: E1\neog_right: E2\n"), 0o644))

	m, err := Load(fs, "m.yaml")
	require.NoError(t, err)
	assert.Equal(t, RoleMap{"c3", "c4", "e1", "e2"}, m)

	_, err = Load(fs, "missing.yaml")
	assert.Error(t, err)
}

func TestPrompt(t *testing.T) {
	channels := []recording.Channel{
		ch("C3", "uV", 256), ch("C4", "uV", 256), ch("EOG L", "uV", 256), ch("EOG R", "uV", 256),
	}
	in := strings.NewReader("0\nfoo\n3\n4\n")
	var out bytes.Buffer

	m, err := Prompt(in, &out, channels, NewRoleMap("c3", "c4", "", ""))
	require.NoError(t, err)
	assert.Equal(t, RoleMap{"c3", "c4", "eog l", "eog r"}, m)

	assert.Contains(t, out.String(), " 1  C3")
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter a number between 1 and 4."))
}

func TestPromptAborted(t *testing.T) {
	channels := []recording.Channel{ch("C3", "uV", 256)}
	_, err := Prompt(strings.NewReader("1\n"), &bytes.Buffer{}, channels, RoleMap{})
	assert.ErrorIs(t, err, ErrNoSelection)
}

package recording

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/RyanBlaney/edf2cfs/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RecordingTestSuite struct {
	suite.Suite
	fs     afero.Fs
	opener *Opener
}

func (s *RecordingTestSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.opener = NewOpener(s.fs, Options{})
	s.Require().NoError(testutil.WriteEDF(s.fs, "/data/night.edf", testutil.StandardFixture(256, 10, "uV")))
}

func (s *RecordingTestSuite) TestChannels() {
	rec, err := s.opener.Open("/data/night.edf")
	s.Require().NoError(err)
	defer rec.Close()

	channels := rec.Channels()
	s.Require().Len(channels, 4)

	labels := make([]string, len(channels))
	for i, ch := range channels {
		labels[i] = ch.Label
		s.Equal(i, ch.Index)
		s.Equal("uV", ch.Unit)
		s.Equal(256, ch.SamplesPerRecord)
		s.Equal(2560, ch.SampleCount)
		s.Equal(256.0, ch.SampleRate)
	}
	s.Equal([]string{"C3", "C4", "EL", "ER"}, labels)
	s.Equal(10, rec.Records())
	s.Equal(1.0, rec.RecordDuration())
}

func (s *RecordingTestSuite) TestReadPhysical() {
	rec, err := s.opener.Open("/data/night.edf")
	s.Require().NoError(err)
	defer rec.Close()

	samples, err := rec.ReadPhysical(0)
	s.Require().NoError(err)
	s.Len(samples, 2560)

	// 16-bit quantization over a 1000 uV range
	gen := testutil.StandardFixture(256, 10, "uV").Signals[0].Value
	for i := 0; i < len(samples); i += 97 {
		s.InDelta(gen(i), samples[i], 0.05, "sample %d", i)
	}
}

func (s *RecordingTestSuite) TestReadOutOfRange() {
	rec, err := s.opener.Open("/data/night.edf")
	s.Require().NoError(err)
	defer rec.Close()

	for _, idx := range []int{-1, 4, 5} {
		_, err := rec.ReadPhysical(idx)
		var recErr *Error
		s.Require().ErrorAs(err, &recErr)
		s.Equal(KindReadError, recErr.Kind)
		s.Equal(idx, recErr.Channel)
	}
}

func (s *RecordingTestSuite) TestNotFound() {
	_, err := s.opener.Open("/data/missing.edf")
	s.assertKind(err, KindNotFound)
	s.Zero(s.opener.OpenCount())
}

func (s *RecordingTestSuite) TestMalformed() {
	s.Require().NoError(afero.WriteFile(s.fs, "/data/junk.edf", []byte("not an edf file"), 0o644))
	_, err := s.opener.Open("/data/junk.edf")
	s.assertKind(err, KindMalformed)
	s.Zero(s.opener.OpenCount())
}

func (s *RecordingTestSuite) TestTruncatedData() {
	b, err := afero.ReadFile(s.fs, "/data/night.edf")
	s.Require().NoError(err)
	s.Require().NoError(afero.WriteFile(s.fs, "/data/short.edf", b[:len(b)-100], 0o644))

	rec, err := s.opener.Open("/data/short.edf")
	s.Require().NoError(err)
	defer rec.Close()

	_, err = rec.ReadPhysical(3)
	s.assertKind(err, KindReadError)
}

func (s *RecordingTestSuite) TestAlreadyOpen() {
	rec, err := s.opener.Open("/data/night.edf")
	s.Require().NoError(err)

	_, err = s.opener.Open("/data/../data/night.edf")
	s.assertKind(err, KindAlreadyOpen)

	s.Require().NoError(rec.Close())
	s.Require().NoError(rec.Close())

	again, err := s.opener.Open("/data/night.edf")
	s.Require().NoError(err)
	s.NoError(again.Close())
}

func (s *RecordingTestSuite) TestTooManyOpen() {
	opener := NewOpener(s.fs, Options{MaxOpen: 2})
	for i := 0; i < 3; i++ {
		s.Require().NoError(testutil.WriteEDF(s.fs, fmt.Sprintf("/many/%d.edf", i), testutil.StandardFixture(100, 2, "uV")))
	}

	a, err := opener.Open("/many/0.edf")
	s.Require().NoError(err)
	b, err := opener.Open("/many/1.edf")
	s.Require().NoError(err)

	_, err = opener.Open("/many/2.edf")
	s.assertKind(err, KindTooManyOpen)

	s.NoError(a.Close())
	c, err := opener.Open("/many/2.edf")
	s.Require().NoError(err)
	s.NoError(b.Close())
	s.NoError(c.Close())
}

func (s *RecordingTestSuite) TestSampleLimit() {
	opener := NewOpener(s.fs, Options{MaxSamples: 1000})
	_, err := opener.Open("/data/night.edf")
	s.assertKind(err, KindOutOfMemory)
}

func (s *RecordingTestSuite) TestReadAfterClose() {
	rec, err := s.opener.Open("/data/night.edf")
	s.Require().NoError(err)
	s.Require().NoError(rec.Close())

	_, err = rec.ReadPhysical(0)
	s.assertKind(err, KindReadError)
}

func (s *RecordingTestSuite) assertKind(err error, kind Kind) {
	s.T().Helper()
	var recErr *Error
	s.Require().True(errors.As(err, &recErr), "expected *recording.Error, got %v", err)
	s.Equal(kind, recErr.Kind)
}

func TestRecordingTestSuite(t *testing.T) {
	suite.Run(t, new(RecordingTestSuite))
}

func TestConcurrentOpenDistinctFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i := 0; i < 6; i++ {
		require.NoError(t, testutil.WriteEDF(fs, fmt.Sprintf("/c/%d.edf", i), testutil.StandardFixture(100, 3, "mV")))
	}
	opener := NewOpener(fs, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := opener.Open(fmt.Sprintf("/c/%d.edf", i))
			if !assert.NoError(t, err) {
				return
			}
			defer rec.Close()
			samples, err := rec.ReadPhysical(2)
			assert.NoError(t, err)
			assert.Len(t, samples, 300)
		}(i)
	}
	wg.Wait()
	assert.Zero(t, opener.OpenCount())
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindReadError, Path: "a.edf", Channel: 2, Cause: errors.New("boom")}
	assert.Equal(t, "a.edf: read-error (channel 2): boom", err.Error())

	err = newError(KindNotFound, "b.edf", nil)
	assert.Equal(t, "b.edf: not-found", err.Error())
}

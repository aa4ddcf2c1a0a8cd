package testutil

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/spf13/afero"
)

// Signal describes one synthetic EDF channel
type Signal struct {
	Label            string
	Unit             string
	SamplesPerRecord int
	PhysicalMin      float64
	PhysicalMax      float64
	// Value returns the physical value of sample i
	Value func(i int) float64
}

// Fixture describes a synthetic EDF recording
type Fixture struct {
	Records        int
	RecordDuration time.Duration
	Signals        []Signal
}

// Tone returns a sample generator for a sine of freq Hz sampled at rate Hz
func Tone(rate, freq, amp float64) func(int) float64 {
	return func(i int) float64 {
		return amp * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
}

// Mix adds generators together
func Mix(gens ...func(int) float64) func(int) float64 {
	return func(i int) float64 {
		var v float64
		for _, g := range gens {
			v += g(i)
		}
		return v
	}
}

// StandardSignal returns a channel with the default physical range
func StandardSignal(label, unit string, rate int, value func(int) float64) Signal {
	return Signal{
		Label:            label,
		Unit:             unit,
		SamplesPerRecord: rate,
		PhysicalMin:      -500,
		PhysicalMax:      500,
		Value:            value,
	}
}

// StandardFixture returns a four-channel recording with "C3", "C4", "EL" and
// "ER" at the given rate, in 1-second records
func StandardFixture(rate, seconds int, unit string) Fixture {
	r := float64(rate)
	return Fixture{
		Records:        seconds,
		RecordDuration: time.Second,
		Signals: []Signal{
			StandardSignal("C3", unit, rate, Mix(Tone(r, 10, 40), Tone(r, 2, 60))),
			StandardSignal("C4", unit, rate, Mix(Tone(r, 11, 35), Tone(r, 1.5, 55))),
			StandardSignal("EL", unit, rate, Mix(Tone(r, 0.8, 120), Tone(r, 5, 10))),
			StandardSignal("ER", unit, rate, Mix(Tone(r, 0.7, 110), Tone(r, 6, 12))),
		},
	}
}

// WriteEDF writes the fixture as an EDF file at path on fs
func WriteEDF(fs afero.Fs, path string, fx Fixture) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          "X X X X",
		RecordingID:        "Startdate X X X X",
		StartTime:          time.Date(2024, time.March, 1, 22, 30, 0, 0, time.UTC),
		DataRecordDuration: fx.RecordDuration,
		SignalCount:        len(fx.Signals),
		Signals:            make([]edf.SignalHeader, len(fx.Signals)),
	}
	for i, s := range fx.Signals {
		hdr.Signals[i] = edf.SignalHeader{
			Label:             s.Label,
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: s.Unit,
			PhysicalMin:       s.PhysicalMin,
			PhysicalMax:       s.PhysicalMax,
			DigitalMin:        -32768,
			DigitalMax:        32767,
			SamplesPerRecord:  s.SamplesPerRecord,
		}
	}

	w, err := edf.Create(f, hdr)
	if err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([][]float64, len(fx.Signals))
	for i, s := range fx.Signals {
		record[i] = make([]float64, s.SamplesPerRecord)
	}

	for r := 0; r < fx.Records; r++ {
		for i, s := range fx.Signals {
			for j := range record[i] {
				record[i][j] = s.Value(r*s.SamplesPerRecord + j)
			}
		}
		if err := w.WriteRecord(record); err != nil {
			return fmt.Errorf("writing record %d: %w", r, err)
		}
	}

	return w.Close()
}

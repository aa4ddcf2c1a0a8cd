package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/RyanBlaney/edf2cfs/pkg/cfs"
	"github.com/RyanBlaney/edf2cfs/pkg/recording"
	"github.com/spf13/afero"
)

// ListChannels prints the channel table of an EDF recording
func ListChannels(fs afero.Fs, path string, w io.Writer) error {
	rec, err := recording.NewOpener(fs, recording.Options{}).Open(path)
	if err != nil {
		return err
	}
	defer rec.Close()

	fmt.Fprintf(w, "%s: %d records of %g s\n", path, rec.Records(), rec.RecordDuration())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLABEL\tUNIT\tRATE (Hz)\tSAMPLES")
	for _, ch := range rec.Channels() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%d\n", ch.Index+1, ch.Label, ch.Unit, ch.SampleRate, ch.SampleCount)
	}
	return tw.Flush()
}

// VerifyReport describes a decoded CFS file
type VerifyReport struct {
	Path           string `json:"path" yaml:"path"`
	Version        int    `json:"version" yaml:"version"`
	Width          int    `json:"width" yaml:"width"`
	Height         int    `json:"height" yaml:"height"`
	Channels       int    `json:"channels" yaml:"channels"`
	Epochs         int    `json:"epochs" yaml:"epochs"`
	Digest         string `json:"sha1" yaml:"sha1"`
	CompressedSize int    `json:"compressed_bytes" yaml:"compressed_bytes"`
	Values         int    `json:"values" yaml:"values"`
}

// VerifyFile decodes a CFS file, checking its header, payload length and
// digest.
func VerifyFile(fs afero.Fs, path string) (*VerifyReport, error) {
	decoded, err := cfs.DecodeFile(fs, path)
	if err != nil {
		return nil, err
	}
	h := decoded.Header
	return &VerifyReport{
		Path:           path,
		Version:        int(h.Version),
		Width:          int(h.Width),
		Height:         int(h.Height),
		Channels:       int(h.Channels),
		Epochs:         int(h.Epochs),
		Digest:         decoded.Digest,
		CompressedSize: decoded.CompressedSize,
		Values:         len(decoded.Values),
	}, nil
}

// String renders the report for the console
func (r *VerifyReport) String() string {
	return fmt.Sprintf("%s: OK\n  version %d, %dx%d x %d channels, %d epochs\n  sha1 %s, %d compressed bytes, %d values\n",
		r.Path, r.Version, r.Width, r.Height, r.Channels, r.Epochs, r.Digest, r.CompressedSize, r.Values)
}

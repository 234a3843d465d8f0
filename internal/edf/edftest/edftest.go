// Package edftest synthesizes small EDF files for tests.
package edftest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neuroscan/eegcorpus/internal/edf"
)

// Options controls the synthesized file. Zero values get test-friendly
// defaults.
type Options struct {
	Patient          string
	Recording        string
	StartDate        string // dd.mm.yy
	StartTime        string // hh.mm.ss
	Labels           []string
	SamplesPerRecord int
	NumRecords       int
}

func (o *Options) fill() {
	if o.Patient == "" {
		o.Patient = "X X X Age:34 M"
	}
	if o.Recording == "" {
		o.Recording = "Startdate 02-MAR-2015"
	}
	if o.StartDate == "" {
		o.StartDate = "02.03.15"
	}
	if o.StartTime == "" {
		o.StartTime = "10.30.00"
	}
	if len(o.Labels) == 0 {
		o.Labels = []string{"EEG FP1-REF", "EEG FP2-REF", "EEG CZ-REF", "EKG1"}
	}
	if o.SamplesPerRecord == 0 {
		o.SamplesPerRecord = 4
	}
	if o.NumRecords == 0 {
		o.NumRecords = 2
	}
}

// Header builds an in-memory header matching opts.
func Header(opts Options) *edf.Header {
	opts.fill()
	h := &edf.Header{
		Version:        "0",
		Patient:        opts.Patient,
		Recording:      opts.Recording,
		StartDate:      opts.StartDate,
		StartTime:      opts.StartTime,
		NumRecords:     opts.NumRecords,
		RecordDuration: "1",
	}
	for _, label := range opts.Labels {
		h.Signals = append(h.Signals, edf.Signal{
			Label:            label,
			PhysicalDim:      "uV",
			PhysicalMin:      "-100",
			PhysicalMax:      "100",
			DigitalMin:       "-2048",
			DigitalMax:       "2047",
			SamplesPerRecord: opts.SamplesPerRecord,
		})
	}
	return h
}

// Encode renders a complete EDF byte stream: header plus a payload where every
// sample byte of signal i in every record is the value i+1, so channel
// subsetting can be asserted byte-for-byte.
func Encode(opts Options) []byte {
	opts.fill()
	h := Header(opts)

	var buf bytes.Buffer
	buf.Write(h.Marshal())
	for rec := 0; rec < opts.NumRecords; rec++ {
		for i := range h.Signals {
			for b := 0; b < opts.SamplesPerRecord*2; b++ {
				buf.WriteByte(byte(i + 1))
			}
		}
	}
	return buf.Bytes()
}

// WriteFile writes a synthesized EDF file at path, creating parent
// directories.
func WriteFile(t *testing.T, path string, opts Options) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, Encode(opts), 0o644))
}

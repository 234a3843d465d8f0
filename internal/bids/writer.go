package bids

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neuroscan/eegcorpus/internal/convert"
	"github.com/neuroscan/eegcorpus/internal/edf"
)

// Writer persists normalized recordings into a BIDS-style hierarchy:
//
//	<root>/sub-<participant>/ses-<session>/eeg/<base>_eeg.edf
//
// plus a JSON sidecar and a channels table. Writes are overwrite-idempotent:
// re-converting a recording replaces its prior artifact without accumulating
// duplicates.
type Writer struct {
	root string
}

// NewWriter creates a Writer rooted at root.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// Path returns the primary artifact path for an identity, run included. It is
// a pure function of the identity: two distinct canonical identities can never
// share a path, and two runs of one session claim distinct paths.
func (w *Writer) Path(id convert.CanonicalIdentity) string {
	return filepath.Join(w.dir(id), baseName(id)+"_eeg.edf")
}

// dir returns the artifact directory for an identity. Runs of one session
// share it; their file names keep them apart.
func (w *Writer) dir(id convert.CanonicalIdentity) string {
	return filepath.Join(w.root,
		"sub-"+id.ParticipantID,
		fmt.Sprintf("ses-%03d", id.SessionID),
		"eeg")
}

func baseName(id convert.CanonicalIdentity) string {
	return fmt.Sprintf("sub-%s_ses-%03d_task-rest_run-%03d", id.ParticipantID, id.SessionID, id.SegmentID)
}

// Write materializes the normalized artifact. The EDF payload is copied
// byte-for-byte for the kept channels; the header is rewritten with canonical
// channel names. Any failure is reported to the caller, never swallowed.
func (w *Writer) Write(ctx context.Context, rec *convert.Recording, id convert.CanonicalIdentity, format string) error {
	if format != "edf" {
		return fmt.Errorf("unsupported artifact format %q", format)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := w.dir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := w.writeEDF(dir, rec, id); err != nil {
		return err
	}
	if err := w.writeSidecar(dir, rec, id); err != nil {
		return err
	}
	return w.writeChannels(dir, rec, id)
}

func (w *Writer) writeEDF(dir string, rec *convert.Recording, id convert.CanonicalIdentity) error {
	sub, err := rec.Header.Select(rec.Keep)
	if err != nil {
		return err
	}
	for i := range sub.Signals {
		sub.Signals[i].Label = rec.Channels[i]
	}

	src, err := os.Open(rec.SourcePath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	if _, err := src.Seek(int64(rec.Header.HeaderBytes()), 0); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eeg-*.edf")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(sub.Marshal()); err != nil {
		return err
	}
	if err := edf.CopyRecords(tmp, src, rec.Header, rec.Keep); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, baseName(id)+"_eeg.edf"))
}

// sidecar is the JSON metadata written next to each artifact.
type sidecar struct {
	TaskName          string `json:"TaskName"`
	EEGReference      string `json:"EEGReference"`
	EEGChannelCount   int    `json:"EEGChannelCount"`
	RecordingType     string `json:"RecordingType"`
	BirthDateShifted  string `json:"BirthDateShifted"`
	BirthDateComputed bool   `json:"BirthDateIsSurrogate"`
	Pathological      bool   `json:"Pathological"`
	TrainSplit        bool   `json:"TrainSplit"`
	Sex               string `json:"Sex"`
	SourceFile        string `json:"SourceFile"`
}

func (w *Writer) writeSidecar(dir string, rec *convert.Recording, id convert.CanonicalIdentity) error {
	data, err := json.MarshalIndent(sidecar{
		TaskName:          "rest",
		EEGReference:      rec.Reference.Description(),
		EEGChannelCount:   len(rec.Channels),
		RecordingType:     "continuous",
		BirthDateShifted:  id.BirthSurrogate.Format("2006-01-02"),
		BirthDateComputed: true,
		Pathological:      id.Pathological,
		TrainSplit:        id.TrainSplit,
		Sex:               id.Sex,
		SourceFile:        filepath.Base(rec.SourcePath),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, baseName(id)+"_eeg.json"), append(data, '\n'), 0o644)
}

func (w *Writer) writeChannels(dir string, rec *convert.Recording, id convert.CanonicalIdentity) error {
	var b []byte
	b = append(b, "name\ttype\tstatus\n"...)
	for _, ch := range rec.Channels {
		b = append(b, (ch + "\tEEG\tgood\n")...)
	}
	return os.WriteFile(filepath.Join(dir, baseName(id)+"_channels.tsv"), b, 0o644)
}

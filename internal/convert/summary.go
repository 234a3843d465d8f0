package convert

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SummaryFile is the name of the flat summary table at the converted corpus
// root.
const SummaryFile = "recordings.tsv"

var summaryColumns = []string{
	"participant_id",
	"session_id",
	"segment_id",
	"birth_surrogate",
	"sex",
	"train_split",
	"pathological",
	"measurement_timestamp",
	"original_session",
}

// WriteSummary persists the conversion summary as a tab-separated table under
// root. It is written once, after all per-recording tasks complete, and holds
// exactly one row per successfully converted recording. The write is
// atomic-by-rename so a crashed run never leaves a half-written table.
func WriteSummary(root string, summary *Summary) (string, error) {
	path := filepath.Join(root, SummaryFile)
	tmp, err := os.CreateTemp(root, ".recordings-*.tsv")
	if err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	w.Comma = '\t'

	if err := w.Write(summaryColumns); err != nil {
		return "", err
	}
	for _, r := range summary.Results {
		row := []string{
			r.Identity.ParticipantID,
			strconv.Itoa(r.Identity.SessionID),
			strconv.Itoa(r.Identity.SegmentID),
			r.Identity.BirthSurrogate.Format("2006-01-02"),
			r.Identity.Sex,
			strconv.FormatBool(r.Identity.TrainSplit),
			strconv.FormatBool(r.Identity.Pathological),
			r.MeasurementTime.Format(time.RFC3339),
			strconv.Itoa(r.OriginalSession),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish summary: %w", err)
	}
	return path, nil
}

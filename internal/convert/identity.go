package convert

import (
	"errors"
	"fmt"
	"time"

	"github.com/neuroscan/eegcorpus/internal/descriptor"
	"github.com/neuroscan/eegcorpus/internal/index"
)

// ErrMissingRequiredLabel is returned when a recording's path carried no
// data-split or pathology token. Both labels are mandatory on every canonical
// identity; absence is a validation failure, never a default.
var ErrMissingRequiredLabel = errors.New("missing required label")

// CanonicalIdentity is the validated, reindexed identity of one converted
// recording.
type CanonicalIdentity struct {
	ParticipantID string
	SessionID     int
	SegmentID     int

	// BirthSurrogate is a synthesized date chosen so that
	// recordedDate - BirthSurrogate reproduces the subject's integer age.
	// It is an approximation by construction, not a real birth date.
	BirthSurrogate time.Time
	Sex            string
	TrainSplit     bool
	Pathological   bool
}

// NewCanonicalIdentity assembles and validates the canonical identity for one
// reindexed recording. Field assembly is explicit: every required label must
// be present, and partial identities are rejected rather than merged.
func NewCanonicalIdentity(a index.Assigned) (CanonicalIdentity, error) {
	var id CanonicalIdentity

	switch a.Split {
	case descriptor.SplitTrain:
		id.TrainSplit = true
	case descriptor.SplitEval:
		id.TrainSplit = false
	default:
		return id, fmt.Errorf("%w: no data-split token for %s", ErrMissingRequiredLabel, a.Path)
	}

	switch a.Pathology {
	case descriptor.PathologyNormal:
		id.Pathological = false
	case descriptor.PathologyAbnormal:
		id.Pathological = true
	default:
		return id, fmt.Errorf("%w: no pathology token for %s", ErrMissingRequiredLabel, a.Path)
	}

	if a.AgeYears < 0 {
		return id, fmt.Errorf("no age token in header for %s", a.Path)
	}

	id.ParticipantID = a.ParticipantID
	id.SessionID = a.SessionID
	id.SegmentID = a.SegmentID
	id.Sex = a.Sex
	id.BirthSurrogate = BirthSurrogate(a.RecordedYear, a.RecordedMonth, a.AgeYears)
	return id, nil
}

// BirthSurrogate synthesizes a birth date four weeks before the first of the
// recording month in (recordedYear - age). The offset keeps the downstream
// age computation (recordedDate - birthSurrogate) equal to the original
// integer age for any recording day in the month.
func BirthSurrogate(recordedYear, recordedMonth, ageYears int) time.Time {
	firstOfMonth := time.Date(recordedYear-ageYears, time.Month(recordedMonth), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 0, -28)
}

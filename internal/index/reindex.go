package index

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/neuroscan/eegcorpus/internal/descriptor"
)

// ErrSplitMergeNotImplemented is returned when segment concatenation is
// requested but a (subject, session) group holds more than one physical file.
// Merging signal data across files is out of scope and must never be
// approximated by picking one segment.
var ErrSplitMergeNotImplemented = errors.New("split-file merge not implemented")

// ReindexOptions configures canonical identity assignment.
type ReindexOptions struct {
	// ConcatSegments collapses each (subject, session) group to the single
	// canonical segment id 0. Requires every group to hold exactly one
	// physical segment.
	ConcatSegments bool
}

// Assigned pairs a descriptor with its canonical corpus identity.
type Assigned struct {
	descriptor.Descriptor

	ParticipantID string // dense zero-padded id, assigned by index order
	SessionID     int    // contiguous per participant, starting at 1
	SegmentID     int    // fixed to 0 under concatenation, else preserved
}

// Reindex assigns canonical identities over the full sorted index.
// Participant ids enumerate distinct raw subject tokens in chronological index
// order; each participant's sessions are renumbered to a gap-free 1-based
// sequence. The index must already be sorted.
func (ix *Index) Reindex(opts ReindexOptions) ([]Assigned, error) {
	if opts.ConcatSegments {
		if err := ix.checkSingleSegmentSessions(); err != nil {
			return nil, err
		}
	}

	// First pass: dense participant numbering by first appearance.
	participants := make(map[string]int)
	for i := range ix.Recordings {
		raw := ix.Recordings[i].SubjectRawID
		if _, ok := participants[raw]; !ok {
			participants[raw] = len(participants) + 1
		}
	}
	width := participantWidth(len(participants))

	// Second pass: per-subject contiguous session ranks. Recordings are
	// sorted, so sessions appear in chronological order per subject.
	type subjectSession struct {
		raw     string
		session int
	}
	sessionRank := make(map[subjectSession]int)
	sessionCount := make(map[string]int)

	out := make([]Assigned, 0, len(ix.Recordings))
	for i := range ix.Recordings {
		rec := ix.Recordings[i]
		key := subjectSession{rec.SubjectRawID, rec.SessionNumber}
		rank, ok := sessionRank[key]
		if !ok {
			sessionCount[rec.SubjectRawID]++
			rank = sessionCount[rec.SubjectRawID]
			sessionRank[key] = rank
		}

		segment := rec.SegmentNumber
		if opts.ConcatSegments {
			segment = 0
		}

		out = append(out, Assigned{
			Descriptor:    rec,
			ParticipantID: fmt.Sprintf("%0*d", width, participants[rec.SubjectRawID]),
			SessionID:     rank,
			SegmentID:     segment,
		})
	}
	return out, nil
}

// checkSingleSegmentSessions enforces the strict precondition for segment
// collapse: exactly one physical segment per (subject, session).
func (ix *Index) checkSingleSegmentSessions() error {
	type subjectSession struct {
		raw     string
		session int
	}
	segments := make(map[subjectSession]int)
	for i := range ix.Recordings {
		rec := &ix.Recordings[i]
		key := subjectSession{rec.SubjectRawID, rec.SessionNumber}
		segments[key]++
		if segments[key] > 1 {
			return fmt.Errorf("%w: subject %s session s%03d has %d segments",
				ErrSplitMergeNotImplemented, rec.SubjectRawID, rec.SessionNumber, segments[key])
		}
	}
	return nil
}

// participantWidth returns the zero-pad width for participant ids: at least 4
// digits, growing with corpus size.
func participantWidth(count int) int {
	width := len(strconv.Itoa(count))
	if width < 4 {
		width = 4
	}
	return width
}

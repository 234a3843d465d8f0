package descriptor

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/neuroscan/eegcorpus/internal/edf"
)

// ErrMalformedIdentity is returned when a filename does not carry a valid
// (subject, session, segment) identity.
var ErrMalformedIdentity = errors.New("malformed recording identity")

// Split is the dataset membership flag encoded as a source path segment.
type Split int

const (
	SplitUnknown Split = iota
	SplitTrain
	SplitEval
)

func (s Split) String() string {
	switch s {
	case SplitTrain:
		return "train"
	case SplitEval:
		return "eval"
	default:
		return "unknown"
	}
}

// Pathology is the clinical-status flag encoded as a source path segment.
type Pathology int

const (
	PathologyUnknown Pathology = iota
	PathologyNormal
	PathologyAbnormal
)

func (p Pathology) String() string {
	switch p {
	case PathologyNormal:
		return "normal"
	case PathologyAbnormal:
		return "abnormal"
	default:
		return "unknown"
	}
}

// Descriptor is the minimal structured metadata for one raw recording,
// extracted from its path and header without loading signal data.
type Descriptor struct {
	Path          string
	FormatVersion string

	RecordedYear  int
	RecordedMonth int
	RecordedDay   int

	SubjectRawID  string // dataset-native token, not globally unique across runs
	SessionNumber int    // as found in the filename
	SegmentNumber int    // as found in the filename

	AgeYears int // -1 when the header carries no age token
	Sex      string

	Split     Split
	Pathology Pathology
}

var (
	agePattern = regexp.MustCompile(`Age:(\d+)`)
	// The sex token follows the age token. Anchoring there keeps the leading
	// anonymization placeholders ("X X X ...") from being read as a sex field.
	sexPattern     = regexp.MustCompile(`Age:\d+\s+([MFX])\b`)
	sessionPattern = regexp.MustCompile(`^s(\d+)$`)
	segmentPattern = regexp.MustCompile(`^t(\d+)$`)
)

// Extract parses one raw file's path and header block into a Descriptor. Only
// the fixed-offset header region is read, never the payload.
func Extract(path string) (*Descriptor, error) {
	subject, session, segment, err := ParseStem(path)
	if err != nil {
		return nil, err
	}

	h, err := edf.ReadHeader(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	start, err := h.StartDateTime()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	d := &Descriptor{
		Path:          path,
		FormatVersion: h.Version,
		RecordedYear:  start.Year(),
		RecordedMonth: int(start.Month()),
		RecordedDay:   start.Day(),
		SubjectRawID:  subject,
		SessionNumber: session,
		SegmentNumber: segment,
		AgeYears:      -1,
	}

	if m := agePattern.FindStringSubmatch(h.Patient); m != nil {
		d.AgeYears, _ = strconv.Atoi(m[1])
	}
	if m := sexPattern.FindStringSubmatch(h.Patient); m != nil {
		d.Sex = m[1]
	}

	d.Split, d.Pathology = pathFlags(path)
	return d, nil
}

// ParseStem splits the filename stem on "_" into the
// (subjectRawID, session, segment) triple. Any other shape is a hard identity
// failure for that file.
func ParseStem(path string) (subject string, session, segment int, err error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(stem, "_")
	if len(parts) != 3 {
		return "", 0, 0, fmt.Errorf("%w: %q has %d tokens, want 3", ErrMalformedIdentity, base, len(parts))
	}
	if parts[0] == "" {
		return "", 0, 0, fmt.Errorf("%w: %q has empty subject token", ErrMalformedIdentity, base)
	}

	m := sessionPattern.FindStringSubmatch(parts[1])
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: %q has invalid session token %q", ErrMalformedIdentity, base, parts[1])
	}
	session, _ = strconv.Atoi(m[1])

	m = segmentPattern.FindStringSubmatch(parts[2])
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: %q has invalid segment token %q", ErrMalformedIdentity, base, parts[2])
	}
	segment, _ = strconv.Atoi(m[1])

	return parts[0], session, segment, nil
}

// pathFlags scans path segments for the data-split and pathology membership
// tokens. Unrecognized corpora leave both flags unknown; downstream identity
// assembly treats unknown as a hard validation failure, never a default.
func pathFlags(path string) (Split, Pathology) {
	split := SplitUnknown
	pathology := PathologyUnknown
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		switch seg {
		case "train":
			split = SplitTrain
		case "eval":
			split = SplitEval
		case "normal":
			pathology = PathologyNormal
		case "abnormal":
			pathology = PathologyAbnormal
		}
	}
	return split, pathology
}

package convert

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUnknownReferenceScheme is returned when the _tcp_ token in a path is
	// not a recognized electrode-reference convention.
	ErrUnknownReferenceScheme = errors.New("unknown reference scheme")
	// ErrAmbiguousReferenceScheme is returned when a path carries more than
	// one _tcp_ token.
	ErrAmbiguousReferenceScheme = errors.New("ambiguous reference scheme")
)

// RefScheme identifies the electrode-reference convention a recording was
// acquired under.
type RefScheme string

const (
	// RefAverage is the common average reference (tcp_ar).
	RefAverage RefScheme = "ar"
	// RefLinkedEars is the linked-ears reference (tcp_le).
	RefLinkedEars RefScheme = "le"
	// RefAverageReduced is the average reference over the reduced electrode
	// set (tcp_ar_a).
	RefAverageReduced RefScheme = "ar_a"
)

// Description returns the human-readable convention name.
func (r RefScheme) Description() string {
	switch r {
	case RefAverage:
		return "common average reference"
	case RefLinkedEars:
		return "linked-ears reference"
	case RefAverageReduced:
		return "average reference, reduced electrode set"
	default:
		return "unknown"
	}
}

var refPattern = regexp.MustCompile(`_tcp_([a-z]+(?:_a)?)`)

// ReferenceScheme extracts the electrode-reference token from a recording
// path. Exactly one token must be present and it must be recognized; anything
// else is a hard per-recording failure.
func ReferenceScheme(path string) (RefScheme, error) {
	matches := refPattern.FindAllStringSubmatch(path, -1)
	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("%w: no _tcp_ token in %q", ErrUnknownReferenceScheme, path)
	case len(matches) > 1:
		return "", fmt.Errorf("%w: %d _tcp_ tokens in %q", ErrAmbiguousReferenceScheme, len(matches), path)
	}

	switch token := RefScheme(matches[0][1]); token {
	case RefAverage, RefLinkedEars, RefAverageReduced:
		return token, nil
	default:
		return "", fmt.Errorf("%w: %q in %q", ErrUnknownReferenceScheme, matches[0][1], path)
	}
}

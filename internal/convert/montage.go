package convert

import (
	"errors"
	"fmt"
)

// ErrNoMontageOverlap is returned when a recording shares no channels with
// the reference montage.
var ErrNoMontageOverlap = errors.New("no overlap with reference montage")

// montage1020 is the fixed reference montage: the 10-20 electrode set with
// the legacy temporal names this corpus family uses, plus the ear electrodes.
var montage1020 = map[string]struct{}{
	"A1": {}, "A2": {},
	"C3": {}, "C4": {}, "Cz": {},
	"F3": {}, "F4": {}, "F7": {}, "F8": {}, "Fz": {},
	"Fp1": {}, "Fp2": {},
	"O1": {}, "O2": {},
	"P3": {}, "P4": {}, "Pz": {},
	"T3": {}, "T4": {}, "T5": {}, "T6": {},
}

// InMontage reports whether a canonical channel name belongs to the reference
// montage.
func InMontage(name string) bool {
	_, ok := montage1020[name]
	return ok
}

// IntersectMontage filters (indices, names) down to the channels present in
// the reference montage, preserving recording order. Channels outside the
// montage are dropped silently; an empty intersection is a hard failure.
func IntersectMontage(indices []int, names []string) ([]int, []string, error) {
	if len(indices) != len(names) {
		return nil, nil, fmt.Errorf("index/name length mismatch: %d vs %d", len(indices), len(names))
	}

	var keepIdx []int
	var keepNames []string
	for i, name := range names {
		if InMontage(name) {
			keepIdx = append(keepIdx, indices[i])
			keepNames = append(keepNames, name)
		}
	}
	if len(keepIdx) == 0 {
		return nil, nil, fmt.Errorf("%w: channels %v", ErrNoMontageOverlap, names)
	}
	return keepIdx, keepNames, nil
}

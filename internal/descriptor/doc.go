// Package descriptor extracts per-recording identity metadata from raw EEG
// files.
//
// A clinical corpus arrives as an ad-hoc directory tree where identity lives
// in three places: the filename stem (subject_sNNN_tNNN), the EDF header's
// fixed ASCII fields (age, sex, recording date), and opaque path segments
// (train/eval membership, normal/abnormal labeling). Extract reads all three
// into one Descriptor without touching signal data, so a full-corpus scan
// stays metadata-cheap.
//
// Malformed filenames are surfaced as ErrMalformedIdentity; callers decide
// whether one bad file aborts the scan (it should not).
package descriptor

package convert

import (
	"errors"
	"strings"
)

// ErrNoSignalChannels is returned when a recording contains no
// electrophysiological channels at all.
var ErrNoSignalChannels = errors.New("no electrophysiological channels")

// nonEEGNames are auxiliary channel names that must pass through
// normalization unmodified, regardless of casing.
var nonEEGNames = map[string]struct{}{
	"BURSTS": {},
	"EKG1":   {},
	"EMG":    {},
	"IBI":    {},
	"PHOTIC": {},
	"PULSE":  {},
	"SUPPR":  {},
}

// IsSignalLabel reports whether a raw header label denotes an
// electrophysiological channel.
func IsSignalLabel(label string) bool {
	return strings.HasPrefix(label, "EEG ")
}

// NormalizeChannelName maps a raw header label to its canonical montage name:
// the "EEG " prefix and "-REF"/"-LE" reference suffixes are stripped, midline
// "Z" codes become lowercase z, and the frontal-polar "FP" prefix becomes
// "Fp". Names on the non-EEG exclusion list are returned unchanged. The
// mapping is idempotent: a canonical name maps to itself.
func NormalizeChannelName(name string) string {
	n := strings.TrimPrefix(name, "EEG ")
	n = strings.TrimSuffix(n, "-REF")
	n = strings.TrimSuffix(n, "-LE")
	n = strings.TrimSpace(n)

	if _, excluded := nonEEGNames[strings.ToUpper(n)]; excluded {
		return name
	}

	n = strings.ReplaceAll(n, "Z", "z")
	if strings.HasPrefix(n, "FP") {
		n = "Fp" + n[2:]
	}
	return n
}

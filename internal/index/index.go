package index

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/neuroscan/eegcorpus/internal/descriptor"
	"github.com/neuroscan/eegcorpus/internal/dispatch"
)

// Index is the chronologically ordered collection of recording descriptors.
// Order is total and deterministic: it defines recording precedence and is the
// basis for canonical subject/session numbering.
type Index struct {
	Recordings []descriptor.Descriptor
}

// BuildOptions configures a corpus scan.
type BuildOptions struct {
	Workers int // extraction parallelism (default: pool default)
}

// FileError attributes one extraction failure to its source file.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e FileError) Unwrap() error { return e.Err }

// BuildStats summarizes a corpus scan.
type BuildStats struct {
	Scanned   int
	Extracted int
	Failed    int
	Failures  []FileError
	Duration  time.Duration
}

// Build scans root for raw recordings, extracts descriptors in parallel on
// pool, and returns the sorted index. A file that fails extraction is recorded
// in stats and excluded from the index; it never aborts the scan. Duplicate
// identity keys are a hard failure: the indexer refuses to pick a winner.
func Build(ctx context.Context, pool *dispatch.Pool, root string, opts *BuildOptions) (*Index, *BuildStats, error) {
	if opts == nil {
		opts = &BuildOptions{}
	}
	start := time.Now()

	files, err := discover(root)
	if err != nil {
		return nil, nil, fmt.Errorf("discover recordings: %w", err)
	}

	stats := &BuildStats{Scanned: len(files)}

	// Extraction is embarrassingly parallel; completion order is irrelevant
	// because the index is re-sorted below.
	descs, errs, err := dispatch.MapCollect(ctx, pool, files,
		func(ctx context.Context, path string) (*descriptor.Descriptor, error) {
			return descriptor.Extract(path)
		})
	if err != nil {
		return nil, nil, err
	}

	ix := &Index{Recordings: make([]descriptor.Descriptor, 0, len(files))}
	for i, d := range descs {
		if errs[i] != nil {
			stats.Failed++
			stats.Failures = append(stats.Failures, FileError{Path: files[i], Err: errs[i]})
			continue
		}
		ix.Recordings = append(ix.Recordings, *d)
	}
	stats.Extracted = len(ix.Recordings)

	// The sort itself is single-threaded: it needs the complete collection.
	// discover returned files in lexical path order and extraction results
	// kept input positions, so the stable sort breaks full-key ties by
	// original filename order.
	ix.Sort()

	if err := ix.checkUniqueKeys(); err != nil {
		return nil, nil, err
	}

	stats.Duration = time.Since(start)
	return ix, stats, nil
}

// discover walks root and returns all .edf paths in lexical order, skipping
// hidden directories.
func discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".edf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Sort orders recordings ascending by
// (subjectRawID, session, segment, year, month, day). The sort is stable, so
// re-sorting an already sorted index is a no-op and ties keep their prior
// relative order.
func (ix *Index) Sort() {
	sort.SliceStable(ix.Recordings, func(i, j int) bool {
		return chronoLess(&ix.Recordings[i], &ix.Recordings[j])
	})
}

func chronoLess(a, b *descriptor.Descriptor) bool {
	if a.SubjectRawID != b.SubjectRawID {
		return a.SubjectRawID < b.SubjectRawID
	}
	if a.SessionNumber != b.SessionNumber {
		return a.SessionNumber < b.SessionNumber
	}
	if a.SegmentNumber != b.SegmentNumber {
		return a.SegmentNumber < b.SegmentNumber
	}
	if a.RecordedYear != b.RecordedYear {
		return a.RecordedYear < b.RecordedYear
	}
	if a.RecordedMonth != b.RecordedMonth {
		return a.RecordedMonth < b.RecordedMonth
	}
	return a.RecordedDay < b.RecordedDay
}

// checkUniqueKeys verifies the (subject, session, segment) triple is unique.
// Two files claiming the same identity would otherwise be resolved by an
// implicit last-write-wins, which is exactly the failure mode this guards
// against.
func (ix *Index) checkUniqueKeys() error {
	for i := 1; i < len(ix.Recordings); i++ {
		a, b := &ix.Recordings[i-1], &ix.Recordings[i]
		if a.SubjectRawID == b.SubjectRawID &&
			a.SessionNumber == b.SessionNumber &&
			a.SegmentNumber == b.SegmentNumber {
			return fmt.Errorf("%w: %s and %s share identity (%s, s%03d, t%03d)",
				descriptor.ErrMalformedIdentity, a.Path, b.Path,
				a.SubjectRawID, a.SessionNumber, a.SegmentNumber)
		}
	}
	return nil
}

// Subset restricts the index to the given positions. Positions refer to the
// sorted index and may be given in any order; the subset keeps chronological
// order regardless. Subsetting must happen before any expensive per-recording
// work, which is why it operates on positions rather than identities.
func (ix *Index) Subset(positions []int) (*Index, error) {
	seen := make(map[int]bool, len(positions))
	sorted := make([]int, 0, len(positions))
	for _, pos := range positions {
		if pos < 0 || pos >= len(ix.Recordings) {
			return nil, fmt.Errorf("subset position %d out of range (%d recordings)", pos, len(ix.Recordings))
		}
		if !seen[pos] {
			seen[pos] = true
			sorted = append(sorted, pos)
		}
	}
	sort.Ints(sorted)

	out := &Index{Recordings: make([]descriptor.Descriptor, 0, len(sorted))}
	for _, pos := range sorted {
		out.Recordings = append(out.Recordings, ix.Recordings[pos])
	}
	return out, nil
}

package convert

import (
	"context"
	"fmt"
	"time"

	"github.com/neuroscan/eegcorpus/internal/dispatch"
	"github.com/neuroscan/eegcorpus/internal/edf"
	"github.com/neuroscan/eegcorpus/internal/index"
)

// Recording is a normalized view of one raw recording, ready for the artifact
// writer: the original header, the kept signal indices, and their canonical
// channel names.
type Recording struct {
	SourcePath string
	Header     *edf.Header
	Keep       []int    // indices into Header.Signals, recording order
	Channels   []string // canonical names, parallel to Keep
	Reference  RefScheme
}

// Writer is the standardized-format collaborator. Path must return the
// primary artifact path as a pure function of the full identity, run
// included, so the converter can enforce the no-collision invariant before
// writing; Write replaces any prior artifact at that path.
type Writer interface {
	Path(id CanonicalIdentity) string
	Write(ctx context.Context, rec *Recording, id CanonicalIdentity, format string) error
}

// Result is one summary row for a successfully converted recording.
type Result struct {
	Identity        CanonicalIdentity
	MeasurementTime time.Time
	OriginalSession int // pre-reindex session number, for traceability
	SourcePath      string
}

// Failure attributes one per-recording conversion failure.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Path, f.Err) }

func (f Failure) Unwrap() error { return f.Err }

// Summary is the outcome of a corpus conversion. Results holds one row per
// successfully converted recording; attempted-but-failed recordings appear
// only in Failures.
type Summary struct {
	Results  []Result
	Failures []Failure
	Duration time.Duration
}

// Converter turns raw recordings into standardized artifacts with canonical
// identities.
type Converter struct {
	writer Writer
	format string
	lock   runLock
}

// New creates a Converter writing artifacts in the given format tag through w.
func New(w Writer, format string) *Converter {
	if format == "" {
		format = "edf"
	}
	return &Converter{writer: w, format: format}
}

// Convert transforms one reindexed recording. The transform is idempotent:
// re-running it for the same recording replaces the prior artifact at the
// same derived path.
func (c *Converter) Convert(ctx context.Context, a index.Assigned) (*Result, error) {
	rec, id, err := c.prepare(a)
	if err != nil {
		return nil, err
	}
	return c.write(ctx, a, rec, id, nil)
}

// prepare derives the normalized recording view and canonical identity
// without touching the output tree.
func (c *Converter) prepare(a index.Assigned) (*Recording, CanonicalIdentity, error) {
	var id CanonicalIdentity

	h, err := edf.ReadHeader(a.Path)
	if err != nil {
		return nil, id, err
	}

	// Electrophysiological restriction.
	var eegIdx []int
	var names []string
	for i, s := range h.Signals {
		if IsSignalLabel(s.Label) {
			eegIdx = append(eegIdx, i)
			names = append(names, NormalizeChannelName(s.Label))
		}
	}
	if len(eegIdx) == 0 {
		return nil, id, fmt.Errorf("%w in %s", ErrNoSignalChannels, a.Path)
	}

	scheme, err := ReferenceScheme(a.Path)
	if err != nil {
		return nil, id, err
	}

	keep, channels, err := IntersectMontage(eegIdx, names)
	if err != nil {
		return nil, id, err
	}

	id, err = NewCanonicalIdentity(a)
	if err != nil {
		return nil, id, err
	}

	rec := &Recording{
		SourcePath: a.Path,
		Header:     h,
		Keep:       keep,
		Channels:   channels,
		Reference:  scheme,
	}
	return rec, id, nil
}

// write claims the derived path (when a claims registry is in play) and hands
// the recording to the collaborator writer. A write-time failure propagates as
// a hard per-recording failure.
func (c *Converter) write(ctx context.Context, a index.Assigned, rec *Recording, id CanonicalIdentity, claims *dispatch.PathClaims) (*Result, error) {
	if claims != nil {
		if err := claims.Claim(a.Path, c.writer.Path(id)); err != nil {
			return nil, err
		}
	}

	if err := c.writer.Write(ctx, rec, id, c.format); err != nil {
		return nil, fmt.Errorf("write artifact for %s: %w", a.Path, err)
	}

	measured, err := rec.Header.StartDateTime()
	if err != nil {
		return nil, err
	}

	return &Result{
		Identity:        id,
		MeasurementTime: measured,
		OriginalSession: a.SessionNumber,
		SourcePath:      a.Path,
	}, nil
}

// ConvertAll dispatches one conversion task per recording and collects the
// corpus summary. Per-recording failures are isolated: a failing recording is
// reported in the summary and never aborts its siblings. Only one ConvertAll
// may run per Converter at a time.
func (c *Converter) ConvertAll(ctx context.Context, pool *dispatch.Pool, assigned []index.Assigned) (*Summary, error) {
	if !c.lock.tryAcquire() {
		return nil, ErrConversionInProgress
	}
	defer c.lock.release()

	start := time.Now()
	claims := dispatch.NewPathClaims()

	results, errs, err := dispatch.MapCollect(ctx, pool, assigned,
		func(ctx context.Context, a index.Assigned) (*Result, error) {
			rec, id, err := c.prepare(a)
			if err != nil {
				return nil, err
			}
			return c.write(ctx, a, rec, id, claims)
		})
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for i, r := range results {
		if errs[i] != nil {
			summary.Failures = append(summary.Failures, Failure{Path: assigned[i].Path, Err: errs[i]})
			continue
		}
		summary.Results = append(summary.Results, *r)
	}
	summary.Duration = time.Since(start)
	return summary, nil
}

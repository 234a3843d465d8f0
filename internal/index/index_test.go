package index_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscan/eegcorpus/internal/descriptor"
	"github.com/neuroscan/eegcorpus/internal/dispatch"
	"github.com/neuroscan/eegcorpus/internal/edf/edftest"
	"github.com/neuroscan/eegcorpus/internal/index"
)

func writeCorpus(t *testing.T, root string, files map[string]edftest.Options) {
	t.Helper()
	for rel, opts := range files {
		edftest.WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), opts)
	}
}

func buildIndex(t *testing.T, root string) (*index.Index, *index.BuildStats) {
	t.Helper()
	ix, stats, err := index.Build(context.Background(), dispatch.NewPool(4), root, nil)
	require.NoError(t, err)
	return ix, stats
}

func TestBuildSortsChronologically(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]edftest.Options{
		"train/normal/01_tcp_ar/bbb_s001_t000.edf":   {StartDate: "05.06.14"},
		"train/normal/01_tcp_ar/aaa_s002_t000.edf":   {StartDate: "01.01.16"},
		"train/abnormal/01_tcp_ar/aaa_s001_t000.edf": {StartDate: "01.01.15"},
		"train/normal/01_tcp_ar/aaa_s002_t001.edf":   {StartDate: "01.01.16"},
	})

	ix, stats := buildIndex(t, root)
	require.Len(t, ix.Recordings, 4)
	assert.Equal(t, 4, stats.Scanned)
	assert.Equal(t, 4, stats.Extracted)
	assert.Zero(t, stats.Failed)

	var keys [][3]interface{}
	for _, r := range ix.Recordings {
		keys = append(keys, [3]interface{}{r.SubjectRawID, r.SessionNumber, r.SegmentNumber})
	}
	assert.Equal(t, [][3]interface{}{
		{"aaa", 1, 0},
		{"aaa", 2, 0},
		{"aaa", 2, 1},
		{"bbb", 1, 0},
	}, keys)
}

func TestSortIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]edftest.Options{
		"train/normal/01_tcp_ar/ccc_s001_t000.edf": {},
		"train/normal/01_tcp_ar/aaa_s003_t000.edf": {},
		"train/normal/01_tcp_ar/aaa_s001_t000.edf": {},
		"train/normal/01_tcp_ar/bbb_s002_t000.edf": {},
	})

	ix, _ := buildIndex(t, root)
	before := append([]descriptor.Descriptor(nil), ix.Recordings...)
	ix.Sort()
	assert.Equal(t, before, ix.Recordings, "re-sorting a sorted index must not change order")
}

func TestBuildSurfacesMalformedFilenames(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]edftest.Options{
		"train/normal/01_tcp_ar/aaa_s001_t000.edf": {},
		"train/normal/01_tcp_ar/badname.edf":       {},
	})

	ix, stats := buildIndex(t, root)

	// The bad file is surfaced, not silently skipped, and the scan continues.
	require.Len(t, ix.Recordings, 1)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, stats.Failures, 1)
	assert.Contains(t, stats.Failures[0].Path, "badname.edf")
	assert.ErrorIs(t, stats.Failures[0], descriptor.ErrMalformedIdentity)
}

func TestBuildRejectsDuplicateIdentity(t *testing.T) {
	root := t.TempDir()
	// Same identity triple in two locations: no implicit last-write-wins.
	writeCorpus(t, root, map[string]edftest.Options{
		"train/normal/01_tcp_ar/aaa_s001_t000.edf":   {StartDate: "01.01.15"},
		"train/abnormal/01_tcp_ar/aaa_s001_t000.edf": {StartDate: "02.01.15"},
	})

	_, _, err := index.Build(context.Background(), dispatch.NewPool(2), root, nil)
	assert.ErrorIs(t, err, descriptor.ErrMalformedIdentity)
}

func TestSubsetAfterSortKeepsOrder(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]edftest.Options{
		"train/normal/01_tcp_ar/aaa_s001_t000.edf": {},
		"train/normal/01_tcp_ar/bbb_s001_t000.edf": {},
		"train/normal/01_tcp_ar/ccc_s001_t000.edf": {},
		"train/normal/01_tcp_ar/ddd_s001_t000.edf": {},
	})

	ix, _ := buildIndex(t, root)

	// Positions given out of order; chronological order survives.
	sub, err := ix.Subset([]int{3, 0, 2})
	require.NoError(t, err)
	require.Len(t, sub.Recordings, 3)
	assert.Equal(t, "aaa", sub.Recordings[0].SubjectRawID)
	assert.Equal(t, "ccc", sub.Recordings[1].SubjectRawID)
	assert.Equal(t, "ddd", sub.Recordings[2].SubjectRawID)

	_, err = ix.Subset([]int{99})
	assert.Error(t, err)
}

func TestBuildEmptyCorpus(t *testing.T) {
	ix, stats := buildIndex(t, t.TempDir())
	assert.Empty(t, ix.Recordings)
	assert.Zero(t, stats.Scanned)
}

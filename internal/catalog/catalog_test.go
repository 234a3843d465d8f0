package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroscan/eegcorpus/internal/convert"
	"github.com/neuroscan/eegcorpus/internal/descriptor"
	"github.com/neuroscan/eegcorpus/internal/index"
)

func testAssigned(path, subject, participant string, session int) index.Assigned {
	return index.Assigned{
		Descriptor: descriptor.Descriptor{
			Path:          path,
			RecordedYear:  2012,
			RecordedMonth: 3,
			RecordedDay:   14,
			SubjectRawID:  subject,
			SessionNumber: session,
			SegmentNumber: 0,
			AgeYears:      34,
			Sex:           "M",
			Split:         descriptor.SplitTrain,
			Pathology:     descriptor.PathologyNormal,
		},
		ParticipantID: participant,
		SessionID:     session,
		SegmentID:     0,
	}
}

func TestSaveIndex_CreatesCorpus(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	assigned := []index.Assigned{
		testAssigned("train/normal/aaaaaaaa_s001_t000.edf", "aaaaaaaa", "0001", 1),
		testAssigned("train/normal/aaaaaaaa_s002_t000.edf", "aaaaaaaa", "0001", 2),
		testAssigned("train/normal/bbbbbbbb_s001_t000.edf", "bbbbbbbb", "0002", 1),
	}

	corpus, err := SaveIndex(ctx, store, "/data/raw", assigned)
	require.NoError(t, err)
	assert.Greater(t, corpus.ID, int64(0))
	assert.Equal(t, 3, corpus.TotalRecordings)
	assert.Equal(t, 2, corpus.Participants)
	assert.False(t, corpus.LastIndexedAt.IsZero())

	recs, err := store.ListRecordings(ctx, corpus.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, rec := range recs {
		assert.Equal(t, StatusIndexed, rec.Status)
	}
	assert.Equal(t, "0001", recs[0].ParticipantID)
	assert.Equal(t, "train", recs[0].Split)
	assert.Equal(t, "normal", recs[0].Pathology)
}

func TestSaveIndex_Reindex(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	first := []index.Assigned{
		testAssigned("train/normal/aaaaaaaa_s001_t000.edf", "aaaaaaaa", "0001", 1),
	}
	corpus, err := SaveIndex(ctx, store, "/data/raw", first)
	require.NoError(t, err)

	// Second index run reuses the corpus row and updates totals
	second := append(first,
		testAssigned("train/normal/bbbbbbbb_s001_t000.edf", "bbbbbbbb", "0002", 1))
	again, err := SaveIndex(ctx, store, "/data/raw", second)
	require.NoError(t, err)
	assert.Equal(t, corpus.ID, again.ID)
	assert.Equal(t, 2, again.TotalRecordings)

	recs, err := store.ListRecordings(ctx, again.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestSaveSummary(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	assigned := []index.Assigned{
		testAssigned("train/normal/aaaaaaaa_s001_t000.edf", "aaaaaaaa", "0001", 1),
		testAssigned("train/normal/bbbbbbbb_s001_t000.edf", "bbbbbbbb", "0002", 1),
	}
	corpus, err := SaveIndex(ctx, store, "/data/raw", assigned)
	require.NoError(t, err)

	summary := &convert.Summary{
		Results: []convert.Result{
			{SourcePath: "train/normal/aaaaaaaa_s001_t000.edf"},
		},
		Failures: []convert.Failure{
			{Path: "train/normal/bbbbbbbb_s001_t000.edf", Err: errors.New("no signal channels")},
		},
	}
	require.NoError(t, SaveSummary(ctx, store, corpus.ID, summary))

	converted, err := store.GetRecording(ctx, corpus.ID, "train/normal/aaaaaaaa_s001_t000.edf")
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, converted.Status)
	assert.Empty(t, converted.FailReason)

	failed, err := store.GetRecording(ctx, corpus.ID, "train/normal/bbbbbbbb_s001_t000.edf")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "no signal channels", failed.FailReason)

	status, err := store.Status(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Converted)
	assert.Equal(t, 1, status.Failed)
}

func TestSaveSummary_UnknownRecording(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	summary := &convert.Summary{
		Results: []convert.Result{{SourcePath: "never_indexed.edf"}},
	}
	err := SaveSummary(ctx, store, corpus.ID, summary)
	assert.ErrorIs(t, err, ErrNotFound)
}

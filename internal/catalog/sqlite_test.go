package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	return store
}

func TestNewSQLiteStorage(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	assert.NotNil(t, store)
	assert.NotNil(t, store.db)
}

func TestClose(t *testing.T) {
	store := setupTestDB(t)
	err := store.Close()
	assert.NoError(t, err)
}

func TestCreateCorpus(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}

	err := store.CreateCorpus(ctx, corpus)
	require.NoError(t, err)
	assert.Greater(t, corpus.ID, int64(0))

	// Try to create duplicate - should fail
	duplicate := &Corpus{RootPath: "/data/raw"}
	err = store.CreateCorpus(ctx, duplicate)
	assert.Error(t, err) // Unique constraint violation
}

func TestGetCorpus(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	err := store.CreateCorpus(ctx, corpus)
	require.NoError(t, err)

	retrieved, err := store.GetCorpus(ctx, "/data/raw")
	require.NoError(t, err)
	assert.Equal(t, corpus.ID, retrieved.ID)
	assert.Equal(t, corpus.RootPath, retrieved.RootPath)
}

func TestGetCorpus_NotFound(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	_, err := store.GetCorpus(context.Background(), "/nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCorpus(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	corpus.TotalRecordings = 42
	corpus.Participants = 7
	corpus.LastIndexedAt = time.Now().UTC()
	require.NoError(t, store.UpdateCorpus(ctx, corpus))

	retrieved, err := store.GetCorpus(ctx, "/data/raw")
	require.NoError(t, err)
	assert.Equal(t, 42, retrieved.TotalRecordings)
	assert.Equal(t, 7, retrieved.Participants)
	assert.False(t, retrieved.LastIndexedAt.IsZero())
}

func TestUpdateCorpus_NotFound(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	err := store.UpdateCorpus(context.Background(), &Corpus{ID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func testRecording(corpusID int64, path string) *Recording {
	return &Recording{
		CorpusID:      corpusID,
		Path:          path,
		SubjectRawID:  "aaaaaaaa",
		SessionNumber: 1,
		SegmentNumber: 0,
		RecordedAt:    time.Date(2012, time.March, 14, 0, 0, 0, 0, time.UTC),
		AgeYears:      34,
		Sex:           "M",
		Split:         "train",
		Pathology:     "normal",
		ParticipantID: "0001",
		SessionID:     1,
		SegmentID:     0,
		Status:        StatusIndexed,
	}
}

func TestUpsertRecording(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	rec := testRecording(corpus.ID, "train/normal/aaaaaaaa_s001_t000.edf")
	require.NoError(t, store.UpsertRecording(ctx, rec))
	assert.Greater(t, rec.ID, int64(0))

	// Upsert on the same path updates in place rather than duplicating
	rec2 := testRecording(corpus.ID, "train/normal/aaaaaaaa_s001_t000.edf")
	rec2.Status = StatusConverted
	require.NoError(t, store.UpsertRecording(ctx, rec2))

	recs, err := store.ListRecordings(ctx, corpus.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusConverted, recs[0].Status)
}

func TestGetRecording(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	rec := testRecording(corpus.ID, "train/normal/aaaaaaaa_s001_t000.edf")
	require.NoError(t, store.UpsertRecording(ctx, rec))

	retrieved, err := store.GetRecording(ctx, corpus.ID, rec.Path)
	require.NoError(t, err)
	assert.Equal(t, rec.SubjectRawID, retrieved.SubjectRawID)
	assert.Equal(t, rec.ParticipantID, retrieved.ParticipantID)
	assert.Equal(t, 34, retrieved.AgeYears)
}

func TestGetRecording_NotFound(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	_, err := store.GetRecording(context.Background(), 1, "missing.edf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecordings_Ordered(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	// Insert out of order
	b := testRecording(corpus.ID, "train/normal/bbbbbbbb_s001_t000.edf")
	b.SubjectRawID = "bbbbbbbb"
	require.NoError(t, store.UpsertRecording(ctx, b))

	a2 := testRecording(corpus.ID, "train/normal/aaaaaaaa_s002_t000.edf")
	a2.SessionNumber = 2
	require.NoError(t, store.UpsertRecording(ctx, a2))

	a1 := testRecording(corpus.ID, "train/normal/aaaaaaaa_s001_t000.edf")
	require.NoError(t, store.UpsertRecording(ctx, a1))

	recs, err := store.ListRecordings(ctx, corpus.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, a1.Path, recs[0].Path)
	assert.Equal(t, a2.Path, recs[1].Path)
	assert.Equal(t, b.Path, recs[2].Path)
}

func TestStatusCounts(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	rows := []struct {
		path    string
		subject string
		session int
		status  string
	}{
		{"train/normal/aaaaaaaa_s001_t000.edf", "aaaaaaaa", 1, StatusConverted},
		{"train/normal/aaaaaaaa_s002_t000.edf", "aaaaaaaa", 2, StatusConverted},
		{"train/abnormal/bbbbbbbb_s001_t000.edf", "bbbbbbbb", 1, StatusFailed},
		{"eval/normal/cccccccc_s001_t000.edf", "cccccccc", 1, StatusIndexed},
	}
	for _, row := range rows {
		rec := testRecording(corpus.ID, row.path)
		rec.SubjectRawID = row.subject
		rec.SessionNumber = row.session
		rec.SessionID = row.session
		rec.ParticipantID = row.subject
		rec.Status = row.status
		require.NoError(t, store.UpsertRecording(ctx, rec))
	}

	status, err := store.Status(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, status.Recordings)
	assert.Equal(t, 2, status.Converted)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 3, status.Participants)
}

func TestTransaction_Rollback(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	rec := testRecording(corpus.ID, "train/normal/aaaaaaaa_s001_t000.edf")
	require.NoError(t, tx.UpsertRecording(ctx, rec))
	require.NoError(t, tx.Rollback())

	recs, err := store.ListRecordings(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTransaction_Commit(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	corpus := &Corpus{RootPath: "/data/raw"}
	require.NoError(t, store.CreateCorpus(ctx, corpus))

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	rec := testRecording(corpus.ID, "train/normal/aaaaaaaa_s001_t000.edf")
	require.NoError(t, tx.UpsertRecording(ctx, rec))
	require.NoError(t, tx.Commit())

	recs, err := store.ListRecordings(ctx, corpus.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMigrations_Idempotent(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	// Re-applying on an up-to-date database is a no-op
	err := ApplyMigrations(context.Background(), store.db)
	assert.NoError(t, err)
}

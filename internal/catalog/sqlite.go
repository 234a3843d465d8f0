package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }

func (t *sqliteTx) Close() error { return nil }

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

// Corpus operations

func createCorpusWithQuerier(ctx context.Context, q querier, corpus *Corpus) error {
	query := `
		INSERT INTO corpora (root_path, total_recordings, participants, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query, corpus.RootPath, corpus.TotalRecordings, corpus.Participants, now, now)
	if err != nil {
		return fmt.Errorf("failed to create corpus: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	corpus.ID = id
	corpus.CreatedAt = now
	corpus.UpdatedAt = now
	return nil
}

func getCorpusWithQuerier(ctx context.Context, q querier, rootPath string) (*Corpus, error) {
	query := `
		SELECT id, root_path, total_recordings, participants, last_indexed_at, created_at, updated_at
		FROM corpora WHERE root_path = ?
	`
	corpus := &Corpus{}
	var lastIndexed sql.NullTime
	err := q.QueryRowContext(ctx, query, rootPath).Scan(
		&corpus.ID, &corpus.RootPath, &corpus.TotalRecordings, &corpus.Participants,
		&lastIndexed, &corpus.CreatedAt, &corpus.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get corpus: %w", err)
	}
	if lastIndexed.Valid {
		corpus.LastIndexedAt = lastIndexed.Time
	}
	return corpus, nil
}

func updateCorpusWithQuerier(ctx context.Context, q querier, corpus *Corpus) error {
	query := `
		UPDATE corpora
		SET total_recordings = ?, participants = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query, corpus.TotalRecordings, corpus.Participants, corpus.LastIndexedAt, now, corpus.ID)
	if err != nil {
		return fmt.Errorf("failed to update corpus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	corpus.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateCorpus(ctx context.Context, corpus *Corpus) error {
	return createCorpusWithQuerier(ctx, s.db, corpus)
}

func (s *SQLiteStorage) GetCorpus(ctx context.Context, rootPath string) (*Corpus, error) {
	return getCorpusWithQuerier(ctx, s.db, rootPath)
}

func (s *SQLiteStorage) UpdateCorpus(ctx context.Context, corpus *Corpus) error {
	return updateCorpusWithQuerier(ctx, s.db, corpus)
}

func (t *sqliteTx) CreateCorpus(ctx context.Context, corpus *Corpus) error {
	return createCorpusWithQuerier(ctx, t.tx, corpus)
}

func (t *sqliteTx) GetCorpus(ctx context.Context, rootPath string) (*Corpus, error) {
	return getCorpusWithQuerier(ctx, t.tx, rootPath)
}

func (t *sqliteTx) UpdateCorpus(ctx context.Context, corpus *Corpus) error {
	return updateCorpusWithQuerier(ctx, t.tx, corpus)
}

// Recording operations

func upsertRecordingWithQuerier(ctx context.Context, q querier, rec *Recording) error {
	query := `
		INSERT INTO recordings (
			corpus_id, path, subject_raw_id, session_number, segment_number,
			recorded_at, age_years, sex, split, pathology,
			participant_id, session_id, segment_id, status, fail_reason,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(corpus_id, path) DO UPDATE SET
			subject_raw_id = excluded.subject_raw_id,
			session_number = excluded.session_number,
			segment_number = excluded.segment_number,
			recorded_at = excluded.recorded_at,
			age_years = excluded.age_years,
			sex = excluded.sex,
			split = excluded.split,
			pathology = excluded.pathology,
			participant_id = excluded.participant_id,
			session_id = excluded.session_id,
			segment_id = excluded.segment_id,
			status = excluded.status,
			fail_reason = excluded.fail_reason,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		rec.CorpusID, rec.Path, rec.SubjectRawID, rec.SessionNumber, rec.SegmentNumber,
		rec.RecordedAt, rec.AgeYears, rec.Sex, rec.Split, rec.Pathology,
		rec.ParticipantID, rec.SessionID, rec.SegmentID, rec.Status, rec.FailReason,
		now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert recording: %w", err)
	}
	if rec.ID == 0 {
		if id, err := result.LastInsertId(); err == nil {
			rec.ID = id
		}
	}
	rec.UpdatedAt = now
	return nil
}

func scanRecording(row interface{ Scan(...interface{}) error }) (*Recording, error) {
	rec := &Recording{}
	err := row.Scan(
		&rec.ID, &rec.CorpusID, &rec.Path, &rec.SubjectRawID, &rec.SessionNumber, &rec.SegmentNumber,
		&rec.RecordedAt, &rec.AgeYears, &rec.Sex, &rec.Split, &rec.Pathology,
		&rec.ParticipantID, &rec.SessionID, &rec.SegmentID, &rec.Status, &rec.FailReason,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recording: %w", err)
	}
	return rec, nil
}

const recordingColumns = `
	id, corpus_id, path, subject_raw_id, session_number, segment_number,
	recorded_at, age_years, sex, split, pathology,
	participant_id, session_id, segment_id, status, fail_reason,
	created_at, updated_at
`

func getRecordingWithQuerier(ctx context.Context, q querier, corpusID int64, path string) (*Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE corpus_id = ? AND path = ?`
	return scanRecording(q.QueryRowContext(ctx, query, corpusID, path))
}

func listRecordingsWithQuerier(ctx context.Context, q querier, corpusID int64) ([]*Recording, error) {
	query := `SELECT ` + recordingColumns + `
		FROM recordings WHERE corpus_id = ?
		ORDER BY subject_raw_id, session_number, segment_number
	`
	rows, err := q.QueryContext(ctx, query, corpusID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStorage) UpsertRecording(ctx context.Context, rec *Recording) error {
	return upsertRecordingWithQuerier(ctx, s.db, rec)
}

func (s *SQLiteStorage) GetRecording(ctx context.Context, corpusID int64, path string) (*Recording, error) {
	return getRecordingWithQuerier(ctx, s.db, corpusID, path)
}

func (s *SQLiteStorage) ListRecordings(ctx context.Context, corpusID int64) ([]*Recording, error) {
	return listRecordingsWithQuerier(ctx, s.db, corpusID)
}

func (t *sqliteTx) UpsertRecording(ctx context.Context, rec *Recording) error {
	return upsertRecordingWithQuerier(ctx, t.tx, rec)
}

func (t *sqliteTx) GetRecording(ctx context.Context, corpusID int64, path string) (*Recording, error) {
	return getRecordingWithQuerier(ctx, t.tx, corpusID, path)
}

func (t *sqliteTx) ListRecordings(ctx context.Context, corpusID int64) ([]*Recording, error) {
	return listRecordingsWithQuerier(ctx, t.tx, corpusID)
}

// Status operations

func statusWithQuerier(ctx context.Context, q querier, corpusID int64) (*CorpusStatus, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'converted' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT participant_id)
		FROM recordings WHERE corpus_id = ?
	`
	status := &CorpusStatus{}
	err := q.QueryRowContext(ctx, query, corpusID).Scan(
		&status.Recordings, &status.Converted, &status.Failed, &status.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return status, nil
}

func (s *SQLiteStorage) Status(ctx context.Context, corpusID int64) (*CorpusStatus, error) {
	return statusWithQuerier(ctx, s.db, corpusID)
}

func (t *sqliteTx) Status(ctx context.Context, corpusID int64) (*CorpusStatus, error) {
	return statusWithQuerier(ctx, t.tx, corpusID)
}

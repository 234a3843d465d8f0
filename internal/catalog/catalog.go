package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/neuroscan/eegcorpus/internal/convert"
	"github.com/neuroscan/eegcorpus/internal/index"
)

// Recording status values.
const (
	StatusIndexed   = "indexed"
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

// Storage defines the interface for persisting and querying corpus state.
type Storage interface {
	// Corpus operations
	CreateCorpus(ctx context.Context, corpus *Corpus) error
	GetCorpus(ctx context.Context, rootPath string) (*Corpus, error)
	UpdateCorpus(ctx context.Context, corpus *Corpus) error

	// Recording operations
	UpsertRecording(ctx context.Context, rec *Recording) error
	GetRecording(ctx context.Context, corpusID int64, path string) (*Recording, error)
	ListRecordings(ctx context.Context, corpusID int64) ([]*Recording, error)

	// Status operations
	Status(ctx context.Context, corpusID int64) (*CorpusStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction.
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Corpus represents one indexed raw-recording tree.
type Corpus struct {
	ID              int64
	RootPath        string
	TotalRecordings int
	Participants    int
	LastIndexedAt   time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Recording is the catalog row for one raw recording: its descriptor fields,
// its canonical identity once assigned, and its conversion status.
type Recording struct {
	ID       int64
	CorpusID int64

	Path          string
	SubjectRawID  string
	SessionNumber int
	SegmentNumber int
	RecordedAt    time.Time
	AgeYears      int
	Sex           string
	Split         string
	Pathology     string

	ParticipantID string
	SessionID     int
	SegmentID     int

	Status     string
	FailReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CorpusStatus summarizes catalog contents for one corpus.
type CorpusStatus struct {
	Recordings   int
	Converted    int
	Failed       int
	Participants int
}

// SaveIndex persists a freshly built and reindexed corpus in one transaction,
// creating or updating the corpus row. Every recording starts (or resets to)
// StatusIndexed.
func SaveIndex(ctx context.Context, store Storage, rootPath string, assigned []index.Assigned) (*Corpus, error) {
	corpus, err := store.GetCorpus(ctx, rootPath)
	if err == ErrNotFound {
		corpus = &Corpus{RootPath: rootPath}
		if err := store.CreateCorpus(ctx, corpus); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	tx, err := store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	participants := make(map[string]bool)
	for _, a := range assigned {
		participants[a.ParticipantID] = true
		rec := &Recording{
			CorpusID:      corpus.ID,
			Path:          a.Path,
			SubjectRawID:  a.SubjectRawID,
			SessionNumber: a.SessionNumber,
			SegmentNumber: a.SegmentNumber,
			RecordedAt:    time.Date(a.RecordedYear, time.Month(a.RecordedMonth), a.RecordedDay, 0, 0, 0, 0, time.UTC),
			AgeYears:      a.AgeYears,
			Sex:           a.Sex,
			Split:         a.Split.String(),
			Pathology:     a.Pathology.String(),
			ParticipantID: a.ParticipantID,
			SessionID:     a.SessionID,
			SegmentID:     a.SegmentID,
			Status:        StatusIndexed,
		}
		if err := tx.UpsertRecording(ctx, rec); err != nil {
			return nil, fmt.Errorf("save recording %s: %w", a.Path, err)
		}
	}

	corpus.TotalRecordings = len(assigned)
	corpus.Participants = len(participants)
	corpus.LastIndexedAt = time.Now().UTC()
	if err := tx.UpdateCorpus(ctx, corpus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return corpus, nil
}

// SaveSummary records conversion outcomes: successes become StatusConverted,
// failures StatusFailed with their reason.
func SaveSummary(ctx context.Context, store Storage, corpusID int64, summary *convert.Summary) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	mark := func(path, status, reason string) error {
		rec, err := tx.GetRecording(ctx, corpusID, path)
		if err != nil {
			return fmt.Errorf("recording %s: %w", path, err)
		}
		rec.Status = status
		rec.FailReason = reason
		return tx.UpsertRecording(ctx, rec)
	}

	for _, r := range summary.Results {
		if err := mark(r.SourcePath, StatusConverted, ""); err != nil {
			return err
		}
	}
	for _, f := range summary.Failures {
		if err := mark(f.Path, StatusFailed, f.Err.Error()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

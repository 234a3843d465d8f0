// Package catalog provides SQLite-based persistence for corpus state.
//
// The catalog records, per corpus root:
//   - Corpus metadata (root path, recording and participant counts)
//   - One row per raw recording: descriptor fields, canonical identity,
//     and conversion status (indexed, converted, failed)
//
// # Database Schema
//
// Tables:
//   - corpora: Corpus metadata (root path, totals, last index time)
//   - recordings: Recording descriptors, canonical identity, status
//   - schema_version: Applied migration versions
//
// # Basic Usage
//
//	store, err := catalog.NewSQLiteStorage("~/.eegcorpus/corpus.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	corpus, err := catalog.SaveIndex(ctx, store, rootPath, assigned)
//
// # Transactions
//
// Use transactions for atomic multi-row updates:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	for _, rec := range recs {
//	    if err := tx.UpsertRecording(ctx, rec); err != nil {
//	        return err
//	    }
//	}
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Build Modes
//
// Two SQLite drivers are supported via build tags: the default pure Go
// modernc.org/sqlite, and github.com/mattn/go-sqlite3 behind the
// sqlite_cgo tag for faster bulk writes.
package catalog

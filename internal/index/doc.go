// Package index builds the chronological corpus index and assigns canonical
// identities.
//
// Build runs the per-file descriptor extraction in parallel (result order is
// irrelevant because the full collection is re-sorted afterwards), then sorts
// single-threaded: ordering requires the complete, materialized index. The
// sort key is (subjectRawID, session, segment, recorded date), with ties
// broken by original filename order so output is deterministic across runs.
//
// Reindex derives canonical identity from the sorted order: dense zero-padded
// participant ids by first appearance, and per-participant session numbers
// renumbered to a contiguous 1..k sequence. Split-file segment collapse is
// guarded by a strict one-segment-per-session precondition; violating it
// yields ErrSplitMergeNotImplemented rather than a silently chosen segment.
package index

// Package dispatch submits independent units of corpus work to a bounded
// worker pool.
//
// Two submission disciplines are provided:
//
//   - MapCollect: synchronous join for fast metadata work. Output slots
//     correspond to input positions by index, and a failing item occupies its
//     error slot without disturbing siblings.
//   - Scatter: fire-and-forget for long-running per-recording pipelines.
//     Submission returns immediately and no results are collected; tasks are
//     observable only through the files they write.
//
// Because scatter tasks report nothing, every task's output path must be fully
// determined by its own input. PathClaims is the defensive check for that
// invariant.
package dispatch

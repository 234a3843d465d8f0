// Package convert performs the one-time transform from a raw indexed
// recording into a standardized artifact with a canonical identity.
//
// Per recording the converter:
//
//  1. restricts the channel set to electrophysiological signals,
//  2. resolves the electrode-reference scheme from the path's _tcp_ token,
//  3. normalizes channel names to their canonical montage form,
//  4. intersects with the fixed 10-20 reference montage,
//  5. synthesizes the birth surrogate and assembles the validated
//     CanonicalIdentity,
//  6. writes the artifact through the collaborator Writer.
//
// Every step has a defined hard-failure mode, and all failures stay isolated
// to their recording: ConvertAll accumulates them into the Summary and keeps
// converting siblings. The summary table is the source of truth for what
// succeeded; its row count equals the number of converted recordings, never
// the number attempted.
package convert

// Package pipeline composes ordered, named processing stages over
// per-subject configurations.
//
// A stage is an opaque transform with a fixed contract: it consumes a Config
// and returns the Config for its successor, or fails. Pipelines are explicit
// ordered stage lists; variants (minimal, autoreject, autoreject-asd) share a
// common stage prefix purely as a construction convenience and are fully
// independent at runtime.
//
// A stage failure short-circuits the remaining stages for that one config and
// is attributable to (subject, variant, stage). Under ScatterAll no failures
// are collected at all: a task's success is observable only as the artifact
// it wrote under its derivation-unique output directory.
package pipeline

package pipeline

import (
	"fmt"
	"path/filepath"
)

// Config carries everything one pipeline task needs for one subject. It is
// immutable by convention: stages receive a value and return a new value
// layered with additional fields, and exactly one task ever owns one config,
// so no config is touched by two stages concurrently.
type Config struct {
	Variant string // set by Pipeline.Run, not by callers

	SourceRoot string // converted corpus root
	OutputRoot string // derived output root

	Participant string
	Session     int
	Run         int

	// Named per-stage options.
	LowCutoffHz    float64
	HighCutoffHz   float64
	ResampleHz     float64
	Channels       []string // allow-list; empty keeps all
	ArtifactPolicy string

	// Layered by stages.
	SourceArtifact string
	Steps          []StepRecord
}

// StepRecord is one provenance entry appended by a stage.
type StepRecord struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

// withStep returns a copy of c with one provenance entry appended. The slice
// is reallocated so the returned config never aliases its predecessor.
func (c Config) withStep(stage, detail string) Config {
	steps := make([]StepRecord, len(c.Steps), len(c.Steps)+1)
	copy(steps, c.Steps)
	c.Steps = append(steps, StepRecord{Stage: stage, Detail: detail})
	return c
}

// TaskKey identifies the task for failure attribution and path claims.
func (c Config) TaskKey() string {
	return fmt.Sprintf("%s/sub-%s/ses-%03d/run-%03d", c.Variant, c.Participant, c.Session, c.Run)
}

// OutputDir derives the task's collision-free output directory. The path is a
// pure function of (variant, participant, session, run): it never depends on
// submission order, which is what makes lock-free scatter execution safe.
func (c Config) OutputDir() string {
	return filepath.Join(c.OutputRoot,
		c.Variant,
		"sub-"+c.Participant,
		fmt.Sprintf("ses-%03d", c.Session),
		fmt.Sprintf("run-%03d", c.Run))
}

// sourcePath locates the subject's converted artifact under SourceRoot.
func (c Config) sourcePath() string {
	base := fmt.Sprintf("sub-%s_ses-%03d_task-rest_run-%03d_eeg.edf", c.Participant, c.Session, c.Run)
	return filepath.Join(c.SourceRoot,
		"sub-"+c.Participant,
		fmt.Sprintf("ses-%03d", c.Session),
		"eeg", base)
}

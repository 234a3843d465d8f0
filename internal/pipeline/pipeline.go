package pipeline

import (
	"context"
	"fmt"

	"github.com/neuroscan/eegcorpus/internal/dispatch"
)

// StageFunc is the fixed stage contract: consume one config, produce the
// config for the next stage, or fail.
type StageFunc func(context.Context, Config) (Config, error)

// Stage is one named transform in a pipeline.
type Stage struct {
	Name string
	Run  StageFunc
}

// StageError attributes a stage failure to (subject, variant, stage).
type StageError struct {
	Variant     string
	Stage       string
	Participant string
	Err         error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s, stage %s, sub-%s: %v", e.Variant, e.Stage, e.Participant, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline is an ordered, composable sequence of named stages. Composition is
// pure sequencing: stage i+1 receives exactly the config stage i returned.
type Pipeline struct {
	variant string
	stages  []Stage
}

// New builds a pipeline variant from an ordered stage list.
func New(variant string, stages ...Stage) *Pipeline {
	return &Pipeline{variant: variant, stages: stages}
}

// Variant returns the pipeline's variant name.
func (p *Pipeline) Variant() string { return p.variant }

// StageNames returns the stage names in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run maps cfg through every stage in order. The first failing stage
// short-circuits the rest of the chain for this config only; the returned
// error carries full (variant, stage, subject) attribution.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (Config, error) {
	cfg.Variant = p.variant
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return Config{}, &StageError{Variant: p.variant, Stage: stage.Name, Participant: cfg.Participant, Err: err}
		}
		next, err := stage.Run(ctx, cfg)
		if err != nil {
			return Config{}, &StageError{Variant: p.variant, Stage: stage.Name, Participant: cfg.Participant, Err: err}
		}
		cfg = next
	}
	return cfg, nil
}

// ScatterAll submits one fire-and-forget task per config. Output paths are
// pre-claimed against the registry so a derivation bug surfaces before any
// task runs; after submission the only observable effects are the files each
// task writes under its own output directory. A failing task leaves its
// artifact absent and never disturbs siblings.
func ScatterAll(ctx context.Context, pool *dispatch.Pool, p *Pipeline, configs []Config, claims *dispatch.PathClaims) error {
	for i := range configs {
		configs[i].Variant = p.variant
		if err := claims.Claim(configs[i].TaskKey(), configs[i].OutputDir()); err != nil {
			return err
		}
	}

	dispatch.Scatter(ctx, pool, configs, func(ctx context.Context, cfg Config) {
		// No result collection by design: success is the written artifact.
		_, _ = p.Run(ctx, cfg)
	})
	return nil
}

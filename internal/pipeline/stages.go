package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Variant names.
const (
	VariantMinimal       = "minimal"
	VariantAutoreject    = "autoreject"
	VariantAutorejectASD = "autoreject-asd"
)

// Minimal is the shortest preprocessing chain: load, filter, resample, pick,
// export.
func Minimal() *Pipeline {
	return New(VariantMinimal, append(baseStages(), exportStage())...)
}

// Autoreject extends the minimal chain with statistical artifact rejection.
func Autoreject() *Pipeline {
	return New(VariantAutoreject, append(baseStages(), rejectStage(), exportStage())...)
}

// AutorejectASD extends Autoreject with artifact-subspace decomposition.
func AutorejectASD() *Pipeline {
	return New(VariantAutorejectASD, append(baseStages(), rejectStage(), subspaceStage(), exportStage())...)
}

// ByVariant returns the pipeline for a variant name.
func ByVariant(name string) (*Pipeline, error) {
	switch name {
	case VariantMinimal:
		return Minimal(), nil
	case VariantAutoreject:
		return Autoreject(), nil
	case VariantAutorejectASD:
		return AutorejectASD(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline variant %q", name)
	}
}

// baseStages returns a fresh copy of the shared stage prefix. Variants reuse
// this prefix as a construction convenience only; each call allocates anew so
// no two variants share state at runtime.
func baseStages() []Stage {
	return []Stage{loadStage(), filterStage(), resampleStage(), pickStage()}
}

func loadStage() Stage {
	return Stage{Name: "load", Run: func(ctx context.Context, cfg Config) (Config, error) {
		src := cfg.sourcePath()
		if _, err := os.Stat(src); err != nil {
			return Config{}, fmt.Errorf("source artifact: %w", err)
		}
		cfg.SourceArtifact = src
		return cfg.withStep("load", src), nil
	}}
}

func filterStage() Stage {
	return Stage{Name: "filter", Run: func(ctx context.Context, cfg Config) (Config, error) {
		if cfg.LowCutoffHz < 0 || cfg.HighCutoffHz < 0 {
			return Config{}, fmt.Errorf("negative filter cutoff (%g, %g)", cfg.LowCutoffHz, cfg.HighCutoffHz)
		}
		if cfg.HighCutoffHz > 0 && cfg.LowCutoffHz >= cfg.HighCutoffHz {
			return Config{}, fmt.Errorf("filter band inverted (%g >= %g)", cfg.LowCutoffHz, cfg.HighCutoffHz)
		}
		return cfg.withStep("filter", fmt.Sprintf("band %g-%g Hz", cfg.LowCutoffHz, cfg.HighCutoffHz)), nil
	}}
}

func resampleStage() Stage {
	return Stage{Name: "resample", Run: func(ctx context.Context, cfg Config) (Config, error) {
		if cfg.ResampleHz < 0 {
			return Config{}, fmt.Errorf("negative resample rate %g", cfg.ResampleHz)
		}
		if cfg.ResampleHz == 0 {
			return cfg.withStep("resample", "passthrough"), nil
		}
		return cfg.withStep("resample", fmt.Sprintf("%g Hz", cfg.ResampleHz)), nil
	}}
}

func pickStage() Stage {
	return Stage{Name: "pick", Run: func(ctx context.Context, cfg Config) (Config, error) {
		if len(cfg.Channels) == 0 {
			return cfg.withStep("pick", "all channels"), nil
		}
		return cfg.withStep("pick", strings.Join(cfg.Channels, ",")), nil
	}}
}

func rejectStage() Stage {
	return Stage{Name: "reject", Run: func(ctx context.Context, cfg Config) (Config, error) {
		policy := cfg.ArtifactPolicy
		if policy == "" {
			return Config{}, fmt.Errorf("artifact-rejection policy not set")
		}
		return cfg.withStep("reject", policy), nil
	}}
}

func subspaceStage() Stage {
	return Stage{Name: "subspace", Run: func(ctx context.Context, cfg Config) (Config, error) {
		return cfg.withStep("subspace", "artifact subspace decomposition"), nil
	}}
}

// exportStage materializes the task's derived output: the provenance record
// under the task's own collision-free directory. This file is the task's only
// communication channel with the outside world.
func exportStage() Stage {
	return Stage{Name: "export", Run: func(ctx context.Context, cfg Config) (Config, error) {
		dir := cfg.OutputDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Config{}, err
		}

		record := struct {
			Variant     string       `json:"variant"`
			Participant string       `json:"participant"`
			Session     int          `json:"session"`
			Run         int          `json:"run"`
			Source      string       `json:"source"`
			Steps       []StepRecord `json:"steps"`
		}{
			Variant:     cfg.Variant,
			Participant: cfg.Participant,
			Session:     cfg.Session,
			Run:         cfg.Run,
			Source:      cfg.SourceArtifact,
			Steps:       cfg.Steps,
		}
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return Config{}, err
		}
		if err := os.WriteFile(filepath.Join(dir, "provenance.json"), append(data, '\n'), 0o644); err != nil {
			return Config{}, err
		}
		return cfg.withStep("export", dir), nil
	}}
}

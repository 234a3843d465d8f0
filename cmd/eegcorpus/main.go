package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strconv"
	"syscall"

	"github.com/neuroscan/eegcorpus/internal/bids"
	"github.com/neuroscan/eegcorpus/internal/catalog"
	"github.com/neuroscan/eegcorpus/internal/convert"
	"github.com/neuroscan/eegcorpus/internal/dispatch"
	"github.com/neuroscan/eegcorpus/internal/index"
	"github.com/neuroscan/eegcorpus/internal/mcp"
	"github.com/neuroscan/eegcorpus/internal/pipeline"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Log to stderr (stdout reserved for MCP protocol in serve mode)
	log.SetOutput(os.Stderr)

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("eegcorpus\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", catalog.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", catalog.DriverName)
		os.Exit(0)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var err error
	switch os.Args[1] {
	case "index":
		err = runIndex(ctx, os.Args[2:])
	case "convert":
		err = runConvert(ctx, os.Args[2:])
	case "pipeline":
		err = runPipeline(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: eegcorpus <command> [flags]

Commands:
  index     index a raw corpus and catalog its recordings
  convert   convert an indexed corpus into the standardized layout
  pipeline  run a processing variant over a converted corpus
  serve     start the MCP server on stdio

Run 'eegcorpus <command> -h' for command flags.
`)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()
	return ctx, cancel
}

func openCatalog(dbPath string) (catalog.Storage, error) {
	if dbPath == "" {
		dbPath = os.Getenv("EEGCORPUS_DB_PATH")
	}
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".eegcorpus")
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	return catalog.NewSQLiteStorage(filepath.Join(dbPath, "catalog.db"))
}

func buildAssigned(ctx context.Context, pool *dispatch.Pool, root string, keepSegments bool) ([]index.Assigned, *index.BuildStats, error) {
	ix, stats, err := index.Build(ctx, pool, root, nil)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range stats.Failures {
		log.Printf("skipped %s: %v", f.Path, f.Err)
	}
	assigned, err := ix.Reindex(index.ReindexOptions{ConcatSegments: !keepSegments})
	if err != nil {
		return nil, nil, err
	}
	return assigned, stats, nil
}

func runIndex(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	root := flags.String("root", "", "raw corpus root (required)")
	dbPath := flags.String("db", "", "catalog database directory (default: $EEGCORPUS_DB_PATH or ~/.eegcorpus)")
	workers := flags.Int("workers", 0, "extraction parallelism (default: number of CPUs)")
	keepSegments := flags.Bool("keep-segments", false, "preserve per-session segment numbers instead of collapsing")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *root == "" {
		return fmt.Errorf("-root is required")
	}
	absRoot, err := filepath.Abs(*root)
	if err != nil {
		return err
	}

	store, err := openCatalog(*dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pool := dispatch.NewPool(*workers)
	assigned, stats, err := buildAssigned(ctx, pool, absRoot, *keepSegments)
	if err != nil {
		return err
	}

	corpus, err := catalog.SaveIndex(ctx, store, absRoot, assigned)
	if err != nil {
		return err
	}

	log.Printf("indexed %d/%d recordings (%d failed) across %d participants in %s",
		stats.Extracted, stats.Scanned, stats.Failed, corpus.Participants, stats.Duration)
	return nil
}

func runConvert(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("convert", flag.ExitOnError)
	root := flags.String("root", "", "raw corpus root (required)")
	out := flags.String("out", "", "output root for converted recordings (required)")
	dbPath := flags.String("db", "", "catalog database directory (default: $EEGCORPUS_DB_PATH or ~/.eegcorpus)")
	workers := flags.Int("workers", 0, "conversion parallelism (default: number of CPUs)")
	keepSegments := flags.Bool("keep-segments", false, "preserve per-session segment numbers instead of collapsing")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *root == "" || *out == "" {
		return fmt.Errorf("-root and -out are required")
	}
	absRoot, err := filepath.Abs(*root)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(*out)
	if err != nil {
		return err
	}

	store, err := openCatalog(*dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pool := dispatch.NewPool(*workers)
	assigned, _, err := buildAssigned(ctx, pool, absRoot, *keepSegments)
	if err != nil {
		return err
	}

	corpus, err := catalog.SaveIndex(ctx, store, absRoot, assigned)
	if err != nil {
		return err
	}

	converter := convert.New(bids.NewWriter(absOut), "edf")
	summary, err := converter.ConvertAll(ctx, pool, assigned)
	if err != nil {
		return err
	}
	for _, f := range summary.Failures {
		log.Printf("failed %s: %v", f.Path, f.Err)
	}

	if _, err := convert.WriteSummary(absOut, summary); err != nil {
		return err
	}
	if err := catalog.SaveSummary(ctx, store, corpus.ID, summary); err != nil {
		return err
	}

	log.Printf("converted %d recordings (%d failed) to %s in %s",
		len(summary.Results), len(summary.Failures), absOut, summary.Duration)
	return nil
}

// convertedArtifact matches one converted recording path relative to its root.
var convertedArtifact = regexp.MustCompile(`^sub-([^/]+)/ses-(\d+)/eeg/sub-[^/]+_ses-\d+_task-rest_run-(\d+)_eeg\.edf$`)

// discoverTasks walks a converted corpus and derives one pipeline config per
// recording artifact.
func discoverTasks(sourceRoot, outputRoot string) ([]pipeline.Config, error) {
	var configs []pipeline.Config
	err := filepath.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sourceRoot, path)
		if err != nil {
			return err
		}
		m := convertedArtifact.FindStringSubmatch(filepath.ToSlash(rel))
		if m == nil {
			return nil
		}
		session, err := strconv.Atoi(m[2])
		if err != nil {
			return err
		}
		run, err := strconv.Atoi(m[3])
		if err != nil {
			return err
		}
		configs = append(configs, pipeline.Config{
			SourceRoot:  sourceRoot,
			OutputRoot:  outputRoot,
			Participant: m[1],
			Session:     session,
			Run:         run,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func runPipeline(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("pipeline", flag.ExitOnError)
	in := flags.String("in", "", "converted corpus root (required)")
	out := flags.String("out", "", "derived output root (required)")
	variant := flags.String("variant", pipeline.VariantMinimal, "processing variant")
	workers := flags.Int("workers", 0, "task parallelism (default: number of CPUs)")
	lowCutoff := flags.Float64("low-cutoff", 1, "high-pass filter cutoff in Hz (0 disables)")
	highCutoff := flags.Float64("high-cutoff", 49, "low-pass filter cutoff in Hz (0 disables)")
	resample := flags.Float64("resample", 0, "resample rate in Hz (0 keeps the native rate)")
	policy := flags.String("artifact-policy", "autoreject", "artifact-rejection policy for rejecting variants")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}
	absIn, err := filepath.Abs(*in)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(*out)
	if err != nil {
		return err
	}

	p, err := pipeline.ByVariant(*variant)
	if err != nil {
		return err
	}

	configs, err := discoverTasks(absIn, absOut)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return fmt.Errorf("no converted recordings found under %s", absIn)
	}
	for i := range configs {
		configs[i].LowCutoffHz = *lowCutoff
		configs[i].HighCutoffHz = *highCutoff
		configs[i].ResampleHz = *resample
		configs[i].ArtifactPolicy = *policy
	}

	pool := dispatch.NewPool(*workers)
	claims := dispatch.NewPathClaims()
	if err := pipeline.ScatterAll(ctx, pool, p, configs, claims); err != nil {
		return err
	}
	pool.Drain()

	log.Printf("dispatched %d %s tasks to %s", len(configs), *variant, absOut)
	return nil
}

func runServe(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	dbPath := flags.String("db", "", "catalog database directory (default: $EEGCORPUS_DB_PATH or ~/.eegcorpus)")
	workers := flags.Int("workers", 0, "tool parallelism (default: number of CPUs)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	path := *dbPath
	if path == "" {
		path = os.Getenv("EEGCORPUS_DB_PATH")
	}
	if path == "" {
		path = mcp.DefaultDBPath
	}

	log.Printf("eegcorpus MCP server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", catalog.BuildMode, catalog.DriverName)

	server, err := mcp.NewServer(path, *workers)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		log.Println("MCP server ready, listening on stdio...")
		errChan <- server.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Println("Server stopped")
		return nil
	case err := <-errChan:
		return err
	}
}

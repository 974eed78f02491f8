package pipeline

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/texviz/refgraph/pkg/corpus"
	"github.com/texviz/refgraph/pkg/diag"
	"github.com/texviz/refgraph/pkg/errors"
	"github.com/texviz/refgraph/pkg/refgraph"
	"github.com/texviz/refgraph/pkg/render/dot"
	"github.com/texviz/refgraph/pkg/resolver"
)

// Runner executes the scan → resolve → build → export pipeline. It is
// stateless apart from its logger; a single Runner can serve multiple runs.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Execute runs the complete pipeline. Artifacts are only written once every
// stage has succeeded, so a failed run never leaves partial output behind.
// When Execute fails after scanning started, the returned Result still
// carries the diagnostics accumulated so far.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:  uuid.NewString(),
		Report: &diag.Report{},
	}
	logger := opts.Logger.With("run_id", result.RunID)

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	// Stage 1: Scan
	scanStart := time.Now()
	c, err := r.scan(ctx, opts)
	if err != nil {
		return result, err
	}
	result.Report.Append(c.Report)
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.FileCount = len(c.Paths)
	logger.Info("scanned corpus",
		"files", len(c.Paths),
		"duration", result.Stats.ScanTime)

	// Stage 2: Resolve
	resolveStart := time.Now()
	res, err := resolver.Resolve(ctx, c.Tokens, entryPaths(opts))
	if err != nil {
		return result, err
	}
	result.Report.Append(res.Report)
	result.Stats.ResolveTime = time.Since(resolveStart)
	logger.Info("resolved references",
		"anchors", len(res.Anchors),
		"refs", len(res.Refs),
		"duration", result.Stats.ResolveTime)

	// Stage 3: Build
	buildStart := time.Now()
	result.Graph = refgraph.Build(res.Order, res.Anchors, res.Refs, opts.BuildOptions())
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = result.Graph.NodeCount()
	result.Stats.EdgeCount = result.Graph.EdgeCount()
	logger.Info("built graph",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.BuildTime)

	// Stage 4: Export
	exportStart := time.Now()
	result.DOT = dot.ToDOT(result.Graph)
	if err := os.WriteFile(opts.OutputPath, []byte(result.DOT), 0o644); err != nil {
		return result, errors.Wrap(errors.ErrCodeInternal, err, "write %s", opts.OutputPath)
	}
	result.Stats.ExportTime = time.Since(exportStart)
	logger.Info("exported graph", "path", opts.OutputPath, "duration", result.Stats.ExportTime)

	if opts.RenderOutputPath != "" {
		renderStart := time.Now()
		if err := renderImage(result.DOT, opts); err != nil {
			return result, err
		}
		result.Stats.RenderTime = time.Since(renderStart)
		logger.Info("rendered image", "path", opts.RenderOutputPath, "duration", result.Stats.RenderTime)
	}

	return result, nil
}

// scan discovers the corpus when no explicit file list was given, then
// loads and tokenizes it under the capacity guards.
func (r *Runner) scan(ctx context.Context, opts Options) (*corpus.Corpus, error) {
	paths := opts.Files
	if len(paths) == 0 {
		var err error
		paths, err = corpus.Discover(opts.SourceDir, opts.IncludePattern, opts.ExcludePatterns)
		if err != nil {
			return nil, err
		}
	}
	return corpus.Load(ctx, opts.SourceDir, paths, corpus.Options{
		MaxFiles: opts.MaxFiles,
		MaxBytes: opts.MaxBytes,
		Workers:  opts.Workers,
	})
}

// entryPaths normalizes the configured entry files to the corpus's
// slash-separated path form.
func entryPaths(opts Options) []string {
	entries := make([]string, 0, len(opts.EntryFiles))
	for _, e := range opts.EntryFiles {
		entries = append(entries, path.Clean(filepath.ToSlash(e)))
	}
	return entries
}

// renderImage renders the DOT text to the configured image path.
func renderImage(dotText string, opts Options) error {
	var (
		data []byte
		err  error
	)
	switch opts.RenderFormat() {
	case FormatSVG:
		data, err = dot.RenderSVG(dotText)
	case FormatPNG:
		data, err = dot.RenderPNG(dotText)
	case FormatPDF:
		data, err = dot.RenderPDF(dotText)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render %s", opts.RenderOutputPath)
	}
	return os.WriteFile(opts.RenderOutputPath, data, 0o644)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

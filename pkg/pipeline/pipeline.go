// Package pipeline provides the core graph-building pipeline for refgraph.
//
// The pipeline consists of four stages:
//
//  1. Scan: read and tokenize every corpus file (parallel, bounded)
//  2. Resolve: traverse inclusions and resolve references (single-threaded)
//  3. Build: assemble the reference multigraph
//  4. Export: serialize the graph as Graphviz DOT and optionally render it
//
// Stages 2-4 are whole-corpus passes and never start before all scans have
// finished. A Runner executes the complete flow:
//
//	runner := pipeline.NewRunner(logger)
//	result, err := runner.Execute(ctx, pipeline.Options{SourceDir: "doc"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.DOT)
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/texviz/refgraph/pkg/diag"
	"github.com/texviz/refgraph/pkg/errors"
	"github.com/texviz/refgraph/pkg/refgraph"
)

// DefaultOutputPath is where the DOT artifact goes when no path is given.
const DefaultOutputPath = "graph.gv"

// Render format constants, derived from the render output extension.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// Options contains all configuration for a pipeline run.
type Options struct {
	// SourceDir is the corpus root. Defaults to the current directory.
	SourceDir string
	// Files lists corpus files relative to SourceDir. When empty, the
	// corpus is discovered by walking SourceDir with IncludePattern.
	Files []string
	// EntryFiles are the traversal roots, relative to SourceDir, in order.
	// When empty, every corpus file is an entry.
	EntryFiles []string
	// IncludePattern is the discovery glob (default "*.tex").
	IncludePattern string
	// ExcludePatterns are gitignore-style patterns removed from discovery.
	ExcludePatterns []string

	// Granularity selects file or anchor nodes.
	Granularity refgraph.Granularity
	// CollapseParallelEdges folds repeated edges into counted ones.
	CollapseParallelEdges bool

	// OutputPath is where the DOT artifact is written (default "graph.gv").
	OutputPath string
	// RenderOutputPath, when set, additionally renders an image there; the
	// extension selects the format (.svg, .png, .pdf).
	RenderOutputPath string

	// Capacity guards and scan parallelism.
	MaxFiles int
	MaxBytes int64
	Workers  int
	// Deadline bounds the whole run. Zero means no time budget.
	Deadline time.Duration

	// Logger receives structured progress logs. Defaults to a discard
	// logger so library use stays quiet.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks option consistency and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SourceDir == "" {
		o.SourceDir = "."
	}
	if o.OutputPath == "" {
		o.OutputPath = DefaultOutputPath
	}
	if o.Granularity == "" {
		o.Granularity = refgraph.GranularityFile
	}
	if o.Granularity != refgraph.GranularityFile && o.Granularity != refgraph.GranularityAnchor {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid node_granularity %q (must be file or anchor)", o.Granularity)
	}
	if o.RenderOutputPath != "" {
		if !ValidFormats[o.RenderFormat()] {
			return errors.New(errors.ErrCodeInvalidConfig,
				"render output %s must end in .svg, .png, or .pdf", o.RenderOutputPath)
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RenderFormat derives the render format from the render output extension.
func (o *Options) RenderFormat() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(o.RenderOutputPath)), ".")
}

// BuildOptions converts the pipeline options to graph build options.
func (o *Options) BuildOptions() refgraph.BuildOptions {
	return refgraph.BuildOptions{
		Granularity:           o.Granularity,
		CollapseParallelEdges: o.CollapseParallelEdges,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this run in logs.
	RunID string
	// Graph is the assembled reference graph.
	Graph *refgraph.Graph
	// DOT is the exported graph description, byte-identical across runs on
	// an unchanged corpus.
	DOT string
	// Report carries every accumulated diagnostic; it is populated even
	// when Execute returns an error, so the summary can always be shown.
	Report *diag.Report
	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FileCount   int
	NodeCount   int
	EdgeCount   int
	ScanTime    time.Duration
	ResolveTime time.Duration
	BuildTime   time.Duration
	ExportTime  time.Duration
	RenderTime  time.Duration
}

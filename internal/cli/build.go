package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/texviz/refgraph/pkg/pipeline"
	"github.com/texviz/refgraph/pkg/refgraph"
)

// buildOpts holds the command-line flags for the build command. Each field
// mirrors a key of the TOML configuration surface; flags that were
// explicitly set override the file values.
type buildOpts struct {
	configPath  string
	sourceDir   string
	entries     []string
	include     string
	excludes    []string
	granularity string
	collapse    bool
	output      string
	render      string
	maxFiles    int
	maxBytes    int64
	deadline    time.Duration
	workers     int
}

// newBuildCmd creates the build command: scan, resolve, and export.
//
// Positional arguments name corpus files explicitly; without them the
// corpus is discovered by walking the source directory with the include
// pattern.
func newBuildCmd() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [files...]",
		Short: "Build the reference graph and export it as Graphviz DOT",
		Long: `Build the reference graph for a corpus of LaTeX source files.

The corpus is discovered under --source-dir using --include, or taken from
the positional file arguments. Entry files root the inclusion traversal;
without them every corpus file is an entry.

Examples:
  refgraph build                                  # discover *.tex in .
  refgraph build --source-dir doc --entry main.tex
  refgraph build chapters/a.tex chapters/b.tex -o refs.gv
  refgraph build --config refgraph.toml --render-output graph.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().StringVar(&opts.sourceDir, "source-dir", ".", "corpus root directory")
	cmd.Flags().StringSliceVar(&opts.entries, "entry", nil, "entry file(s) rooting the inclusion traversal")
	cmd.Flags().StringVar(&opts.include, "include", "*.tex", "glob for discovering corpus files")
	cmd.Flags().StringSliceVar(&opts.excludes, "exclude", nil, "gitignore-style patterns excluded from discovery")
	cmd.Flags().StringVar(&opts.granularity, "granularity", "file", "node granularity: file or anchor")
	cmd.Flags().BoolVar(&opts.collapse, "collapse", false, "collapse parallel edges into counted edges")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "DOT output path (default graph.gv)")
	cmd.Flags().StringVar(&opts.render, "render-output", "", "also render an image here (.svg, .png, .pdf)")
	cmd.Flags().IntVar(&opts.maxFiles, "max-files", 0, "maximum corpus file count")
	cmd.Flags().Int64Var(&opts.maxBytes, "max-bytes", 0, "maximum corpus byte size")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 0, "time budget for the whole run")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "scan parallelism")

	return cmd
}

// runBuild assembles pipeline options from config file and flags, executes
// the pipeline, and prints the diagnostics summary. The summary is printed
// even when the run fails; the error only controls the exit status.
func runBuild(ctx context.Context, cmd *cobra.Command, args []string, opts *buildOpts) error {
	logger := loggerFromContext(ctx)

	popts, err := resolveOptions(cmd, args, opts)
	if err != nil {
		return err
	}
	popts.Logger = logger

	prog := newProgress(logger)
	runner := pipeline.NewRunner(logger)
	result, err := runner.Execute(ctx, popts)

	if result != nil && result.Report != nil {
		printSummary(result.Report)
	}
	if err != nil {
		printError("Build failed: %v", err)
		return err
	}

	prog.done(fmt.Sprintf("Built graph with %d nodes and %d edges", result.Stats.NodeCount, result.Stats.EdgeCount))
	printSuccess("Wrote graph description")
	printFile(popts.OutputPath)
	if popts.RenderOutputPath != "" {
		printFile(popts.RenderOutputPath)
	}
	return nil
}

// resolveOptions merges the config file (when given) with command-line
// flags. Flags that were explicitly changed win over file values; defaults
// apply last inside the pipeline.
func resolveOptions(cmd *cobra.Command, args []string, opts *buildOpts) (pipeline.Options, error) {
	var popts pipeline.Options
	if opts.configPath != "" {
		cfg, err := loadConfig(opts.configPath)
		if err != nil {
			return pipeline.Options{}, err
		}
		popts, err = cfg.pipelineOptions()
		if err != nil {
			return pipeline.Options{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("source-dir") || popts.SourceDir == "" {
		popts.SourceDir = opts.sourceDir
	}
	if flags.Changed("entry") {
		popts.EntryFiles = opts.entries
	}
	if flags.Changed("include") || popts.IncludePattern == "" {
		popts.IncludePattern = opts.include
	}
	if flags.Changed("exclude") {
		popts.ExcludePatterns = opts.excludes
	}
	if flags.Changed("granularity") || popts.Granularity == "" {
		popts.Granularity = refgraph.Granularity(opts.granularity)
	}
	if flags.Changed("collapse") {
		popts.CollapseParallelEdges = opts.collapse
	}
	if flags.Changed("output") {
		popts.OutputPath = opts.output
	}
	if flags.Changed("render-output") {
		popts.RenderOutputPath = opts.render
	}
	if flags.Changed("max-files") {
		popts.MaxFiles = opts.maxFiles
	}
	if flags.Changed("max-bytes") {
		popts.MaxBytes = opts.maxBytes
	}
	if flags.Changed("deadline") {
		popts.Deadline = opts.deadline
	}
	if flags.Changed("workers") {
		popts.Workers = opts.workers
	}
	if len(args) > 0 {
		popts.Files = args
	}
	return popts, nil
}

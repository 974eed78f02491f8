package cli

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/texviz/refgraph/pkg/errors"
	"github.com/texviz/refgraph/pkg/pipeline"
	"github.com/texviz/refgraph/pkg/refgraph"
)

// Config is the TOML configuration surface. Every field has a flag
// equivalent on the build command; flags take precedence over the file.
//
// Example refgraph.toml:
//
//	source_directory = "doc"
//	entry_files = ["main.tex"]
//	include_pattern = "*.tex"
//	exclude_patterns = ["build/", "*_draft.tex"]
//	node_granularity = "file"
//	collapse_parallel_edges = false
//	output_path = "graph.gv"
//	render_output_path = "graph.pdf"
//	max_files = 10000
//	max_bytes = 268435456
//	deadline = "30s"
type Config struct {
	SourceDirectory       string   `toml:"source_directory"`
	EntryFiles            []string `toml:"entry_files"`
	IncludePattern        string   `toml:"include_pattern"`
	ExcludePatterns       []string `toml:"exclude_patterns"`
	NodeGranularity       string   `toml:"node_granularity"`
	CollapseParallelEdges bool     `toml:"collapse_parallel_edges"`
	OutputPath            string   `toml:"output_path"`
	RenderOutputPath      string   `toml:"render_output_path"`
	MaxFiles              int      `toml:"max_files"`
	MaxBytes              int64    `toml:"max_bytes"`
	Deadline              string   `toml:"deadline"`
	Workers               int      `toml:"workers"`
}

// loadConfig reads and decodes a TOML configuration file.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	return cfg, nil
}

// pipelineOptions converts the file configuration into pipeline options.
func (c Config) pipelineOptions() (pipeline.Options, error) {
	opts := pipeline.Options{
		SourceDir:             c.SourceDirectory,
		EntryFiles:            c.EntryFiles,
		IncludePattern:        c.IncludePattern,
		ExcludePatterns:       c.ExcludePatterns,
		Granularity:           refgraph.Granularity(c.NodeGranularity),
		CollapseParallelEdges: c.CollapseParallelEdges,
		OutputPath:            c.OutputPath,
		RenderOutputPath:      c.RenderOutputPath,
		MaxFiles:              c.MaxFiles,
		MaxBytes:              c.MaxBytes,
		Workers:               c.Workers,
	}
	if c.Deadline != "" {
		d, err := time.ParseDuration(c.Deadline)
		if err != nil {
			return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse deadline %q", c.Deadline)
		}
		opts.Deadline = d
	}
	return opts, nil
}

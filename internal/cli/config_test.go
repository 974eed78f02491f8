package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/texviz/refgraph/pkg/errors"
	"github.com/texviz/refgraph/pkg/refgraph"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refgraph.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
source_directory = "doc"
entry_files = ["main.tex", "appendix.tex"]
include_pattern = "*.tex"
exclude_patterns = ["build/"]
node_granularity = "anchor"
collapse_parallel_edges = true
output_path = "out/graph.gv"
render_output_path = "out/graph.pdf"
max_files = 500
max_bytes = 1048576
deadline = "30s"
workers = 4
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourceDirectory != "doc" {
		t.Errorf("SourceDirectory = %q", cfg.SourceDirectory)
	}
	if want := []string{"main.tex", "appendix.tex"}; !reflect.DeepEqual(cfg.EntryFiles, want) {
		t.Errorf("EntryFiles = %v, want %v", cfg.EntryFiles, want)
	}
	if !cfg.CollapseParallelEdges {
		t.Error("CollapseParallelEdges not decoded")
	}

	opts, err := cfg.pipelineOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Granularity != refgraph.GranularityAnchor {
		t.Errorf("Granularity = %q, want anchor", opts.Granularity)
	}
	if opts.Deadline != 30*time.Second {
		t.Errorf("Deadline = %v, want 30s", opts.Deadline)
	}
	if opts.MaxFiles != 500 || opts.MaxBytes != 1048576 || opts.Workers != 4 {
		t.Errorf("capacity options = %d/%d/%d", opts.MaxFiles, opts.MaxBytes, opts.Workers)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, `source_directory = [broken`)
	_, err := loadConfig(path)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestPipelineOptionsBadDeadline(t *testing.T) {
	cfg := Config{Deadline: "soon"}
	_, err := cfg.pipelineOptions()
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestPipelineOptionsEmpty(t *testing.T) {
	opts, err := Config{}.pipelineOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Deadline != 0 {
		t.Errorf("Deadline = %v, want zero", opts.Deadline)
	}
}

func TestResolveRenderTarget(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		opts       renderOpts
		wantFormat string
		wantOutput string
	}{
		{"defaults to svg", "graph.gv", renderOpts{}, "svg", "graph.svg"},
		{"explicit format", "graph.gv", renderOpts{format: "png"}, "png", "graph.png"},
		{"format from output extension", "graph.gv", renderOpts{output: "pic.pdf"}, "pdf", "pic.pdf"},
		{"explicit both", "graph.gv", renderOpts{output: "x.img", format: "svg"}, "svg", "x.img"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, output, err := resolveRenderTarget(tt.input, &tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if format != tt.wantFormat || output != tt.wantOutput {
				t.Errorf("got %q/%q, want %q/%q", format, output, tt.wantFormat, tt.wantOutput)
			}
		})
	}
}

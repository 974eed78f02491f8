package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/texviz/refgraph/pkg/diag"
	"github.com/texviz/refgraph/pkg/errors"
	"github.com/texviz/refgraph/pkg/refgraph"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.SourceDir != "." {
		t.Errorf("SourceDir = %q, want .", opts.SourceDir)
	}
	if opts.OutputPath != DefaultOutputPath {
		t.Errorf("OutputPath = %q, want %q", opts.OutputPath, DefaultOutputPath)
	}
	if opts.Granularity != refgraph.GranularityFile {
		t.Errorf("Granularity = %q, want file", opts.Granularity)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestValidateRejectsBadGranularity(t *testing.T) {
	opts := Options{Granularity: "chapter"}
	err := opts.ValidateAndSetDefaults()
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestValidateRejectsBadRenderExtension(t *testing.T) {
	opts := Options{RenderOutputPath: "graph.bmp"}
	err := opts.ValidateAndSetDefaults()
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}

func TestRenderFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out.svg", FormatSVG},
		{"out.PNG", FormatPNG},
		{"dir/out.pdf", FormatPDF},
		{"", ""},
	}
	for _, tt := range tests {
		opts := Options{RenderOutputPath: tt.path}
		if got := opts.RenderFormat(); got != tt.want {
			t.Errorf("RenderFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"main.tex":         "\\label{top}\n\\input{chapters/one}\n",
		"chapters/one.tex": "\\ref{top}\n\\cite{knuth84}\n\\ref{gone}\n",
	})
	output := filepath.Join(t.TempDir(), "graph.gv")

	runner := NewRunner(quietLogger())
	result, err := runner.Execute(context.Background(), Options{
		SourceDir:  root,
		EntryFiles: []string{"main.tex"},
		OutputPath: output,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.RunID == "" {
		t.Error("RunID not assigned")
	}
	if result.Stats.FileCount != 2 {
		t.Errorf("FileCount = %d, want 2", result.Stats.FileCount)
	}
	// 2 files + cite:knuth84 + missing:gone.
	if result.Graph.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4", result.Graph.NodeCount())
	}
	if result.Graph.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, want 3", result.Graph.EdgeCount())
	}

	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != result.DOT {
		t.Error("written artifact differs from Result.DOT")
	}
	if !strings.HasPrefix(result.DOT, "digraph refs {") {
		t.Errorf("DOT = %q", result.DOT)
	}
}

func TestExecuteDeterministicDOT(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"main.tex": "\\label{a}\\input{b}",
		"b.tex":    "\\ref{a}\\ref{a}",
	})

	runner := NewRunner(quietLogger())
	run := func() string {
		result, err := runner.Execute(context.Background(), Options{
			SourceDir:  root,
			OutputPath: filepath.Join(t.TempDir(), "graph.gv"),
		})
		if err != nil {
			t.Fatal(err)
		}
		return result.DOT
	}
	if first, second := run(), run(); first != second {
		t.Error("DOT output differs across runs on an unchanged corpus")
	}
}

func TestExecuteExplicitFiles(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"a.tex":       "\\label{x}",
		"skipped.tex": "\\label{y}",
	})

	runner := NewRunner(quietLogger())
	result, err := runner.Execute(context.Background(), Options{
		SourceDir:  root,
		Files:      []string{"a.tex"},
		OutputPath: filepath.Join(t.TempDir(), "graph.gv"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", result.Stats.FileCount)
	}
	if _, ok := result.Graph.Node("skipped.tex"); ok {
		t.Error("file outside the explicit list appeared in the graph")
	}
}

func TestExecuteCarriesDiagnostics(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"main.tex":   "\\label{dup}",
		"orphan.tex": "\\label{dup}",
	})

	runner := NewRunner(quietLogger())
	result, err := runner.Execute(context.Background(), Options{
		SourceDir:  root,
		EntryFiles: []string{"main.tex"},
		OutputPath: filepath.Join(t.TempDir(), "graph.gv"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Report.Count(diag.OrphanFile) != 1 {
		t.Errorf("orphan diagnostics = %d, want 1", result.Report.Count(diag.OrphanFile))
	}
	if result.Report.Count(diag.DuplicateAnchor) != 1 {
		t.Errorf("duplicate diagnostics = %d, want 1", result.Report.Count(diag.DuplicateAnchor))
	}
	// Orphans still become nodes.
	if _, ok := result.Graph.Node("orphan.tex"); !ok {
		t.Error("orphan file missing from graph")
	}
}

func TestExecuteReportSurvivesFailure(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"main.tex": "\\label{x}",
	})

	runner := NewRunner(quietLogger())
	result, err := runner.Execute(context.Background(), Options{
		SourceDir:  root,
		EntryFiles: []string{"missing.tex"},
		OutputPath: filepath.Join(t.TempDir(), "graph.gv"),
	})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
	if result == nil || result.Report == nil {
		t.Fatal("failed run must still return its report")
	}
}

func TestExecuteNoPartialOutputOnFailure(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"main.tex": "\\label{x}",
	})
	output := filepath.Join(t.TempDir(), "graph.gv")

	runner := NewRunner(quietLogger())
	_, err := runner.Execute(context.Background(), Options{
		SourceDir:  root,
		EntryFiles: []string{"missing.tex"},
		OutputPath: output,
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("failed run left a partial artifact behind")
	}
}

func TestExecuteCapacityExceeded(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"a.tex": "",
		"b.tex": "",
	})

	runner := NewRunner(quietLogger())
	_, err := runner.Execute(context.Background(), Options{
		SourceDir:  root,
		MaxFiles:   1,
		OutputPath: filepath.Join(t.TempDir(), "graph.gv"),
	})
	if !errors.Is(err, errors.ErrCodeCapacityExceeded) {
		t.Errorf("err = %v, want CAPACITY_EXCEEDED", err)
	}
}

package corpus

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/texviz/refgraph/pkg/diag"
	"github.com/texviz/refgraph/pkg/errors"
)

// writeTree creates a corpus directory from path → content pairs.
func writeTree(t *testing.T, files map[string]string) string {
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

func TestDiscover(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.tex":            `\input{chapters/one}`,
		"chapters/one.tex":    `\label{ch:1}`,
		"notes.md":            "not latex",
		"build/generated.tex": "ignored",
	})

	paths, err := Discover(root, "*.tex", []string{"build/"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"chapters/one.tex", "main.tex"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Discover = %v, want %v", paths, want)
	}
}

func TestDiscoverPathPattern(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.tex":         "",
		"chapters/one.tex": "",
	})

	paths, err := Discover(root, "chapters/*.tex", nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"chapters/one.tex"}; !reflect.DeepEqual(paths, want) {
		t.Errorf("Discover = %v, want %v", paths, want)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), "*.tex", nil)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoad(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.tex": `\label{fig:1}`,
		"b.tex": `\ref{fig:1}`,
	})

	c, err := Load(context.Background(), root, []string{"b.tex", "a.tex"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.tex", "b.tex"}; !reflect.DeepEqual(c.Paths, want) {
		t.Errorf("Paths = %v, want sorted %v", c.Paths, want)
	}
	if len(c.Tokens["a.tex"]) != 1 || len(c.Tokens["b.tex"]) != 1 {
		t.Errorf("Tokens = %v", c.Tokens)
	}
	if c.Report.Total() != 0 {
		t.Errorf("unexpected diagnostics: %v", c.Report.All())
	}
}

func TestLoadEncodingErrorSkipsFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.tex": `\label{ok}`,
		"bad.tex":  "\xff\xfe broken",
	})

	c, err := Load(context.Background(), root, []string{"good.tex", "bad.tex"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Tokens["bad.tex"]; ok {
		t.Error("invalid UTF-8 file should not contribute tokens")
	}
	if _, ok := c.Tokens["good.tex"]; !ok {
		t.Error("valid file lost its contribution")
	}
	if got := c.Report.Count(diag.EncodingError); got != 1 {
		t.Errorf("encoding diagnostics = %d, want 1", got)
	}
}

func TestLoadParseWarnings(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.tex": "\\ref{never closed",
	})

	c, err := Load(context.Background(), root, []string{"a.tex"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Report.Count(diag.ParseWarning); got != 1 {
		t.Errorf("parse warnings = %d, want 1: %v", got, c.Report.All())
	}
}

func TestLoadMaxFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.tex": "",
		"b.tex": "",
	})

	_, err := Load(context.Background(), root, []string{"a.tex", "b.tex"}, Options{MaxFiles: 1})
	if !errors.Is(err, errors.ErrCodeCapacityExceeded) {
		t.Errorf("err = %v, want CAPACITY_EXCEEDED", err)
	}
}

func TestLoadMaxBytes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.tex": "0123456789",
	})

	_, err := Load(context.Background(), root, []string{"a.tex"}, Options{MaxBytes: 5})
	if !errors.Is(err, errors.ErrCodeCapacityExceeded) {
		t.Errorf("err = %v, want CAPACITY_EXCEEDED", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	root := writeTree(t, nil)

	_, err := Load(context.Background(), root, []string{"gone.tex"}, Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDeduplicatesPaths(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.tex": `\label{x}`,
	})

	c, err := Load(context.Background(), root, []string{"a.tex", "./a.tex"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Paths) != 1 {
		t.Errorf("Paths = %v, want single entry", c.Paths)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"a.tex": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, root, []string{"a.tex"}, Options{})
	if !errors.Is(err, errors.ErrCodeDeadlineExceeded) {
		t.Errorf("err = %v, want DEADLINE_EXCEEDED", err)
	}
}

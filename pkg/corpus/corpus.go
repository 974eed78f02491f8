// Package corpus loads and scans the set of source files a run operates on.
//
// Scanning is embarrassingly parallel: every file is independent, so reads
// and scans run on a bounded worker group and results are collected into a
// path-keyed structure before resolution starts. Nothing mutable crosses
// that barrier - the resolver only ever sees the completed token collection.
package corpus

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/texviz/refgraph/pkg/diag"
	"github.com/texviz/refgraph/pkg/errors"
	"github.com/texviz/refgraph/pkg/scanner"
)

const (
	// DefaultMaxFiles caps the number of corpus files per run.
	DefaultMaxFiles = 10000
	// DefaultMaxBytes caps the combined size of all corpus files.
	DefaultMaxBytes = 256 << 20
	// DefaultWorkers bounds concurrent file scans.
	DefaultWorkers = 8
	// DefaultIncludePattern matches the corpus source files during discovery.
	DefaultIncludePattern = "*.tex"
)

// Options configures corpus loading. Zero fields fall back to the package
// defaults.
type Options struct {
	// MaxFiles fails the run fast when the corpus has more files.
	MaxFiles int
	// MaxBytes fails the run fast when the corpus exceeds this total size.
	MaxBytes int64
	// Workers bounds the scan parallelism.
	Workers int
}

// WithDefaults returns a copy of o with zero fields defaulted.
func (o Options) WithDefaults() Options {
	if o.MaxFiles == 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.MaxBytes == 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	return o
}

// Corpus is the scanned input set: one token stream per successfully read
// file, keyed by the file's slash-separated path relative to Root. Files
// that failed UTF-8 validation are absent from Tokens and recorded in
// Report. A Corpus is immutable once Load returns.
type Corpus struct {
	Root   string
	Paths  []string
	Tokens map[string][]scanner.Token
	Report *diag.Report
}

// Discover walks root and returns the relative paths of files matching
// includePattern, minus those matched by the gitignore-style excludes.
// Patterns without a path separator match the base name; patterns with one
// match the whole relative path. Paths come back sorted.
func Discover(root, includePattern string, excludePatterns []string) ([]string, error) {
	if includePattern == "" {
		includePattern = DefaultIncludePattern
	}
	var ign *gitignore.GitIgnore
	if len(excludePatterns) > 0 {
		ign = gitignore.CompileIgnoreLines(excludePatterns...)
	}

	var paths []string
	err := fs.WalkDir(os.DirFS(root), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !matches(includePattern, p) {
			return nil
		}
		if ign != nil && ign.MatchesPath(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "discover files under %s", root)
	}
	slices.Sort(paths)
	return paths, nil
}

// matches applies the include pattern to a relative slash path.
func matches(pattern, p string) bool {
	target := p
	if !strings.Contains(pattern, "/") {
		target = path.Base(p)
	}
	ok, err := path.Match(pattern, target)
	return err == nil && ok
}

// Load reads and scans the given files relative to root. Capacity guards
// run before any file content is touched, so an oversized corpus fails fast
// with a capacity error instead of degrading silently. Unreadable files
// abort the run (IO-class failure); files with invalid UTF-8 only lose
// their own contribution and are reported as encoding errors.
//
// The context is checked at each file boundary, never mid-scan.
func Load(ctx context.Context, root string, paths []string, opts Options) (*Corpus, error) {
	opts = opts.WithDefaults()

	paths = normalize(paths)
	if len(paths) > opts.MaxFiles {
		return nil, errors.New(errors.ErrCodeCapacityExceeded,
			"corpus has %d files, limit is %d", len(paths), opts.MaxFiles)
	}
	if err := checkSize(root, paths, opts.MaxBytes); err != nil {
		return nil, err
	}

	type fileResult struct {
		tokens   []scanner.Token
		warnings []scanner.Warning
		badUTF8  bool
	}
	results := make([]fileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(errors.ErrCodeDeadlineExceeded, err, "scan canceled")
			}
			data, err := os.ReadFile(filepath.Join(filepath.FromSlash(root), filepath.FromSlash(p)))
			if err != nil {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", p)
			}
			if !utf8.Valid(data) {
				results[i] = fileResult{badUTF8: true}
				return nil
			}
			tokens, warnings := scanner.Scan(p, string(data))
			results[i] = fileResult{tokens: tokens, warnings: warnings}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Assemble in path order so diagnostics and token maps never depend on
	// scan completion order.
	c := &Corpus{
		Root:   root,
		Tokens: make(map[string][]scanner.Token, len(paths)),
		Report: &diag.Report{},
	}
	for i, p := range paths {
		res := results[i]
		if res.badUTF8 {
			c.Report.Add(diag.EncodingError, p, "file is not valid UTF-8; skipped")
			continue
		}
		c.Paths = append(c.Paths, p)
		c.Tokens[p] = res.tokens
		for _, w := range res.warnings {
			c.Report.Add(diag.ParseWarning, w.File, "%s: %s", w.Pos, w.Message)
		}
	}
	return c, nil
}

// normalize converts paths to cleaned slash form, drops duplicates, and
// sorts them for deterministic processing.
func normalize(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

// checkSize stats every file up front and enforces the byte ceiling.
func checkSize(root string, paths []string, maxBytes int64) error {
	var total int64
	for _, p := range paths {
		info, err := os.Stat(filepath.Join(filepath.FromSlash(root), filepath.FromSlash(p)))
		if err != nil {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", p)
		}
		total += info.Size()
		if total > maxBytes {
			return errors.New(errors.ErrCodeCapacityExceeded,
				"corpus exceeds %d bytes at %s", maxBytes, p)
		}
	}
	return nil
}

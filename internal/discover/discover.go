// Package discover implements batch file discovery over a list of file and
// directory targets: recursive directory walking, .gitignore exclusion, and
// include/exclude glob filtering. Adapted from
// internal/scanner/scanner.go's Scanner, generalized from a single
// language-provider's fixed extension set to an arbitrary extension
// allowlist, and from filepath.Match globs to doublestar's ** support
// (grounded on core/filewalker.go's doublestar.PathMatch usage).
package discover

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/isty2e/identedit/internal/apperr"
)

// skipDirs are directory basenames never descended into, gitignore aside.
var skipDirs = []string{".git", "vendor", "node_modules", "dist", "build"}

// Options controls one discovery run.
type Options struct {
	MaxBytes       int64    // 0 means unbounded
	FollowSymlinks bool
	IncludeGlobs   []string // doublestar patterns; empty means match everything
	ExcludeGlobs   []string
	NoGitignore    bool
	Extensions     []string // e.g. [".go", ".py"]; empty means no extension filter
}

// Discoverer walks a set of targets and returns the files within them that
// pass the configured filters.
type Discoverer struct {
	opts      Options
	gitignore *ignore.GitIgnore
}

// New builds a Discoverer, loading .gitignore files from cwd up to the
// filesystem root unless Options.NoGitignore is set.
func New(opts Options) *Discoverer {
	d := &Discoverer{opts: opts}
	if !opts.NoGitignore {
		d.loadGitignore()
	}
	return d
}

func (d *Discoverer) loadGitignore() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	var files []string
	for dir := cwd; ; {
		path := filepath.Join(dir, ".gitignore")
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if len(files) == 0 {
		return
	}
	slices.Reverse(files)

	var closer []string
	for _, f := range files[1:] {
		data, readErr := os.ReadFile(f)
		if readErr != nil {
			continue
		}
		closer = append(closer, strings.Split(string(data), "\n")...)
	}
	gi, err := ignore.CompileIgnoreFileAndLines(files[0], closer...)
	if err == nil {
		d.gitignore = gi
	}
}

// Discover walks every target (file or directory) and returns the
// deduplicated, filtered set of matching files.
func (d *Discoverer) Discover(ctx context.Context, targets []string) ([]string, error) {
	if len(targets) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, apperr.Wrap(apperr.IOError, err, "getting current directory")
		}
		targets = []string{cwd}
	}

	var all []string
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		files, err := d.scanTarget(ctx, target)
		if err != nil {
			return nil, apperr.Wrap(apperr.IOError, err, "scanning %s", target)
		}
		all = append(all, files...)
	}
	return dedup(all), nil
}

func (d *Discoverer) scanTarget(ctx context.Context, target string) ([]string, error) {
	info, err := os.Lstat(target)
	if err != nil {
		return nil, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !d.opts.FollowSymlinks {
			return nil, nil
		}
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			return nil, err
		}
		return d.scanTarget(ctx, resolved)
	}

	if info.Mode().IsRegular() {
		if d.shouldProcessFile(target, info) {
			return []string{target}, nil
		}
		return nil, nil
	}

	if info.IsDir() {
		return d.scanDirectory(ctx, target)
	}
	return nil, nil
}

func (d *Discoverer) scanDirectory(ctx context.Context, dir string) ([]string, error) {
	var files []string
	err := fs.WalkDir(os.DirFS(dir), ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		full := filepath.Join(dir, path)
		if entry.IsDir() {
			if path != "." && d.shouldSkipDirectory(path) {
				return fs.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			if d.shouldProcessFile(full, info) {
				files = append(files, full)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (d *Discoverer) shouldProcessFile(path string, info os.FileInfo) bool {
	if d.matchesGitignore(path) {
		return false
	}
	if d.opts.MaxBytes > 0 && info.Size() > d.opts.MaxBytes {
		return false
	}
	if len(d.opts.Extensions) > 0 && !slices.Contains(d.opts.Extensions, filepath.Ext(path)) {
		return false
	}

	basename := filepath.Base(path)
	if len(d.opts.IncludeGlobs) > 0 && !matchesAny(d.opts.IncludeGlobs, path, basename) {
		return false
	}
	if matchesAny(d.opts.ExcludeGlobs, path, basename) {
		return false
	}
	return true
}

func (d *Discoverer) shouldSkipDirectory(path string) bool {
	if d.matchesGitignore(path) {
		return true
	}
	base := filepath.Base(path)
	if slices.Contains(skipDirs, base) {
		return true
	}
	return strings.HasPrefix(base, ".")
}

func (d *Discoverer) matchesGitignore(path string) bool {
	if d.gitignore == nil {
		return false
	}
	rel, err := filepath.Rel(".", path)
	if err != nil {
		return false
	}
	return d.gitignore.MatchesPath(rel)
}

// matchesAny reports whether any pattern doublestar-matches the full path or
// the basename, so a caller can write either "**/*_test.go" or "*_test.go".
func matchesAny(patterns []string, path, basename string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.PathMatch(pattern, path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, basename); err == nil && matched {
			return true
		}
	}
	return false
}

func dedup(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

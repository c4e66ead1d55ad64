package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"

	"github.com/dshills/ailint/internal/config"
)

// ConfigSource supplies the effective config of a directory.
type ConfigSource interface {
	ConfigForDir(dir string) (*config.Config, error)
	Default() *config.Config
}

// Options configures a scan.
type Options struct {
	Configs ConfigSource
	Logger  *zap.Logger
}

// dirState is what a directory passes on to its entries.
type dirState struct {
	cfg       *config.Config
	gitignore []gitignore.Pattern // accumulated from the root down to this directory
	matcher   gitignore.Matcher
}

// Walk returns the files to check under root in discovery order: lexical
// order within each directory, depth first. A root that is a file is
// returned as is.
func Walk(ctx context.Context, root string, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	dirs := make(map[string]*dirState)
	var files []string

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logger.Warn("skipping unreadable path", zap.String("path", p), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		parts := splitRel(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if parent := dirs[filepath.Dir(p)]; parent != nil && len(parts) > 0 && parent.matcher.Match(parts, true) {
				logger.Debug("ignoring directory", zap.String("path", p))
				return filepath.SkipDir
			}
			state, err := enterDir(p, parts, dirs[filepath.Dir(p)], opts.Configs, logger)
			if err != nil {
				return err
			}
			dirs[p] = state
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		dir := dirs[filepath.Dir(p)]
		if dir.matcher.Match(parts, false) {
			return nil
		}
		if included(p, dir.cfg, logger) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func enterDir(p string, parts []string, parent *dirState, configs ConfigSource, logger *zap.Logger) (*dirState, error) {
	cfg, err := configs.ConfigForDir(p)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = configs.Default()
	}

	var inherited []gitignore.Pattern
	if parent != nil {
		inherited = parent.gitignore
	}
	own, err := readGitignore(filepath.Join(p, ".gitignore"), parts)
	if err != nil {
		logger.Warn("skipping unreadable .gitignore", zap.String("dir", p), zap.Error(err))
	}
	stack := append(append([]gitignore.Pattern{}, inherited...), own...)

	patterns := compileIgnore(cfg.Ignore)
	if cfg.GitIgnore() {
		patterns = append(patterns, stack...)
	}
	return &dirState{
		cfg:       cfg,
		gitignore: stack,
		matcher:   gitignore.NewMatcher(patterns),
	}, nil
}

// compileIgnore parses config ignore patterns, which are relative to the
// scan root.
func compileIgnore(lines []string) []gitignore.Pattern {
	var ps []gitignore.Pattern
	for _, l := range lines {
		if l = strings.TrimSpace(l); l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(l, nil))
	}
	return ps
}

// readGitignore parses the .gitignore at file, scoping its patterns to
// domain. A missing file yields no patterns.
func readGitignore(file string, domain []string) ([]gitignore.Pattern, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ps []gitignore.Pattern
	for _, l := range strings.Split(string(data), "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" || strings.HasPrefix(l, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(l, domain))
	}
	return ps, nil
}

func included(p string, cfg *config.Config, logger *zap.Logger) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, want := range cfg.IncludeExtensions {
		if ext != "" && ext == normalizeExt(want) {
			return true
		}
	}
	if len(cfg.IncludeMimeTypes) == 0 {
		return false
	}
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		logger.Warn("cannot detect file type", zap.String("path", p), zap.Error(err))
		return false
	}
	return matchesMime(mt, cfg.IncludeMimeTypes)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// matchesMime matches the detected type and its parents against patterns
// such as "text/*" or "application/json".
func matchesMime(mt *mimetype.MIME, patterns []string) bool {
	for m := mt; m != nil; m = m.Parent() {
		name, _, _ := strings.Cut(m.String(), ";")
		name = strings.TrimSpace(name)
		for _, pat := range patterns {
			if ok, err := path.Match(strings.TrimSpace(pat), name); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func splitRel(rel string) []string {
	if rel == "." {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

// WalkAll walks every root in order and returns the files found, each once.
func WalkAll(ctx context.Context, roots []string, opts Options) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		files, err := Walk(ctx, root, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			key := f
			if abs, err := filepath.Abs(f); err == nil {
				key = abs
			}
			if !seen[key] {
				seen[key] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}

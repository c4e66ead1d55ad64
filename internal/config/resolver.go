package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// cacheSize bounds each resolver cache. It is far above the number of
// directories in a typical tree.
const cacheSize = 1 << 14

// defaultSource names the built-in baseline in errors.
const defaultSource = "built-in default"

// Located is an effective config together with the directory holding it.
type Located struct {
	Dir    string
	Config *Config
}

// Options configures a Resolver.
type Options struct {
	// Lookup resolves ${VAR} placeholders. Defaults to os.LookupEnv.
	Lookup LookupFunc
	Logger *zap.Logger
}

// Resolver loads and merges config files and resolves per-rule API
// parameters. It caches everything it reads until ClearCache is called.
type Resolver struct {
	lookup LookupFunc
	logger *zap.Logger

	raw       *lru.Cache[string, *Config]   // config path -> file as loaded
	effective *lru.Cache[string, *Config]   // config path -> merged config
	nearest   *lru.Cache[string, string]    // dir -> nearest config path, "" if none
	chains    *lru.Cache[string, []Located] // dir -> configs from dir up to root

	mu       sync.Mutex
	defaults *Config
}

// NewResolver creates a Resolver.
func NewResolver(opts Options) *Resolver {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Resolver{
		lookup:    opts.Lookup,
		logger:    opts.Logger,
		raw:       mustCache[*Config](),
		effective: mustCache[*Config](),
		nearest:   mustCache[string](),
		chains:    mustCache[[]Located](),
	}
}

func mustCache[V any]() *lru.Cache[string, V] {
	c, err := lru.New[string, V](cacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// ClearCache drops every cached load and walk. Call it between independent
// runs that share a Resolver.
func (r *Resolver) ClearCache() {
	r.raw.Purge()
	r.effective.Purge()
	r.nearest.Purge()
	r.chains.Purge()
	r.mu.Lock()
	r.defaults = nil
	r.mu.Unlock()
}

// Default returns the built-in baseline, expanded once per cache lifetime.
func (r *Resolver) Default() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defaults == nil {
		r.defaults = Default(r.lookup)
	}
	return r.defaults
}

// Load returns the effective config of the file at path, merged with its
// base.
func (r *Resolver) Load(path string) (*Config, error) {
	path, err := absClean(path)
	if err != nil {
		return nil, err
	}
	if cfg, ok := r.effective.Get(path); ok {
		return cfg, nil
	}

	local, err := r.loadRaw(path)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch local.Base {
	case BaseEmpty:
		cfg = standalone(local)
	case BaseDefault:
		cfg = merge(r.Default(), local)
	default:
		start := filepath.Dir(filepath.Dir(path))
		parentPath, err := r.nearestConfig(start)
		if err != nil {
			return nil, err
		}
		if parentPath == "" {
			return nil, &Error{
				Path: path,
				Msg:  fmt.Sprintf("baseConfig is omitted, so a parent %s is required, but none was found from %s up to the filesystem root", FileName, start),
			}
		}
		parent, err := r.Load(parentPath)
		if err != nil {
			return nil, err
		}
		cfg = merge(parent, local)
	}

	r.effective.Add(path, cfg)
	return cfg, nil
}

func (r *Resolver) loadRaw(path string) (*Config, error) {
	if cfg, ok := r.raw.Get(path); ok {
		return cfg, nil
	}
	cfg, err := readFile(path, r.lookup)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded config", zap.String("path", path), zap.Stringer("base", cfg.Base))
	r.raw.Add(path, cfg)
	return cfg, nil
}

// ConfigForDir returns the effective config governing dir: that of the
// nearest config file in dir or its ancestors. It returns nil when there is
// none.
func (r *Resolver) ConfigForDir(dir string) (*Config, error) {
	dir, err := absClean(dir)
	if err != nil {
		return nil, err
	}
	path, err := r.nearestConfig(dir)
	if err != nil || path == "" {
		return nil, err
	}
	return r.Load(path)
}

// nearestConfig returns the path of the first config file found walking up
// from dir, or "" when the walk reaches the root without one.
func (r *Resolver) nearestConfig(dir string) (string, error) {
	if path, ok := r.nearest.Get(dir); ok {
		return path, nil
	}

	candidate := filepath.Join(dir, FileName)
	found, err := exists(candidate)
	if err != nil {
		return "", err
	}

	var path string
	switch parent := filepath.Dir(dir); {
	case found:
		path = candidate
	case parent != dir:
		path, err = r.nearestConfig(parent)
		if err != nil {
			return "", err
		}
	}
	r.nearest.Add(dir, path)
	return path, nil
}

// Chain returns the effective configs of every config file from dir up to
// the filesystem root, nearest first.
func (r *Resolver) Chain(dir string) ([]Located, error) {
	dir, err := absClean(dir)
	if err != nil {
		return nil, err
	}
	return r.chain(dir)
}

func (r *Resolver) chain(dir string) ([]Located, error) {
	if c, ok := r.chains.Get(dir); ok {
		return c, nil
	}

	var out []Located
	candidate := filepath.Join(dir, FileName)
	found, err := exists(candidate)
	if err != nil {
		return nil, err
	}
	if found {
		cfg, err := r.Load(candidate)
		if err != nil {
			return nil, err
		}
		out = append(out, Located{Dir: dir, Config: cfg})
	}
	if parent := filepath.Dir(dir); parent != dir {
		rest, err := r.chain(parent)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
	}

	r.chains.Add(dir, out)
	return out, nil
}

type overrideMatch struct {
	depth     int
	exact     bool
	prefixLen int
	override  RuleOverride
}

// beats reports whether m ranks above other. Candidates are visited nearest
// directory first, so an equal rank never replaces the current winner.
func (m overrideMatch) beats(other overrideMatch) bool {
	if m.exact != other.exact {
		return m.exact
	}
	if !m.exact && m.prefixLen != other.prefixLen {
		return m.prefixLen > other.prefixLen
	}
	return m.depth < other.depth
}

// ResolveParameters returns the API parameters for rule as seen from the
// file at filePath. With no config above the file the built-in default
// applies, as it does for discovery. It returns nil when the nearest config
// provides no apiConfig.
func (r *Resolver) ResolveParameters(filePath, rule string) (*Params, error) {
	abs, err := absClean(filePath)
	if err != nil {
		return nil, err
	}
	chain, err := r.chain(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return toParams(defaultSource, "", *r.Default().APIConfig)
	}

	var best *overrideMatch
	for depth, loc := range chain {
		for _, ov := range loc.Config.RuleOverrides {
			ok, exact, prefixLen := matchPattern(ov.Pattern, rule)
			if !ok {
				continue
			}
			m := overrideMatch{depth: depth, exact: exact, prefixLen: prefixLen, override: ov}
			if best == nil || m.beats(*best) {
				best = &m
			}
		}
	}

	if best == nil {
		api := chain[0].Config.APIConfig
		if api == nil {
			return nil, nil
		}
		return toParams(chain[0].Config.Path, "", *api)
	}

	owner := chain[best.depth].Config
	if owner.APIConfig == nil {
		return nil, &Error{
			Path:    owner.Path,
			Pattern: best.override.Pattern,
			Msg:     fmt.Sprintf("override matches rule %q but the config has no apiConfig to apply it to", rule),
		}
	}
	return toParams(owner.Path, best.override.Pattern, owner.APIConfig.Apply(best.override.Params))
}

func toParams(path, pattern string, api APIConfig) (*Params, error) {
	p, err := api.Params()
	if err != nil {
		return nil, &Error{Path: path, Pattern: pattern, Msg: err.Error()}
	}
	return &p, nil
}

func exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, &Error{Path: path, Msg: "checking for config file", Err: err}
}

func absClean(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/dshills/ailint/internal/config"
	"github.com/dshills/ailint/internal/oracle"
)

// DefaultTTL is how long a verdict stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Entry is one cached verdict.
type Entry struct {
	Key       string         `json:"key"`
	Rule      string         `json:"rule"`
	Verdict   oracle.Verdict `json:"verdict"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Options configures a Cache.
type Options struct {
	Enabled bool
	// Dir defaults to the user cache directory.
	Dir string
	// TTL defaults to DefaultTTL.
	TTL time.Duration
}

// Cache is a directory of verdict entries, one JSON file per key.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// New creates a Cache, creating its directory when enabled.
func New(opts Options) (*Cache, error) {
	if !opts.Enabled {
		return &Cache{now: time.Now}, nil
	}
	dir := opts.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{dir: dir, ttl: ttl, enabled: true, now: time.Now}, nil
}

// Key derives the cache key of one rule under params. wire is the rule's
// serialized request form.
func Key(params config.Params, wire string) string {
	h := sha256.New()
	for _, part := range []string{
		params.BaseURL,
		params.ModelName,
		strconv.FormatFloat(params.Temperature, 'g', -1, 64),
		wire,
	} {
		fmt.Fprintf(h, "%d:%s\n", len(part), part)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns the verdict stored under key. Expired and unreadable entries
// are misses.
func (c *Cache) Get(key string) (oracle.Verdict, bool) {
	if !c.enabled {
		return oracle.Verdict{}, false
	}
	entry, err := c.read(c.entryPath(key))
	if err != nil {
		return oracle.Verdict{}, false
	}
	if c.expired(entry) {
		_ = os.Remove(c.entryPath(key))
		return oracle.Verdict{}, false
	}
	return entry.Verdict, true
}

// Put stores verdict for rule under key.
func (c *Cache) Put(key, rule string, verdict oracle.Verdict) error {
	if !c.enabled {
		return nil
	}
	data, err := json.Marshal(Entry{
		Key:       key,
		Rule:      rule,
		Verdict:   verdict,
		CreatedAt: c.now(),
	})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	// Write then rename so a concurrent reader never sees a partial entry.
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	if !c.enabled {
		return 0, nil
	}
	names, err := c.entryNames()
	if err != nil {
		return 0, err
	}
	var removed int
	for _, name := range names {
		if err := os.Remove(filepath.Join(c.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Stats describes the cache contents.
type Stats struct {
	Dir        string `json:"dir" yaml:"dir"`
	Entries    int    `json:"entries" yaml:"entries"`
	Expired    int    `json:"expired" yaml:"expired"`
	TotalBytes int64  `json:"totalBytes" yaml:"totalBytes"`
}

// Stats reports the number and size of entries.
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled {
		return stats, nil
	}
	names, err := c.entryNames()
	if err != nil {
		return stats, err
	}
	for _, name := range names {
		path := filepath.Join(c.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		if entry, err := c.read(path); err == nil && c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory, or "" when disabled.
func (c *Cache) Dir() string { return c.dir }

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) expired(e Entry) bool {
	return c.now().Sub(e.CreatedAt) > c.ttl
}

func (c *Cache) read(path string) (Entry, error) {
	var entry Entry
	data, err := os.ReadFile(path)
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, err
	}
	return entry, nil
}

func (c *Cache) entryNames() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// DefaultDir returns the per-user cache directory for ailint.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ailint"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "ailint"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "ailint", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "ailint", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "ailint"), nil
	}
}

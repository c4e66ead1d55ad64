package lint

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/ailint/internal/annotation"
	"github.com/dshills/ailint/internal/assemble"
	"github.com/dshills/ailint/internal/cache"
	"github.com/dshills/ailint/internal/oracle"
	"github.com/dshills/ailint/internal/redact"
	"github.com/dshills/ailint/internal/scan"
)

// Resolver supplies directory configs for discovery and per-rule API
// parameters for assembly. *config.Resolver implements it.
type Resolver interface {
	scan.ConfigSource
	assemble.ParamResolver
}

// ProgressFunc observes cumulative progress after each batch.
type ProgressFunc func(done, total int)

// Options configures an Engine.
type Options struct {
	Resolver Resolver
	Oracle   oracle.Oracle
	// Cache is optional.
	Cache *cache.Cache
	// MaxBatchChars defaults to assemble.DefaultMaxChars.
	MaxBatchChars int
	// Redact masks secrets in block source before submission.
	Redact bool
	// Workers bounds parallel file parsing. Defaults to GOMAXPROCS.
	Workers  int
	Progress ProgressFunc
	Logger   *zap.Logger
	Version  string
}

// Engine runs checks. It holds no per-run state.
type Engine struct {
	opts Options
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBatchChars <= 0 {
		opts.MaxBatchChars = assemble.DefaultMaxChars
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{opts: opts}
}

// pending is a rule awaiting an oracle verdict.
type pending struct {
	rule assemble.ResolvedRule
	key  string
}

// Run checks every rule found under paths. Any configuration or oracle
// error aborts the run and no partial report is returned.
func (e *Engine) Run(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.opts.Logger.With(zap.String("run", runID))

	files, err := scan.WalkAll(ctx, paths, scan.Options{Configs: e.opts.Resolver, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	log.Debug("discovered files", zap.Int("count", len(files)))

	parsed, err := e.parseFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	asm := assemble.New()
	for _, rules := range parsed {
		asm.Add(rules)
	}
	rules := asm.Rules()
	if e.opts.Redact {
		var n int
		rules, n = redact.Rules(rules)
		if n > 0 {
			log.Info("redacted secrets from fragment source", zap.Int("count", n))
		}
	}

	resolved, err := assemble.Resolve(rules, e.opts.Resolver)
	if err != nil {
		return nil, err
	}
	scanMs := time.Since(start).Milliseconds()

	verdicts := make(map[string]oracle.Verdict, len(resolved))
	cached := make(map[string]bool)
	var todo []assemble.ResolvedRule
	keys := make(map[string]string, len(resolved))
	for _, rr := range resolved {
		if e.opts.Cache == nil || !e.opts.Cache.Enabled() {
			todo = append(todo, rr)
			continue
		}
		key := cache.Key(rr.Params, oracle.Serialize([]annotation.Rule{rr.Rule}))
		keys[rr.Rule.Name] = key
		if v, ok := e.opts.Cache.Get(key); ok {
			verdicts[rr.Rule.Name] = v
			cached[rr.Rule.Name] = true
			continue
		}
		todo = append(todo, rr)
	}
	if len(cached) > 0 {
		log.Debug("using cached verdicts", zap.Int("count", len(cached)))
	}

	oracleStart := time.Now()
	batches := assemble.MakeBatches(todo, e.opts.MaxBatchChars, oracle.Size)
	done := len(cached)
	for _, b := range batches {
		log.Debug("submitting batch",
			zap.Int("batch", b.Index),
			zap.Int("rules", len(b.Rules)),
			zap.Int("chars", b.Chars),
			zap.String("model", b.Params.ModelName),
		)
		got, err := e.opts.Oracle.Check(ctx, b.Params, b.Rules)
		if err != nil {
			return nil, fmt.Errorf("checking batch %d of %d: %w", b.Index+1, len(batches), err)
		}
		if err := oracle.CheckVerdicts(b.Rules, got); err != nil {
			return nil, fmt.Errorf("checking batch %d of %d: %w", b.Index+1, len(batches), err)
		}
		for _, r := range b.Rules {
			v := got[r.Name]
			verdicts[r.Name] = v
			if key, ok := keys[r.Name]; ok {
				if err := e.opts.Cache.Put(key, r.Name, v); err != nil {
					log.Warn("caching verdict", zap.String("rule", r.Name), zap.Error(err))
				}
			}
		}
		done += len(b.Rules)
		log.Info("batch complete", zap.Int("checked", done), zap.Int("total", len(resolved)))
		if e.opts.Progress != nil {
			e.opts.Progress(done, len(resolved))
		}
	}

	report := &Report{
		Tool:    "ailint",
		Version: e.opts.Version,
		RunID:   runID,
		Results: make([]RuleResult, 0, len(resolved)),
		Summary: Summary{
			Files:   len(files),
			Rules:   len(resolved),
			Batches: len(batches),
			Cached:  len(cached),
		},
		Timing: Timing{
			ScanMs:   scanMs,
			OracleMs: time.Since(oracleStart).Milliseconds(),
			TotalMs:  time.Since(start).Milliseconds(),
		},
	}
	for _, rr := range resolved {
		v := verdicts[rr.Rule.Name]
		if v.Result == oracle.Pass {
			report.Summary.Passed++
		} else {
			report.Summary.Failed++
		}
		report.Results = append(report.Results, RuleResult{
			Rule:      rr.Rule.Name,
			Result:    v.Result,
			Reason:    v.Reason,
			Model:     rr.Params.ModelName,
			Cached:    cached[rr.Rule.Name],
			Locations: locations(rr.Rule),
		})
	}
	return report, nil
}

// parseFiles reads and parses files in parallel. The result is indexed like
// files. Unreadable files are logged and contribute nothing.
func (e *Engine) parseFiles(ctx context.Context, files []string) ([][]annotation.Rule, error) {
	out := make([][]annotation.Rule, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f)
			if err != nil {
				e.opts.Logger.Warn("skipping unreadable file", zap.String("path", f), zap.Error(err))
				return nil
			}
			out[i] = annotation.Parse(f, string(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

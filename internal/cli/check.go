package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/ailint/internal/assemble"
	"github.com/dshills/ailint/internal/cache"
	"github.com/dshills/ailint/internal/config"
	"github.com/dshills/ailint/internal/lint"
	"github.com/dshills/ailint/internal/output"
)

// maxBatchCharsEnv overrides the default batch ceiling.
const maxBatchCharsEnv = "AILINT_MAX_BATCH_CHARS"

type checkFlags struct {
	format        string
	out           string
	maxBatchChars int
	workers       int
	noCache       bool
	cacheDir      string
	noRedact      bool
}

func (a *app) newCheckCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check annotated rules under the given paths",
		Long: `Check scans the given files and directories (default: the current
directory), assembles AI_SPEC rules across files, and submits them to the
configured model. The exit code is 1 when any rule fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "text", "Output format ("+strings.Join(output.Formats, ", ")+")")
	fl.StringVarP(&f.out, "out", "o", "", "Output file path (default: stdout)")
	fl.IntVar(&f.maxBatchChars, "max-batch-chars", 0, fmt.Sprintf("Character ceiling per oracle request (default %d, or $%s)", assemble.DefaultMaxChars, maxBatchCharsEnv))
	fl.IntVar(&f.workers, "workers", 0, "Files parsed in parallel (default: number of CPUs)")
	fl.BoolVar(&f.noCache, "no-cache", false, "Do not read or write cached verdicts")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "Cache directory (default: user cache directory)")
	fl.BoolVar(&f.noRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, args []string, f checkFlags) error {
	writer, err := output.GetWriter(f.format)
	if err != nil {
		return &usageError{err: err}
	}
	maxChars, err := a.maxBatchChars(f.maxBatchChars)
	if err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	c, err := cache.New(cache.Options{Enabled: !f.noCache, Dir: f.cacheDir})
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	if f.noRedact {
		a.logger.Warn("secret redaction is disabled")
	}

	engine := lint.New(lint.Options{
		Resolver:      config.NewResolver(config.Options{Lookup: a.lookup, Logger: a.logger}),
		Oracle:        a.newOracle(),
		Cache:         c,
		MaxBatchChars: maxChars,
		Redact:        !f.noRedact,
		Workers:       f.workers,
		Logger:        a.logger,
		Version:       version,
	})
	report, err := engine.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}

	if f.out == "" {
		err = writer.Write(cmd.OutOrStdout(), report)
	} else {
		err = output.WriteReport(report, f.format, f.out)
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if report.Failed() {
		a.exitCode = ExitFailed
	}
	return nil
}

// maxBatchChars picks the flag value, then the environment, then the
// default.
func (a *app) maxBatchChars(flag int) (int, error) {
	if flag < 0 {
		return 0, usagef("--max-batch-chars must be positive, got %d", flag)
	}
	if flag > 0 {
		return flag, nil
	}
	if v, ok := a.lookup(maxBatchCharsEnv); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer, got %q", maxBatchCharsEnv, v)
		}
		a.logger.Debug("batch ceiling from environment", zap.Int("maxBatchChars", n))
		return n, nil
	}
	return assemble.DefaultMaxChars, nil
}

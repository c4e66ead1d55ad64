package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/ailint/internal/config"
	"github.com/dshills/ailint/internal/oracle"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailed       = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs wraps a cobra argument validator so its errors map to
// ExitUsageError.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// app holds the state of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	lookup config.LookupFunc
	// oracle replaces the HTTP-backed router when set.
	oracle oracle.Oracle
	logger *zap.Logger

	verbose  bool
	envFile  string
	exitCode int
}

// Run executes the command line and returns the process exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	a := &app{stdout: os.Stdout, stderr: os.Stderr, lookup: os.LookupEnv}
	return a.execute(ctx, os.Args[1:])
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}
	return a.exitCode
}

func exitCodeFor(err error) int {
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		return ExitUsageError
	case oracle.IsAuthError(err):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ailint",
		Short:         "Check code against specifications written in its comments",
		Long:          "ailint finds AI_SPEC_BEGIN/AI_SPEC_END annotations, groups them into rules, and asks a language model whether the annotated code satisfies each rule.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadEnv(cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			logger, err := newLogger(a.stderr, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Load environment variables from this file before reading configs")

	root.AddCommand(
		a.newCheckCmd(),
		a.newInitCmd(),
		a.newConfigCmd(),
		a.newCacheCmd(),
		a.newVersionCmd(),
	)
	return root
}

// loadEnv loads the env file. A missing default file is not an error.
// Variables already set in the environment win.
func (a *app) loadEnv(explicit bool) error {
	if a.envFile == "" {
		return nil
	}
	err := godotenv.Load(a.envFile)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("loading env file %s: %w", a.envFile, err)
}

func newLogger(w io.Writer, verbose bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core), nil
}

func (a *app) newOracle() oracle.Oracle {
	if a.oracle != nil {
		return a.oracle
	}
	return oracle.NewRouter(nil)
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ailint version",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ailint version %s\n", version)
		},
	}
}

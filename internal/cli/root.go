// Package cli wires the commitsense commands: the release analysis on the
// root command plus version, changelog and config subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/foxycorps/commitsense/internal/build"
	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/git"
)

var (
	configPath  string
	debugFlag   bool
	verboseFlag bool
	noColorFlag bool

	// logger is built in PersistentPreRunE; commands run after it.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "commitsense",
	Short: "Plan the next release from commit history",
	Long: `commitsense finds the last release in git history, asks a language model to
judge the commits since then, and plans the next semantic version together
with a changelog section.

The baseline is resolved in order: --base-ref, --tag-pattern, --tag-regex,
the newest "release:" commit, the newest semver tag, the initial commit.

Without --write nothing on disk changes. With --write the manifest version
and CHANGELOG.md are updated together or not at all.`,
	Example: `  # Preview the next release of the project in the current directory
  commitsense

  # Update Cargo.toml and CHANGELOG.md
  commitsense --write

  # Nightly build from tags like api-v1.2.3, as JSON
  commitsense --tag-pattern 'api-v*' --nightly --format json

  # A package inside a monorepo, compared with a fixed ref
  commitsense --path packages/web --base-ref origin/main`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColorFlag {
			color.NoColor = true
		}
		l, err := newLogger(debugFlag, verboseFlag)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l
		logger.Debug("starting", zap.String("build", build.Summary()))
		if debugFlag {
			git.SetDebugLogger(logger.Sugar().Debugf)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, analyzeOpts)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Project config file (default: .commitsense.yml in --path)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable info logging")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentError(err.Error(), fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()))
	})

	registerAnalyzeFlags(rootCmd, &analyzeOpts)
}

// Execute runs the root command and returns the process exit code.
// SIGINT and SIGTERM cancel the run through the command context.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var reported *ExitError
	if !errors.As(err, &reported) {
		clierrors.FprintError(rootCmd.ErrOrStderr(), err)
	}
	return ExitCode(err)
}

// newLogger builds the stderr logger. Warnings and errors are always shown;
// --verbose adds info and --debug adds debug with stack traces.
func newLogger(debug, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableStacktrace = !debug
	cfg.Level = zap.NewAtomicLevelAt(logLevel(debug, verbose))
	return cfg.Build()
}

func logLevel(debug, verbose bool) zapcore.Level {
	switch {
	case debug:
		return zapcore.DebugLevel
	case verbose:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

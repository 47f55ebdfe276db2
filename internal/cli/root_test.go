package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
)

func TestRootCmd_Structure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "commitsense", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Example)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_Flags(t *testing.T) {
	t.Parallel()

	persistent := []string{"config", "debug", "verbose", "no-color"}
	for _, name := range persistent {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "persistent flag %s", name)
	}

	local := []string{
		"path", "project-type", "base-ref", "tag-pattern", "tag-regex", "write", "nightly",
		"provider", "api-key", "api-url", "model", "format", "github-output",
	}
	for _, name := range local {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), "flag %s", name)
	}

	assert.Equal(t, ".", rootCmd.Flags().Lookup("path").DefValue)
	assert.Equal(t, "text", rootCmd.Flags().Lookup("format").DefValue)
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"version", "changelog", "config"} {
		assert.True(t, names[want], "subcommand %s", want)
	}

	extract, _, err := rootCmd.Find([]string{"changelog", "extract"})
	assert.NoError(t, err)
	assert.Equal(t, "extract", extract.Name())
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		debug   bool
		verbose bool
		want    zapcore.Level
	}{
		"default": {want: zapcore.WarnLevel},
		"verbose": {verbose: true, want: zapcore.InfoLevel},
		"debug":   {debug: true, want: zapcore.DebugLevel},
		"both":    {debug: true, verbose: true, want: zapcore.DebugLevel},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logLevel(tt.debug, tt.verbose))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	l, err := newLogger(false, true)
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":             {err: nil, want: ExitSuccess},
		"plain":           {err: errors.New("boom"), want: ExitFailure},
		"config":          {err: clierrors.New(clierrors.KindConfig, "x"), want: ExitConfig},
		"conflict":        {err: clierrors.New(clierrors.KindConfigConflict, "x"), want: ExitConfig},
		"ref not found":   {err: clierrors.New(clierrors.KindRefNotFound, "x"), want: ExitRefNotFound},
		"no baseline":     {err: clierrors.New(clierrors.KindBaselineNotFound, "x"), want: ExitRefNotFound},
		"vcs":             {err: clierrors.New(clierrors.KindVcsData, "x"), want: ExitVcsData},
		"judgment parse":  {err: clierrors.New(clierrors.KindJudgmentParse, "x"), want: ExitJudgment},
		"provider":        {err: clierrors.New(clierrors.KindJudgmentProvider, "x"), want: ExitJudgment},
		"version parse":   {err: clierrors.New(clierrors.KindVersionParse, "x"), want: ExitVersionParse},
		"artifact":        {err: clierrors.New(clierrors.KindArtifactWrite, "x"), want: ExitArtifactWrite},
		"wrapped kind":    {err: fmt.Errorf("run: %w", clierrors.New(clierrors.KindVcsData, "x")), want: ExitVcsData},
		"argument error":  {err: clierrors.NewArgumentError("unknown flag"), want: ExitConfig},
		"config cli":      {err: clierrors.ConfigParseError("a.yml", errors.New("bad")), want: ExitConfig},
		"runtime cli":     {err: &clierrors.CLIError{Category: clierrors.Runtime, Message: "disk"}, want: ExitFailure},
		"reported exit":   {err: NewExitError(ExitConfig), want: ExitConfig},
		"wrapped exit":    {err: fmt.Errorf("x: %w", NewExitError(9)), want: 9},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

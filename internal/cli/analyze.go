package cli

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/foxycorps/commitsense/internal/config"
	"github.com/foxycorps/commitsense/internal/judge"
	"github.com/foxycorps/commitsense/internal/output"
	"github.com/foxycorps/commitsense/internal/progress"
	"github.com/foxycorps/commitsense/internal/project"
	"github.com/foxycorps/commitsense/internal/workflow"
)

// analyzeOptions holds the root command flags.
type analyzeOptions struct {
	path         string
	projectType  string
	baseRef      string
	tagPattern   string
	tagRegex     string
	write        bool
	nightly      bool
	provider     string
	apiKey       string
	apiURL       string
	model        string
	format       string
	githubOutput string
}

var analyzeOpts analyzeOptions

// registerAnalyzeFlags binds the analysis flags of cmd to o.
func registerAnalyzeFlags(cmd *cobra.Command, o *analyzeOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.path, "path", "p", ".", "Project directory containing Cargo.toml or package.json")
	f.StringVar(&o.projectType, "project-type", "", "Project type: rust or js (default: auto-detect)")
	f.StringVar(&o.baseRef, "base-ref", "", "Compare against this ref instead of discovering the last release")
	f.StringVar(&o.tagPattern, "tag-pattern", "", "Glob selecting release tags, e.g. 'v*'")
	f.StringVar(&o.tagRegex, "tag-regex", "", "Regular expression selecting release tags")
	f.BoolVar(&o.write, "write", false, "Update the manifest version and changelog")
	f.BoolVar(&o.nightly, "nightly", false, "Plan a nightly pre-release version")
	f.StringVar(&o.provider, "provider", "", "Model provider: openai or gemini")
	f.StringVar(&o.apiKey, "api-key", "", "Model provider API key")
	f.StringVar(&o.apiURL, "api-url", "", "OpenAI-compatible API base URL")
	f.StringVar(&o.model, "model", "", "Model identifier")
	f.StringVarP(&o.format, "format", "f", "text", "Report format: text, json or yaml")
	f.StringVar(&o.githubOutput, "github-output", "", "GitHub Actions output file (default: $GITHUB_OUTPUT)")
}

func runAnalyze(cmd *cobra.Command, opts analyzeOptions) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.LoadOptions{
		ProjectDir:        opts.path,
		ProjectConfigPath: configPath,
		Provider:          opts.provider,
	})
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	kind, err := project.ParseKind(cfg.ProjectType)
	if err != nil {
		return err
	}

	display := newDisplay(cmd.ErrOrStderr())
	if display != nil {
		defer display.Stop()
	}

	j, err := newJudge(cfg, logger, display)
	if err != nil {
		return err
	}

	wopts := workflow.Options{
		Path:          opts.path,
		ProjectKind:   kind,
		BaseRef:       opts.baseRef,
		TagPattern:    opts.tagPattern,
		TagRegex:      opts.tagRegex,
		Write:         opts.write,
		Nightly:       opts.nightly,
		ChangelogFile: cfg.ChangelogFile,
		Judge:         j,
		Logger:        logger,
	}
	if display != nil {
		wopts.Progress = display
	}

	out, err := workflow.Run(cmd.Context(), wopts)
	if err != nil {
		return err
	}

	if path := githubOutputPath(opts.githubOutput); path != "" {
		if err := output.WriteGitHubOutputs(path, output.OutputsFrom(out)); err != nil {
			return err
		}
		logger.Info("wrote step outputs", zap.String("path", path))
	}

	return output.Report(cmd.OutOrStdout(), out, output.ReportOptions{
		Format: format,
		Color:  colorEnabled(cmd.OutOrStdout()),
	})
}

// applyFlagOverrides layers explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Configuration, opts analyzeOptions) {
	override := func(flag, key string, dst *string, value string) {
		if cmd.Flags().Changed(flag) {
			*dst = value
			cfg.MarkFlag(key)
		}
	}
	override("provider", "provider", &cfg.Provider, strings.ToLower(strings.TrimSpace(opts.provider)))
	override("api-key", "api_key", &cfg.APIKey, opts.apiKey)
	override("api-url", "api_url", &cfg.APIURL, opts.apiURL)
	override("model", "model", &cfg.Model, opts.model)
	override("project-type", "project_type", &cfg.ProjectType, opts.projectType)
}

// newJudge builds the provider and the batching orchestrator around it.
func newJudge(cfg *config.Configuration, logger *zap.Logger, display *progress.Display) (judge.Judge, error) {
	provider, err := judge.NewProvider(cfg.Provider, cfg.APIKey, cfg.APIURL, nil)
	if err != nil {
		return nil, err
	}
	jopts := []judge.Option{
		judge.WithModel(cfg.EffectiveModel()),
		judge.WithTemperature(cfg.Temperature),
		judge.WithMaxBatchChars(cfg.MaxBatchChars),
		judge.WithMaxConcurrency(cfg.MaxConcurrency),
		judge.WithLogger(logger),
	}
	if display != nil {
		jopts = append(jopts, judge.WithWaitHook(display.Waiting))
	}
	logger.Debug("judge configured",
		zap.String("provider", provider.Name()),
		zap.String("model", cfg.EffectiveModel()),
		zap.Int("max_concurrency", cfg.MaxConcurrency))
	return judge.NewOrchestrator(provider, jopts...), nil
}

// newDisplay returns a progress display when w is a terminal.
func newDisplay(w io.Writer) *progress.Display {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	caps := progress.DetectTerminalCapabilities(f)
	if !caps.IsTTY {
		return nil
	}
	return progress.NewDisplay(f, caps)
}

func githubOutputPath(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("GITHUB_OUTPUT")
}

func colorEnabled(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

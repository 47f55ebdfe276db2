package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/foxycorps/commitsense/internal/config"
	clierrors "github.com/foxycorps/commitsense/internal/errors"
)

var (
	configShowSources bool
	configInitForce   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create commitsense configuration",
	Long: `Inspect and create commitsense configuration.

Configuration is loaded with the following priority (highest to lowest):
  1. Command-line flags
  2. COMMITSENSE_* environment variables
  3. Provider variables (OPENAI_API_KEY, OPENAI_API_URL, OPENAI_MODEL, GEMINI_API_KEY)
  4. Project config (.commitsense.yml or .commitsense.json)
  5. User config (~/.config/commitsense/config.yml)
  6. Built-in defaults`,
	Example: `  # Show the effective configuration
  commitsense config show

  # Show where each value came from
  commitsense config show --sources

  # Write a commented .commitsense.yml
  commitsense config init`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML (API key masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented .commitsense.yml in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd, ".")
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSources, "sources", false, "Show the source of each value")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{ProjectConfigPath: configPath})
	if err != nil {
		return err
	}

	masked := cfg.Masked()
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if masked.Model == "" {
		fmt.Fprintf(out, "# model: %s (provider default)\n", cfg.EffectiveModel())
	}

	if configShowSources {
		fmt.Fprintln(out, "\n# sources")
		for _, key := range cfg.SortedSources() {
			fmt.Fprintf(out, "# %-16s %s\n", key, cfg.Sources[key])
		}
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, dir string) error {
	path := filepath.Join(dir, config.ProjectConfigNames[0])
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return clierrors.NewConfigError(
			fmt.Sprintf("%s already exists", path),
			"Use --force to overwrite it",
		)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Runtime, "writing "+path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foxycorps/commitsense/internal/changelog"
	"github.com/foxycorps/commitsense/internal/config"
)

var (
	changelogLastFlag  int
	changelogPlainFlag bool
	changelogOneline   bool
	changelogFileFlag  string
)

var changelogCmd = &cobra.Command{
	Use:   "changelog [version]",
	Short: "View sections of the project changelog",
	Long: `View entries from the project's CHANGELOG.md.

By default, shows the 5 most recent entries. Use a version argument to
see all entries for a specific version, or use --last to control entry count.

The file is changelog_file from the configuration (default CHANGELOG.md),
unless --file is given.`,
	Example: `  commitsense changelog              # Show 5 most recent entries
  commitsense changelog v0.6.0       # Show all entries for version 0.6.0
  commitsense changelog 0.6.0        # Same (v prefix optional)
  commitsense changelog unreleased   # Show unreleased changes
  commitsense changelog --last 10    # Show 10 most recent entries
  commitsense changelog --plain      # Plain output (no colors)
  commitsense changelog --oneline    # One line per entry`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChangelogView(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(changelogCmd)

	changelogCmd.PersistentFlags().StringVar(&changelogFileFlag, "file", "", "Changelog file (default: changelog_file from config)")
	changelogCmd.Flags().IntVar(&changelogLastFlag, "last", 5, "Number of entries to show")
	changelogCmd.Flags().BoolVar(&changelogPlainFlag, "plain", false, "Plain text output (no colors)")
	changelogCmd.Flags().BoolVar(&changelogOneline, "oneline", false, "Show one summary line per entry")
}

func runChangelogView(cmd *cobra.Command, args []string) error {
	log, err := loadProjectChangelog(changelogFileFlag)
	if err != nil {
		return err
	}

	opts := changelog.FormatOptions{
		Plain:   changelogPlainFlag || !colorEnabled(cmd.OutOrStdout()),
		Oneline: changelogOneline,
	}

	if len(args) == 1 {
		v, err := lookupVersion(cmd, log, args[0])
		if err != nil {
			return err
		}
		return changelog.FormatVersion(v, cmd.OutOrStdout(), opts)
	}

	return showLastEntries(cmd, log, changelogLastFlag, opts)
}

// loadProjectChangelog reads file, or the configured changelog in the
// current directory when file is empty.
func loadProjectChangelog(file string) (*changelog.Changelog, error) {
	if file == "" {
		cfg, err := config.Load(config.LoadOptions{ProjectConfigPath: configPath})
		if err != nil {
			return nil, err
		}
		file = filepath.FromSlash(cfg.ChangelogFile)
	}
	log, err := changelog.Load(file)
	if err != nil {
		return nil, fmt.Errorf("loading changelog: %w", err)
	}
	return log, nil
}

// lookupVersion finds version, listing the available versions on stderr
// when it is missing.
func lookupVersion(cmd *cobra.Command, log *changelog.Changelog, version string) (*changelog.Version, error) {
	v, err := log.GetVersion(version)
	if err == nil {
		return v, nil
	}

	var notFound *changelog.VersionNotFoundError
	if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("getting version: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Version %q not found.\n", version)
	if len(notFound.AvailableVersions) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nAvailable versions:\n")
		for _, ver := range notFound.AvailableVersions {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", ver)
		}
	}
	return nil, NewExitError(ExitConfig)
}

func showLastEntries(cmd *cobra.Command, log *changelog.Changelog, n int, opts changelog.FormatOptions) error {
	entries := log.GetLastN(n)
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No changelog entries found.")
		return nil
	}

	if err := changelog.FormatTerminal(entries, cmd.OutOrStdout(), opts); err != nil {
		return fmt.Errorf("formatting entries: %w", err)
	}

	total := len(log.AllEntries())
	if total > len(entries) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n(%d of %d entries shown. Use --last %d to see all)\n",
			len(entries), total, total)
	}
	return nil
}

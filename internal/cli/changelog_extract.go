package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foxycorps/commitsense/internal/changelog"
)

var changelogExtractCmd = &cobra.Command{
	Use:   "extract <version|latest>",
	Short: "Extract release notes for a specific version",
	Long: `Extract the markdown body of one changelog section, suitable for GitHub
release notes. The output is written to stdout.

"latest" selects the newest section that is not [Unreleased].`,
	Example: `  commitsense changelog extract v0.6.0     # Extract notes for version 0.6.0
  commitsense changelog extract latest     # Notes of the newest release
  commitsense changelog extract unreleased # Extract unreleased changes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChangelogExtract(cmd, args[0])
	},
}

func init() {
	changelogCmd.AddCommand(changelogExtractCmd)
}

func runChangelogExtract(cmd *cobra.Command, version string) error {
	log, err := loadProjectChangelog(changelogFileFlag)
	if err != nil {
		return err
	}

	var v *changelog.Version
	if strings.EqualFold(version, "latest") {
		if v = log.GetLatestRelease(); v == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "No released versions in changelog.")
			return NewExitError(ExitConfig)
		}
	} else if v, err = lookupVersion(cmd, log, version); err != nil {
		return err
	}

	return renderVersionMarkdown(v, cmd.OutOrStdout())
}

// renderVersionMarkdown writes a section's markdown as it appears in the
// file, or rebuilt from its entries when the body is empty.
func renderVersionMarkdown(v *changelog.Version, w io.Writer) error {
	if v.Body != "" {
		_, err := fmt.Fprintln(w, v.Body)
		return err
	}

	first := true
	for _, cat := range changelog.ValidCategories() {
		var entries []string
		for _, e := range v.Entries() {
			if e.Category == cat {
				entries = append(entries, e.Text)
			}
		}
		if len(entries) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false

		fmt.Fprintf(w, "### %s\n", strings.ToUpper(cat[:1])+cat[1:])
		for _, entry := range entries {
			fmt.Fprintf(w, "- %s\n", entry)
		}
	}
	return nil
}

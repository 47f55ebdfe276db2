package judge

import (
	"fmt"
	"strings"

	"github.com/foxycorps/commitsense/internal/git"
)

// SystemPrompt instructs the model on semver rules and the reply shape.
const SystemPrompt = `You are a release engineer. You read commit messages and decide the
semantic version bump for the next release, then write a changelog entry.

Rules:
- "major" when any change breaks backwards compatibility (breaking API or
  behaviour changes, removed features, "BREAKING CHANGE" notes).
- "minor" when new functionality is added in a backwards compatible way.
- "patch" for backwards compatible bug fixes, performance or security fixes.
- "none" when nothing user facing changed (docs, tests, CI, refactors).

Reply with a single JSON object and nothing else:
{"bump": "major|minor|patch|none", "changelog": "<markdown>"}

The changelog is markdown without a version heading. Group entries under
"### Added", "### Changed", "### Fixed" or "### Removed" and write one
bullet per user facing change. Leave it empty when bump is "none".`

// BuildPrompt renders the user prompt for one batch of commits.
func BuildPrompt(project Project, commits []git.Commit) string {
	var sb strings.Builder

	sb.WriteString("Project type: ")
	sb.WriteString(project.Kind)
	sb.WriteString("\n")
	if project.Name != "" {
		fmt.Fprintf(&sb, "Project name: %s\n", project.Name)
	}
	if project.CurrentVersion != "" {
		fmt.Fprintf(&sb, "Current version: %s\n", project.CurrentVersion)
	}
	fmt.Fprintf(&sb, "\nCommits (%d, oldest first):\n", len(commits))

	for i, c := range commits {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, c.Hash)
		for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
			sb.WriteString("   ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

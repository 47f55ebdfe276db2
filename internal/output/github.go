package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/workflow"
)

// Outputs are the GitHub Actions step outputs of a run.
type Outputs struct {
	BumpType       string
	NextVersion    string
	NightlyVersion string
	Changelog      string
}

// OutputsFrom maps an outcome to step outputs. Without a release the bump
// is none, the next version is the current one and the changelog says so.
func OutputsFrom(out *workflow.Outcome) Outputs {
	if out.Plan == nil {
		return Outputs{
			BumpType:    "none",
			NextVersion: out.CurrentVersion,
			Changelog:   workflow.NoChanges,
		}
	}
	return Outputs{
		BumpType:       out.Plan.Bump.String(),
		NextVersion:    out.Plan.NextVersion,
		NightlyVersion: out.Plan.NightlyVersion,
		Changelog:      out.Plan.Section,
	}
}

// WriteGitHubOutputs appends o to the GITHUB_OUTPUT file at path. The
// changelog uses the multiline `name<<DELIM` form with a random delimiter.
func WriteGitHubOutputs(path string, o Outputs) error {
	var b strings.Builder
	fmt.Fprintf(&b, "bump_type=%s\n", o.BumpType)
	fmt.Fprintf(&b, "next_version=%s\n", o.NextVersion)
	if o.NightlyVersion != "" {
		fmt.Fprintf(&b, "nightly_version=%s\n", o.NightlyVersion)
	}
	delim := delimiter(o.Changelog)
	fmt.Fprintf(&b, "changelog<<%s\n%s\n%s\n", delim, strings.TrimRight(o.Changelog, "\n"), delim)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "opening GITHUB_OUTPUT %s", path)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "writing GITHUB_OUTPUT %s", path)
	}
	if err := f.Close(); err != nil {
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "closing GITHUB_OUTPUT %s", path)
	}
	return nil
}

// delimiter returns a heredoc delimiter that does not occur in content.
func delimiter(content string) string {
	for {
		d := "COMMITSENSE_EOF_" + uuid.NewString()
		if !strings.Contains(content, d) {
			return d
		}
	}
}

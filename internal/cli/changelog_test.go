package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxycorps/commitsense/internal/changelog"
)

const sampleChangelog = `# Changelog

All notable changes to this project will be documented in this file.

## [Unreleased]

### Added
- Dark mode

## [1.3.0] - 2025-04-10

### Added
- Search
- Filters

### Fixed
- Ranking

## [1.2.0] - 2025-03-01

Maintenance release.
`

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

func TestLoadProjectChangelog_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleChangelog), 0o644))

	log, err := loadProjectChangelog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"unreleased", "1.3.0", "1.2.0"}, log.ListVersions())

	_, err = loadProjectChangelog(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestLookupVersion(t *testing.T) {
	t.Parallel()

	log := changelog.Parse(sampleChangelog)

	tests := map[string]struct {
		version string
		wantErr bool
	}{
		"exact":      {version: "1.3.0"},
		"v prefix":   {version: "v1.3.0"},
		"unreleased": {version: "Unreleased"},
		"missing":    {version: "9.9.9", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cmd, _, stderr := testCommand()
			v, err := lookupVersion(cmd, log, tt.version)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitConfig, ExitCode(err))
				assert.Contains(t, stderr.String(), "Available versions:\n  unreleased\n  1.3.0\n  1.2.0\n")
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, v)
		})
	}
}

func TestShowLastEntries(t *testing.T) {
	t.Parallel()

	log := changelog.Parse(sampleChangelog)
	cmd, stdout, _ := testCommand()

	require.NoError(t, showLastEntries(cmd, log, 2, changelog.FormatOptions{Plain: true}))
	out := stdout.String()
	assert.Contains(t, out, "Dark mode")
	assert.Contains(t, out, "Search")
	assert.NotContains(t, out, "Filters")
	assert.Contains(t, out, "(2 of 4 entries shown. Use --last 4 to see all)")
}

func TestShowLastEntries_Oneline(t *testing.T) {
	t.Parallel()

	log := changelog.Parse(sampleChangelog)
	cmd, stdout, _ := testCommand()

	require.NoError(t, showLastEntries(cmd, log, 2, changelog.FormatOptions{Plain: true, Oneline: true}))
	assert.Equal(t, "[added] Dark mode\n[added] Search\n\n(2 of 4 entries shown. Use --last 4 to see all)\n", stdout.String())
}

func TestShowLastEntries_Empty(t *testing.T) {
	t.Parallel()

	cmd, stdout, _ := testCommand()
	require.NoError(t, showLastEntries(cmd, changelog.Parse("# Changelog\n"), 5, changelog.FormatOptions{Plain: true}))
	assert.Equal(t, "No changelog entries found.\n", stdout.String())
}

func TestRenderVersionMarkdown(t *testing.T) {
	t.Parallel()

	log := changelog.Parse(sampleChangelog)

	v, err := log.GetVersion("1.3.0")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, renderVersionMarkdown(v, &buf))
	assert.Equal(t, "### Added\n- Search\n- Filters\n\n### Fixed\n- Ranking\n", buf.String())

	rebuilt := &changelog.Version{
		Version: "2.0.0",
		Changes: changelog.Changes{Removed: []string{"Legacy API"}, Security: []string{"Token scope"}},
	}
	buf.Reset()
	require.NoError(t, renderVersionMarkdown(rebuilt, &buf))
	assert.Equal(t, "### Removed\n- Legacy API\n\n### Security\n- Token scope\n", buf.String())
}

func TestLatestReleaseSkipsUnreleased(t *testing.T) {
	t.Parallel()

	latest := changelog.Parse(sampleChangelog).GetLatestRelease()
	require.NotNil(t, latest)
	assert.Equal(t, "1.3.0", latest.Version)
}

package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/foxycorps/commitsense/internal/baseline"
	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/project"
	"github.com/foxycorps/commitsense/internal/version"
	"github.com/foxycorps/commitsense/internal/workflow"
)

func sampleOutcome() *workflow.Outcome {
	return &workflow.Outcome{
		Project:        project.Rust,
		ManifestPath:   "/repo/Cargo.toml",
		ChangelogPath:  "/repo/CHANGELOG.md",
		CurrentVersion: "1.2.3",
		Baseline: workflow.BaselineInfo{
			Hash: "0123456789abcdef0123456789abcdef01234567",
			Tier: baseline.TierLatestSemverTag,
			Tag:  "v1.2.3",
		},
		Commits: 2,
		Plan: &workflow.ReleasePlan{
			CurrentVersion: "1.2.3",
			NextVersion:    "1.3.0",
			NightlyVersion: "1.3.0-nightly.20250410",
			Bump:           version.BumpMinor,
			Changelog:      "### Added\n- Search",
			Section:        "## [1.3.0-nightly.20250410] - 2025-04-10\n\n### Added\n- Search",
		},
	}
}

// parseGitHubOutputs reads the key=value and key<<DELIM forms back.
func parseGitHubOutputs(t *testing.T, data string) map[string]string {
	t.Helper()

	values := map[string]string{}
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if name, delim, ok := strings.Cut(line, "<<"); ok {
			var body []string
			for sc.Scan() && sc.Text() != delim {
				body = append(body, sc.Text())
			}
			values[name] = strings.Join(body, "\n")
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		require.True(t, ok, "malformed line %q", line)
		values[name] = value
	}
	return values
}

func TestWriteGitHubOutputs_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "github_output")
	require.NoError(t, os.WriteFile(path, []byte("earlier=step\n"), 0o644))

	require.NoError(t, WriteGitHubOutputs(path, OutputsFrom(sampleOutcome())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := parseGitHubOutputs(t, string(data))

	assert.Equal(t, map[string]string{
		"earlier":         "step",
		"bump_type":       "minor",
		"next_version":    "1.3.0",
		"nightly_version": "1.3.0-nightly.20250410",
		"changelog":       "## [1.3.0-nightly.20250410] - 2025-04-10\n\n### Added\n- Search",
	}, got)
}

func TestWriteGitHubOutputs_NoRelease(t *testing.T) {
	t.Parallel()

	out := sampleOutcome()
	out.Plan = nil

	path := filepath.Join(t.TempDir(), "github_output")
	require.NoError(t, WriteGitHubOutputs(path, OutputsFrom(out)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := parseGitHubOutputs(t, string(data))

	assert.Equal(t, "none", got["bump_type"])
	assert.Equal(t, "1.2.3", got["next_version"])
	assert.Equal(t, workflow.NoChanges, got["changelog"])
	assert.NotContains(t, got, "nightly_version")
}

func TestWriteGitHubOutputs_Unwritable(t *testing.T) {
	t.Parallel()

	err := WriteGitHubOutputs(filepath.Join(t.TempDir(), "missing", "out"), Outputs{BumpType: "none"})
	assert.ErrorIs(t, err, clierrors.ErrArtifactWrite)
}

func TestDelimiterAvoidsContent(t *testing.T) {
	t.Parallel()

	d := delimiter("body")
	assert.True(t, strings.HasPrefix(d, "COMMITSENSE_EOF_"))
	assert.NotEqual(t, d, delimiter("body"))
}

func TestReport_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Report(&buf, sampleOutcome(), ReportOptions{Format: FormatText}))

	want := "rust /repo/Cargo.toml\n" +
		"  Baseline:  v1.2.3 (LatestSemverTag) 0123456\n" +
		"  Commits:   2\n" +
		"  Bump:      minor\n" +
		"  Version:   1.2.3 -> 1.3.0\n" +
		"  Nightly:   1.3.0-nightly.20250410\n" +
		"  Mode:      dry run (use --write to update files)\n" +
		"\n## [1.3.0-nightly.20250410] - 2025-04-10\n\n### Added\n- Search\n"
	assert.Equal(t, want, buf.String())
}

func TestReport_TextNoRelease(t *testing.T) {
	t.Parallel()

	out := sampleOutcome()
	out.Plan = nil

	var buf bytes.Buffer
	require.NoError(t, Report(&buf, out, ReportOptions{Format: FormatText}))
	assert.Contains(t, buf.String(), "  Version:   1.2.3 (unchanged)\n")
	assert.True(t, strings.HasSuffix(buf.String(), workflow.NoChanges+"\n"))
}

func TestReport_ColorAddsEscapes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Report(&buf, sampleOutcome(), ReportOptions{Format: FormatText, Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestReport_Structured(t *testing.T) {
	t.Parallel()

	var jsonBuf bytes.Buffer
	require.NoError(t, Report(&jsonBuf, sampleOutcome(), ReportOptions{Format: FormatJSON}))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))

	var yamlBuf bytes.Buffer
	require.NoError(t, Report(&yamlBuf, sampleOutcome(), ReportOptions{Format: FormatYAML}))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))

	for name, doc := range map[string]map[string]any{"json": fromJSON, "yaml": fromYAML} {
		assert.Equal(t, "rust", doc["project_type"], name)
		base := doc["baseline"].(map[string]any)
		assert.Equal(t, "LatestSemverTag", base["tier"], name)
		plan := doc["plan"].(map[string]any)
		assert.Equal(t, "minor", plan["bump"], name)
		assert.Equal(t, "1.3.0-nightly.20250410", plan["nightly_version"], name)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    Format
		wantErr bool
	}{
		"default": {input: "", want: FormatText},
		"json":    {input: "JSON", want: FormatJSON},
		"yaml":    {input: " yaml ", want: FormatYAML},
		"invalid": {input: "xml", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				var cliErr *clierrors.CLIError
				require.ErrorAs(t, err, &cliErr)
				assert.Equal(t, clierrors.Argument, cliErr.Category)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxycorps/commitsense/internal/testutil"
)

// fakeOpenAI answers every chat completion with content.
func fakeOpenAI(t *testing.T, status int, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		body, err := json.Marshal(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
		assert.NoError(t, err)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func judgmentJSON(bump, changelog string) string {
	data, _ := json.Marshal(map[string]string{"bump": bump, "changelog": changelog})
	return string(data)
}

// releasedProject is a JS project at 1.2.3 with a feature after the tag.
func releasedProject(t *testing.T) *testutil.Repo {
	t.Helper()
	fixture := testutil.NewRepo(t)
	base := fixture.CommitFile("package.json", "{\n  \"name\": \"web\",\n  \"version\": \"1.2.3\"\n}\n", "chore: version 1.2.3")
	fixture.Tag("v1.2.3", base)
	fixture.CommitFile("src/search.js", "search", "feat: add search")
	return fixture
}

type analyzeRun struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	err    error
}

// runAnalyzeWith parses args into a fresh command and runs the analysis.
func runAnalyzeWith(t *testing.T, args ...string) *analyzeRun {
	t.Helper()

	var opts analyzeOptions
	cmd := &cobra.Command{Use: "commitsense"}
	registerAnalyzeFlags(cmd, &opts)
	require.NoError(t, cmd.ParseFlags(args))

	run := &analyzeRun{}
	cmd.SetOut(&run.stdout)
	cmd.SetErr(&run.stderr)
	cmd.SetContext(context.Background())
	run.err = runAnalyze(cmd, opts)
	return run
}

func TestRunAnalyze_DryRun(t *testing.T) {
	t.Parallel()

	fixture := releasedProject(t)
	srv, calls := fakeOpenAI(t, http.StatusOK, judgmentJSON("minor", "### Added\n- Search"))
	ghOut := filepath.Join(t.TempDir(), "github_output")

	run := runAnalyzeWith(t,
		"--path", fixture.Dir(),
		"--api-key", "sk-test",
		"--api-url", srv.URL,
		"--github-output", ghOut,
	)
	require.NoError(t, run.err)
	assert.Equal(t, int32(1), calls.Load())

	assert.Contains(t, run.stdout.String(), "  Version:   1.2.3 -> 1.3.0\n")
	assert.Contains(t, run.stdout.String(), "### Added\n- Search")
	assert.Contains(t, fixture.ReadFile("package.json"), `"version": "1.2.3"`)
	assert.NoFileExists(t, fixture.Path("CHANGELOG.md"))

	data, err := os.ReadFile(ghOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bump_type=minor\n")
	assert.Contains(t, string(data), "next_version=1.3.0\n")
}

func TestRunAnalyze_WriteJSON(t *testing.T) {
	t.Parallel()

	fixture := releasedProject(t)
	srv, _ := fakeOpenAI(t, http.StatusOK, judgmentJSON("major", "### Removed\n- Legacy API"))

	run := runAnalyzeWith(t,
		"--path", fixture.Dir(),
		"--api-key", "sk-test",
		"--api-url", srv.URL,
		"--github-output", filepath.Join(t.TempDir(), "out"),
		"--write",
		"--format", "json",
	)
	require.NoError(t, run.err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(run.stdout.Bytes(), &doc))
	assert.Equal(t, true, doc["written"])

	assert.Contains(t, fixture.ReadFile("package.json"), `"version": "2.0.0"`)
	changelog := fixture.ReadFile("CHANGELOG.md")
	assert.True(t, strings.HasPrefix(changelog, "# Changelog\n"))
	assert.Contains(t, changelog, "## [2.0.0] - ")
	assert.Contains(t, changelog, "- Legacy API")
}

func TestRunAnalyze_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status int
		args   []string
		want   int
	}{
		"provider failure": {
			status: http.StatusInternalServerError,
			want:   ExitJudgment,
		},
		"unparseable judgment": {
			status: http.StatusOK,
			want:   ExitJudgment,
		},
		"pattern and regex": {
			status: http.StatusOK,
			args:   []string{"--tag-pattern", "v*", "--tag-regex", "^v"},
			want:   ExitConfig,
		},
		"unknown ref": {
			status: http.StatusOK,
			args:   []string{"--base-ref", "does-not-exist"},
			want:   ExitRefNotFound,
		},
		"bad format": {
			status: http.StatusOK,
			args:   []string{"--format", "xml"},
			want:   ExitConfig,
		},
		"bad project type": {
			status: http.StatusOK,
			args:   []string{"--project-type", "python"},
			want:   ExitConfig,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fixture := releasedProject(t)
			srv, _ := fakeOpenAI(t, tt.status, "the model rambled without JSON")
			args := append([]string{
				"--path", fixture.Dir(),
				"--api-key", "sk-test",
				"--api-url", srv.URL,
				"--github-output", filepath.Join(t.TempDir(), "out"),
			}, tt.args...)

			run := runAnalyzeWith(t, args...)
			require.Error(t, run.err)
			assert.Equal(t, tt.want, ExitCode(run.err))
			assert.Contains(t, fixture.ReadFile("package.json"), `"version": "1.2.3"`)
		})
	}
}

func TestRunAnalyze_NoCommitsSkipsProvider(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	base := fixture.CommitFile("package.json", "{\n  \"version\": \"0.4.0\"\n}\n", "chore: version 0.4.0")
	fixture.Tag("v0.4.0", base)
	srv, calls := fakeOpenAI(t, http.StatusOK, judgmentJSON("patch", "x"))
	ghOut := filepath.Join(t.TempDir(), "out")

	run := runAnalyzeWith(t,
		"--path", fixture.Dir(),
		"--api-key", "sk-test",
		"--api-url", srv.URL,
		"--github-output", ghOut,
	)
	require.NoError(t, run.err)
	assert.Zero(t, calls.Load())
	assert.Contains(t, run.stdout.String(), "0.4.0 (unchanged)")

	data, err := os.ReadFile(ghOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bump_type=none\n")
	assert.Contains(t, string(data), "next_version=0.4.0\n")
}

func TestRunAnalyze_InvalidManifestVersionSkipsProvider(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	base := fixture.CommitFile("package.json", "{\n  \"version\": \"latest\"\n}\n", "chore: init")
	fixture.Tag("v1.0.0", base)
	fixture.CommitFile("src/a.js", "a", "feat: a")
	srv, calls := fakeOpenAI(t, http.StatusOK, judgmentJSON("minor", "- A"))

	run := runAnalyzeWith(t,
		"--path", fixture.Dir(),
		"--api-key", "sk-test",
		"--api-url", srv.URL,
		"--github-output", filepath.Join(t.TempDir(), "out"),
	)
	require.Error(t, run.err)
	assert.Equal(t, ExitVersionParse, ExitCode(run.err))
	assert.Zero(t, calls.Load())
}

func TestGithubOutputPath(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "/tmp/from-env")

	assert.Equal(t, "/tmp/explicit", githubOutputPath("/tmp/explicit"))
	assert.Equal(t, "/tmp/from-env", githubOutputPath(""))
}

package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxycorps/commitsense/internal/changelog"
	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/project"
)

const packageJSON = "{\n  \"name\": \"web\",\n  \"version\": \"1.2.3\"\n}\n"

func setup(t *testing.T, withChangelog bool) (*project.Manifest, string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.PackageManifest), []byte(packageJSON), 0o600))
	changelogPath := filepath.Join(dir, changelog.DefaultFile)
	if withChangelog {
		require.NoError(t, os.WriteFile(changelogPath, []byte(changelog.Header+"## [1.2.3] - 2025-01-01\n\n- Old\n"), 0o644))
	}

	m, err := project.Load(dir, project.KindUnknown)
	require.NoError(t, err)
	return m, changelogPath
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCommit_WritesBoth(t *testing.T) {
	t.Parallel()

	m, changelogPath := setup(t, true)
	plan, err := Prepare(m, "1.3.0", changelogPath, "## [1.3.0] - 2025-04-10\n\n- New")
	require.NoError(t, err)

	require.NoError(t, NewWriter().Commit(context.Background(), plan))

	manifest, err := os.ReadFile(m.Path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"web\",\n  \"version\": \"1.3.0\"\n}\n", string(manifest))

	log, err := changelog.Load(changelogPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.3.0", "1.2.3"}, log.ListVersions())

	info, err := os.Stat(m.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.ElementsMatch(t, []string{project.PackageManifest, changelog.DefaultFile}, listDir(t, m.Dir))
}

func TestCommit_CreatesChangelog(t *testing.T) {
	t.Parallel()

	m, changelogPath := setup(t, false)
	plan, err := Prepare(m, "1.3.0", changelogPath, "## [1.3.0] - 2025-04-10\n\n- New")
	require.NoError(t, err)
	require.NoError(t, NewWriter().Commit(context.Background(), plan))

	data, err := os.ReadFile(changelogPath)
	require.NoError(t, err)
	assert.Equal(t, changelog.Header+"## [1.3.0] - 2025-04-10\n\n- New\n\n", string(data))
}

func TestCommit_ChangelogFailureRestoresManifest(t *testing.T) {
	t.Parallel()

	m, changelogPath := setup(t, true)
	beforeManifest, err := os.ReadFile(m.Path)
	require.NoError(t, err)
	beforeChangelog, err := os.ReadFile(changelogPath)
	require.NoError(t, err)

	plan, err := Prepare(m, "2.0.0", changelogPath, "## [2.0.0] - 2025-04-10\n\n- Breaking")
	require.NoError(t, err)

	injected := errors.New("disk full")
	w := NewWriter(WithRename(func(oldpath, newpath string) error {
		if newpath == changelogPath {
			return injected
		}
		return os.Rename(oldpath, newpath)
	}))

	err = w.Commit(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, clierrors.ErrArtifactWrite)
	assert.ErrorIs(t, err, injected)

	afterManifest, err := os.ReadFile(m.Path)
	require.NoError(t, err)
	afterChangelog, err := os.ReadFile(changelogPath)
	require.NoError(t, err)
	assert.Equal(t, beforeManifest, afterManifest)
	assert.Equal(t, beforeChangelog, afterChangelog)

	assert.ElementsMatch(t, []string{project.PackageManifest, changelog.DefaultFile}, listDir(t, m.Dir))
}

func TestCommit_ManifestFailureTouchesNothing(t *testing.T) {
	t.Parallel()

	m, changelogPath := setup(t, true)
	before, err := os.ReadFile(m.Path)
	require.NoError(t, err)

	plan, err := Prepare(m, "2.0.0", changelogPath, "## [2.0.0] - 2025-04-10\n\n- Breaking")
	require.NoError(t, err)

	w := NewWriter(WithRename(func(string, string) error { return os.ErrPermission }))
	err = w.Commit(context.Background(), plan)
	assert.ErrorIs(t, err, clierrors.ErrArtifactWrite)

	after, err := os.ReadFile(m.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.ElementsMatch(t, []string{project.PackageManifest, changelog.DefaultFile}, listDir(t, m.Dir))
}

func TestCommit_CancelledBeforeRename(t *testing.T) {
	t.Parallel()

	m, changelogPath := setup(t, true)
	plan, err := Prepare(m, "1.3.0", changelogPath, "## [1.3.0] - 2025-04-10\n\n- New")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewWriter().Commit(ctx, plan)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ElementsMatch(t, []string{project.PackageManifest, changelog.DefaultFile}, listDir(t, m.Dir))
}

func TestPrepare_MissingManifest(t *testing.T) {
	t.Parallel()

	m := &project.Manifest{Kind: project.JavaScript, Path: filepath.Join(t.TempDir(), project.PackageManifest)}
	_, err := Prepare(m, "1.0.0", filepath.Join(t.TempDir(), changelog.DefaultFile), "## [1.0.0] - 2025-01-01\n\n- x")
	assert.ErrorIs(t, err, clierrors.ErrArtifactWrite)
}

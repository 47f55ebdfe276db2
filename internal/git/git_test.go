// Package git tests the go-git backed repository collaborator.
// Related: internal/git/git.go
// Tags: git, tags, history, vcs

package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/testutil"
)

func openFixture(t *testing.T, r *testutil.Repo) *Repository {
	t.Helper()
	repo, err := Open(r.Dir())
	require.NoError(t, err)
	return repo
}

func TestOpen_DetectsRootFromSubdirectory(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	fixture.CommitFile("pkg/app/Cargo.toml", "[package]\n", "init")

	repo, err := Open(fixture.Path("pkg/app"))
	require.NoError(t, err)
	assert.Equal(t, fixture.Dir(), repo.Root())
}

func TestOpen_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, clierrors.ErrVcsData)
	assert.False(t, IsRepository(t.TempDir()))
}

func TestHead_EmptyRepository(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	repo := openFixture(t, fixture)

	_, err := repo.Head(context.Background())
	assert.ErrorIs(t, err, clierrors.ErrVcsData)

	_, err = repo.InitialCommit(context.Background())
	assert.ErrorIs(t, err, clierrors.ErrVcsData)
}

func TestTags_PeelsAnnotatedAndGroupsByCommit(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	first := fixture.CommitFile("a.txt", "a", "first")
	second := fixture.CommitFile("b.txt", "b", "second")
	fixture.Tag("v1.0.0", first)
	fixture.AnnotatedTag("v1.1.0", second, "release 1.1.0")
	fixture.Tag("stable", second)

	repo := openFixture(t, fixture)
	tags, err := repo.Tags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 3)

	byName := map[string]Tag{}
	for _, tag := range tags {
		byName[tag.Name] = tag
	}

	assert.Equal(t, first, byName["v1.0.0"].Ref.Hash)
	assert.Equal(t, second, byName["v1.1.0"].Ref.Hash, "annotated tag peeled to commit")
	assert.Equal(t, []string{"stable", "v1.1.0"}, byName["stable"].Ref.Tags)
	assert.Equal(t, []string{"v1.0.0"}, byName["v1.0.0"].Ref.Tags)
	assert.Equal(t, "stable", tags[0].Name, "sorted by name")
}

func TestResolve(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	first := fixture.CommitFile("a.txt", "a", "first")
	second := fixture.CommitFile("a.txt", "b", "second")
	fixture.AnnotatedTag("v0.1.0", first, "first release")

	repo := openFixture(t, fixture)
	ctx := context.Background()

	tests := map[string]struct {
		rev     string
		want    string
		wantErr error
	}{
		"annotated tag":  {rev: "v0.1.0", want: first},
		"full hash":      {rev: second, want: second},
		"relative rev":   {rev: "HEAD~1", want: first},
		"head":           {rev: "HEAD", want: second},
		"unknown branch": {rev: "does-not-exist", wantErr: clierrors.ErrRefNotFound},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ref, err := repo.Resolve(ctx, tt.rev)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref.Hash)
		})
	}
}

func TestInitialCommit(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	root := fixture.CommitFile("a.txt", "a", "root")
	fixture.CommitFile("a.txt", "b", "second")
	fixture.CommitFile("a.txt", "c", "third")

	ref, err := openFixture(t, fixture).InitialCommit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, root, ref.Hash)
	assert.True(t, testutil.RepoEpoch.Equal(ref.Time), "root commit time")
}

func TestWalk_NewestFirstAndStops(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	fixture.CommitFile("a.txt", "1", "one")
	fixture.CommitFile("a.txt", "2", "two")
	fixture.CommitFile("a.txt", "3", "three")

	repo := openFixture(t, fixture)

	var subjects []string
	err := repo.Walk(context.Background(), func(c Commit) bool {
		subjects = append(subjects, c.Subject())
		return len(subjects) < 2
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "two"}, subjects)
}

func TestWalk_Cancelled(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	fixture.CommitFile("a.txt", "1", "one")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := openFixture(t, fixture).Walk(ctx, func(Commit) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommitsBetween(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	base := fixture.CommitFile("README.md", "hello", "base")
	fixture.CommitFile("crates/core/src/lib.rs", "fn a() {}", "feat(core): add a")
	fixture.CommitFile("docs/guide.md", "guide", "docs: guide")
	fixture.CommitFile("crates/core/src/lib.rs", "fn b() {}", "fix(core): rename")
	head := fixture.CommitFile("crates/core-extra/x.rs", "x", "chore: sibling crate")

	repo := openFixture(t, fixture)
	ctx := context.Background()

	baseRef, err := repo.Resolve(ctx, base)
	require.NoError(t, err)
	headRef, err := repo.Resolve(ctx, head)
	require.NoError(t, err)

	tests := map[string]struct {
		subpath string
		want    []string
	}{
		"whole repository": {
			subpath: "",
			want:    []string{"feat(core): add a", "docs: guide", "fix(core): rename", "chore: sibling crate"},
		},
		"dot is whole repository": {
			subpath: ".",
			want:    []string{"feat(core): add a", "docs: guide", "fix(core): rename", "chore: sibling crate"},
		},
		"sub-path excludes siblings with shared prefix": {
			subpath: "crates/core",
			want:    []string{"feat(core): add a", "fix(core): rename"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			commits, err := repo.CommitsBetween(ctx, baseRef, headRef, tt.subpath)
			require.NoError(t, err)
			var subjects []string
			for _, c := range commits {
				subjects = append(subjects, c.Subject())
			}
			assert.Equal(t, tt.want, subjects)
		})
	}

	t.Run("same commit yields nothing", func(t *testing.T) {
		commits, err := repo.CommitsBetween(ctx, headRef, headRef, "")
		require.NoError(t, err)
		assert.Empty(t, commits)
	})
}

func TestCommitsBetween_BranchyHistory(t *testing.T) {
	t.Parallel()

	fixture := testutil.NewRepo(t)
	fixture.WriteFile("pkg/a/a.go", "package a")
	base := fixture.CommitFile("pkg/b/b.go", "package b", "chore: init")
	fixture.Tag("v1.0.0", base)

	feature := fixture.CommitFile("pkg/a/a.go", "package a // feature", "feat(a): only touches pkg/a")
	fixture.Switch(base)
	fixture.CommitFile("pkg/b/b.go", "package b // fix", "fix(b): touches pkg/b")
	fixture.WriteFile("pkg/a/a.go", "package a // feature")
	merge := fixture.Merge(feature, "Merge feature")

	repo := openFixture(t, fixture)
	ctx := context.Background()

	baseRef, err := repo.Resolve(ctx, "v1.0.0")
	require.NoError(t, err)
	headRef, err := repo.Resolve(ctx, merge)
	require.NoError(t, err)

	tests := map[string]struct {
		subpath string
		want    []string
	}{
		"side branch commit and merge excluded": {
			subpath: "pkg/b",
			want:    []string{"fix(b): touches pkg/b"},
		},
		"feature side": {
			subpath: "pkg/a",
			want:    []string{"feat(a): only touches pkg/a"},
		},
		"whole repository keeps the merge": {
			subpath: "",
			want:    []string{"feat(a): only touches pkg/a", "fix(b): touches pkg/b", "Merge feature"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			commits, err := repo.CommitsBetween(ctx, baseRef, headRef, tt.subpath)
			require.NoError(t, err)
			var subjects []string
			for _, c := range commits {
				subjects = append(subjects, c.Subject())
			}
			assert.Equal(t, tt.want, subjects)
		})
	}
}

func TestDebugLogger(t *testing.T) {
	var lines []string
	SetDebugLogger(func(format string, args ...any) {
		lines = append(lines, format)
	})
	t.Cleanup(func() { SetDebugLogger(nil) })

	fixture := testutil.NewRepo(t)
	fixture.CommitFile("a.txt", "a", "init")
	_, err := Open(fixture.Dir())
	require.NoError(t, err)

	assert.NotEmpty(t, lines)
}

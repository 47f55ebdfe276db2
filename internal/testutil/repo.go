// Package testutil provides test utilities and helpers for commitsense tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// RepoEpoch is the committer time of the first fixture commit. Each later
// commit is one hour after the previous one, so history order is stable.
var RepoEpoch = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

// Repo is a throwaway git repository built with go-git inside t.TempDir().
type Repo struct {
	t        *testing.T
	dir      string
	repo     *git.Repository
	worktree *git.Worktree
	clock    time.Time
}

// NewRepo initializes an empty repository.
func NewRepo(t *testing.T) *Repo {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	return &Repo{t: t, dir: dir, repo: repo, worktree: worktree, clock: RepoEpoch}
}

// Dir returns the worktree root.
func (r *Repo) Dir() string {
	return r.dir
}

// Path joins rel onto the worktree root.
func (r *Repo) Path(rel string) string {
	return filepath.Join(r.dir, filepath.FromSlash(rel))
}

// WriteFile writes content to rel, creating parent directories.
func (r *Repo) WriteFile(rel, content string) {
	r.t.Helper()
	path := r.Path(rel)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

// ReadFile returns the content of rel.
func (r *Repo) ReadFile(rel string) string {
	r.t.Helper()
	data, err := os.ReadFile(r.Path(rel))
	require.NoError(r.t, err)
	return string(data)
}

// Commit stages every change and commits it with message. It returns the
// commit hash.
func (r *Repo) Commit(message string) string {
	r.t.Helper()

	require.NoError(r.t, r.worktree.AddWithOptions(&git.AddOptions{All: true}))

	when := r.clock
	r.clock = r.clock.Add(time.Hour)

	sig := &object.Signature{Name: "Test User", Email: "test@test.com", When: when}
	hash, err := r.worktree.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	require.NoError(r.t, err)
	return hash.String()
}

// CommitFile writes rel and commits it.
func (r *Repo) CommitFile(rel, content, message string) string {
	r.t.Helper()
	r.WriteFile(rel, content)
	return r.Commit(message)
}

// Tag creates a lightweight tag on hash.
func (r *Repo) Tag(name, hash string) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), plumbing.NewHash(hash))
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

// AnnotatedTag creates an annotated tag on hash.
func (r *Repo) AnnotatedTag(name, hash, message string) {
	r.t.Helper()
	_, err := r.repo.CreateTag(name, plumbing.NewHash(hash), &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Test User", Email: "test@test.com", When: r.clock},
		Message: message,
	})
	require.NoError(r.t, err)
}

// Switch moves HEAD to hash (detached) and resets the worktree to its tree.
func (r *Repo) Switch(hash string) {
	r.t.Helper()
	require.NoError(r.t, r.worktree.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(hash),
		Force: true,
	}))
}

// Merge records a merge commit with HEAD and other as parents. The merged
// tree is whatever the worktree holds, so write the merge result first.
func (r *Repo) Merge(other, message string) string {
	r.t.Helper()

	head, err := r.repo.Head()
	require.NoError(r.t, err)
	require.NoError(r.t, r.worktree.AddWithOptions(&git.AddOptions{All: true}))

	when := r.clock
	r.clock = r.clock.Add(time.Hour)

	sig := &object.Signature{Name: "Test User", Email: "test@test.com", When: when}
	hash, err := r.worktree.Commit(message, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
		Parents:   []plumbing.Hash{head.Hash(), plumbing.NewHash(other)},
	})
	require.NoError(r.t, err)
	return hash.String()
}

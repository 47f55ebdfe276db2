// Package git is the version-control collaborator for commitsense. It reads
// tags, resolves revisions and walks history through the go-git library, so
// no git executable is required at runtime.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging. The logger function should format
// and output the message (similar to log.Printf signature).
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// Ref identifies a commit. Tags lists every tag name pointing at the commit
// when the Ref came from the tag index; Time is the committer time.
type Ref struct {
	Hash string
	Tags []string
	Time time.Time
}

// Short returns the abbreviated hash.
func (r Ref) Short() string {
	if len(r.Hash) > 7 {
		return r.Hash[:7]
	}
	return r.Hash
}

// Commit is one commit in a range. Time is the author date.
type Commit struct {
	Hash    string
	Time    time.Time
	Message string
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(subject)
}

// Tag is a tag name and the commit it points at.
type Tag struct {
	Name string
	Ref  Ref
}

// Repository wraps a go-git repository opened from a path inside its worktree.
type Repository struct {
	repo *git.Repository
	root string
}

// openRepo opens a git repository at the specified path or current working directory.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
// If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	logDebug("[git] repository opened successfully")
	return repo, nil
}

// Open opens the repository containing path.
func Open(path string) (*Repository, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "reading repository")
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "getting worktree")
	}

	root, err := filepath.Abs(worktree.Filesystem.Root())
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "resolving worktree root")
	}
	logDebug("[git] repository root: %s", root)
	return &Repository{repo: repo, root: root}, nil
}

// IsRepository reports whether path is inside a git repository.
func IsRepository(path string) bool {
	_, err := openRepo(path)
	result := err == nil
	logDebug("[git] IsRepository(%s): %v", path, result)
	return result
}

// Root returns the absolute path of the worktree root.
func (r *Repository) Root() string {
	return r.root
}

// Head returns the commit HEAD points at. A repository without commits
// is a VcsDataError.
func (r *Repository) Head(ctx context.Context) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Ref{}, clierrors.New(clierrors.KindVcsData, "repository has no commits")
		}
		return Ref{}, clierrors.Wrapf(err, clierrors.KindVcsData, "reading HEAD")
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return Ref{}, clierrors.Wrapf(err, clierrors.KindVcsData, "reading HEAD commit")
	}
	return refFromCommit(commit), nil
}

// Resolve resolves any revision string (tag, branch, hash, HEAD~2) to a
// commit. Unresolvable revisions are RefNotFoundErrors.
func (r *Repository) Resolve(ctx context.Context, rev string) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return Ref{}, clierrors.Wrapf(err, clierrors.KindRefNotFound, "resolving ref %q", rev)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return Ref{}, clierrors.Wrapf(err, clierrors.KindRefNotFound, "ref %q is not a commit", rev)
	}
	logDebug("[git] Resolve(%s): %s", rev, commit.Hash)
	return refFromCommit(commit), nil
}

// Tags lists every tag with the commit it points at. Annotated tags are
// peeled to their commit; tags on other objects are skipped. Each Ref
// carries all tag names sharing its commit. The result is sorted by name.
func (r *Repository) Tags(ctx context.Context) ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "listing tags")
	}
	defer iter.Close()

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := ref.Name().Short()
		commit, err := r.peel(ref.Hash())
		if err != nil {
			logDebug("[git] skipping tag %s: %v", name, err)
			return nil
		}
		tags = append(tags, Tag{Name: name, Ref: refFromCommit(commit)})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "iterating tags")
	}

	byHash := make(map[string][]string)
	for _, t := range tags {
		byHash[t.Ref.Hash] = append(byHash[t.Ref.Hash], t.Name)
	}
	for i := range tags {
		names := append([]string(nil), byHash[tags[i].Ref.Hash]...)
		sort.Strings(names)
		tags[i].Ref.Tags = names
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	logDebug("[git] Tags: found %d tags", len(tags))
	return tags, nil
}

// peel returns the commit a tag reference points at, following an
// annotated tag object if present.
func (r *Repository) peel(hash plumbing.Hash) (*object.Commit, error) {
	tagObj, err := r.repo.TagObject(hash)
	switch {
	case err == nil:
		return tagObj.Commit()
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return r.repo.CommitObject(hash)
	default:
		return nil, err
	}
}

// InitialCommit returns the root commit reachable from HEAD. With several
// roots (merged histories) the oldest by committer time wins, ties broken by
// the smallest hash.
func (r *Repository) InitialCommit(ctx context.Context) (Ref, error) {
	head, err := r.Head(ctx)
	if err != nil {
		return Ref{}, err
	}

	iter, err := r.repo.Log(&git.LogOptions{From: plumbing.NewHash(head.Hash)})
	if err != nil {
		return Ref{}, clierrors.Wrapf(err, clierrors.KindVcsData, "reading history")
	}
	defer iter.Close()

	var roots []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.NumParents() == 0 {
			roots = append(roots, c)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Ref{}, ctxErr
		}
		return Ref{}, clierrors.Wrapf(err, clierrors.KindVcsData, "walking history")
	}
	if len(roots) == 0 {
		return Ref{}, clierrors.New(clierrors.KindVcsData, "no initial commit reachable from HEAD")
	}

	sort.Slice(roots, func(i, j int) bool {
		ti, tj := roots[i].Committer.When, roots[j].Committer.When
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return roots[i].Hash.String() < roots[j].Hash.String()
	})
	logDebug("[git] InitialCommit: %s (%d roots)", roots[0].Hash, len(roots))
	return refFromCommit(roots[0]), nil
}

// Walk visits HEAD history newest-first by committer time. Returning false
// from fn stops the walk.
func (r *Repository) Walk(ctx context.Context, fn func(Commit) bool) error {
	head, err := r.Head(ctx)
	if err != nil {
		return err
	}

	iter, err := r.repo.Log(&git.LogOptions{
		From:  plumbing.NewHash(head.Hash),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return clierrors.Wrapf(err, clierrors.KindVcsData, "reading history")
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(commitRecord(c)) {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return clierrors.Wrapf(err, clierrors.KindVcsData, "walking history")
	}
	return nil
}

// CommitsBetween returns the commits reachable from head but not from base
// that touch subpath, oldest first. An empty subpath or "." means the whole
// repository.
func (r *Repository) CommitsBetween(ctx context.Context, base, head Ref, subpath string) ([]Commit, error) {
	if base.Hash == head.Hash {
		return nil, nil
	}

	excluded, err := r.ancestors(ctx, base.Hash)
	if err != nil {
		return nil, err
	}

	match := pathFilter(subpath)
	iter, err := r.repo.Log(&git.LogOptions{
		From:  plumbing.NewHash(head.Hash),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "reading history from %s", head.Short())
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, skip := excluded[c.Hash]; skip {
			return nil
		}
		if match != nil {
			touched, err := touchesPath(ctx, c, match)
			if err != nil {
				return err
			}
			if !touched {
				return nil
			}
		}
		commits = append(commits, commitRecord(c))
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "walking history")
	}

	// The log is newest first.
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	logDebug("[git] CommitsBetween(%s, %s, %q): %d commits", base.Short(), head.Short(), subpath, len(commits))
	return commits, nil
}

// ancestors returns the set of commits reachable from hash, itself included.
func (r *Repository) ancestors(ctx context.Context, hash string) (map[plumbing.Hash]struct{}, error) {
	iter, err := r.repo.Log(&git.LogOptions{From: plumbing.NewHash(hash)})
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "reading history from %s", hash)
	}
	defer iter.Close()

	seen := make(map[plumbing.Hash]struct{})
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, clierrors.Wrapf(err, clierrors.KindVcsData, "walking history")
	}
	return seen, nil
}

// touchesPath reports whether c changes a path accepted by match compared
// with its own parents. A merge counts only when it differs from every
// parent under match, the way git log prunes TREESAME merges.
func touchesPath(ctx context.Context, c *object.Commit, match func(string) bool) (bool, error) {
	tree, err := c.Tree()
	if err != nil {
		return false, err
	}
	if c.NumParents() == 0 {
		return changesMatch(ctx, nil, tree, match)
	}

	parents := c.Parents()
	defer parents.Close()

	touched := false
	err = parents.ForEach(func(p *object.Commit) error {
		parentTree, err := p.Tree()
		if err != nil {
			return err
		}
		changed, err := changesMatch(ctx, parentTree, tree, match)
		if err != nil {
			return err
		}
		touched = changed
		if !changed {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return touched, nil
}

// changesMatch reports whether any change between from and to has a path
// accepted by match. A nil from is the empty tree.
func changesMatch(ctx context.Context, from, to *object.Tree, match func(string) bool) (bool, error) {
	changes, err := object.DiffTreeContext(ctx, from, to)
	if err != nil {
		return false, err
	}
	for _, ch := range changes {
		if match(ch.From.Name) || match(ch.To.Name) {
			return true, nil
		}
	}
	return false, nil
}

// pathFilter returns a matcher for paths under subpath, or nil for the whole
// repository.
func pathFilter(subpath string) func(string) bool {
	sub := strings.Trim(filepath.ToSlash(filepath.Clean(subpath)), "/")
	if sub == "" || sub == "." {
		return nil
	}
	prefix := sub + "/"
	return func(p string) bool {
		return p == sub || strings.HasPrefix(p, prefix)
	}
}

func refFromCommit(c *object.Commit) Ref {
	return Ref{Hash: c.Hash.String(), Time: c.Committer.When}
}

func commitRecord(c *object.Commit) Commit {
	return Commit{Hash: c.Hash.String(), Time: c.Author.When, Message: c.Message}
}

// Package history loads the commits that make up a release: everything
// reachable from HEAD but not from the baseline, limited to the project's
// sub-path.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/foxycorps/commitsense/internal/baseline"
	"github.com/foxycorps/commitsense/internal/git"
)

// RangeSource is the part of the VCS collaborator the loader needs.
type RangeSource interface {
	Head(ctx context.Context) (git.Ref, error)
	CommitsBetween(ctx context.Context, base, head git.Ref, subpath string) ([]git.Commit, error)
}

// Loader loads commit ranges for one project directory.
type Loader struct {
	src     RangeSource
	subpath string
	logger  *zap.Logger
}

// NewLoader returns a loader restricted to subpath ("" or "." for the
// whole repository).
func NewLoader(src RangeSource, subpath string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{src: src, subpath: subpath, logger: logger}
}

// Load returns the commits after b up to HEAD, oldest first. An empty range
// is not an error.
func (l *Loader) Load(ctx context.Context, b baseline.Baseline) ([]git.Commit, error) {
	head, err := l.src.Head(ctx)
	if err != nil {
		return nil, err
	}
	if head.Hash == b.Ref.Hash {
		l.logger.Info("baseline is HEAD, no commits to analyze", zap.String("ref", head.Short()))
		return nil, nil
	}

	commits, err := l.src.CommitsBetween(ctx, b.Ref, head, l.subpath)
	if err != nil {
		return nil, err
	}
	l.logger.Info("loaded commit range",
		zap.String("from", b.Ref.Short()),
		zap.String("to", head.Short()),
		zap.String("subpath", l.subpath),
		zap.Int("commits", len(commits)))
	return commits, nil
}

// Subpath returns dir relative to root in slash form, "." when dir is the
// root itself. It is the sub-path a project directory contributes to range
// queries.
func Subpath(root, dir string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	// Resolve symlinks so a temp dir under /var and /private/var compare equal.
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}
	if d, err := filepath.EvalSymlinks(absDir); err == nil {
		absDir = d
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside repository %s", dir, root)
	}
	return rel, nil
}

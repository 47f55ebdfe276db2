// Package artifact writes a release to disk: the manifest with its new
// version and the changelog with its new section. Both files are replaced
// together or, on failure, the manifest is put back.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/foxycorps/commitsense/internal/changelog"
	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/project"
)

const tempPattern = ".commitsense-*.tmp"

// Plan holds the full new content of both files.
type Plan struct {
	ManifestPath  string
	Manifest      []byte
	ChangelogPath string
	Changelog     []byte
}

// Prepare renders the files for a release of version without touching
// disk beyond reading the current content. A missing changelog is created
// with the standard header.
func Prepare(m *project.Manifest, version, changelogPath, section string) (*Plan, error) {
	current, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindArtifactWrite, "reading %s", m.Path)
	}
	manifest, err := project.RenderVersion(m.Kind, current, version)
	if err != nil {
		return nil, err
	}

	existing, err := os.ReadFile(changelogPath)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, clierrors.Wrapf(err, clierrors.KindArtifactWrite, "reading %s", changelogPath)
	}

	return &Plan{
		ManifestPath:  m.Path,
		Manifest:      manifest,
		ChangelogPath: changelogPath,
		Changelog:     changelog.Insert(existing, exists, section),
	}, nil
}

// Writer commits plans.
type Writer struct {
	logger *zap.Logger
	rename func(oldpath, newpath string) error
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRename replaces os.Rename, for fault injection in tests.
func WithRename(fn func(oldpath, newpath string) error) Option {
	return func(w *Writer) { w.rename = fn }
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{logger: zap.NewNop(), rename: os.Rename}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Commit stages both files next to their targets, fsyncs them, stages a
// backup of the manifest and then renames manifest and changelog into
// place. A failed changelog rename restores the manifest from the backup.
// Temp files never outlive the call. This is best effort: a crash between
// the two renames leaves the manifest updated.
func (w *Writer) Commit(ctx context.Context, p *Plan) error {
	var temps []string
	defer func() {
		for _, tmp := range temps {
			if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				w.logger.Warn("removing temp file", zap.String("path", tmp), zap.Error(rmErr))
			}
		}
	}()

	stage := func(target string, data []byte) (string, error) {
		tmp, err := writeTemp(target, data)
		if tmp != "" {
			temps = append(temps, tmp)
		}
		return tmp, err
	}

	manifestTmp, err := stage(p.ManifestPath, p.Manifest)
	if err != nil {
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "staging %s", p.ManifestPath)
	}
	changelogTmp, err := stage(p.ChangelogPath, p.Changelog)
	if err != nil {
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "staging %s", p.ChangelogPath)
	}
	original, err := os.ReadFile(p.ManifestPath)
	if err != nil {
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "reading %s", p.ManifestPath)
	}
	backup, err := stage(p.ManifestPath, original)
	if err != nil {
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "backing up %s", p.ManifestPath)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := w.rename(manifestTmp, p.ManifestPath); err != nil {
		return clierrors.Wrapf(err, clierrors.KindArtifactWrite, "replacing %s", p.ManifestPath)
	}
	if err := w.rename(changelogTmp, p.ChangelogPath); err != nil {
		werr := clierrors.Wrapf(err, clierrors.KindArtifactWrite, "replacing %s", p.ChangelogPath)
		if rerr := w.rename(backup, p.ManifestPath); rerr != nil {
			w.logger.Error("restoring manifest failed", zap.String("path", p.ManifestPath), zap.Error(rerr))
			return errors.Join(werr, fmt.Errorf("restoring %s: %w", p.ManifestPath, rerr))
		}
		w.logger.Warn("changelog write failed, manifest restored", zap.String("path", p.ManifestPath))
		return werr
	}

	w.logger.Info("release files written",
		zap.String("manifest", p.ManifestPath),
		zap.String("changelog", p.ChangelogPath))
	return nil
}

// writeTemp writes data to a synced temp file in target's directory with
// target's permissions, or 0644 for a new file.
func writeTemp(target string, data []byte) (string, error) {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	f, err := os.CreateTemp(filepath.Dir(target), tempPattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return name, fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return name, fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return name, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(name, mode); err != nil {
		return name, fmt.Errorf("setting temp file mode: %w", err)
	}
	return name, nil
}

// Package baseline locates the previous release point of a repository. It
// assembles an index of tags and the initial commit, then applies an ordered
// list of discovery tiers to choose exactly one baseline commit.
package baseline

import (
	"context"
	"errors"
	"strings"

	"github.com/Masterminds/semver/v3"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/git"
)

// TagSource is the part of the VCS collaborator the index is built from.
type TagSource interface {
	Tags(ctx context.Context) ([]git.Tag, error)
	InitialCommit(ctx context.Context) (git.Ref, error)
}

// TagCandidate is a tag with its commit and, when the name parses as
// semver, its parsed version. Version is nil for non-parsing names.
type TagCandidate struct {
	Name    string
	Ref     git.Ref
	Version *semver.Version
}

// Index is the in-memory view of every tag plus the initial commit.
type Index struct {
	Tags    []TagCandidate
	Initial git.Ref
}

// BuildIndex reads all tags and the initial commit from src. It does not
// filter anything; failures are VcsDataErrors.
func BuildIndex(ctx context.Context, src TagSource) (*Index, error) {
	tags, err := src.Tags(ctx)
	if err != nil {
		return nil, asVcsData(err, "listing tags")
	}
	initial, err := src.InitialCommit(ctx)
	if err != nil {
		return nil, asVcsData(err, "finding initial commit")
	}

	idx := &Index{Initial: initial, Tags: make([]TagCandidate, 0, len(tags))}
	for _, t := range tags {
		idx.Tags = append(idx.Tags, TagCandidate{
			Name:    t.Name,
			Ref:     t.Ref,
			Version: ParseTagVersion(t.Name),
		})
	}
	return idx, nil
}

// ParseTagVersion parses a tag name as semver after dropping one leading
// "v" or "V". It returns nil when the name is not a version.
func ParseTagVersion(name string) *semver.Version {
	s := name
	if strings.HasPrefix(s, "v") || strings.HasPrefix(s, "V") {
		s = s[1:]
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil
	}
	return v
}

// ParsePrefixedTagVersion is ParseTagVersion that also accepts a component
// prefix ending in "-", "/", "_" or "@", as in api-v1.2.3 or web/2.0.0. The
// shortest prefix that leaves a version wins.
func ParsePrefixedTagVersion(name string) *semver.Version {
	if v := ParseTagVersion(name); v != nil {
		return v
	}
	for i := 0; i < len(name); i++ {
		if !strings.ContainsRune("-/_@", rune(name[i])) {
			continue
		}
		if v := ParseTagVersion(name[i+1:]); v != nil {
			return v
		}
	}
	return nil
}

// TagsAt returns the names of every indexed tag pointing at hash.
func (idx *Index) TagsAt(hash string) []string {
	var names []string
	for _, c := range idx.Tags {
		if c.Ref.Hash == hash {
			names = append(names, c.Name)
		}
	}
	return names
}

// asVcsData keeps an existing classification and context cancellation,
// and classifies anything else as VcsData.
func asVcsData(err error, msg string) error {
	if clierrors.KindOf(err) != clierrors.KindUnknown ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return clierrors.Wrapf(err, clierrors.KindVcsData, "%s", msg)
}

package baseline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/git"
)

// Tier records which discovery step produced a baseline.
type Tier int

const (
	TierExplicitRef Tier = iota + 1
	TierTagPattern
	TierTagRegex
	TierConventionalMarker
	TierLatestSemverTag
	TierInitialCommit
)

var tierNames = map[Tier]string{
	TierExplicitRef:        "ExplicitRef",
	TierTagPattern:         "TagPattern",
	TierTagRegex:           "TagRegex",
	TierConventionalMarker: "ConventionalMarker",
	TierLatestSemverTag:    "LatestSemverTag",
	TierInitialCommit:      "InitialCommit",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// MarshalText lets reports print the tier name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// MarkerPrefix starts the first line of a conventional release commit.
const MarkerPrefix = "release:"

// Baseline is the resolved comparison start point. Tag is set when a tag
// tier produced it.
type Baseline struct {
	Ref  git.Ref
	Tier Tier
	Tag  string
}

// VCS is the part of the VCS collaborator the resolver needs beyond the index.
type VCS interface {
	Resolve(ctx context.Context, rev string) (git.Ref, error)
	Walk(ctx context.Context, fn func(git.Commit) bool) error
}

// Options selects the explicitly requested tiers. Empty fields are absent.
type Options struct {
	BaseRef    string
	TagPattern string
	TagRegex   string
}

// Matchers holds the compiled tag filters of Options.
type Matchers struct {
	pattern glob.Glob
	regex   *regexp.Regexp
}

// Compile checks Options without touching the repository. Supplying both a
// pattern and a regex is a ConfigConflictError; an invalid glob or regex is
// a ConfigError.
func (o Options) Compile() (Matchers, error) {
	var m Matchers
	if o.TagPattern != "" && o.TagRegex != "" {
		return m, clierrors.New(clierrors.KindConfigConflict,
			"tag-pattern %q and tag-regex %q are mutually exclusive", o.TagPattern, o.TagRegex)
	}
	if o.TagPattern != "" {
		g, err := glob.Compile(o.TagPattern)
		if err != nil {
			return m, clierrors.Wrapf(err, clierrors.KindConfig, "invalid tag-pattern %q", o.TagPattern)
		}
		m.pattern = g
	}
	if o.TagRegex != "" {
		re, err := regexp.Compile(o.TagRegex)
		if err != nil {
			return m, clierrors.Wrapf(err, clierrors.KindConfig, "invalid tag-regex %q", o.TagRegex)
		}
		m.regex = re
	}
	return m, nil
}

// Resolver applies the discovery tiers in priority order.
type Resolver struct {
	vcs      VCS
	opts     Options
	matchers Matchers
	logger   *zap.Logger
}

// NewResolver validates opts and returns a resolver. It performs no VCS work.
func NewResolver(vcs VCS, opts Options, logger *zap.Logger) (*Resolver, error) {
	matchers, err := opts.Compile()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{vcs: vcs, opts: opts, matchers: matchers, logger: logger}, nil
}

// tier attempts one discovery step. supplied reports whether the caller
// asked for it; a supplied tier that finds nothing is fatal.
type tier struct {
	kind     Tier
	supplied bool
	find     func(ctx context.Context, idx *Index) (Baseline, bool, error)
}

// Resolve returns the baseline from the first tier that matches.
func (r *Resolver) Resolve(ctx context.Context, idx *Index) (Baseline, error) {
	tiers := []tier{
		{kind: TierExplicitRef, supplied: r.opts.BaseRef != "", find: r.explicitRef},
		{kind: TierTagPattern, supplied: r.matchers.pattern != nil, find: r.tagFilter(TierTagPattern, func(name string) bool {
			return r.matchers.pattern.Match(name)
		})},
		{kind: TierTagRegex, supplied: r.matchers.regex != nil, find: r.tagFilter(TierTagRegex, func(name string) bool {
			return r.matchers.regex.MatchString(name)
		})},
		{kind: TierConventionalMarker, find: r.conventionalMarker},
		{kind: TierLatestSemverTag, find: latestSemverTag},
		{kind: TierInitialCommit, find: initialCommit},
	}

	for _, t := range tiers {
		if t.kind <= TierTagRegex && !t.supplied {
			continue
		}
		b, ok, err := t.find(ctx, idx)
		if err != nil {
			return Baseline{}, err
		}
		if ok {
			r.logger.Info("resolved baseline",
				zap.Stringer("tier", b.Tier),
				zap.String("ref", b.Ref.Short()),
				zap.String("tag", b.Tag))
			return b, nil
		}
		if t.supplied {
			return Baseline{}, clierrors.New(clierrors.KindBaselineNotFound, "%s tier matched no tags", t.kind)
		}
		r.logger.Debug("baseline tier found nothing", zap.Stringer("tier", t.kind))
	}

	// Unreachable while the initial commit tier always matches.
	return Baseline{}, clierrors.New(clierrors.KindBaselineNotFound, "no baseline tier matched")
}

func (r *Resolver) explicitRef(ctx context.Context, idx *Index) (Baseline, bool, error) {
	ref, err := r.vcs.Resolve(ctx, r.opts.BaseRef)
	if err != nil {
		if clierrors.KindOf(err) == clierrors.KindUnknown {
			err = clierrors.Wrapf(err, clierrors.KindRefNotFound, "resolving base ref %q", r.opts.BaseRef)
		}
		return Baseline{}, false, err
	}
	ref.Tags = idx.TagsAt(ref.Hash)
	return Baseline{Ref: ref, Tier: TierExplicitRef}, true, nil
}

func (r *Resolver) tagFilter(kind Tier, match func(string) bool) func(context.Context, *Index) (Baseline, bool, error) {
	return func(_ context.Context, idx *Index) (Baseline, bool, error) {
		var matched []TagCandidate
		for _, c := range idx.Tags {
			if !match(c.Name) {
				continue
			}
			// Component tags like api-v1.2.3 rank by their version here but
			// stay out of the latest semver tier.
			if c.Version == nil {
				c.Version = ParsePrefixedTagVersion(c.Name)
			}
			matched = append(matched, c)
		}
		best, ok := Select(matched)
		if !ok {
			return Baseline{}, false, nil
		}
		r.logger.Debug("tag filter matched",
			zap.Stringer("tier", kind),
			zap.Int("matches", len(matched)),
			zap.String("selected", best.Name))
		return Baseline{Ref: best.Ref, Tier: kind, Tag: best.Name}, true, nil
	}
}

func (r *Resolver) conventionalMarker(ctx context.Context, idx *Index) (Baseline, bool, error) {
	var (
		found git.Commit
		ok    bool
	)
	err := r.vcs.Walk(ctx, func(c git.Commit) bool {
		if IsReleaseMarker(c.Message) {
			found, ok = c, true
			return false
		}
		return true
	})
	if err != nil {
		return Baseline{}, false, err
	}
	if !ok {
		return Baseline{}, false, nil
	}
	ref := git.Ref{Hash: found.Hash, Time: found.Time, Tags: idx.TagsAt(found.Hash)}
	return Baseline{Ref: ref, Tier: TierConventionalMarker}, true, nil
}

func latestSemverTag(_ context.Context, idx *Index) (Baseline, bool, error) {
	var parsing []TagCandidate
	for _, c := range idx.Tags {
		if c.Version != nil {
			parsing = append(parsing, c)
		}
	}
	best, ok := Select(parsing)
	if !ok {
		return Baseline{}, false, nil
	}
	return Baseline{Ref: best.Ref, Tier: TierLatestSemverTag, Tag: best.Name}, true, nil
}

func initialCommit(_ context.Context, idx *Index) (Baseline, bool, error) {
	return Baseline{Ref: idx.Initial, Tier: TierInitialCommit}, true, nil
}

// IsReleaseMarker reports whether the first line of message, trimmed,
// starts with "release:" in any case.
func IsReleaseMarker(message string) bool {
	first, _, _ := strings.Cut(message, "\n")
	first = strings.ToLower(strings.TrimSpace(first))
	return strings.HasPrefix(first, MarkerPrefix)
}

// Select picks one candidate deterministically. Parsing candidates always
// win over non-parsing ones; among parsing candidates the greatest semver
// wins, then the later commit, then the lexicographically greatest name.
// Among non-parsing candidates the later commit wins, then the greatest name.
func Select(cands []TagCandidate) (TagCandidate, bool) {
	if len(cands) == 0 {
		return TagCandidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if better(c, best) {
			best = c
		}
	}
	return best, true
}

// better reports whether a outranks b.
func better(a, b TagCandidate) bool {
	switch {
	case a.Version != nil && b.Version == nil:
		return true
	case a.Version == nil && b.Version != nil:
		return false
	case a.Version != nil:
		if cmp := a.Version.Compare(b.Version); cmp != 0 {
			return cmp > 0
		}
	}
	if !a.Ref.Time.Equal(b.Ref.Time) {
		return a.Ref.Time.After(b.Ref.Time)
	}
	return a.Name > b.Name
}

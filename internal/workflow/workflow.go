// Package workflow runs the release pipeline: read the manifest, resolve
// the baseline, load the commit range, ask the judge for a bump and
// changelog, compute the next version and optionally write both files.
package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/foxycorps/commitsense/internal/artifact"
	"github.com/foxycorps/commitsense/internal/baseline"
	"github.com/foxycorps/commitsense/internal/changelog"
	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/git"
	"github.com/foxycorps/commitsense/internal/history"
	"github.com/foxycorps/commitsense/internal/judge"
	"github.com/foxycorps/commitsense/internal/project"
	"github.com/foxycorps/commitsense/internal/version"
)

// NoChanges stands in for the changelog when the range produced nothing.
const NoChanges = "No changes detected since last release."

const totalStages = 6

// Options configures one pipeline run.
type Options struct {
	Path          string
	ProjectKind   project.Kind
	BaseRef       string
	TagPattern    string
	TagRegex      string
	Write         bool
	Nightly       bool
	ChangelogFile string

	// Now is the clock for nightly dates and section dates; nil means time.Now.
	Now      func() time.Time
	Judge    judge.Judge
	Logger   *zap.Logger
	Progress Reporter
	// Writer commits files in write mode; nil means artifact.NewWriter.
	Writer *artifact.Writer
}

// ReleasePlan is what a release would change.
type ReleasePlan struct {
	CurrentVersion string           `json:"current_version" yaml:"current_version"`
	NextVersion    string           `json:"next_version" yaml:"next_version"`
	NightlyVersion string           `json:"nightly_version,omitempty" yaml:"nightly_version,omitempty"`
	Bump           version.BumpKind `json:"bump" yaml:"bump"`
	Changelog      string           `json:"changelog" yaml:"changelog"`
	Section        string           `json:"section" yaml:"section"`
}

// TargetVersion is the version written to the manifest.
func (p ReleasePlan) TargetVersion() string {
	if p.NightlyVersion != "" {
		return p.NightlyVersion
	}
	return p.NextVersion
}

// Outcome is the result of a run. Plan is nil when there is nothing to
// release: a None bump without nightly.
type Outcome struct {
	Project        project.Kind `json:"project_type" yaml:"project_type"`
	ManifestPath   string       `json:"manifest" yaml:"manifest"`
	ChangelogPath  string       `json:"changelog_file" yaml:"changelog_file"`
	CurrentVersion string       `json:"current_version" yaml:"current_version"`
	Baseline       BaselineInfo `json:"baseline" yaml:"baseline"`
	Commits        int          `json:"commits" yaml:"commits"`
	Plan           *ReleasePlan `json:"plan,omitempty" yaml:"plan,omitempty"`
	Written        bool         `json:"written" yaml:"written"`
}

// BaselineInfo is the report view of the resolved baseline.
type BaselineInfo struct {
	Hash string        `json:"hash" yaml:"hash"`
	Tier baseline.Tier `json:"tier" yaml:"tier"`
	Tag  string        `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// Run executes the pipeline. Option conflicts and invalid patterns fail
// before the repository is opened.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Judge == nil {
		return nil, clierrors.New(clierrors.KindConfig, "no judge configured")
	}

	resolverOpts := baseline.Options{BaseRef: opts.BaseRef, TagPattern: opts.TagPattern, TagRegex: opts.TagRegex}
	if _, err := resolverOpts.Compile(); err != nil {
		return nil, err
	}

	pc := NewProgressController(opts.Progress, totalStages)

	pc.Start("Reading manifest")
	manifest, err := project.Load(defaultPath(opts.Path), opts.ProjectKind)
	if err != nil {
		return nil, pc.Fail(err)
	}
	if _, err := version.Parse(manifest.Version); err != nil {
		return nil, pc.Fail(err)
	}
	pc.Done(fmt.Sprintf("%s %s", manifest.Kind.File(), manifest.Version))

	out := &Outcome{
		Project:        manifest.Kind,
		ManifestPath:   manifest.Path,
		ChangelogPath:  changelogPath(manifest.Dir, opts.ChangelogFile),
		CurrentVersion: manifest.Version,
	}

	pc.Start("Resolving baseline")
	repo, err := git.Open(manifest.Dir)
	if err != nil {
		return nil, pc.Fail(err)
	}
	idx, err := baseline.BuildIndex(ctx, repo)
	if err != nil {
		return nil, pc.Fail(err)
	}
	resolver, err := baseline.NewResolver(repo, resolverOpts, logger)
	if err != nil {
		return nil, pc.Fail(err)
	}
	base, err := resolver.Resolve(ctx, idx)
	if err != nil {
		return nil, pc.Fail(err)
	}
	out.Baseline = BaselineInfo{Hash: base.Ref.Hash, Tier: base.Tier, Tag: base.Tag}
	pc.Done(describeBaseline(base))

	pc.Start("Loading commits")
	sub, err := history.Subpath(repo.Root(), manifest.Dir)
	if err != nil {
		return nil, pc.Fail(clierrors.Wrapf(err, clierrors.KindVcsData, "locating project in repository"))
	}
	commits, err := history.NewLoader(repo, sub, logger).Load(ctx, base)
	if err != nil {
		return nil, pc.Fail(err)
	}
	out.Commits = len(commits)
	pc.Done(fmt.Sprintf("%d commit(s) in %s", len(commits), sub))

	pc.Start("Judging commits")
	judgment := judge.Judgment{Bump: version.BumpNone}
	if len(commits) > 0 {
		judgment, err = opts.Judge.Judge(ctx, commits, judge.Project{
			Kind:           manifest.Kind.String(),
			Name:           manifest.Name,
			CurrentVersion: manifest.Version,
		})
		if err != nil {
			return nil, pc.Fail(err)
		}
	}
	pc.Done(judgment.Bump.String())

	pc.Start("Computing version")
	at := now()
	vp, err := version.Compute(manifest.Version, judgment.Bump, opts.Nightly, at)
	if err != nil {
		return nil, pc.Fail(err)
	}
	if !vp.Emitted() {
		pc.Done("no release")
		logger.Info("no release", zap.Int("commits", len(commits)))
		return out, nil
	}
	out.Plan = newReleasePlan(vp, judgment.Changelog, at)
	pc.Done(out.Plan.TargetVersion())

	if !opts.Write {
		pc.Start("Dry run")
		pc.Done("no files changed")
		return out, nil
	}

	pc.Start("Writing files")
	plan, err := artifact.Prepare(manifest, out.Plan.TargetVersion(), out.ChangelogPath, out.Plan.Section)
	if err != nil {
		return nil, pc.Fail(err)
	}
	writer := opts.Writer
	if writer == nil {
		writer = artifact.NewWriter(artifact.WithLogger(logger))
	}
	if err := writer.Commit(ctx, plan); err != nil {
		return nil, pc.Fail(err)
	}
	out.Written = true
	pc.Done(fmt.Sprintf("%s, %s", filepath.Base(plan.ManifestPath), filepath.Base(plan.ChangelogPath)))
	return out, nil
}

func newReleasePlan(vp version.Plan, markdown string, day time.Time) *ReleasePlan {
	p := &ReleasePlan{
		CurrentVersion: vp.Current.String(),
		NextVersion:    vp.Next.String(),
		Bump:           vp.Bump,
		Changelog:      markdown,
	}
	if vp.Nightly != nil {
		p.NightlyVersion = vp.Nightly.String()
	}
	body := markdown
	if body == "" {
		body = NoChanges
	}
	p.Section = changelog.FormatSection(p.TargetVersion(), day, body)
	return p
}

func describeBaseline(b baseline.Baseline) string {
	if b.Tag != "" {
		return fmt.Sprintf("%s (%s)", b.Tag, b.Tier)
	}
	return fmt.Sprintf("%s (%s)", b.Ref.Short(), b.Tier)
}

func defaultPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func changelogPath(dir, file string) string {
	if file == "" {
		file = changelog.DefaultFile
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

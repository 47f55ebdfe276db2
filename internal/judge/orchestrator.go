package judge

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/git"
	"github.com/foxycorps/commitsense/internal/version"
)

const (
	// DefaultMaxBatchChars bounds the commit message bytes sent per request.
	DefaultMaxBatchChars = 24000
	// DefaultMaxConcurrency bounds the number of in-flight batch requests.
	DefaultMaxConcurrency = 4
)

// Orchestrator implements Judge on top of a Provider.
type Orchestrator struct {
	provider       Provider
	model          string
	temperature    float64
	maxBatchChars  int
	maxConcurrency int
	logger         *zap.Logger
	// onWait is called around each provider call; the CLI hangs its
	// spinner here.
	onWait func(started bool)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModel sets the model identifier sent to the provider.
func WithModel(model string) Option {
	return func(o *Orchestrator) {
		o.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Orchestrator) {
		o.temperature = t
	}
}

// WithMaxBatchChars sets the per-request commit message budget.
func WithMaxBatchChars(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.maxBatchChars = n
		}
	}
}

// WithMaxConcurrency sets how many batches may be in flight at once.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.maxConcurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWaitHook registers fn to be called with true before the first
// provider call starts and false after the last one returns.
func WithWaitHook(fn func(started bool)) Option {
	return func(o *Orchestrator) {
		o.onWait = fn
	}
}

// NewOrchestrator returns an orchestrator sending requests to provider.
func NewOrchestrator(provider Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:       provider,
		maxBatchChars:  DefaultMaxBatchChars,
		maxConcurrency: DefaultMaxConcurrency,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Judge classifies commits. An empty list short-circuits to BumpNone without
// contacting the provider. Batches run concurrently and are merged in commit
// order: the bump is the greatest of the batch bumps and changelog fragments
// are joined with a blank line.
func (o *Orchestrator) Judge(ctx context.Context, commits []git.Commit, project Project) (Judgment, error) {
	if len(commits) == 0 {
		o.logger.Info("no commits to judge")
		return Judgment{Bump: version.BumpNone}, nil
	}

	batches := Batch(commits, o.maxBatchChars)
	results := make([]Judgment, len(batches))

	o.logger.Info("requesting judgment",
		zap.String("provider", o.provider.Name()),
		zap.String("model", o.model),
		zap.Int("commits", len(commits)),
		zap.Int("batches", len(batches)))

	if o.onWait != nil {
		o.onWait(true)
		defer o.onWait(false)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)

	for i, batch := range batches {
		g.Go(func() error {
			j, err := o.judgeBatch(gctx, batch, project)
			if err != nil {
				return err
			}
			results[i] = j
			o.logger.Debug("batch judged",
				zap.Int("batch", i),
				zap.Int("commits", len(batch)),
				zap.Stringer("bump", j.Bump))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Judgment{}, err
	}

	return Merge(results), nil
}

func (o *Orchestrator) judgeBatch(ctx context.Context, batch []git.Commit, project Project) (Judgment, error) {
	text, err := o.provider.Complete(ctx, Request{
		Model:       o.model,
		System:      SystemPrompt,
		Prompt:      BuildPrompt(project, batch),
		Temperature: o.temperature,
	})
	if err != nil {
		return Judgment{}, providerError(ctx, o.provider.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return Judgment{}, providerError(ctx, o.provider.Name(), err)
	}
	return ParseResponse(text)
}

// providerError classifies a provider failure. Cancellation is a provider
// error too.
func providerError(ctx context.Context, name string, err error) error {
	if clierrors.KindOf(err) == clierrors.KindJudgmentProvider {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	return clierrors.Wrapf(err, clierrors.KindJudgmentProvider, "%s request failed", name)
}

// Batch splits commits into ordered groups whose message bytes stay within
// maxChars. A commit larger than maxChars forms its own batch.
func Batch(commits []git.Commit, maxChars int) [][]git.Commit {
	if maxChars < 1 {
		maxChars = DefaultMaxBatchChars
	}
	var (
		batches [][]git.Commit
		current []git.Commit
		size    int
	)
	for _, c := range commits {
		n := len(c.Message)
		if len(current) > 0 && size+n > maxChars {
			batches = append(batches, current)
			current, size = nil, 0
		}
		current = append(current, c)
		size += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// Merge combines batch judgments in order.
func Merge(parts []Judgment) Judgment {
	var (
		out       Judgment
		fragments []string
	)
	for _, p := range parts {
		out.Bump = version.MaxBump(out.Bump, p.Bump)
		if text := strings.TrimSpace(p.Changelog); text != "" {
			fragments = append(fragments, text)
		}
	}
	out.Changelog = strings.Join(fragments, "\n\n")
	return out
}

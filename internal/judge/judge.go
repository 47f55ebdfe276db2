// Package judge asks a language model to classify a range of commits. The
// model is treated as an oracle: the orchestrator batches commit messages,
// validates the structured reply and merges batch results, but never second
// guesses the bump the model chose.
package judge

import (
	"context"

	"github.com/foxycorps/commitsense/internal/git"
	"github.com/foxycorps/commitsense/internal/version"
)

// Judgment is the model's decision for a commit range.
type Judgment struct {
	Bump      version.BumpKind `json:"bump" yaml:"bump"`
	Changelog string           `json:"changelog" yaml:"changelog"`
}

// Project describes the project being released, for the prompt.
type Project struct {
	Kind           string
	Name           string
	CurrentVersion string
}

// Judge turns commits into a Judgment.
type Judge interface {
	Judge(ctx context.Context, commits []git.Commit, project Project) (Judgment, error)
}

// Request is a single completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
}

// Provider sends a completion request to a model and returns its raw text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to the Judge interface.
type Func func(ctx context.Context, commits []git.Commit, project Project) (Judgment, error)

// Judge calls f.
func (f Func) Judge(ctx context.Context, commits []git.Commit, project Project) (Judgment, error) {
	return f(ctx, commits, project)
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a release pipeline failure. Every pipeline stage either
// produces its output or returns a *ReleaseError carrying one of these kinds.
type Kind int

const (
	// KindUnknown is reported for errors that carry no release kind.
	KindUnknown Kind = iota
	// KindVcsData means tags, history or the initial commit could not be read.
	KindVcsData
	// KindRefNotFound means an explicitly requested ref does not resolve.
	KindRefNotFound
	// KindConfigConflict means mutually exclusive options were supplied together.
	KindConfigConflict
	// KindBaselineNotFound means a requested discovery tier matched nothing.
	KindBaselineNotFound
	// KindJudgmentParse means the model response was not a well-formed judgment.
	KindJudgmentParse
	// KindJudgmentProvider means the model provider call failed or was cancelled.
	KindJudgmentProvider
	// KindVersionParse means the manifest version is missing or not semver.
	KindVersionParse
	// KindArtifactWrite means the manifest or changelog could not be written.
	KindArtifactWrite
	// KindConfig covers invalid configuration values (bad project type,
	// missing manifest, invalid pattern, unreadable config file).
	KindConfig
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindVcsData:
		return "VcsDataError"
	case KindRefNotFound:
		return "RefNotFoundError"
	case KindConfigConflict:
		return "ConfigConflictError"
	case KindBaselineNotFound:
		return "BaselineNotFoundError"
	case KindJudgmentParse:
		return "JudgmentParseError"
	case KindJudgmentProvider:
		return "JudgmentProviderError"
	case KindVersionParse:
		return "VersionParseError"
	case KindArtifactWrite:
		return "ArtifactWriteError"
	case KindConfig:
		return "ConfigError"
	default:
		return "Error"
	}
}

// ReleaseError is a classified pipeline failure.
type ReleaseError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ReleaseError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause.
func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *ReleaseError of the same kind, so callers
// can write errors.Is(err, ErrRefNotFound).
func (e *ReleaseError) Is(target error) bool {
	t, ok := target.(*ReleaseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is matching. They carry no message or cause.
var (
	ErrVcsData          = &ReleaseError{Kind: KindVcsData}
	ErrRefNotFound      = &ReleaseError{Kind: KindRefNotFound}
	ErrConfigConflict   = &ReleaseError{Kind: KindConfigConflict}
	ErrBaselineNotFound = &ReleaseError{Kind: KindBaselineNotFound}
	ErrJudgmentParse    = &ReleaseError{Kind: KindJudgmentParse}
	ErrJudgmentProvider = &ReleaseError{Kind: KindJudgmentProvider}
	ErrVersionParse     = &ReleaseError{Kind: KindVersionParse}
	ErrArtifactWrite    = &ReleaseError{Kind: KindArtifactWrite}
	ErrConfig           = &ReleaseError{Kind: KindConfig}
)

// New creates a ReleaseError with a formatted message.
func New(kind Kind, format string, args ...any) *ReleaseError {
	return &ReleaseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrapf classifies err under kind with a formatted message.
// A nil err yields nil.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &ReleaseError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost ReleaseError in err's chain.
func KindOf(err error) Kind {
	var re *ReleaseError
	if stderrors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
)

// Exit codes for the commitsense CLI.
// CI pipelines branch on these, so they are stable.
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure covers errors without a more specific code
	ExitFailure = 1

	// ExitConfig indicates invalid configuration, arguments or conflicting options
	ExitConfig = 2

	// ExitRefNotFound indicates an explicit ref or tag baseline could not be found
	ExitRefNotFound = 3

	// ExitVcsData indicates unreadable or missing repository data
	ExitVcsData = 4

	// ExitJudgment indicates the model call failed or its answer was unusable
	ExitJudgment = 5

	// ExitVersionParse indicates the manifest version is not valid semver
	ExitVersionParse = 6

	// ExitArtifactWrite indicates the manifest or changelog could not be written
	ExitArtifactWrite = 7
)

// ExitError carries an exit code for a failure that has already been
// reported to the user.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch clierrors.KindOf(err) {
	case clierrors.KindConfig, clierrors.KindConfigConflict:
		return ExitConfig
	case clierrors.KindRefNotFound, clierrors.KindBaselineNotFound:
		return ExitRefNotFound
	case clierrors.KindVcsData:
		return ExitVcsData
	case clierrors.KindJudgmentParse, clierrors.KindJudgmentProvider:
		return ExitJudgment
	case clierrors.KindVersionParse:
		return ExitVersionParse
	case clierrors.KindArtifactWrite:
		return ExitArtifactWrite
	}

	var cliErr *clierrors.CLIError
	if errors.As(err, &cliErr) {
		switch cliErr.Category {
		case clierrors.Argument, clierrors.Configuration:
			return ExitConfig
		}
	}
	return ExitFailure
}

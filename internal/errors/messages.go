package errors

import "fmt"

// Remediation templates for each release failure kind.
// These keep CLI output consistent between local runs and CI logs.

// FromRelease converts a classified pipeline error into a CLIError with
// a category and remediation steps for its kind.
func FromRelease(err error) *CLIError {
	kind := KindOf(err)
	cliErr := &CLIError{
		Message: fmt.Sprintf("%s: %v", kind, err),
		Cause:   err,
	}

	switch kind {
	case KindConfigConflict:
		cliErr.Category = Argument
		cliErr.Usage = "commitsense --tag-pattern 'v*' | --tag-regex '^v\\d+'"
		cliErr.Remediation = []string{
			"Pass either --tag-pattern or --tag-regex, not both",
			"Check .commitsense.yml and COMMITSENSE_* variables for a second source",
		}
	case KindConfig:
		cliErr.Category = Configuration
		cliErr.Remediation = []string{
			"Inspect the effective configuration with: commitsense config show",
			"Use --project-type rust|js if auto-detection picked the wrong manifest",
		}
	case KindRefNotFound:
		cliErr.Category = Repository
		cliErr.Remediation = []string{
			"Check the ref exists: git rev-parse --verify <ref>",
			"Fetch tags in CI: git fetch --tags --unshallow",
		}
	case KindBaselineNotFound:
		cliErr.Category = Repository
		cliErr.Remediation = []string{
			"List available tags with: git tag --list",
			"Loosen --tag-pattern/--tag-regex, or drop it to use automatic discovery",
		}
	case KindVcsData:
		cliErr.Category = Repository
		cliErr.Remediation = []string{
			"Run commitsense inside a git repository with at least one commit",
			"In CI, check out full history (fetch-depth: 0)",
		}
	case KindJudgmentParse:
		cliErr.Category = Provider
		cliErr.Remediation = []string{
			"Retry the run; the model returned an unexpected response shape",
			"Try a different model with --model",
		}
	case KindJudgmentProvider:
		cliErr.Category = Provider
		cliErr.Remediation = []string{
			"Verify your API key is set: echo $OPENAI_API_KEY",
			"Check --api-url and network access to the provider",
		}
	case KindVersionParse:
		cliErr.Category = Configuration
		cliErr.Remediation = []string{
			"Make sure the manifest version is valid semver (MAJOR.MINOR.PATCH)",
		}
	case KindArtifactWrite:
		cliErr.Category = Runtime
		cliErr.Remediation = []string{
			"Check write permissions on the manifest and CHANGELOG.md",
			"Re-run without --write to preview the release",
		}
	default:
		cliErr.Category = Runtime
	}

	return cliErr
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML syntax errors",
		"Inspect the effective configuration with: commitsense config show",
	)
}

// InvalidFormat creates an error for an unsupported --format value.
func InvalidFormat(format string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid output format: %s", format),
		"Valid formats: text, json, yaml",
	)
}

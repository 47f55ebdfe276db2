package config

import (
	"github.com/foxycorps/commitsense/internal/changelog"
	"github.com/foxycorps/commitsense/internal/judge"
)

// GetDefaults returns the lowest-priority configuration layer. The model
// is left empty so it follows the provider.
func GetDefaults() map[string]any {
	return map[string]any{
		"provider":        "openai",
		"api_key":         "",
		"api_url":         "",
		"model":           "",
		"temperature":     0.2,
		"project_type":    "",
		"changelog_file":  changelog.DefaultFile,
		"max_batch_chars": judge.DefaultMaxBatchChars,
		"max_concurrency": judge.DefaultMaxConcurrency,
	}
}

// GetDefaultConfigTemplate returns a commented project config file.
func GetDefaultConfigTemplate() string {
	return `# commitsense configuration
# Priority: defaults < ~/.config/commitsense/config.yml < .commitsense.yml
#           < OPENAI_* / GEMINI_API_KEY < COMMITSENSE_* < flags

provider: openai              # openai | gemini
# api_key: ""                 # prefer OPENAI_API_KEY / GEMINI_API_KEY
api_url: ""                   # custom OpenAI-compatible endpoint
model: ""                     # empty uses the provider default
temperature: 0.2

project_type: ""              # rust | js (empty auto-detects)
changelog_file: CHANGELOG.md  # relative to the project directory

max_batch_chars: 24000        # commit text per model request
max_concurrency: 4            # parallel model requests for large ranges
`
}

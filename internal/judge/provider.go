package judge

import (
	"net/http"
	"strings"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
)

// Providers lists the provider names accepted by NewProvider.
var Providers = []string{"openai", "gemini"}

// NewProvider returns the provider registered under name.
func NewProvider(name, apiKey, apiURL string, client *http.Client) (Provider, error) {
	switch strings.ToLower(name) {
	case "", "openai":
		return NewOpenAI(apiKey, apiURL, client), nil
	case "gemini":
		return NewGemini(apiKey, apiURL, client), nil
	default:
		return nil, clierrors.New(clierrors.KindConfig,
			"unknown provider %q (valid: %s)", name, strings.Join(Providers, ", "))
	}
}

// DefaultModel returns the model used by provider when none is configured.
func DefaultModel(provider string) string {
	if strings.EqualFold(provider, "gemini") {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

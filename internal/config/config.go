// Package config loads commitsense settings with koanf. Priority, lowest
// first: defaults, user config (~/.config/commitsense/config.yml), project
// config (.commitsense.yml or .commitsense.json next to the project),
// provider environment variables (OPENAI_* or GEMINI_API_KEY), then
// COMMITSENSE_* variables. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	clierrors "github.com/foxycorps/commitsense/internal/errors"
	"github.com/foxycorps/commitsense/internal/judge"
)

// ConfigSource tracks where a configuration value came from.
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
	SourceFlag    ConfigSource = "flag"
)

// Configuration is the effective commitsense configuration.
type Configuration struct {
	Provider    string  `koanf:"provider" yaml:"provider" validate:"required,oneof=openai gemini"`
	APIKey      string  `koanf:"api_key" yaml:"api_key"`
	APIURL      string  `koanf:"api_url" yaml:"api_url" validate:"omitempty,url"`
	Model       string  `koanf:"model" yaml:"model"`
	Temperature float64 `koanf:"temperature" yaml:"temperature" validate:"min=0,max=2"`

	// ProjectType is empty for auto-detection.
	ProjectType   string `koanf:"project_type" yaml:"project_type" validate:"omitempty,oneof=rust cargo js ts javascript typescript node"`
	ChangelogFile string `koanf:"changelog_file" yaml:"changelog_file" validate:"required"`

	MaxBatchChars  int `koanf:"max_batch_chars" yaml:"max_batch_chars" validate:"min=1000"`
	MaxConcurrency int `koanf:"max_concurrency" yaml:"max_concurrency" validate:"min=1,max=32"`

	// Sources maps each key to the layer that last set it.
	Sources map[string]ConfigSource `koanf:"-" yaml:"-"`
}

// LoadOptions configures Load.
type LoadOptions struct {
	// ProjectDir is searched for .commitsense.yml/.commitsense.json (default ".").
	ProjectDir string
	// ProjectConfigPath overrides the project config file (the --config flag).
	ProjectConfigPath string
	// UserConfigPath overrides the user config file; "-" disables it.
	UserConfigPath string
	// Provider is the --provider flag value. It decides which vendor
	// environment variables apply.
	Provider string
}

// Load loads configuration from defaults, files and environment.
func Load(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	sources := map[string]ConfigSource{}

	merge := func(layer *koanf.Koanf, src ConfigSource) error {
		for _, key := range layer.Keys() {
			sources[key] = src
		}
		return k.Merge(layer)
	}

	defaults := koanf.New(".")
	for key, value := range GetDefaults() {
		if err := defaults.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}
	if err := merge(defaults, SourceDefault); err != nil {
		return nil, fmt.Errorf("merging defaults: %w", err)
	}

	userPath := opts.UserConfigPath
	if userPath == "" {
		userPath, _ = UserConfigPath()
	}
	if userPath != "-" && fileExists(userPath) {
		layer, err := loadFile(userPath)
		if err != nil {
			return nil, err
		}
		if err := merge(layer, SourceUser); err != nil {
			return nil, fmt.Errorf("merging user config: %w", err)
		}
	}

	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = FindProjectConfig(opts.ProjectDir)
	} else if !fileExists(projectPath) {
		return nil, clierrors.New(clierrors.KindConfig, "config file %s does not exist", projectPath)
	}
	if projectPath != "" {
		layer, err := loadFile(projectPath)
		if err != nil {
			return nil, err
		}
		if err := merge(layer, SourceProject); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	provider := firstNonEmpty(opts.Provider, os.Getenv("COMMITSENSE_PROVIDER"), k.String("provider"))
	vendor, err := loadVendorEnv(provider)
	if err != nil {
		return nil, err
	}
	if err := merge(vendor, SourceEnv); err != nil {
		return nil, fmt.Errorf("merging provider environment: %w", err)
	}

	own := koanf.New(".")
	if err := own.Load(env.Provider("COMMITSENSE_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}
	if err := merge(own, SourceEnv); err != nil {
		return nil, fmt.Errorf("merging environment config: %w", err)
	}

	cfg, err := finalize(k)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources
	return cfg, nil
}

// loadFile parses a YAML or JSON config file into its own layer.
func loadFile(path string) (*koanf.Koanf, error) {
	layer := koanf.New(".")
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := layer.Load(file.Provider(path), json.Parser()); err != nil {
			return nil, clierrors.ConfigParseError(path, err)
		}
		return layer, nil
	}
	if err := ValidateYAMLSyntax(path); err != nil {
		return nil, clierrors.ConfigParseError(path, err)
	}
	if err := layer.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, clierrors.ConfigParseError(path, err)
	}
	return layer, nil
}

// vendorEnv maps provider environment variables to keys, per provider.
var vendorEnv = map[string]map[string]string{
	"openai": {
		"OPENAI_API_KEY": "api_key",
		"OPENAI_API_URL": "api_url",
		"OPENAI_MODEL":   "model",
	},
	"gemini": {
		"GEMINI_API_KEY": "api_key",
	},
}

func loadVendorEnv(provider string) (*koanf.Koanf, error) {
	layer := koanf.New(".")
	names, ok := vendorEnv[provider]
	if !ok {
		return layer, nil
	}
	prefix := strings.ToUpper(provider) + "_"
	err := layer.Load(env.Provider(prefix, ".", func(s string) string {
		return names[s]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s environment: %w", provider, err)
	}
	return layer, nil
}

func finalize(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindConfig, "decoding configuration")
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, clierrors.Wrapf(err, clierrors.KindConfig, "invalid configuration")
	}
	return &cfg, nil
}

// EffectiveModel returns the configured model, or the provider's default.
func (c *Configuration) EffectiveModel() string {
	if c.Model != "" {
		return c.Model
	}
	return judge.DefaultModel(c.Provider)
}

// MarkFlag records that key was overridden on the command line.
func (c *Configuration) MarkFlag(key string) {
	if c.Sources == nil {
		c.Sources = map[string]ConfigSource{}
	}
	c.Sources[key] = SourceFlag
}

// Validate re-runs value validation, for use after flag overrides.
func (c *Configuration) Validate() error {
	if err := ValidateConfigValues(c, "flags"); err != nil {
		return clierrors.Wrapf(err, clierrors.KindConfig, "invalid configuration")
	}
	return nil
}

// Masked returns a copy safe to print: the API key keeps only its last
// four characters.
func (c Configuration) Masked() Configuration {
	switch n := len(c.APIKey); {
	case n == 0:
	case n <= 8:
		c.APIKey = strings.Repeat("*", n)
	default:
		c.APIKey = strings.Repeat("*", n-4) + c.APIKey[n-4:]
	}
	return c
}

// SortedSources returns the keys of Sources in order.
func (c *Configuration) SortedSources() []string {
	keys := make([]string, 0, len(c.Sources))
	for k := range c.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Example: COMMITSENSE_MAX_BATCH_CHARS -> max_batch_chars
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "COMMITSENSE_"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			return v
		}
	}
	return ""
}

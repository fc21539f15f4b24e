// Package config loads pyscan settings from TOML, YAML or JSON files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/pyscan/pkg/rules"
)

// Config holds all configuration options for pyscan.
type Config struct {
	// Rule thresholds and lexicons
	Rules RulesConfig `koanf:"rules" toml:"rules"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Analysis execution settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// RulesConfig tunes the fixed rule set.
type RulesConfig struct {
	MaxParameters     int      `koanf:"max_parameters" toml:"max_parameters"`
	LiteralMinLength  int      `koanf:"literal_min_length" toml:"literal_min_length"`
	LiteralMaxLength  int      `koanf:"literal_max_length" toml:"literal_max_length"`
	SensitiveKeywords []string `koanf:"sensitive_keywords" toml:"sensitive_keywords"`
	DangerousCalls    []string `koanf:"dangerous_calls" toml:"dangerous_calls"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// AnalysisConfig controls how files are processed.
type AnalysisConfig struct {
	Workers     int   `koanf:"workers" toml:"workers"`             // 0 = 2x NumCPU
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = no limit
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color  bool   `koanf:"color" toml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	th := rules.DefaultThresholds()
	return &Config{
		Rules: RulesConfig{
			MaxParameters:     th.MaxParameters,
			LiteralMinLength:  th.LiteralMinLength,
			LiteralMaxLength:  th.LiteralMaxLength,
			SensitiveKeywords: th.SensitiveKeywords,
			DangerousCalls:    th.DangerousCalls,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				".git",
				".hg",
				".pyscan",
				".tox",
				".nox",
				".venv",
				"venv",
				".mypy_cache",
				".pytest_cache",
				"__pycache__",
				"node_modules",
				"site-packages",
			},
			Gitignore: true,
		},
		Analysis: AnalysisConfig{
			Workers:     0,
			MaxFileSize: 1 << 20,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// FileNames are the config file names searched by Find, in priority order.
var FileNames = []string{
	"pyscan.toml",
	"pyscan.yaml",
	"pyscan.yml",
	"pyscan.json",
	".pyscan.toml",
	".pyscan.yaml",
	".pyscan.yml",
	".pyscan.json",
}

// SearchDirs are the directories searched by Find, relative to the working directory.
var SearchDirs = []string{".", ".pyscan"}

// Load loads configuration from a file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Find returns the first config file present in the standard locations,
// or "" if there is none.
func Find() string {
	for _, dir := range SearchDirs {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads the config found by Find, or returns defaults when
// there is none. A config file that exists but fails to load is an error.
func LoadOrDefault() (*Config, error) {
	path := Find()
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Rules.MaxParameters < 0 {
		errs = append(errs, fmt.Errorf("rules.max_parameters must be >= 0, got %d", c.Rules.MaxParameters))
	}
	if c.Rules.LiteralMinLength < 0 {
		errs = append(errs, fmt.Errorf("rules.literal_min_length must be >= 0, got %d", c.Rules.LiteralMinLength))
	}
	if c.Rules.LiteralMaxLength <= c.Rules.LiteralMinLength+1 {
		errs = append(errs, fmt.Errorf("rules.literal_max_length (%d) leaves no room above literal_min_length (%d)",
			c.Rules.LiteralMaxLength, c.Rules.LiteralMinLength))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be >= 0, got %d", c.Analysis.Workers))
	}
	if c.Analysis.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_file_size must be >= 0, got %d", c.Analysis.MaxFileSize))
	}
	if c.Output.Format != "" && !slices.Contains(OutputFormats, strings.ToLower(c.Output.Format)) {
		errs = append(errs, fmt.Errorf("output.format %q is not one of %s", c.Output.Format, strings.Join(OutputFormats, ", ")))
	}
	return errors.Join(errs...)
}

// OutputFormats lists the accepted output.format values.
var OutputFormats = []string{"text", "json", "markdown", "toon", "yaml"}

// RuleThresholds converts the rules section for the rule engine.
func (c *Config) RuleThresholds() rules.Thresholds {
	return rules.Thresholds{
		MaxParameters:     c.Rules.MaxParameters,
		LiteralMinLength:  c.Rules.LiteralMinLength,
		LiteralMaxLength:  c.Rules.LiteralMaxLength,
		SensitiveKeywords: slices.Clone(c.Rules.SensitiveKeywords),
		DangerousCalls:    slices.Clone(c.Rules.DangerousCalls),
	}
}

// ShouldExclude reports whether a slash- or OS-separated relative path falls
// under an excluded directory or matches an excluded file pattern.
func (c *Config) ShouldExclude(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, dir := range parts[:len(parts)-1] {
		if slices.Contains(c.Exclude.Dirs, dir) {
			return true
		}
	}

	base := parts[len(parts)-1]
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"finlint/internal/models"
)

// Config represents the configuration for finlint
type Config struct {
	// General settings
	Version     string `yaml:"version" json:"version" toml:"version"`
	ProjectName string `yaml:"project_name,omitempty" json:"project_name,omitempty" toml:"project_name"`

	Analysis AnalysisConfig `yaml:"analysis" json:"analysis" toml:"analysis"`
	Cost     CostConfig     `yaml:"cost" json:"cost" toml:"cost"`
	Rules    RulesConfig    `yaml:"rules" json:"rules" toml:"rules"`
	Output   OutputConfig   `yaml:"output" json:"output" toml:"output"`
	Files    FilesConfig    `yaml:"files" json:"files" toml:"files"`
	Server   ServerConfig   `yaml:"server" json:"server" toml:"server"`
	History  HistoryConfig  `yaml:"history" json:"history" toml:"history"`
}

type AnalysisConfig struct {
	// Parallel analysis
	MaxWorkers int `yaml:"max_workers" json:"max_workers" toml:"max_workers"`

	// Languages scanned during directory walks
	Languages []string `yaml:"languages" json:"languages" toml:"languages"`

	// Lowest finding severity that makes the run fail
	FailOn string `yaml:"fail_on" json:"fail_on" toml:"fail_on"`
}

type CostConfig struct {
	// Assumed loop iterations per execution
	Iterations int `yaml:"iterations" json:"iterations" toml:"iterations"`
}

type RulesConfig struct {
	DataAccess     bool `yaml:"data_access" json:"data_access" toml:"data_access"`
	OutboundCall   bool `yaml:"outbound_call" json:"outbound_call" toml:"outbound_call"`
	Serialization  bool `yaml:"serialization" json:"serialization" toml:"serialization"`
	UnboundedQuery bool `yaml:"unbounded_query" json:"unbounded_query" toml:"unbounded_query"`

	// Escalate medium findings on request and event handlers
	HotPath bool `yaml:"hot_path" json:"hot_path" toml:"hot_path"`

	// Rule ids to skip, e.g. JS003
	DisabledRules []string `yaml:"disabled_rules" json:"disabled_rules" toml:"disabled_rules"`
}

type OutputConfig struct {
	// Default output format
	Format string `yaml:"format" json:"format" toml:"format"`

	// Colorized output
	Colors bool `yaml:"colors" json:"colors" toml:"colors"`

	// Verbosity level
	Verbose bool `yaml:"verbose" json:"verbose" toml:"verbose"`

	// Show suggestions
	ShowSuggestions bool `yaml:"show_suggestions" json:"show_suggestions" toml:"show_suggestions"`

	// Show per-finding cost lines
	ShowCost bool `yaml:"show_cost" json:"show_cost" toml:"show_cost"`

	// Output file path (optional)
	OutputFile string `yaml:"output_file,omitempty" json:"output_file,omitempty" toml:"output_file"`
}

type FilesConfig struct {
	// Include patterns
	Include []string `yaml:"include" json:"include" toml:"include"`

	// Exclude patterns
	Exclude []string `yaml:"exclude" json:"exclude" toml:"exclude"`

	// Whether to follow symlinks
	FollowSymlinks bool `yaml:"follow_symlinks" json:"follow_symlinks" toml:"follow_symlinks"`

	// Max file size (in KB)
	MaxFileSize int `yaml:"max_file_size" json:"max_file_size" toml:"max_file_size"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr" json:"addr" toml:"addr"`
	MaxBodyKB int    `yaml:"max_body_kb" json:"max_body_kb" toml:"max_body_kb"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	Path    string `yaml:"path" json:"path" toml:"path"`
}

var (
	validFormats    = []string{"console", "json", "sarif"}
	validSeverities = []string{"low", "medium", "high"}
)

func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Analysis: AnalysisConfig{
			MaxWorkers: 4,
			Languages:  []string{"python", "javascript", "java"},
			FailOn:     "low",
		},
		Cost: CostConfig{
			Iterations: 100,
		},
		Rules: RulesConfig{
			DataAccess:     true,
			OutboundCall:   true,
			Serialization:  true,
			UnboundedQuery: true,
			HotPath:        true,
			DisabledRules:  []string{},
		},
		Output: OutputConfig{
			Format:          "console",
			Colors:          true,
			Verbose:         false,
			ShowSuggestions: true,
			ShowCost:        true,
		},
		Files: FilesConfig{
			Include:        []string{},
			Exclude:        []string{"**/node_modules/**", "**/.git/**", "**/__pycache__/**", "**/venv/**", "**/.venv/**"},
			FollowSymlinks: false,
			MaxFileSize:    1024, // 1MB
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:5000",
			MaxBodyKB: 512,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    ".finlint/history.db",
		},
	}
}

// LoadConfig loads configuration from file or returns default
func LoadConfig(configPath string) (*Config, error) {
	// If no config path provided, look for default config files
	if configPath == "" {
		configPath = findConfigFile()
	}

	// Fall back to [tool.finlint] in pyproject.toml
	if configPath == "" {
		cfg, found, err := loadPyproject("pyproject.toml")
		if err != nil {
			return nil, err
		}
		if found {
			return cfg, nil
		}
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig() // Start with defaults

	if filepath.Base(configPath) == "pyproject.toml" {
		cfg, _, err := parsePyproject(data, configPath)
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findConfigFile looks for config files in common locations
func findConfigFile() string {
	possiblePaths := []string{
		".finlint.yml",
		".finlint.yaml",
		"finlint.yml",
		"finlint.yaml",
		".config/finlint.yml",
		".config/finlint.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

type pyproject struct {
	Tool struct {
		Finlint Config `toml:"finlint"`
	} `toml:"tool"`
}

func loadPyproject(path string) (*Config, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parsePyproject(data, path)
}

// parsePyproject reads the [tool.finlint] table over the defaults. found is
// false when the table is absent.
func parsePyproject(data []byte, path string) (*Config, bool, error) {
	doc := pyproject{}
	doc.Tool.Finlint = *DefaultConfig()
	var probe map[string]any
	if err := toml.Unmarshal(data, &probe); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	tool, _ := probe["tool"].(map[string]any)
	if _, ok := tool["finlint"]; !ok {
		return DefaultConfig(), false, nil
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := doc.Tool.Finlint.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return &doc.Tool.Finlint, true, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, validFormats)
	}

	if c.Analysis.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1")
	}

	for _, lang := range c.Analysis.Languages {
		if !models.ParseLanguage(lang).Supported() {
			return fmt.Errorf("unsupported language: %s", lang)
		}
	}

	if !slices.Contains(validSeverities, c.Analysis.FailOn) {
		return fmt.Errorf("invalid fail_on: %s (valid: %v)", c.Analysis.FailOn, validSeverities)
	}

	if c.Cost.Iterations < 0 {
		return fmt.Errorf("cost iterations must not be negative")
	}

	if c.Files.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative")
	}

	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateConfig creates a sample configuration file
func GenerateConfig(configPath string) error {
	config := DefaultConfig()
	return config.SaveConfig(configPath)
}

// IsLanguageEnabled reports whether directory walks include a language.
func (c *Config) IsLanguageEnabled(lang models.Language) bool {
	for _, name := range c.Analysis.Languages {
		if models.ParseLanguage(name) == lang {
			return true
		}
	}
	return false
}

// FailThreshold returns the severity at which a run fails.
func (c *Config) FailThreshold() models.Severity {
	sev, err := models.ParseSeverity(c.Analysis.FailOn)
	if err != nil {
		return models.SeverityLow
	}
	return sev
}

// MaxFileBytes returns the file size limit in bytes, or 0 for no limit.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Files.MaxFileSize) * 1024
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete ragsift configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Analytics AnalyticsConfig `yaml:"analytics" json:"analytics"`
}

// SearchConfig configures the enhancement pipeline.
// Values are applied in order of increasing precedence:
//  1. User config (~/.config/ragsift/config.yaml) - personal defaults
//  2. Project config (.ragsift.yaml) - per-repo tuning
//  3. Env vars (RAGSIFT_MATCH_COUNT, RAGSIFT_SIMILARITY_THRESHOLD, ...) - highest priority
type SearchConfig struct {
	// MatchCount is the number of results returned to the caller (1-50).
	MatchCount int `yaml:"match_count" json:"match_count"`

	// MaxVariants caps how many query variants expansion may produce (1-10).
	MaxVariants int `yaml:"max_variants" json:"max_variants"`

	// SimilarityThreshold drops results whose relevance falls below it (0.0-1.0).
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`

	// DisableExpansion turns off query expansion, searching the raw query only.
	DisableExpansion bool `yaml:"disable_expansion" json:"disable_expansion"`

	// DisableClustering turns off cluster-based deduplication.
	DisableClustering bool `yaml:"disable_clustering" json:"disable_clustering"`

	// Parallelism bounds concurrent per-variant retrieval calls (1-16).
	Parallelism int `yaml:"parallelism" json:"parallelism"`

	// Timeout is the overall pipeline deadline (e.g. "30s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// RetrievalConfig configures the retrieval backend.
type RetrievalConfig struct {
	// Backend selects the retrieval backend: "mcp" (default) or "local".
	Backend string `yaml:"backend" json:"backend"`

	// Endpoint is the MCP server URL for the mcp backend.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Source restricts retrieval to a single source domain (empty = all).
	Source string `yaml:"source" json:"source"`

	// Corpus is the document corpus path for the local backend.
	Corpus string `yaml:"corpus" json:"corpus"`

	// MaxRetries is the retry budget per retrieval call on transient failure.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// Timeout is the per-call timeout (e.g. "15s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`
	// File is the log file path. Empty uses ~/.ragsift/logs/ragsift.log.
	File string `yaml:"file" json:"file"`
	// MaxSizeMB is the log size in MB before rotation.
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`
	// MaxFiles is the number of rotated log files to keep.
	MaxFiles int `yaml:"max_files" json:"max_files"`
}

// AnalyticsConfig configures local query analytics.
type AnalyticsConfig struct {
	// Disabled turns off analytics recording.
	Disabled bool `yaml:"disabled" json:"disabled"`
	// DBPath is the SQLite database path for persisted metrics.
	// Defaults to ~/.ragsift/analytics.db.
	DBPath string `yaml:"db_path" json:"db_path"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			MatchCount:  5,
			MaxVariants: 5,
			// 30% floor mirrors the retrieval side's notion of "related at all"
			SimilarityThreshold: 0.3,
			Parallelism:         4,
			Timeout:             "30s",
		},
		Retrieval: RetrievalConfig{
			Backend:    "mcp",
			Endpoint:   "http://localhost:8051/mcp",
			Source:     "",
			Corpus:     "",
			MaxRetries: 2,
			Timeout:    "15s",
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Analytics: AnalyticsConfig{
			Disabled: false,
			DBPath:   defaultAnalyticsPath(),
		},
	}
}

// defaultAnalyticsPath returns the default analytics database path.
func defaultAnalyticsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ragsift", "analytics.db")
	}
	return filepath.Join(home, ".ragsift", "analytics.db")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/ragsift/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/ragsift/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ragsift", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ragsift", "config.yaml")
	}
	return filepath.Join(home, ".config", "ragsift", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // no user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration for the given project directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/ragsift/config.yaml)
//  3. Project config (.ragsift.yaml in project root)
//  4. Environment variables (RAGSIFT_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .ragsift.yaml or .ragsift.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".ragsift.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".ragsift.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine, defaults apply.
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
// The Disable* booleans only merge when set, so their zero value keeps
// expansion and clustering enabled by default.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Search
	if other.Search.MatchCount != 0 {
		c.Search.MatchCount = other.Search.MatchCount
	}
	if other.Search.MaxVariants != 0 {
		c.Search.MaxVariants = other.Search.MaxVariants
	}
	if other.Search.SimilarityThreshold != 0 {
		c.Search.SimilarityThreshold = other.Search.SimilarityThreshold
	}
	if other.Search.DisableExpansion {
		c.Search.DisableExpansion = true
	}
	if other.Search.DisableClustering {
		c.Search.DisableClustering = true
	}
	if other.Search.Parallelism != 0 {
		c.Search.Parallelism = other.Search.Parallelism
	}
	if other.Search.Timeout != "" {
		c.Search.Timeout = other.Search.Timeout
	}

	// Retrieval
	if other.Retrieval.Backend != "" {
		c.Retrieval.Backend = other.Retrieval.Backend
	}
	if other.Retrieval.Endpoint != "" {
		c.Retrieval.Endpoint = other.Retrieval.Endpoint
	}
	if other.Retrieval.Source != "" {
		c.Retrieval.Source = other.Retrieval.Source
	}
	if other.Retrieval.Corpus != "" {
		c.Retrieval.Corpus = other.Retrieval.Corpus
	}
	if other.Retrieval.MaxRetries != 0 {
		c.Retrieval.MaxRetries = other.Retrieval.MaxRetries
	}
	if other.Retrieval.Timeout != "" {
		c.Retrieval.Timeout = other.Retrieval.Timeout
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	// Analytics
	if other.Analytics.Disabled {
		c.Analytics.Disabled = true
	}
	if other.Analytics.DBPath != "" {
		c.Analytics.DBPath = other.Analytics.DBPath
	}
}

// applyEnvOverrides applies RAGSIFT_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAGSIFT_BACKEND"); v != "" {
		c.Retrieval.Backend = v
	}
	if v := os.Getenv("RAGSIFT_ENDPOINT"); v != "" {
		c.Retrieval.Endpoint = v
	}
	if v := os.Getenv("RAGSIFT_SOURCE"); v != "" {
		c.Retrieval.Source = v
	}
	if v := os.Getenv("RAGSIFT_CORPUS"); v != "" {
		c.Retrieval.Corpus = v
	}

	if v := os.Getenv("RAGSIFT_MATCH_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MatchCount = n
		}
	}
	if v := os.Getenv("RAGSIFT_MAX_VARIANTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxVariants = n
		}
	}
	if v := os.Getenv("RAGSIFT_SIMILARITY_THRESHOLD"); v != "" {
		if t, err := parseFloat64(v); err == nil && t >= 0 && t <= 1 {
			c.Search.SimilarityThreshold = t
		}
	}
	if v := os.Getenv("RAGSIFT_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.Parallelism = n
		}
	}
	if v := os.Getenv("RAGSIFT_EXPANSION"); v != "" {
		c.Search.DisableExpansion = !parseBool(v)
	}
	if v := os.Getenv("RAGSIFT_CLUSTERING"); v != "" {
		c.Search.DisableClustering = !parseBool(v)
	}

	if v := os.Getenv("RAGSIFT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RAGSIFT_ANALYTICS"); v != "" {
		c.Analytics.Disabled = !parseBool(v)
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// parseBool interprets common truthy spellings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// SearchTimeout returns the parsed pipeline deadline, falling back to 30s.
func (c *Config) SearchTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Search.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// RetrievalTimeout returns the parsed per-call timeout, falling back to 15s.
func (c *Config) RetrievalTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Retrieval.Timeout); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or a .ragsift.yaml/.yml file by walking up
// the directory tree, returning the starting directory when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		if fileExists(filepath.Join(currentDir, ".ragsift.yaml")) ||
			fileExists(filepath.Join(currentDir, ".ragsift.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.MatchCount < 1 || c.Search.MatchCount > 50 {
		return fmt.Errorf("match_count must be between 1 and 50, got %d", c.Search.MatchCount)
	}
	if c.Search.MaxVariants < 1 || c.Search.MaxVariants > 10 {
		return fmt.Errorf("max_variants must be between 1 and 10, got %d", c.Search.MaxVariants)
	}
	if c.Search.SimilarityThreshold < 0 || c.Search.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be between 0 and 1, got %f", c.Search.SimilarityThreshold)
	}
	if c.Search.Parallelism < 1 || c.Search.Parallelism > 16 {
		return fmt.Errorf("parallelism must be between 1 and 16, got %d", c.Search.Parallelism)
	}
	if c.Search.Timeout != "" {
		if _, err := time.ParseDuration(c.Search.Timeout); err != nil {
			return fmt.Errorf("search.timeout is not a valid duration: %q", c.Search.Timeout)
		}
	}

	validBackends := map[string]bool{"mcp": true, "local": true}
	if !validBackends[strings.ToLower(c.Retrieval.Backend)] {
		return fmt.Errorf("retrieval.backend must be 'mcp' or 'local', got %s", c.Retrieval.Backend)
	}
	if strings.ToLower(c.Retrieval.Backend) == "mcp" && c.Retrieval.Endpoint == "" {
		return fmt.Errorf("retrieval.endpoint must be set for the mcp backend")
	}
	if c.Retrieval.MaxRetries < 0 || c.Retrieval.MaxRetries > 10 {
		return fmt.Errorf("retrieval.max_retries must be between 0 and 10, got %d", c.Retrieval.MaxRetries)
	}
	if c.Retrieval.Timeout != "" {
		if _, err := time.ParseDuration(c.Retrieval.Timeout); err != nil {
			return fmt.Errorf("retrieval.timeout is not a valid duration: %q", c.Retrieval.Timeout)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

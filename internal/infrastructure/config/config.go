package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-file-duplicates/internal/domain/entities"
	infraServices "go-file-duplicates/internal/infrastructure/services"
	"go-file-duplicates/internal/usecases"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DEDUPER_SCAN_PREFIX_BYTES
const EnvPrefix = "DEDUPER"

// Config represents the application configuration
type Config struct {
	Scan     ScanConfig     `json:"scan" yaml:"scan" envconfig:"scan"`
	Hash     HashConfig     `json:"hash" yaml:"hash" envconfig:"hash"`
	Deletion DeletionConfig `json:"deletion" yaml:"deletion" envconfig:"deletion"`
	Database DatabaseConfig `json:"database" yaml:"database" envconfig:"database"`
	Server   ServerConfig   `json:"server" yaml:"server" envconfig:"server"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" envconfig:"log"`
}

// ScanConfig controls traversal and the refinement pipeline
type ScanConfig struct {
	PrefixBytes     int64 `json:"prefixBytes" yaml:"prefix_bytes" split_words:"true"`
	Recursive       bool  `json:"recursive" yaml:"recursive"`
	FollowSymlinks  bool  `json:"followSymlinks" yaml:"follow_symlinks" split_words:"true"`
	MinFileSize     int64 `json:"minFileSize" yaml:"min_file_size" split_words:"true"`
	GroupEmptyFiles bool  `json:"groupEmptyFiles" yaml:"group_empty_files" split_words:"true"`
}

// HashConfig contains hash calculation configuration
type HashConfig struct {
	PartialAlgorithm string `json:"partialAlgorithm" yaml:"partial_algorithm" split_words:"true"`
	FullAlgorithm    string `json:"fullAlgorithm" yaml:"full_algorithm" split_words:"true"`
	WorkerCount      int    `json:"workerCount" yaml:"worker_count" split_words:"true"`
	BufferSize       int    `json:"bufferSize" yaml:"buffer_size" split_words:"true"`
}

// DeletionConfig contains duplicate deletion configuration
type DeletionConfig struct {
	WorkerCount   int    `json:"workerCount" yaml:"worker_count" split_words:"true"`
	VerifyContent bool   `json:"verifyContent" yaml:"verify_content" split_words:"true"`
	Retention     string `json:"retention" yaml:"retention" split_words:"true"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled" split_words:"true"`
	Path         string `json:"path" yaml:"path" split_words:"true"`
	MaxOpenConns int    `json:"maxOpenConns" yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns int    `json:"maxIdleConns" yaml:"max_idle_conns" split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string `json:"host" yaml:"host" split_words:"true"`
	Port            int    `json:"port" yaml:"port" split_words:"true"`
	ReadTimeout     string `json:"readTimeout,omitempty" yaml:"read_timeout,omitempty" split_words:"true"`
	WriteTimeout    string `json:"writeTimeout,omitempty" yaml:"write_timeout,omitempty" split_words:"true"`
	IdleTimeout     string `json:"idleTimeout,omitempty" yaml:"idle_timeout,omitempty" split_words:"true"`
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdown_timeout,omitempty" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" split_words:"true"`
	Format string `json:"format" yaml:"format" split_words:"true"`
	Output string `json:"output" yaml:"output" split_words:"true"`
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return fallback
}

// GetReadTimeout returns parsed read timeout duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(s.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns parsed write timeout duration.
// Scans run inside the request, so the default is generous.
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(s.WriteTimeout, 10*time.Minute)
}

// GetIdleTimeout returns parsed idle timeout duration
func (s *ServerConfig) GetIdleTimeout() time.Duration {
	return parseDuration(s.IdleTimeout, 60*time.Second)
}

// GetShutdownTimeout returns parsed graceful shutdown timeout duration
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(s.ShutdownTimeout, 30*time.Second)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			PrefixBytes:     usecases.DefaultPrefixBytes,
			Recursive:       true,
			FollowSymlinks:  false,
			MinFileSize:     0,
			GroupEmptyFiles: true,
		},
		Hash: HashConfig{
			PartialAlgorithm: "sha256",
			FullAlgorithm:    "sha256",
			WorkerCount:      usecases.DefaultWorkerCount,
			BufferSize:       64 * 1024, // 64KB
		},
		Deletion: DeletionConfig{
			WorkerCount:   2,
			VerifyContent: false,
			Retention:     string(entities.KeepFirst),
		},
		Database: DatabaseConfig{
			Enabled:      true,
			Path:         "./data/deduper.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     "30s",
			WriteTimeout:    "10m",
			IdleTimeout:     "60s",
			ShutdownTimeout: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// LoadConfig loads configuration from a file (JSON or YAML), then applies environment overrides.
// An empty path skips the file; a missing file is created with the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFile(config, configPath); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadFile(config *Config, configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(config, configPath); err != nil {
			return fmt.Errorf("failed to create default config file: %w", err)
		}
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	default:
		// Try JSON first, then YAML
		if err := json.Unmarshal(data, config); err != nil {
			if yamlErr := yaml.Unmarshal(data, config); yamlErr != nil {
				return fmt.Errorf("failed to parse config file as JSON or YAML: JSON error: %v, YAML error: %v", err, yamlErr)
			}
		}
	}
	return nil
}

// SaveConfig saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.ScanOptions().Validate(); err != nil {
		return err
	}

	if _, err := infraServices.LookupAlgorithm(c.Hash.PartialAlgorithm); err != nil {
		return fmt.Errorf("invalid partial hash algorithm: %w", err)
	}
	full, err := infraServices.LookupAlgorithm(c.Hash.FullAlgorithm)
	if err != nil {
		return fmt.Errorf("invalid full hash algorithm: %w", err)
	}
	if !full.Cryptographic {
		return fmt.Errorf("full hash algorithm must be cryptographic: %s", full.Name)
	}
	if c.Hash.BufferSize <= 0 {
		return fmt.Errorf("hash buffer size must be positive")
	}

	if c.Deletion.WorkerCount <= 0 {
		return fmt.Errorf("deletion worker count must be positive")
	}
	if _, err := entities.ParseRetentionRule(c.Deletion.Retention); err != nil {
		return fmt.Errorf("invalid retention rule: %w", err)
	}

	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// ScanOptions converts the scan and hash sections into pipeline options
func (c *Config) ScanOptions() usecases.ScanOptions {
	return usecases.ScanOptions{
		PrefixBytes:     c.Scan.PrefixBytes,
		Recursive:       c.Scan.Recursive,
		FollowSymlinks:  c.Scan.FollowSymlinks,
		MinFileSize:     c.Scan.MinFileSize,
		Workers:         c.Hash.WorkerCount,
		GroupEmptyFiles: c.Scan.GroupEmptyFiles,
	}
}

// RetentionRule returns the configured default retention rule
func (c *Config) RetentionRule() entities.RetentionRule {
	rule, err := entities.ParseRetentionRule(c.Deletion.Retention)
	if err != nil {
		return entities.RetentionRule{Policy: entities.KeepFirst}
	}
	return rule
}

// GetAddress returns the server address in host:port format
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"jobcorr/src/internal/common"
	"jobcorr/src/report"
)

// Environment variables consulted between the config file and flags
const (
	EnvBaseDir   = "BASE_DIR"
	EnvReportDir = "REPORT_DIR"
)

const (
	DefaultLogsDir          = "locust_logs"
	DefaultSamplesPerBucket = 3
)

// Config contains the settings of one comparison run
type Config struct {
	BaseDir            string   `yaml:"base_dir,omitempty"`
	LogsDir            string   `yaml:"logs_dir"`
	ReportDir          string   `yaml:"report_dir,omitempty"`
	LegacyObjectIDJoin bool     `yaml:"legacy_object_id_join"`
	HTMLRowCap         int      `yaml:"html_row_cap"`
	Columns            []string `yaml:"columns,omitempty"`
	Filters            Filters  `yaml:"filters"`
}

// Filters contains the optional report filter stages; zero disables a stage
type Filters struct {
	DeltaRangeMs     []int64 `yaml:"delta_range_ms,omitempty"`
	AbsDeltaTop      int     `yaml:"abs_delta_top,omitempty"`
	BucketMs         int64   `yaml:"bucket_ms,omitempty"`
	SamplesPerBucket int     `yaml:"samples_per_bucket"`
	Limit            int     `yaml:"limit,omitempty"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateDefaultConfig writes the default configuration to path
func GenerateDefaultConfig(path string) error {
	return SaveConfig(GetDefaultConfig(), path)
}

// GetDefaultConfigPath returns the config file loaded when --config is not given
func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jobcorr", "config.yaml")
}

// GetDefaultConfig returns the built-in defaults
func GetDefaultConfig() *Config {
	return &Config{
		LogsDir:    DefaultLogsDir,
		HTMLRowCap: report.DefaultHTMLRowCap,
		Filters: Filters{
			SamplesPerBucket: DefaultSamplesPerBucket,
		},
	}
}

// ApplyEnv overrides directories from BASE_DIR and REPORT_DIR when set
func (c *Config) ApplyEnv() {
	c.BaseDir = common.EnvOr(EnvBaseDir, c.BaseDir)
	c.ReportDir = common.EnvOr(EnvReportDir, c.ReportDir)
}

// Validate checks value ranges. samples_per_bucket below 1 is accepted and
// raised to 1 by the sampler.
func (c *Config) Validate() error {
	if c.LogsDir == "" {
		return fmt.Errorf("logs_dir must not be empty")
	}
	if c.HTMLRowCap < 0 {
		return fmt.Errorf("html_row_cap must not be negative, got %d", c.HTMLRowCap)
	}

	f := c.Filters
	if n := len(f.DeltaRangeMs); n != 0 {
		if n != 2 {
			return fmt.Errorf("delta_range_ms needs exactly two values, got %d", n)
		}
		if f.DeltaRangeMs[0] > f.DeltaRangeMs[1] {
			return fmt.Errorf("delta_range_ms min %d is greater than max %d", f.DeltaRangeMs[0], f.DeltaRangeMs[1])
		}
	}
	if f.AbsDeltaTop < 0 {
		return fmt.Errorf("abs_delta_top must not be negative, got %d", f.AbsDeltaTop)
	}
	if f.BucketMs < 0 {
		return fmt.Errorf("bucket_ms must not be negative, got %d", f.BucketMs)
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", f.Limit)
	}
	return nil
}

// FilterOptions converts the filter settings for the report package
func (c *Config) FilterOptions() report.FilterOptions {
	opts := report.FilterOptions{
		AbsDeltaTop:      c.Filters.AbsDeltaTop,
		BucketMs:         c.Filters.BucketMs,
		SamplesPerBucket: c.Filters.SamplesPerBucket,
		Limit:            c.Filters.Limit,
	}
	if len(c.Filters.DeltaRangeMs) == 2 {
		opts.Range = &report.DeltaRange{Min: c.Filters.DeltaRangeMs[0], Max: c.Filters.DeltaRangeMs[1]}
	}
	return opts
}

// WriterOptions converts the rendering settings for the report package
func (c *Config) WriterOptions() report.WriterOptions {
	return report.WriterOptions{
		Columns:    c.Columns,
		HTMLRowCap: c.HTMLRowCap,
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobcorr/src/report"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Equal(t, DefaultLogsDir, cfg.LogsDir)
	assert.Equal(t, report.DefaultHTMLRowCap, cfg.HTMLRowCap)
	assert.Equal(t, DefaultSamplesPerBucket, cfg.Filters.SamplesPerBucket)
	assert.NoError(t, cfg.Validate())

	opts := cfg.FilterOptions()
	assert.Nil(t, opts.Range)
	assert.Empty(t, report.Pipeline(opts))
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
base_dir: /data/run1
columns: [request_id, status]
filters:
  delta_range_ms: [-100, 250]
  bucket_ms: 20
  limit: 500
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/run1", cfg.BaseDir)
	assert.Equal(t, DefaultLogsDir, cfg.LogsDir)
	assert.Equal(t, []string{"request_id", "status"}, cfg.Columns)
	assert.Equal(t, DefaultSamplesPerBucket, cfg.Filters.SamplesPerBucket)

	opts := cfg.FilterOptions()
	require.NotNil(t, opts.Range)
	assert.Equal(t, report.DeltaRange{Min: -100, Max: 250}, *opts.Range)
	assert.Equal(t, int64(20), opts.BucketMs)
	assert.Equal(t, 500, opts.Limit)
	assert.Len(t, report.Pipeline(opts), 3)

	assert.Equal(t, report.WriterOptions{Columns: []string{"request_id", "status"}, HTMLRowCap: report.DefaultHTMLRowCap}, cfg.WriterOptions())
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", "filters: [unterminated"},
		{"one range value", "filters:\n  delta_range_ms: [5]\n"},
		{"inverted range", "filters:\n  delta_range_ms: [10, -10]\n"},
		{"negative top", "filters:\n  abs_delta_top: -1\n"},
		{"negative bucket", "filters:\n  bucket_ms: -20\n"},
		{"negative limit", "filters:\n  limit: -5\n"},
		{"negative row cap", "html_row_cap: -1\n"},
		{"empty logs dir", "logs_dir: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSamplesPerBucketBelowOneIsAccepted(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "filters:\n  samples_per_bucket: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.FilterOptions().SamplesPerBucket)
}

func TestApplyEnv(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.BaseDir = "/from/file"

	t.Setenv(EnvBaseDir, "")
	t.Setenv(EnvReportDir, "/tmp/out")
	cfg.ApplyEnv()
	assert.Equal(t, "/from/file", cfg.BaseDir)
	assert.Equal(t, "/tmp/out", cfg.ReportDir)

	t.Setenv(EnvBaseDir, "/from/env")
	cfg.ApplyEnv()
	assert.Equal(t, "/from/env", cfg.BaseDir)
}

func TestGenerateDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, GenerateDefaultConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

package viewsync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(
		t, `
base_url: https://hr.example.org/api
locale: ar
debounce: 0.3
default_page_size: 25
cache:
  grace_period: 0
  fetch_timeout: 5
`,
	)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hr.example.org/api", cfg.BaseURL)
	assert.Equal(t, language.Arabic, cfg.localeTag())
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce.Duration)
	assert.Equal(t, 25, cfg.DefaultPageSize)
	assert.Equal(t, time.Duration(0), cfg.Cache.GracePeriod.Duration)
	assert.Equal(t, 5*time.Second, cfg.Cache.FetchTimeout.Duration)
	// defaults
	assert.Equal(t, 30*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, time.Hour, cfg.Cache.StoreTTL.Duration)
	assert.Equal(t, []language.Tag{language.English, language.Arabic}, cfg.languageTags())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "page size",
			content: "default_page_size: 0",
		},
		{
			name:    "locale",
			content: "locale: not a locale",
		},
		{
			name:    "redis address",
			content: "cache:\n  redis:\n    addr: localhost",
		},
		{
			name:    "log level",
			content: "log_level: loud",
		},
		{
			name:    "duration",
			content: "debounce: soon",
		},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				_, err := LoadConfig(writeConfig(t, test.content))
				assert.Error(t, err)
			},
		)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, cfg, decoded)
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Languages = nil
	_, err := NewClient(&cfg)
	assert.Error(t, err)
}

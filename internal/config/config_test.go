package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/composegrid/internal/commission"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Block.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 0, cfg.Health.Port)
	assert.Equal(t, 30*time.Second, cfg.Commission.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Commission.ContainmentTimeout)
	assert.Equal(t, commission.DefaultQueueSize, cfg.Commission.QueueSize)
	assert.Equal(t, TeardownNone, cfg.Commission.Teardown)
}

func TestLoad_Layering(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	path := filepath.Join(dir, "composegrid.yaml")
	content := `
block:
  path: from-file.hcl
log:
  level: warn
  format: json
commission:
  timeout: 5s
  teardown: reverse
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("COMPOSEGRID_LOG_LEVEL", "DEBUG")
	t.Setenv("COMPOSEGRID_HEALTH_PORT", "8081")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--block", "from-flag.hcl", "--queue-size", "4"}))

	// --- Act ---
	cfg, err := Load(path, fs)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "from-flag.hcl", cfg.Block.Path, "flags override the file")
	assert.Equal(t, "debug", cfg.Log.Level, "env overrides the file")
	assert.Equal(t, "json", cfg.Log.Format, "file overrides defaults")
	assert.Equal(t, 8081, cfg.Health.Port)
	assert.Equal(t, 5*time.Second, cfg.Commission.Timeout)
	assert.Equal(t, 4, cfg.Commission.QueueSize)
	assert.Equal(t, TeardownReverse, cfg.Commission.Teardown)
	require.NoError(t, cfg.Validate())
}

func TestLoad_UnchangedFlagsKeepFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "composegrid.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nformat = \"json\"\n"), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	valid := func() Config {
		return Config{
			Block:      BlockConfig{Path: "main.hcl"},
			Log:        LogConfig{Level: "info", Format: "text"},
			Commission: CommissionConfig{Timeout: time.Second, Teardown: TeardownNone},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "empty block path",
			mutate:  func(c *Config) { c.Block.Path = " " },
			wantErr: []string{"block path is required"},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: []string{`invalid log level "verbose"`},
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: []string{`invalid log format "xml"`},
		},
		{
			name:    "bad teardown",
			mutate:  func(c *Config) { c.Commission.Teardown = "forward" },
			wantErr: []string{`invalid teardown policy "forward"`},
		},
		{
			name: "negative values",
			mutate: func(c *Config) {
				c.Commission.Timeout = -time.Second
				c.Commission.ContainmentTimeout = -time.Second
				c.Commission.QueueSize = -1
				c.Health.Port = -1
			},
			wantErr: []string{"commission timeout", "containment timeout", "queue size", "invalid health port"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if len(tc.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

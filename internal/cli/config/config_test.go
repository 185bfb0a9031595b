package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "fraudscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer ResetConfig()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err, "explicit missing config file should fail")

	cfg, err = LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputFile, cfg.OutputPath)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultMemoryLimit, cfg.MemoryLimit)
	assert.Equal(t, 0, cfg.Threads)
	assert.False(t, cfg.Verbose)
}

func TestLoadConfig_File(t *testing.T) {
	defer ResetConfig()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
spending: /data/spending.parquet
exclusions: /data/leie.csv
output: report.json
memory_limit: 8GB
threads: 4
signals:
  min_peer_group: 25
  enumeration_cutoff: "2023-01-01"
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/spending.parquet", cfg.SpendingPath)
	assert.Equal(t, "/data/leie.csv", cfg.ExclusionsPath)
	assert.Equal(t, "report.json", cfg.OutputPath)
	assert.Equal(t, "8GB", cfg.MemoryLimit)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, path, GetConfigFileUsed())

	sig, err := cfg.ToSignalConfig()
	require.NoError(t, err)
	assert.Equal(t, 25, sig.MinPeerGroup)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), sig.EnumerationCutoff)
	// Untouched thresholds keep their defaults.
	assert.Equal(t, float64(200), sig.GrowthFlagPct)
	assert.NotEmpty(t, sig.HomeHealthCodes)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	defer ResetConfig()

	dir := t.TempDir()
	path := writeConfig(t, dir, "output: from_file.json\nthreads: 2\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("state", "", "")
	flags.Int("threads", 0, "")
	require.NoError(t, flags.Parse([]string{"--output", "from_flag.json", "--state", "runs.db"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag.json", cfg.OutputPath)
	assert.Equal(t, "runs.db", cfg.StatePath, "--state maps onto state_path")
	assert.Equal(t, 2, cfg.Threads, "unset flags must not mask file values")
}

func TestLoadConfig_EnvVars(t *testing.T) {
	defer ResetConfig()

	t.Setenv("FRAUDSCAN_MEMORY_LIMIT", "16GB")
	t.Setenv("FRAUDSCAN_REGISTRY", "/data/nppes.csv")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "16GB", cfg.MemoryLimit)
	assert.Equal(t, "/data/nppes.csv", cfg.RegistryPath)
}

func TestToSignalConfig_InvalidCutoff(t *testing.T) {
	cfg := &Config{Signals: &SignalsConfig{EnumerationCutoff: "July 2022"}}
	_, err := cfg.ToSignalConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enumeration_cutoff")
}

func TestFindConfigUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "output: up.json\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found := findConfigUpward(nested)
	assert.Equal(t, filepath.Join(root, "fraudscan.yaml"), found)

	assert.Empty(t, findConfigUpward(t.TempDir()))
}

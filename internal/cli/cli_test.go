package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwatch/fraudscan/internal/cli/config"
	"github.com/claimwatch/fraudscan/internal/cli/testutil"
)

func runScan(t *testing.T, fixture testutil.ScanFixture, extra ...string) (string, string, error) {
	t.Helper()
	defer config.ResetConfig()

	args := append([]string{
		"scan",
		"--spending", fixture.SpendingPath,
		"--exclusions", fixture.ExclusionsPath,
		"--registry", fixture.RegistryPath,
		"--output", filepath.Join(fixture.Dir, "fraud_signals.json"),
		"--state", filepath.Join(fixture.Dir, "state", "runs.db"),
	}, extra...)
	return testutil.ExecuteCommand(NewRootCmd(), args...)
}

func TestScanCommand(t *testing.T) {
	fixture := testutil.SetupScanData(t)

	stdout, _, err := runScan(t, fixture)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Scanned 3 providers, flagged 2 in ")
	assert.Contains(t, stdout, "excluded_provider")
	assert.Contains(t, stdout, "Report written to")

	raw, err := os.ReadFile(filepath.Join(fixture.Dir, "fraud_signals.json"))
	require.NoError(t, err)

	var doc struct {
		ToolVersion      string `json:"tool_version"`
		FlaggedProviders []struct {
			NPI string `json:"npi"`
		} `json:"flagged_providers"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "1.0.0", doc.ToolVersion)
	require.Len(t, doc.FlaggedProviders, 2)
}

func TestScanCommandMissingSpending(t *testing.T) {
	defer config.ResetConfig()
	dir := t.TempDir()

	// A missing input must fail promptly, not leave the command blocked
	// behind a progress bar that never finishes.
	done := make(chan error, 1)
	go func() {
		_, _, err := testutil.ExecuteCommand(NewRootCmd(),
			"scan",
			"--spending", filepath.Join(dir, "nope.parquet"),
			"--exclusions", filepath.Join(dir, "nope.csv"),
			"--state", filepath.Join(dir, "runs.db"),
			"--output", filepath.Join(dir, "out.json"),
		)
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "spending")
	case <-time.After(15 * time.Second):
		t.Fatal("scan did not return after missing spending input")
	}
}

func TestRunsCommand(t *testing.T) {
	fixture := testutil.SetupScanData(t)

	_, _, err := runScan(t, fixture)
	require.NoError(t, err)

	defer config.ResetConfig()
	stdout, _, err := testutil.ExecuteCommand(NewRootCmd(),
		"runs", "--state", filepath.Join(fixture.Dir, "state", "runs.db"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "completed")
	assert.Contains(t, stdout, "fraud_signals.json")
}

func TestRunsCommandEmpty(t *testing.T) {
	defer config.ResetConfig()
	stdout, _, err := testutil.ExecuteCommand(NewRootCmd(),
		"runs", "--state", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded")
}

func TestVersionCommand(t *testing.T) {
	defer config.ResetConfig()
	stdout, _, err := testutil.ExecuteCommand(NewRootCmd(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fraudscan v")
}

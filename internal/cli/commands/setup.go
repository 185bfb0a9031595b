// Package commands implements the fraudscan subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/claimwatch/fraudscan/internal/cli/config"
	"github.com/claimwatch/fraudscan/internal/engine"
	"github.com/claimwatch/fraudscan/internal/ingest"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext builds the per-command dependency bundle from the
// loaded configuration and the logger stored in the command context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    config.Current(),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// resolveInputs fills unset dataset paths by probing the conventional
// file names in the working directory and data/. The spending and
// exclusion datasets are required; the registry is optional and an empty
// path degrades the scan to the exclusion signal only.
func resolveInputs(cfg *config.Config, logger *slog.Logger) error {
	dirs := ingest.SearchDirs()

	if cfg.SpendingPath == "" {
		path, ok := ingest.Find(dirs, ingest.SpendingCandidates)
		if !ok {
			return fmt.Errorf("spending data not found: pass --spending or place %s in the working directory", ingest.SpendingCandidates[0])
		}
		cfg.SpendingPath = path
	}
	if cfg.ExclusionsPath == "" {
		path, ok := ingest.Find(dirs, ingest.ExclusionCandidates)
		if !ok {
			return fmt.Errorf("exclusion list not found: pass --exclusions or place %s in the working directory", ingest.ExclusionCandidates[0])
		}
		cfg.ExclusionsPath = path
	}
	if cfg.RegistryPath == "" {
		if path, ok := ingest.Find(dirs, ingest.RegistryCandidates); ok {
			cfg.RegistryPath = path
		} else {
			logger.Warn("provider registry not found, running exclusion signal only")
		}
	}
	return nil
}

// createEngine builds an engine from the CLI configuration. The state
// directory is created if missing.
func createEngine(cfg *config.Config, logger *slog.Logger, progress func(string)) (*engine.Engine, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	signals, err := cfg.ToSignalConfig()
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		SpendingPath:   cfg.SpendingPath,
		ExclusionsPath: cfg.ExclusionsPath,
		RegistryPath:   cfg.RegistryPath,
		OutputPath:     cfg.OutputPath,
		DatabasePath:   cfg.DatabasePath,
		StatePath:      cfg.StatePath,
		MemoryLimit:    cfg.MemoryLimit,
		Threads:        cfg.Threads,
		TempDir:        cfg.TempDir,
		Signals:        signals,
		Logger:         logger,
		Progress:       progress,
	})
}

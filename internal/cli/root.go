// Package cli provides the command-line interface for fraudscan.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/claimwatch/fraudscan/internal/cli/commands"
	"github.com/claimwatch/fraudscan/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fraudscan",
		Short: "fraudscan - Medicaid billing-fraud signal detection",
		Long: `fraudscan scans Medicaid provider spending data for billing-fraud
signals: excluded providers still billing, statistical billing outliers,
rapid escalation by new providers, workforce-impossible claim volumes,
networks sharing an authorized official, and implausible home-health
beneficiary ratios. Flagged providers are written to a JSON report
annotated with False Claims Act relevance.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fraudscan.yaml)")
	rootCmd.PersistentFlags().String("spending", "", "Path to provider spending data (parquet or csv)")
	rootCmd.PersistentFlags().String("exclusions", "", "Path to the LEIE exclusion-list csv")
	rootCmd.PersistentFlags().String("registry", "", "Path to the NPPES provider-registry csv")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Report output path")
	rootCmd.PersistentFlags().String("database", "", "Path to the analytical database (empty for in-memory)")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().String("memory-limit", "", "Analytical engine memory limit (e.g. 4GB)")
	rootCmd.PersistentFlags().Int("threads", 0, "Analytical engine thread count (0 = all cores)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

// newLogger builds the CLI logger. Verbose runs log debug and up to
// stderr; quiet runs keep warnings and errors only.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

package commands

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/claimwatch/fraudscan/internal/report"
	"github.com/claimwatch/fraudscan/internal/signal"
)

// scanStages is the stage count of a full run: six pipeline stages plus
// one per signal. Runs without a registry finish early; the bar is
// completed explicitly either way.
const scanStages = 6 + 6

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan spending data for fraud signals",
		Long: `Run all fraud-signal detectors over the provider spending data and
write flagged providers to a JSON report.

Dataset paths default to conventional file names in the working
directory and data/. The spending and exclusion datasets are required;
without a provider registry only the excluded-provider signal runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			if err := resolveInputs(cc.Cfg, cc.Logger); err != nil {
				return err
			}

			var (
				container *mpb.Progress
				bar       *mpb.Bar
				stage     atomic.Value
			)
			progress := func(s string) { cc.Logger.Debug("stage", "name", s) }
			if !cc.Cfg.Verbose {
				stage.Store("starting")
				container = mpb.New(mpb.WithWidth(40), mpb.WithOutput(cmd.ErrOrStderr()))
				bar = container.AddBar(scanStages,
					mpb.PrependDecorators(decor.Name("scan ", decor.WCSyncSpaceR)),
					mpb.AppendDecorators(decor.Any(func(decor.Statistics) string {
						return stage.Load().(string)
					})),
				)
				progress = func(s string) {
					stage.Store(s)
					bar.Increment()
				}
			}

			eng, err := createEngine(cc.Cfg, cc.Logger, progress)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			start := time.Now()
			doc, err := eng.Run(cmd.Context())
			if bar != nil {
				// Abort rather than wait on completion triggers: a failed
				// or registry-less run leaves the bar short of its total
				// and Wait would block on it forever.
				if err != nil {
					bar.Abort(true)
				} else {
					bar.SetCurrent(scanStages)
					bar.Abort(false)
				}
				container.Wait()
			}
			if err != nil {
				return err
			}

			if err := doc.WriteFile(cc.Cfg.OutputPath); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			printSummary(cmd, doc, cc.Cfg.OutputPath, time.Since(start))
			return nil
		},
	}
}

// printSummary renders the run summary table.
func printSummary(cmd *cobra.Command, doc *report.Document, outputPath string, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Signal", "Flags"})
	for _, typ := range signal.AllTypes() {
		t.AppendRow(table.Row{string(typ), doc.SignalCounts[typ]})
	}
	t.AppendFooter(table.Row{"providers flagged", doc.TotalProvidersFlagged})
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d providers, flagged %d in %s\n",
		doc.TotalProvidersScanned, doc.TotalProvidersFlagged, elapsed.Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "Estimated overpayment: $%.2f\n", doc.TotalOverpayment())
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outputPath)
}

// Package report assembles the final run document and serializes it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/claimwatch/fraudscan/internal/signal"
)

// ToolVersion is stamped into every report document.
const ToolVersion = "1.0.0"

// Document is the full run output.
type Document struct {
	GeneratedAt           string                  `json:"generated_at"`
	ToolVersion           string                  `json:"tool_version"`
	TotalProvidersScanned int64                   `json:"total_providers_scanned"`
	TotalProvidersFlagged int                     `json:"total_providers_flagged"`
	SignalCounts          map[signal.Type]int     `json:"signal_counts"`
	FlaggedProviders      []signal.ProviderReport `json:"flagged_providers"`
}

// Build aggregates the detector flags into the final document. scanned is
// the count of distinct billing identifiers across the whole fact table,
// flagged or not.
func Build(flags []signal.Flag, scanned int64, now time.Time) *Document {
	providers := signal.Aggregate(flags)
	return &Document{
		GeneratedAt:           now.Format(time.RFC3339),
		ToolVersion:           ToolVersion,
		TotalProvidersScanned: scanned,
		TotalProvidersFlagged: len(providers),
		SignalCounts:          signal.CountByType(flags),
		FlaggedProviders:      providers,
	}
}

// TotalOverpayment sums the estimated overpayment across all flagged
// providers, for run summaries.
func (d *Document) TotalOverpayment() float64 {
	var sum float64
	for _, p := range d.FlaggedProviders {
		sum += p.EstimatedOverpaymentUSD
	}
	return sum
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteFile writes the document to path, creating or truncating it.
func (d *Document) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := d.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimwatch/fraudscan/internal/adapter"
	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/ingest"
	"github.com/claimwatch/fraudscan/internal/provider"
	"github.com/claimwatch/fraudscan/internal/report"
	"github.com/claimwatch/fraudscan/internal/signal"
	"github.com/claimwatch/fraudscan/internal/state"
)

// detector pairs a signal type with its run function. Signals 2-6 need the
// registry; Signal 1 runs against the exclusion list alone.
type detector struct {
	typ           signal.Type
	needsRegistry bool
	run           func(ctx context.Context, store claims.Store, reg *provider.Registry, exclusions []provider.Exclusion, cfg signal.Config) ([]signal.Flag, error)
}

func detectors() []detector {
	return []detector{
		{signal.TypeExcludedProvider, false, func(ctx context.Context, s claims.Store, _ *provider.Registry, ex []provider.Exclusion, _ signal.Config) ([]signal.Flag, error) {
			return signal.DetectExcludedProvider(ctx, s, ex)
		}},
		{signal.TypeBillingOutlier, true, func(ctx context.Context, s claims.Store, reg *provider.Registry, _ []provider.Exclusion, cfg signal.Config) ([]signal.Flag, error) {
			return signal.DetectBillingOutlier(ctx, s, reg, cfg)
		}},
		{signal.TypeRapidEscalation, true, func(ctx context.Context, s claims.Store, reg *provider.Registry, _ []provider.Exclusion, cfg signal.Config) ([]signal.Flag, error) {
			return signal.DetectRapidEscalation(ctx, s, reg, cfg)
		}},
		{signal.TypeWorkforceImpossibility, true, func(ctx context.Context, s claims.Store, reg *provider.Registry, _ []provider.Exclusion, cfg signal.Config) ([]signal.Flag, error) {
			return signal.DetectWorkforceImpossibility(ctx, s, reg, cfg)
		}},
		{signal.TypeSharedOfficial, true, func(ctx context.Context, s claims.Store, reg *provider.Registry, _ []provider.Exclusion, cfg signal.Config) ([]signal.Flag, error) {
			return signal.DetectSharedOfficial(ctx, s, reg, cfg)
		}},
		{signal.TypeGeographicImplausibility, true, func(ctx context.Context, s claims.Store, reg *provider.Registry, _ []provider.Exclusion, cfg signal.Config) ([]signal.Flag, error) {
			return signal.DetectGeographicImplausibility(ctx, s, reg, cfg)
		}},
	}
}

// Run executes the full detection pipeline and returns the report document.
// A missing fact table or exclusion list is fatal; a missing registry
// degrades the run to Signal 1. A single detector failing is isolated: its
// signal is omitted and the rest of the run completes.
func (e *Engine) Run(ctx context.Context) (*report.Document, error) {
	run, err := e.store.CreateRun(e.config.SpendingPath, e.config.OutputPath)
	if err != nil {
		return nil, err
	}

	doc, err := e.run(ctx)
	if err != nil {
		if ferr := e.store.FailRun(run.ID, err.Error()); ferr != nil {
			e.logger.Warn("failed to record run failure", "error", ferr)
		}
		return nil, err
	}

	counts, _ := json.Marshal(doc.SignalCounts)
	outcome := state.RunOutcome{
		ProvidersScanned: doc.TotalProvidersScanned,
		ProvidersFlagged: int64(doc.TotalProvidersFlagged),
		OverpaymentUSD:   doc.TotalOverpayment(),
		SignalCounts:     string(counts),
	}
	if err := e.store.CompleteRun(run.ID, outcome); err != nil {
		e.logger.Warn("failed to record run completion", "error", err)
	}
	return doc, nil
}

func (e *Engine) run(ctx context.Context) (*report.Document, error) {
	e.progress("connecting analytical database")
	err := e.db.Connect(ctx, adapter.Config{
		Path:        e.config.DatabasePath,
		MemoryLimit: e.config.MemoryLimit,
		Threads:     e.config.Threads,
		TempDir:     e.config.TempDir,
	})
	if err != nil {
		return nil, err
	}

	e.progress("attaching spending data")
	if err := ingest.AttachSpending(ctx, e.db, e.config.SpendingPath); err != nil {
		return nil, err
	}

	e.progress("loading exclusion list")
	exclusions, err := ingest.LoadExclusions(ctx, e.db, e.config.ExclusionsPath)
	if err != nil {
		return nil, err
	}
	e.logger.Info("exclusion list loaded", "excluded_providers", len(exclusions))

	e.progress("loading provider registry")
	registry := e.loadRegistry(ctx)

	store := claims.NewDuckStore(e.db)
	flags := e.runDetectors(ctx, store, registry, exclusions)

	e.progress("counting scanned providers")
	scanned, err := store.DistinctBillingProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count scanned providers: %w", err)
	}

	e.progress("assembling report")
	return report.Build(flags, scanned, time.Now()), nil
}

// loadRegistry loads the registry when configured; any failure degrades the
// run to Signal 1 rather than aborting it.
func (e *Engine) loadRegistry(ctx context.Context) *provider.Registry {
	if e.config.RegistryPath == "" {
		e.logger.Warn("registry not configured, running excluded-provider signal only")
		return nil
	}
	registry, err := ingest.LoadRegistry(ctx, e.db, e.config.RegistryPath)
	if err != nil {
		e.logger.Warn("registry load failed, running excluded-provider signal only", "error", err)
		return nil
	}
	e.logger.Info("registry loaded", "providers", registry.Len())
	return registry
}

func (e *Engine) runDetectors(ctx context.Context, store claims.Store, registry *provider.Registry, exclusions []provider.Exclusion) []signal.Flag {
	var flags []signal.Flag
	for _, d := range detectors() {
		if d.needsRegistry && registry.Len() == 0 {
			e.logger.Warn("signal skipped without registry", "signal", string(d.typ))
			continue
		}

		e.progress("running signal " + string(d.typ))
		start := time.Now()
		found, err := d.run(ctx, store, registry, exclusions, e.config.Signals)
		if err != nil {
			// A detector failure is isolated: its signal is absent
			// from the report while the rest of the run completes.
			e.logger.Error("signal failed, omitting from report",
				slog.String("signal", string(d.typ)), "error", err)
			continue
		}
		e.logger.Info("signal complete",
			slog.String("signal", string(d.typ)),
			slog.Int("flags", len(found)),
			slog.Duration("elapsed", time.Since(start)))
		flags = append(flags, found...)
	}
	return flags
}

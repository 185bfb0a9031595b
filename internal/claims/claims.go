// Package claims exposes the claims-spending fact table to the signal
// detectors through a narrow aggregation interface. Detectors depend only on
// Store, never on a specific engine's API; the DuckDB implementation serves
// datasets far larger than memory and the in-memory implementation serves
// tests and small deployments.
package claims

import (
	"context"
	"sort"
)

// IDSet is a set of provider identifiers used to restrict fact-table scans.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given identifiers.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts an identifier.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the identifiers in sorted order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Row is one claim-summary fact row: monthly billing totals for one
// (billing, servicing, procedure) combination. Months are "YYYY-MM" strings,
// which order correctly under string comparison.
type Row struct {
	BillingNPI    string
	ServicingNPI  string
	Procedure     string
	Month         string
	Beneficiaries int64
	Claims        int64
	Paid          float64
}

// Totals is a provider's lifetime billing aggregate.
type Totals struct {
	NPI           string
	Paid          float64
	Claims        int64
	Beneficiaries int64
}

// Activity is a provider's billing aggregate with its active month range.
type Activity struct {
	NPI           string
	Paid          float64
	Claims        int64
	Beneficiaries int64
	FirstMonth    string
	LastMonth     string
}

// Monthly is a provider's billing aggregate for a single month.
type Monthly struct {
	NPI           string
	Month         string
	Paid          float64
	Claims        int64
	Beneficiaries int64
}

// Store is the aggregation capability the detectors run against. Every
// method that accepts an IDSet restricts the scan to those identifiers
// before aggregating; results are ordered by identifier (then month) so
// downstream output is deterministic.
type Store interface {
	// ProviderTotals returns lifetime paid/claims/beneficiaries per billing
	// provider. A nil set aggregates the entire fact table in one streaming
	// pass; non-nil sets must be pre-applied before aggregation.
	ProviderTotals(ctx context.Context, npis IDSet) ([]Totals, error)

	// BillingActivity returns totals and first/last claim month for rows
	// where the given identifiers appear as the billing party.
	BillingActivity(ctx context.Context, npis IDSet) ([]Activity, error)

	// ServicingActivity is the servicing-party counterpart. Rows where the
	// servicing party equals the billing party are excluded so the same
	// row is never counted under both roles.
	ServicingActivity(ctx context.Context, npis IDSet) ([]Activity, error)

	// MonthlySeries returns per-provider per-month totals for the given
	// identifiers, ordered by (identifier, month).
	MonthlySeries(ctx context.Context, npis IDSet) ([]Monthly, error)

	// ProcedureMonthlySeries returns per-provider per-month totals
	// restricted to the given procedure codes, ordered by
	// (identifier, month).
	ProcedureMonthlySeries(ctx context.Context, codes []string) ([]Monthly, error)

	// DistinctBillingProviders counts distinct billing identifiers across
	// the whole fact table.
	DistinctBillingProviders(ctx context.Context) (int64, error)
}

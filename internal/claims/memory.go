package claims

import (
	"context"
	"sort"
)

// MemStore implements Store over an in-memory slice of fact rows. It mirrors
// the DuckDB implementation's semantics exactly, including result ordering.
type MemStore struct {
	rows []Row
}

// NewMemStore creates a store over the given rows. The slice is retained and
// must not be mutated afterwards.
func NewMemStore(rows []Row) *MemStore {
	return &MemStore{rows: rows}
}

// ProviderTotals returns lifetime totals per billing provider.
func (m *MemStore) ProviderTotals(_ context.Context, npis IDSet) ([]Totals, error) {
	acc := make(map[string]*Totals)
	for _, r := range m.rows {
		if r.BillingNPI == "" {
			continue
		}
		if npis != nil && !npis.Has(r.BillingNPI) {
			continue
		}
		t := acc[r.BillingNPI]
		if t == nil {
			t = &Totals{NPI: r.BillingNPI}
			acc[r.BillingNPI] = t
		}
		t.Paid += r.Paid
		t.Claims += r.Claims
		t.Beneficiaries += r.Beneficiaries
	}
	return sortedTotals(acc), nil
}

// BillingActivity returns billing-side totals with the active month range.
func (m *MemStore) BillingActivity(_ context.Context, npis IDSet) ([]Activity, error) {
	acc := make(map[string]*Activity)
	for _, r := range m.rows {
		if !npis.Has(r.BillingNPI) {
			continue
		}
		accumulateActivity(acc, r.BillingNPI, r)
	}
	return sortedActivity(acc), nil
}

// ServicingActivity returns servicing-side totals, skipping rows where the
// servicing party is also the billing party.
func (m *MemStore) ServicingActivity(_ context.Context, npis IDSet) ([]Activity, error) {
	acc := make(map[string]*Activity)
	for _, r := range m.rows {
		if r.ServicingNPI == r.BillingNPI {
			continue
		}
		if !npis.Has(r.ServicingNPI) {
			continue
		}
		accumulateActivity(acc, r.ServicingNPI, r)
	}
	return sortedActivity(acc), nil
}

// MonthlySeries returns per-provider per-month totals for the given set.
func (m *MemStore) MonthlySeries(_ context.Context, npis IDSet) ([]Monthly, error) {
	matches := func(r Row) bool { return npis.Has(r.BillingNPI) }
	return m.monthly(matches), nil
}

// ProcedureMonthlySeries returns monthly totals restricted to procedure codes.
func (m *MemStore) ProcedureMonthlySeries(_ context.Context, codes []string) ([]Monthly, error) {
	codeSet := NewIDSet(codes...)
	matches := func(r Row) bool { return r.BillingNPI != "" && codeSet.Has(r.Procedure) }
	return m.monthly(matches), nil
}

// DistinctBillingProviders counts distinct billing identifiers.
func (m *MemStore) DistinctBillingProviders(_ context.Context) (int64, error) {
	seen := make(IDSet)
	for _, r := range m.rows {
		if r.BillingNPI != "" {
			seen.Add(r.BillingNPI)
		}
	}
	return int64(len(seen)), nil
}

func (m *MemStore) monthly(matches func(Row) bool) []Monthly {
	type key struct{ npi, month string }
	acc := make(map[key]*Monthly)
	for _, r := range m.rows {
		if !matches(r) {
			continue
		}
		k := key{r.BillingNPI, r.Month}
		mo := acc[k]
		if mo == nil {
			mo = &Monthly{NPI: r.BillingNPI, Month: r.Month}
			acc[k] = mo
		}
		mo.Paid += r.Paid
		mo.Claims += r.Claims
		mo.Beneficiaries += r.Beneficiaries
	}

	out := make([]Monthly, 0, len(acc))
	for _, mo := range acc {
		out = append(out, *mo)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NPI != out[j].NPI {
			return out[i].NPI < out[j].NPI
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func accumulateActivity(acc map[string]*Activity, npi string, r Row) {
	a := acc[npi]
	if a == nil {
		a = &Activity{NPI: npi, FirstMonth: r.Month, LastMonth: r.Month}
		acc[npi] = a
	}
	a.Paid += r.Paid
	a.Claims += r.Claims
	a.Beneficiaries += r.Beneficiaries
	if r.Month < a.FirstMonth {
		a.FirstMonth = r.Month
	}
	if r.Month > a.LastMonth {
		a.LastMonth = r.Month
	}
}

func sortedTotals(acc map[string]*Totals) []Totals {
	out := make([]Totals, 0, len(acc))
	for _, t := range acc {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NPI < out[j].NPI })
	return out
}

func sortedActivity(acc map[string]*Activity) []Activity {
	out := make([]Activity, 0, len(acc))
	for _, a := range acc {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NPI < out[j].NPI })
	return out
}

var _ Store = (*MemStore)(nil)

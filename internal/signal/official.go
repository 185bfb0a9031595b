package signal

import (
	"context"
	"fmt"
	"sort"

	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/provider"
)

// ControlledNPI is one entity controlled by a shared official.
type ControlledNPI struct {
	NPI  string  `json:"npi"`
	Name string  `json:"name"`
	Paid float64 `json:"paid"`
}

// SharedOfficialEvidence documents an official controlling many entities.
type SharedOfficialEvidence struct {
	AuthorizedOfficial string          `json:"authorized_official"`
	ControlledNPICount int             `json:"controlled_npi_count"`
	CombinedPaid       float64         `json:"combined_paid"`
	ControlledNPIs     []ControlledNPI `json:"controlled_npis"`
}

var sharedOfficialLegal = LegalRelevance{
	ClaimType:        "Shared control suggesting shell entity network",
	StatuteReference: "31 U.S.C. section 3729(a)(1)(C)",
	SuggestedNextSteps: []string{
		"Investigate corporate relationships between controlled entities",
		"Verify that each NPI represents a distinct operational practice",
		"Check for common billing addresses, phone numbers, or bank accounts",
	},
}

type officialGroup struct {
	official provider.OfficialName
	npis     []string
}

// DetectSharedOfficial flags controlling officials listed on five or more
// registered entities whose combined billings exceed the economic floor.
// The real subject is the official; the flag's identifier is the first
// controlled entity in the group, used only as a join key for the report.
func DetectSharedOfficial(ctx context.Context, store claims.Store, reg *provider.Registry, cfg Config) ([]Flag, error) {
	// Group registry entries by the normalized official key. Records
	// missing either name component carry no key and are skipped.
	groups := make(map[string]*officialGroup)
	var keys []string
	for _, rec := range reg.All() {
		if rec.Official == nil || rec.Official.First == "" || rec.Official.Last == "" {
			continue
		}
		key := rec.Official.Key()
		g := groups[key]
		if g == nil {
			g = &officialGroup{official: *rec.Official}
			groups[key] = g
			keys = append(keys, key)
		}
		g.npis = append(g.npis, rec.NPI)
	}

	// Keep only officials controlling enough distinct entities, and pool
	// their identifiers for one targeted aggregation.
	pooled := make(claims.IDSet)
	var qualifying []string
	for _, key := range keys {
		g := groups[key]
		if len(g.npis) < cfg.MinControlledNPIs {
			continue
		}
		qualifying = append(qualifying, key)
		for _, npi := range g.npis {
			pooled.Add(npi)
		}
	}
	if len(qualifying) == 0 {
		return nil, nil
	}
	sort.Strings(qualifying)

	totals, err := store.ProviderTotals(ctx, pooled)
	if err != nil {
		return nil, fmt.Errorf("shared official provider totals: %w", err)
	}
	spend := make(map[string]claims.Totals, len(totals))
	for _, t := range totals {
		spend[t.NPI] = t
	}

	var flags []Flag
	for _, key := range qualifying {
		g := groups[key]

		var combinedPaid float64
		var combinedClaims, combinedBene int64
		var active []ControlledNPI
		for _, npi := range g.npis {
			t, ok := spend[npi]
			if !ok {
				continue
			}
			combinedPaid += t.Paid
			combinedClaims += t.Claims
			combinedBene += t.Beneficiaries

			name := ""
			if rec, ok := reg.Lookup(npi); ok {
				name = rec.Name
			}
			active = append(active, ControlledNPI{NPI: npi, Name: name, Paid: round2(t.Paid)})
		}
		if combinedPaid < cfg.SharedOfficialMinPaid {
			continue
		}

		severity := SeverityMedium
		if combinedPaid > cfg.SharedOfficialHighPaid {
			severity = SeverityHigh
		}

		listed := active
		if len(listed) > cfg.MaxListedNPIs {
			listed = listed[:cfg.MaxListedNPIs]
		}

		flags = append(flags, Flag{
			NPI:          g.npis[0],
			ProviderName: g.official.Display(),
			Type:         TypeSharedOfficial,
			Severity:     severity,
			Evidence: SharedOfficialEvidence{
				AuthorizedOfficial: g.official.Display(),
				ControlledNPICount: len(g.npis),
				CombinedPaid:       round2(combinedPaid),
				ControlledNPIs:     listed,
			},
			TotalPaid:            round2(combinedPaid),
			TotalClaims:          combinedClaims,
			TotalBeneficiaries:   combinedBene,
			EstimatedOverpayment: 0,
			Legal:                sharedOfficialLegal,
		})
	}
	return flags, nil
}

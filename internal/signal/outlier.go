package signal

import (
	"context"
	"fmt"

	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/provider"
	"github.com/claimwatch/fraudscan/internal/stats"
)

// BillingOutlierEvidence compares a provider against its peer cohort.
type BillingOutlierEvidence struct {
	TotalPaid     float64 `json:"total_paid"`
	PeerP99       float64 `json:"peer_p99"`
	PeerMedian    float64 `json:"peer_median"`
	PeerCount     int     `json:"peer_count"`
	RatioToMedian float64 `json:"ratio_to_median"`
}

var billingOutlierLegal = LegalRelevance{
	ClaimType:        "Statistically anomalous billing volume",
	StatuteReference: "31 U.S.C. section 3729(a)(1)(A)",
	SuggestedNextSteps: []string{
		"Compare service volume against peer providers in same taxonomy and state",
		"Request itemized claim records for manual review of service documentation",
		"Evaluate whether billing patterns suggest upcoding or unbundling",
	},
}

type peerCohort struct {
	paid   []float64
	p99    float64
	median float64
}

// DetectBillingOutlier flags providers whose lifetime paid amount exceeds
// the 99th percentile of their (taxonomy, state) peer cohort. This is the
// one detector that cannot pre-restrict: any identifier could be
// high-volume, so it takes a single streaming pass over the whole fact
// table. Cohorts below the minimum size are skipped since a percentile is
// not meaningful there.
func DetectBillingOutlier(ctx context.Context, store claims.Store, reg *provider.Registry, cfg Config) ([]Flag, error) {
	totals, err := store.ProviderTotals(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("billing outlier provider totals: %w", err)
	}

	type member struct {
		totals claims.Totals
		rec    provider.Record
	}
	type cohortKey struct{ taxonomy, state string }

	// Join to the registry and drop rows lacking a taxonomy or state; the
	// cohort definition needs both.
	var members []member
	cohorts := make(map[cohortKey]*peerCohort)
	for _, t := range totals {
		rec, ok := reg.Lookup(t.NPI)
		if !ok || rec.Taxonomy == "" || rec.State == "" {
			continue
		}
		members = append(members, member{totals: t, rec: *rec})
		key := cohortKey{rec.Taxonomy, rec.State}
		c := cohorts[key]
		if c == nil {
			c = &peerCohort{}
			cohorts[key] = c
		}
		c.paid = append(c.paid, t.Paid)
	}
	if len(members) == 0 {
		return nil, nil
	}

	for _, c := range cohorts {
		c.p99 = stats.Quantile(c.paid, 0.99)
		c.median = stats.Median(c.paid)
	}

	var flags []Flag
	for _, m := range members {
		c := cohorts[cohortKey{m.rec.Taxonomy, m.rec.State}]
		if len(c.paid) < cfg.MinPeerGroup || m.totals.Paid <= c.p99 {
			continue
		}

		median := c.median
		if median < 1 {
			median = 1
		}
		ratio := m.totals.Paid / median

		severity := SeverityMedium
		if ratio > cfg.OutlierHighRatio {
			severity = SeverityHigh
		}

		overpayment := m.totals.Paid - c.p99
		if overpayment < 0 {
			overpayment = 0
		}

		flags = append(flags, Flag{
			NPI:          m.totals.NPI,
			ProviderName: m.rec.Name,
			Entity:       m.rec.Entity,
			Taxonomy:     m.rec.Taxonomy,
			State:        m.rec.State,
			Enumerated:   m.rec.Enumerated,
			Type:         TypeBillingOutlier,
			Severity:     severity,
			Evidence: BillingOutlierEvidence{
				TotalPaid:     round2(m.totals.Paid),
				PeerP99:       round2(c.p99),
				PeerMedian:    round2(c.median),
				PeerCount:     len(c.paid),
				RatioToMedian: round2(ratio),
			},
			TotalPaid:            round2(m.totals.Paid),
			TotalClaims:          m.totals.Claims,
			TotalBeneficiaries:   m.totals.Beneficiaries,
			EstimatedOverpayment: round2(overpayment),
			Legal:                billingOutlierLegal,
		})
	}
	return flags, nil
}

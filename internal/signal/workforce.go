package signal

import (
	"context"
	"fmt"

	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/provider"
)

// WorkforceImpossibilityEvidence documents a peak month whose claim volume
// exceeds the capacity of one full-time-equivalent provider.
type WorkforceImpossibilityEvidence struct {
	PeakMonth         string  `json:"peak_month"`
	PeakMonthlyClaims int64   `json:"peak_monthly_claims"`
	ClaimsPerHour     float64 `json:"claims_per_hour"`
	MonthlyPaidPeak   float64 `json:"monthly_paid_peak"`
}

var workforceImpossibilityLegal = LegalRelevance{
	ClaimType:        "Physically impossible service volume",
	StatuteReference: "31 U.S.C. section 3729(a)(1)(B)",
	SuggestedNextSteps: []string{
		"Verify organizational staffing records against billed services",
		"Cross-reference servicing provider NPIs to confirm distinct providers",
		"Request time-of-service documentation for peak billing periods",
	},
}

// DetectWorkforceImpossibility flags organizations whose peak monthly claim
// volume implies more claims per staffed hour than one full-time-equivalent
// provider could deliver. The single-FTE assumption undercounts capacity
// for large organizations; it is a deliberate modeling simplification, not
// a staffing estimate.
func DetectWorkforceImpossibility(ctx context.Context, store claims.Store, reg *provider.Registry, cfg Config) ([]Flag, error) {
	orgs := make(map[string]provider.Record)
	set := make(claims.IDSet)
	for _, rec := range reg.All() {
		if rec.Entity != provider.EntityOrganization {
			continue
		}
		orgs[rec.NPI] = rec
		set.Add(rec.NPI)
	}
	if len(set) == 0 {
		return nil, nil
	}

	series, err := store.MonthlySeries(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("workforce impossibility monthly series: %w", err)
	}

	var flags []Flag
	forEachProviderSeries(series, func(npi string, months []claims.Monthly) {
		// Peak month by claims per hour; the earliest month wins ties.
		peak := months[0]
		var totalPaid float64
		var totalClaims, totalBene int64
		for _, m := range months {
			if m.Claims > peak.Claims {
				peak = m
			}
			totalPaid += m.Paid
			totalClaims += m.Claims
			totalBene += m.Beneficiaries
		}

		claimsPerHour := float64(peak.Claims) / cfg.WorkingHoursPerMonth
		if claimsPerHour <= cfg.MaxClaimsPerHour {
			return
		}

		// Excess claims beyond the capacity bound, priced at the peak
		// month's average paid per claim.
		peakClaims := float64(peak.Claims)
		if peakClaims < 1 {
			peakClaims = 1
		}
		excess := float64(peak.Claims) - cfg.MaxClaimsPerHour*cfg.WorkingHoursPerMonth
		overpayment := excess * (peak.Paid / peakClaims)
		if overpayment < 0 {
			overpayment = 0
		}

		rec := orgs[npi]
		flags = append(flags, Flag{
			NPI:          npi,
			ProviderName: rec.Name,
			Entity:       provider.EntityOrganization,
			Taxonomy:     rec.Taxonomy,
			State:        rec.State,
			Enumerated:   rec.Enumerated,
			Type:         TypeWorkforceImpossibility,
			Severity:     SeverityHigh,
			Evidence: WorkforceImpossibilityEvidence{
				PeakMonth:         peak.Month,
				PeakMonthlyClaims: peak.Claims,
				ClaimsPerHour:     round2(claimsPerHour),
				MonthlyPaidPeak:   round2(peak.Paid),
			},
			TotalPaid:            round2(totalPaid),
			TotalClaims:          totalClaims,
			TotalBeneficiaries:   totalBene,
			EstimatedOverpayment: round2(overpayment),
			Legal:                workforceImpossibilityLegal,
		})
	})
	return flags, nil
}

package signal

import (
	"context"
	"fmt"

	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/provider"
)

// GeographicImplausibilityEvidence documents a home-health biller whose
// patient-to-claim ratio implies an infeasible service radius.
type GeographicImplausibilityEvidence struct {
	BeneficiaryClaimRatio float64 `json:"beneficiary_claim_ratio"`
	TotalBeneficiaries    int64   `json:"total_beneficiaries"`
	TotalClaims           int64   `json:"total_claims"`
	TotalPaidHomeHealth   float64 `json:"total_paid_home_health"`
}

var geographicImplausibilityLegal = LegalRelevance{
	ClaimType:        "Geographic implausibility in home health services",
	StatuteReference: "31 U.S.C. section 3729(a)(1)(G)",
	SuggestedNextSteps: []string{
		"Verify patient addresses against provider service area",
		"Request visit logs and travel documentation for sampled claims",
		"Compare beneficiary-to-claim ratio against state home health averages",
	},
}

// DetectGeographicImplausibility flags high-volume home-health billers
// serving fewer than one unique patient per ten claims: each patient would
// be receiving implausibly many home visits relative to any feasible travel
// radius. Low-volume billers carry no signal and are dropped before the
// ratio test.
func DetectGeographicImplausibility(ctx context.Context, store claims.Store, reg *provider.Registry, cfg Config) ([]Flag, error) {
	series, err := store.ProcedureMonthlySeries(ctx, cfg.HomeHealthCodes)
	if err != nil {
		return nil, fmt.Errorf("geographic implausibility monthly series: %w", err)
	}

	var flags []Flag
	forEachProviderSeries(series, func(npi string, months []claims.Monthly) {
		var qualifies bool
		var totalPaid float64
		var totalClaims, totalBene int64
		for _, m := range months {
			if m.Claims > cfg.MinMonthlyHomeHealthClaims {
				qualifies = true
			}
			totalPaid += m.Paid
			totalClaims += m.Claims
			totalBene += m.Beneficiaries
		}
		if !qualifies {
			return
		}

		denom := float64(totalClaims)
		if denom < 1 {
			denom = 1
		}
		ratio := float64(totalBene) / denom
		if ratio >= cfg.MinBeneficiaryClaimRatio {
			return
		}

		var rec provider.Record
		if r, ok := reg.Lookup(npi); ok {
			rec = *r
		}
		flags = append(flags, Flag{
			NPI:          npi,
			ProviderName: rec.Name,
			Entity:       rec.Entity,
			Taxonomy:     rec.Taxonomy,
			State:        rec.State,
			Enumerated:   rec.Enumerated,
			Type:         TypeGeographicImplausibility,
			Severity:     SeverityMedium,
			Evidence: GeographicImplausibilityEvidence{
				BeneficiaryClaimRatio: round6(ratio),
				TotalBeneficiaries:    totalBene,
				TotalClaims:           totalClaims,
				TotalPaidHomeHealth:   round2(totalPaid),
			},
			TotalPaid:            round2(totalPaid),
			TotalClaims:          totalClaims,
			TotalBeneficiaries:   totalBene,
			EstimatedOverpayment: 0,
			Legal:                geographicImplausibilityLegal,
		})
	})
	return flags, nil
}

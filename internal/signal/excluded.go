package signal

import (
	"context"
	"fmt"

	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/provider"
)

// ExcludedProviderEvidence documents billing activity by an excluded party.
type ExcludedProviderEvidence struct {
	ExclusionDate       *string `json:"exclusion_date"`
	ExclusionType       string  `json:"exclusion_type"`
	PostExclusionPaid   float64 `json:"post_exclusion_paid"`
	PostExclusionClaims int64   `json:"post_exclusion_claims"`
	FirstClaimAfter     string  `json:"first_claim_after"`
	LastClaimAfter      string  `json:"last_claim_after"`
}

var excludedProviderLegal = LegalRelevance{
	ClaimType:        "False claim by excluded entity",
	StatuteReference: "31 U.S.C. section 3729(a)(1)(A)",
	SuggestedNextSteps: []string{
		"Verify exclusion status against current OIG LEIE database",
		"Calculate total federal payments made post-exclusion for damages estimate",
		"Refer to OIG for civil monetary penalties under 42 U.S.C. 1320a-7a",
	},
}

// DetectExcludedProvider flags excluded providers with billing activity,
// matched via either the billing or the servicing role. Each matched
// identifier produces exactly one critical flag; when an identifier appears
// in both roles the billing-side aggregate wins. Exclusion predates all
// data in scope, so the full paid amount is treated as the overpayment.
func DetectExcludedProvider(ctx context.Context, store claims.Store, exclusions []provider.Exclusion) ([]Flag, error) {
	if len(exclusions) == 0 {
		return nil, nil
	}

	byNPI := make(map[string]provider.Exclusion, len(exclusions))
	set := make(claims.IDSet, len(exclusions))
	for _, e := range exclusions {
		if _, ok := byNPI[e.NPI]; !ok {
			byNPI[e.NPI] = e
		}
		set.Add(e.NPI)
	}

	billing, err := store.BillingActivity(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("excluded provider billing activity: %w", err)
	}
	servicing, err := store.ServicingActivity(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("excluded provider servicing activity: %w", err)
	}

	var flags []Flag
	seen := make(claims.IDSet)
	for _, activity := range [][]claims.Activity{billing, servicing} {
		for _, a := range activity {
			if seen.Has(a.NPI) {
				continue
			}
			seen.Add(a.NPI)

			excl := byNPI[a.NPI]
			flags = append(flags, Flag{
				NPI:          a.NPI,
				ProviderName: excl.Name,
				Type:         TypeExcludedProvider,
				Severity:     SeverityCritical,
				Evidence: ExcludedProviderEvidence{
					ExclusionDate:       isoDate(excl.Date),
					ExclusionType:       excl.Type,
					PostExclusionPaid:   round2(a.Paid),
					PostExclusionClaims: a.Claims,
					FirstClaimAfter:     a.FirstMonth,
					LastClaimAfter:      a.LastMonth,
				},
				TotalPaid:            round2(a.Paid),
				TotalClaims:          a.Claims,
				TotalBeneficiaries:   a.Beneficiaries,
				EstimatedOverpayment: round2(a.Paid),
				Legal:                excludedProviderLegal,
			})
		}
	}
	return flags, nil
}

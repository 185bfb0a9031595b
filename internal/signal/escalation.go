package signal

import (
	"context"
	"fmt"

	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/provider"
	"github.com/claimwatch/fraudscan/internal/stats"
)

// RapidEscalationEvidence documents a new provider's billing growth spike.
type RapidEscalationEvidence struct {
	MaxRollingGrowthPct float64 `json:"max_3m_rolling_growth_pct"`
	PeakMonth           string  `json:"peak_month"`
	TotalPaidEscalation float64 `json:"total_paid_escalation_months"`
	TotalClaims         int64   `json:"total_claims"`
}

var rapidEscalationLegal = LegalRelevance{
	ClaimType:        "Rapid billing escalation by new provider",
	StatuteReference: "31 U.S.C. section 3729(a)(1)(A)",
	SuggestedNextSteps: []string{
		"Verify provider credentials and enrollment documentation",
		"Request medical records for claims during escalation period",
		"Compare service growth against patient panel expansion",
	},
}

// DetectRapidEscalation flags recently enumerated providers whose 3-month
// rolling average month-over-month billing growth exceeds the threshold.
// Tenured providers are excluded up front: their growth is not inherently
// suspicious, and the restriction also keeps the monthly-series aggregation
// off the full fact table.
func DetectRapidEscalation(ctx context.Context, store claims.Store, reg *provider.Registry, cfg Config) ([]Flag, error) {
	newProviders := make(map[string]provider.Record)
	set := make(claims.IDSet)
	for _, rec := range reg.All() {
		if rec.Enumerated == nil || rec.Enumerated.Before(cfg.EnumerationCutoff) {
			continue
		}
		newProviders[rec.NPI] = rec
		set.Add(rec.NPI)
	}
	if len(set) == 0 {
		return nil, nil
	}

	series, err := store.MonthlySeries(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("rapid escalation monthly series: %w", err)
	}

	var flags []Flag
	forEachProviderSeries(series, func(npi string, months []claims.Monthly) {
		flag, ok := escalationFlag(npi, months, newProviders[npi], cfg)
		if ok {
			flags = append(flags, flag)
		}
	})
	return flags, nil
}

// escalationFlag evaluates one provider's ordered monthly series.
func escalationFlag(npi string, months []claims.Monthly, rec provider.Record, cfg Config) (Flag, bool) {
	if len(months) < 2 {
		return Flag{}, false
	}

	// Month-over-month growth, defined from the second month on. The
	// denominator is floored at 1 so a zero or near-zero previous month
	// cannot blow the ratio up.
	growth := make([]float64, 0, len(months)-1)
	for i := 1; i < len(months); i++ {
		prev := months[i-1].Paid
		denom := prev
		if denom < 0 {
			denom = -denom
		}
		if denom < 1 {
			denom = 1
		}
		growth = append(growth, (months[i].Paid-prev)/denom*100)
	}

	// Rolling average over the growth series; a partial window yields no
	// value, never an extrapolation. rolling[i] covers months[i+1].
	rolling, valid := stats.RollingMean(growth, cfg.GrowthWindow)

	var (
		flagged   bool
		maxGrowth float64
		paidSum   float64
		claimsSum int64
		peakMonth string
	)
	for i, r := range rolling {
		if !valid[i] || r <= cfg.GrowthFlagPct {
			continue
		}
		m := months[i+1]
		if !flagged || r > maxGrowth {
			maxGrowth = r
		}
		flagged = true
		paidSum += m.Paid
		claimsSum += m.Claims
		peakMonth = m.Month
	}
	if !flagged {
		return Flag{}, false
	}

	severity := SeverityMedium
	if maxGrowth > cfg.GrowthHighPct {
		severity = SeverityHigh
	}

	overpayment := paidSum
	if overpayment < 0 {
		overpayment = 0
	}

	return Flag{
		NPI:          npi,
		ProviderName: rec.Name,
		Entity:       rec.Entity,
		Taxonomy:     rec.Taxonomy,
		State:        rec.State,
		Enumerated:   rec.Enumerated,
		Type:         TypeRapidEscalation,
		Severity:     severity,
		Evidence: RapidEscalationEvidence{
			MaxRollingGrowthPct: round2(maxGrowth),
			PeakMonth:           peakMonth,
			TotalPaidEscalation: round2(paidSum),
			TotalClaims:         claimsSum,
		},
		TotalPaid:            round2(paidSum),
		TotalClaims:          claimsSum,
		TotalBeneficiaries:   0,
		EstimatedOverpayment: round2(overpayment),
		Legal:                rapidEscalationLegal,
	}, true
}

// forEachProviderSeries walks a (provider, month)-ordered series, invoking
// fn once per provider with that provider's contiguous month run.
func forEachProviderSeries(series []claims.Monthly, fn func(npi string, months []claims.Monthly)) {
	start := 0
	for i := 1; i <= len(series); i++ {
		if i == len(series) || series[i].NPI != series[start].NPI {
			fn(series[start].NPI, series[start:i])
			start = i
		}
	}
}

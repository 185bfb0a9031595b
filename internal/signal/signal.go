// Package signal implements the six fraud-signal detectors and the
// cross-signal aggregation that folds their flags into per-provider reports.
// Detectors are pure functions over the claims.Store capability and the
// reference datasets; they never touch a database driver directly.
package signal

import (
	"math"
	"time"

	"github.com/claimwatch/fraudscan/internal/provider"
)

// Type identifies one of the six detectors.
type Type string

const (
	TypeExcludedProvider         Type = "excluded_provider"
	TypeBillingOutlier           Type = "billing_outlier"
	TypeRapidEscalation          Type = "rapid_escalation"
	TypeWorkforceImpossibility   Type = "workforce_impossibility"
	TypeSharedOfficial           Type = "shared_official"
	TypeGeographicImplausibility Type = "geographic_implausibility"
)

// AllTypes returns the six signal types in detector execution order.
func AllTypes() []Type {
	return []Type{
		TypeExcludedProvider,
		TypeBillingOutlier,
		TypeRapidEscalation,
		TypeWorkforceImpossibility,
		TypeSharedOfficial,
		TypeGeographicImplausibility,
	}
}

// Severity grades a flag. Critical outranks high outranks medium.
type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the numeric severity rank used for legal-annotation
// selection during aggregation.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// LegalRelevance annotates a flag for downstream case-building.
type LegalRelevance struct {
	ClaimType          string   `json:"claim_type"`
	StatuteReference   string   `json:"statute_reference"`
	SuggestedNextSteps []string `json:"suggested_next_steps"`
}

// Flag is one detector finding for one provider. Created by a single
// detector and never mutated afterwards; the aggregator consumes each flag
// exactly once.
type Flag struct {
	NPI          string
	ProviderName string
	Entity       provider.EntityType
	Taxonomy     string
	State        string
	Enumerated   *time.Time

	Type     Type
	Severity Severity

	// Evidence is the signal-specific evidence structure; each detector
	// emits its own typed evidence value.
	Evidence any

	// Lifetime totals as known to the emitting detector. Different
	// detectors see different slices of the fact table; the aggregator
	// max-merges these across a provider's flags.
	TotalPaid          float64
	TotalClaims        int64
	TotalBeneficiaries int64

	// EstimatedOverpayment is always >= 0.
	EstimatedOverpayment float64

	Legal LegalRelevance
}

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round6 rounds ratio evidence to six decimal places.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// isoDate renders an optional date as YYYY-MM-DD, nil when absent.
func isoDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

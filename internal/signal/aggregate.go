package signal

// SignalSummary is one signal entry in a provider's report.
type SignalSummary struct {
	Type     Type     `json:"signal_type"`
	Severity Severity `json:"severity"`
	Evidence any      `json:"evidence"`
}

// ProviderReport is the merged record for one flagged provider.
type ProviderReport struct {
	NPI                     string          `json:"npi"`
	ProviderName            string          `json:"provider_name"`
	EntityType              string          `json:"entity_type"`
	TaxonomyCode            string          `json:"taxonomy_code"`
	State                   string          `json:"state"`
	EnumerationDate         *string         `json:"enumeration_date"`
	TotalPaid               float64         `json:"total_paid_all_time"`
	TotalClaims             int64           `json:"total_claims_all_time"`
	TotalBeneficiaries      int64           `json:"total_unique_beneficiaries_all_time"`
	Signals                 []SignalSummary `json:"signals"`
	EstimatedOverpaymentUSD float64         `json:"estimated_overpayment_usd"`
	Legal                   LegalRelevance  `json:"fca_relevance"`
}

// Aggregate folds all detector flags, in emission order, into one report
// entity per provider. Descriptive fields come from the first flag seen for
// a provider. Lifetime totals max-merge: detectors see different slices of
// the fact table and the largest observation is treated as most
// authoritative. Overpayments sum. The legal annotation comes from the
// highest-severity flag, first seen winning ties. Every flag contributes
// exactly one signal entry, even duplicates of the same type.
func Aggregate(flags []Flag) []ProviderReport {
	type entity struct {
		report    ProviderReport
		legalRank int
	}

	byNPI := make(map[string]*entity)
	var order []string

	for _, f := range flags {
		e := byNPI[f.NPI]
		if e == nil {
			e = &entity{report: ProviderReport{
				NPI:                f.NPI,
				ProviderName:       f.ProviderName,
				EntityType:         f.Entity.String(),
				TaxonomyCode:       f.Taxonomy,
				State:              f.State,
				EnumerationDate:    isoDate(f.Enumerated),
				TotalPaid:          f.TotalPaid,
				TotalClaims:        f.TotalClaims,
				TotalBeneficiaries: f.TotalBeneficiaries,
			}}
			byNPI[f.NPI] = e
			order = append(order, f.NPI)
		} else {
			if f.TotalPaid > e.report.TotalPaid {
				e.report.TotalPaid = f.TotalPaid
			}
			if f.TotalClaims > e.report.TotalClaims {
				e.report.TotalClaims = f.TotalClaims
			}
			if f.TotalBeneficiaries > e.report.TotalBeneficiaries {
				e.report.TotalBeneficiaries = f.TotalBeneficiaries
			}
		}

		e.report.Signals = append(e.report.Signals, SignalSummary{
			Type:     f.Type,
			Severity: f.Severity,
			Evidence: f.Evidence,
		})
		e.report.EstimatedOverpaymentUSD += f.EstimatedOverpayment

		if rank := f.Severity.Rank(); rank > e.legalRank {
			e.legalRank = rank
			e.report.Legal = f.Legal
		}
	}

	out := make([]ProviderReport, 0, len(order))
	for _, npi := range order {
		r := byNPI[npi].report
		r.TotalPaid = round2(r.TotalPaid)
		r.EstimatedOverpaymentUSD = round2(r.EstimatedOverpaymentUSD)
		out = append(out, r)
	}
	return out
}

// CountByType tallies flags per signal type, with every type present even
// when its count is zero.
func CountByType(flags []Flag) map[Type]int {
	counts := make(map[Type]int, len(AllTypes()))
	for _, t := range AllTypes() {
		counts[t] = 0
	}
	for _, f := range flags {
		counts[f.Type]++
	}
	return counts
}

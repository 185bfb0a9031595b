package signal

import "time"

// Config carries the detector thresholds. Every constant the detectors use
// is externalized here so dataset shifts are a config change, not a code
// change; DefaultConfig matches the published methodology.
type Config struct {
	// EnumerationCutoff bounds Signal 3 to providers enumerated on or
	// after this date, positioned 24 months before the dataset's earliest
	// month.
	EnumerationCutoff time.Time

	// GrowthFlagPct flags a month when the 3-month rolling average
	// month-over-month growth exceeds this percentage.
	GrowthFlagPct float64

	// GrowthHighPct upgrades a Signal 3 flag to high severity when the
	// maximum rolling growth exceeds this percentage.
	GrowthHighPct float64

	// GrowthWindow is the rolling-average window in months.
	GrowthWindow int

	// WorkingHoursPerMonth is the capacity of one full-time-equivalent
	// provider (22 business days x 8 hours).
	WorkingHoursPerMonth float64

	// MaxClaimsPerHour is the plausibility bound for Signal 4.
	MaxClaimsPerHour float64

	// MinPeerGroup is the smallest (taxonomy, state) cohort for which the
	// Signal 2 percentile comparison is statistically meaningful.
	MinPeerGroup int

	// OutlierHighRatio upgrades a Signal 2 flag to high severity when
	// paid/median exceeds this ratio.
	OutlierHighRatio float64

	// MinControlledNPIs is the Signal 5 floor on identifiers per official.
	MinControlledNPIs int

	// SharedOfficialMinPaid is the combined-paid floor below which a
	// shared-official group is not economically significant.
	SharedOfficialMinPaid float64

	// SharedOfficialHighPaid upgrades a Signal 5 flag to high severity.
	SharedOfficialHighPaid float64

	// MaxListedNPIs truncates the Signal 5 controlled-identifier evidence
	// list; the count field still reports the true total.
	MaxListedNPIs int

	// HomeHealthCodes is the procedure-code set Signal 6 scans.
	HomeHealthCodes []string

	// MinMonthlyHomeHealthClaims qualifies a provider for Signal 6: at
	// least one month must exceed this claim count.
	MinMonthlyHomeHealthClaims int64

	// MinBeneficiaryClaimRatio is the Signal 6 implausibility bound.
	MinBeneficiaryClaimRatio float64
}

// DefaultConfig returns the published-methodology thresholds.
func DefaultConfig() Config {
	return Config{
		EnumerationCutoff:          time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC),
		GrowthFlagPct:              200,
		GrowthHighPct:              500,
		GrowthWindow:               3,
		WorkingHoursPerMonth:       176,
		MaxClaimsPerHour:           6,
		MinPeerGroup:               10,
		OutlierHighRatio:           5,
		MinControlledNPIs:          5,
		SharedOfficialMinPaid:      1_000_000,
		SharedOfficialHighPaid:     5_000_000,
		MaxListedNPIs:              20,
		HomeHealthCodes:            DefaultHomeHealthCodes(),
		MinMonthlyHomeHealthClaims: 100,
		MinBeneficiaryClaimRatio:   0.1,
	}
}

// DefaultHomeHealthCodes returns the home-health HCPCS codes: skilled
// nursing and therapy (G-codes), and personal-care/home-health aide services
// (S- and T-codes).
func DefaultHomeHealthCodes() []string {
	return []string{
		"G0151", "G0152", "G0153", "G0154", "G0155", "G0156", "G0157",
		"G0158", "G0159", "G0160", "G0161", "G0162",
		"G0299", "G0300",
		"S9122", "S9123", "S9124",
		"T1019", "T1020", "T1021", "T1022",
	}
}

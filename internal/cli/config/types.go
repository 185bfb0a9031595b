// Package config provides configuration management for the fraudscan CLI.
//
// Configuration merges four layers with increasing precedence: built-in
// defaults, a fraudscan.yaml file, FRAUDSCAN_-prefixed environment
// variables, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/claimwatch/fraudscan/internal/signal"
)

// Config holds all CLI configuration options.
type Config struct {
	SpendingPath   string `koanf:"spending"`
	ExclusionsPath string `koanf:"exclusions"`
	RegistryPath   string `koanf:"registry"`
	OutputPath     string `koanf:"output"`

	DatabasePath string `koanf:"database"`
	StatePath    string `koanf:"state_path"`

	MemoryLimit string `koanf:"memory_limit"`
	Threads     int    `koanf:"threads"`
	TempDir     string `koanf:"temp_dir"`

	Verbose bool `koanf:"verbose"`

	Signals *SignalsConfig `koanf:"signals"`
}

// SignalsConfig externalizes the detector thresholds so a dataset shift
// is a config-file change. Any zero value falls back to the default.
type SignalsConfig struct {
	EnumerationCutoff          string   `koanf:"enumeration_cutoff"`
	GrowthFlagPct              float64  `koanf:"growth_flag_pct"`
	GrowthHighPct              float64  `koanf:"growth_high_pct"`
	GrowthWindow               int      `koanf:"growth_window"`
	WorkingHoursPerMonth       float64  `koanf:"working_hours_per_month"`
	MaxClaimsPerHour           float64  `koanf:"max_claims_per_hour"`
	MinPeerGroup               int      `koanf:"min_peer_group"`
	OutlierHighRatio           float64  `koanf:"outlier_high_ratio"`
	MinControlledNPIs          int      `koanf:"min_controlled_npis"`
	SharedOfficialMinPaid      float64  `koanf:"shared_official_min_paid"`
	SharedOfficialHighPaid     float64  `koanf:"shared_official_high_paid"`
	MaxListedNPIs              int      `koanf:"max_listed_npis"`
	HomeHealthCodes            []string `koanf:"home_health_codes"`
	MinMonthlyHomeHealthClaims int64    `koanf:"min_monthly_home_health_claims"`
	MinBeneficiaryClaimRatio   float64  `koanf:"min_beneficiary_claim_ratio"`
}

// Default configuration values.
const (
	DefaultOutputFile  = "fraud_signals.json"
	DefaultStateFile   = ".fraudscan/runs.db"
	DefaultMemoryLimit = "4GB"
)

// ToSignalConfig merges the file-level overrides onto the default
// detector thresholds. An invalid enumeration_cutoff is an error; every
// other zero value keeps its default.
func (c *Config) ToSignalConfig() (signal.Config, error) {
	cfg := signal.DefaultConfig()
	s := c.Signals
	if s == nil {
		return cfg, nil
	}
	if s.EnumerationCutoff != "" {
		cutoff, err := time.Parse("2006-01-02", s.EnumerationCutoff)
		if err != nil {
			return cfg, fmt.Errorf("invalid signals.enumeration_cutoff %q: %w", s.EnumerationCutoff, err)
		}
		cfg.EnumerationCutoff = cutoff
	}
	if s.GrowthFlagPct > 0 {
		cfg.GrowthFlagPct = s.GrowthFlagPct
	}
	if s.GrowthHighPct > 0 {
		cfg.GrowthHighPct = s.GrowthHighPct
	}
	if s.GrowthWindow > 0 {
		cfg.GrowthWindow = s.GrowthWindow
	}
	if s.WorkingHoursPerMonth > 0 {
		cfg.WorkingHoursPerMonth = s.WorkingHoursPerMonth
	}
	if s.MaxClaimsPerHour > 0 {
		cfg.MaxClaimsPerHour = s.MaxClaimsPerHour
	}
	if s.MinPeerGroup > 0 {
		cfg.MinPeerGroup = s.MinPeerGroup
	}
	if s.OutlierHighRatio > 0 {
		cfg.OutlierHighRatio = s.OutlierHighRatio
	}
	if s.MinControlledNPIs > 0 {
		cfg.MinControlledNPIs = s.MinControlledNPIs
	}
	if s.SharedOfficialMinPaid > 0 {
		cfg.SharedOfficialMinPaid = s.SharedOfficialMinPaid
	}
	if s.SharedOfficialHighPaid > 0 {
		cfg.SharedOfficialHighPaid = s.SharedOfficialHighPaid
	}
	if s.MaxListedNPIs > 0 {
		cfg.MaxListedNPIs = s.MaxListedNPIs
	}
	if len(s.HomeHealthCodes) > 0 {
		cfg.HomeHealthCodes = s.HomeHealthCodes
	}
	if s.MinMonthlyHomeHealthClaims > 0 {
		cfg.MinMonthlyHomeHealthClaims = s.MinMonthlyHomeHealthClaims
	}
	if s.MinBeneficiaryClaimRatio > 0 {
		cfg.MinBeneficiaryClaimRatio = s.MinBeneficiaryClaimRatio
	}
	return cfg, nil
}

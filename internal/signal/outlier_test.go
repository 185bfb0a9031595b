package signal

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwatch/fraudscan/internal/claims"
	"github.com/claimwatch/fraudscan/internal/provider"
)

// outlierFixture builds a (taxonomy, state) cohort of peers billing the
// base amount plus one provider billing outlierPaid.
func outlierFixture(peers int, basePaid, outlierPaid float64) (claims.Store, *provider.Registry, string) {
	var rows []claims.Row
	var records []provider.Record
	for i := 0; i < peers; i++ {
		npi := fmt.Sprintf("%010d", 1000000000+i)
		rows = append(rows, claims.Row{BillingNPI: npi, Month: "2023-01", Beneficiaries: 10, Claims: 50, Paid: basePaid})
		records = append(records, individualRecord(npi, fmt.Sprintf("PEER %d", i), "207Q00000X", "TX"))
	}
	outlierNPI := "9000000001"
	rows = append(rows, claims.Row{BillingNPI: outlierNPI, Month: "2023-01", Beneficiaries: 40, Claims: 900, Paid: outlierPaid})
	records = append(records, individualRecord(outlierNPI, "BIG BILLER", "207Q00000X", "TX"))

	return claims.NewMemStore(rows), provider.NewRegistry(records), outlierNPI
}

func TestDetectBillingOutlier(t *testing.T) {
	// 51 peers at 1000 plus one at 1,000,000: the cohort's 99th
	// percentile lands on the second-highest value.
	store, reg, outlierNPI := outlierFixture(51, 1000, 1_000_000)

	flags, err := DetectBillingOutlier(context.Background(), store, reg, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, flags, 1)

	f := flags[0]
	assert.Equal(t, outlierNPI, f.NPI)
	assert.Equal(t, TypeBillingOutlier, f.Type)
	assert.Equal(t, SeverityHigh, f.Severity, "paid/median ratio far above 5")

	ev, ok := f.Evidence.(BillingOutlierEvidence)
	require.True(t, ok)
	assert.Equal(t, 1_000_000.0, ev.TotalPaid)
	assert.Equal(t, 1000.0, ev.PeerP99)
	assert.Equal(t, 1000.0, ev.PeerMedian)
	assert.Equal(t, 52, ev.PeerCount)
	assert.Equal(t, 1000.0, ev.RatioToMedian)

	assert.Equal(t, 999_000.0, f.EstimatedOverpayment, "excess over the cohort P99")
}

func TestDetectBillingOutlierSmallCohortSkipped(t *testing.T) {
	store, reg, _ := outlierFixture(5, 1000, 1_000_000)

	flags, err := DetectBillingOutlier(context.Background(), store, reg, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, flags, "cohorts under the minimum size are not statistically meaningful")
}

func TestDetectBillingOutlierRequiresTaxonomyAndState(t *testing.T) {
	rows := []claims.Row{
		{BillingNPI: "1000000001", Month: "2023-01", Paid: 1_000_000},
	}
	records := []provider.Record{
		{NPI: "1000000001", Name: "NO COHORT", Entity: provider.EntityIndividual, Taxonomy: "207Q00000X"},
	}

	flags, err := DetectBillingOutlier(context.Background(), claims.NewMemStore(rows), provider.NewRegistry(records), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, flags, "no (taxonomy, state) cohort, no flags")
}

func TestDetectBillingOutlierOverpaymentNonNegative(t *testing.T) {
	store, reg, _ := outlierFixture(51, 1000, 1_000_000)

	flags, err := DetectBillingOutlier(context.Background(), store, reg, DefaultConfig())
	require.NoError(t, err)
	for _, f := range flags {
		assert.GreaterOrEqual(t, f.EstimatedOverpayment, 0.0)
	}
}

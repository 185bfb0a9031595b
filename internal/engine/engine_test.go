package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimwatch/fraudscan/internal/signal"
	"github.com/claimwatch/fraudscan/internal/state"
	"github.com/claimwatch/fraudscan/internal/testutil"
)

const spendingCSV = `BILLING_PROVIDER_NPI_NUM,SERVICING_PROVIDER_NPI_NUM,HCPCS_CODE,CLAIM_FROM_MONTH,TOTAL_UNIQUE_BENEFICIARIES,TOTAL_CLAIMS,TOTAL_PAID
1111111111,1111111111,99213,2023-01,4,10,9000
1111111111,1111111111,99213,2023-02,3,6,6000
2222222222,2222222222,T1019,2023-01,5,200,8000
2222222222,2222222222,T1019,2023-02,10,300,12000
3333333333,3333333333,99213,2023-01,50,100,4000
`

const leieCSV = `NPI,EXCLDATE,EXCLTYPE,BUSNAME,FIRSTNAME,LASTNAME
1111111111,20200315,1128a1,ACME HOME CARE LLC,,
`

const nppesCSV = `NPI,Entity Type Code,Provider Organization Name (Legal Business Name),Provider Last Name (Legal Name),Provider First Name,Provider Business Practice Location Address State Name,Provider Business Mailing Address State Name,Healthcare Provider Taxonomy Code_1,Provider Enumeration Date,Authorized Official First Name,Authorized Official Last Name
2222222222,2,EVERYWHERE HOME HEALTH,,,FL,,251E00000X,01/15/2015,MARIA,LOPEZ
3333333333,1,,SMITH,JOHN,TX,,207Q00000X,06/30/2010,,
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestEngine(t *testing.T, registryPath string) *Engine {
	t.Helper()
	dir := t.TempDir()

	e, err := New(Config{
		SpendingPath:   writeFixture(t, dir, "spending.csv", spendingCSV),
		ExclusionsPath: writeFixture(t, dir, "leie.csv", leieCSV),
		RegistryPath:   registryPath,
		OutputPath:     filepath.Join(dir, "fraud_signals.json"),
		StatePath:      filepath.Join(dir, "state.db"),
		Signals:        signal.DefaultConfig(),
		Logger:         testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngineRunFullPipeline(t *testing.T) {
	dir := t.TempDir()
	registryPath := writeFixture(t, dir, "npidata_pfile.csv", nppesCSV)
	e := newTestEngine(t, registryPath)

	doc, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), doc.TotalProvidersScanned)
	assert.Equal(t, 1, doc.SignalCounts[signal.TypeExcludedProvider])
	// 2222222222 bills 500 home-health claims for 15 beneficiaries.
	assert.Equal(t, 1, doc.SignalCounts[signal.TypeGeographicImplausibility])

	var excluded, implausible bool
	for _, p := range doc.FlaggedProviders {
		switch p.NPI {
		case "1111111111":
			excluded = true
			assert.Equal(t, 15000.0, p.EstimatedOverpaymentUSD)
			assert.Equal(t, "ACME HOME CARE LLC", p.ProviderName)
		case "2222222222":
			implausible = true
			assert.Equal(t, "organization", p.EntityType)
		}
	}
	assert.True(t, excluded, "excluded provider missing from report")
	assert.True(t, implausible, "implausible home-health biller missing from report")
}

func TestEngineRunRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	registryPath := writeFixture(t, dir, "npidata_pfile.csv", nppesCSV)
	e := newTestEngine(t, registryPath)

	doc, err := e.Run(context.Background())
	require.NoError(t, err)

	runs, err := e.store.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, int64(doc.TotalProvidersFlagged), runs[0].ProvidersFlagged)
	assert.Contains(t, runs[0].SignalCounts, "excluded_provider")
}

func TestEngineRunWithoutRegistryDegrades(t *testing.T) {
	e := newTestEngine(t, "")

	doc, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, doc.SignalCounts[signal.TypeExcludedProvider])
	for _, typ := range signal.AllTypes() {
		if typ == signal.TypeExcludedProvider {
			continue
		}
		assert.Equal(t, 0, doc.SignalCounts[typ], "signal %s should be skipped", typ)
	}
	require.Len(t, doc.FlaggedProviders, 1)
	assert.Equal(t, "1111111111", doc.FlaggedProviders[0].NPI)
}

func TestEngineRunMissingSpendingIsFatal(t *testing.T) {
	dir := t.TempDir()
	e, err := New(Config{
		SpendingPath:   filepath.Join(dir, "missing.parquet"),
		ExclusionsPath: writeFixture(t, dir, "leie.csv", leieCSV),
		StatePath:      filepath.Join(dir, "state.db"),
		Signals:        signal.DefaultConfig(),
		Logger:         testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Run(context.Background())
	require.Error(t, err)

	runs, err := e.store.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
}

func TestEngineProgressStages(t *testing.T) {
	dir := t.TempDir()
	registryPath := writeFixture(t, dir, "npidata_pfile.csv", nppesCSV)

	var stages []string
	e, err := New(Config{
		SpendingPath:   writeFixture(t, dir, "spending.csv", spendingCSV),
		ExclusionsPath: writeFixture(t, dir, "leie.csv", leieCSV),
		RegistryPath:   registryPath,
		StatePath:      filepath.Join(dir, "state.db"),
		Signals:        signal.DefaultConfig(),
		Progress:       func(stage string) { stages = append(stages, stage) },
	})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, stages, "attaching spending data")
	assert.Contains(t, stages, "running signal excluded_provider")
	assert.Contains(t, stages, "assembling report")
	assert.GreaterOrEqual(t, len(stages), 10)
}

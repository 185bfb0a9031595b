package claims

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/claimwatch/fraudscan/internal/adapter"
)

func newTestDuckStore(t *testing.T) *DuckStore {
	t.Helper()
	ctx := context.Background()

	a := adapter.NewDuckDB()
	if err := a.Connect(ctx, adapter.Config{Path: ":memory:"}); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	err := a.Exec(ctx, `
		CREATE TABLE spending (
			billing_npi VARCHAR,
			servicing_npi VARCHAR,
			hcpcs VARCHAR,
			claim_month VARCHAR,
			beneficiaries BIGINT,
			claims BIGINT,
			paid DOUBLE
		)
	`)
	if err != nil {
		t.Fatalf("failed to create spending table: %v", err)
	}

	err = a.Exec(ctx, `INSERT INTO spending VALUES
		('1111111111', '1111111111', '99213', '2023-01', 10, 20, 1000),
		('1111111111', '2222222222', 'T1019', '2023-02', 5, 8, 400),
		('3333333333', '3333333333', 'T1019', '2023-01', 2, 300, 9000),
		('3333333333', '3333333333', '99213', '2023-03', 4, 6, 250),
		(NULL, '4444444444', '99213', '2023-01', 1, 1, 50)`)
	if err != nil {
		t.Fatalf("failed to insert fixture rows: %v", err)
	}

	return NewDuckStore(a)
}

func TestDuckStoreProviderTotalsFullScan(t *testing.T) {
	s := newTestDuckStore(t)

	totals, err := s.ProviderTotals(context.Background(), nil)
	if err != nil {
		t.Fatalf("ProviderTotals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("got %d providers, want 2", len(totals))
	}
	if totals[0].NPI != "1111111111" || totals[0].Paid != 1400 {
		t.Errorf("totals[0] = %+v, want 1111111111 paid 1400", totals[0])
	}
	if totals[1].NPI != "3333333333" || totals[1].Claims != 306 {
		t.Errorf("totals[1] = %+v, want 3333333333 claims 306", totals[1])
	}
}

func TestDuckStoreProviderTotalsRestricted(t *testing.T) {
	s := newTestDuckStore(t)

	totals, err := s.ProviderTotals(context.Background(), NewIDSet("3333333333", "9999999999"))
	if err != nil {
		t.Fatalf("ProviderTotals: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("got %d providers, want 1", len(totals))
	}
	if totals[0].NPI != "3333333333" || totals[0].Paid != 9250 {
		t.Errorf("totals[0] = %+v, want 3333333333 paid 9250", totals[0])
	}
}

func TestDuckStoreBillingAndServicingActivity(t *testing.T) {
	s := newTestDuckStore(t)
	ctx := context.Background()

	billing, err := s.BillingActivity(ctx, NewIDSet("1111111111"))
	if err != nil {
		t.Fatalf("BillingActivity: %v", err)
	}
	if len(billing) != 1 {
		t.Fatalf("got %d billing activities, want 1", len(billing))
	}
	if billing[0].FirstMonth != "2023-01" || billing[0].LastMonth != "2023-02" {
		t.Errorf("month range = [%s, %s], want [2023-01, 2023-02]", billing[0].FirstMonth, billing[0].LastMonth)
	}

	// Self-billed rows must not show up on the servicing side.
	servicing, err := s.ServicingActivity(ctx, NewIDSet("2222222222", "3333333333"))
	if err != nil {
		t.Fatalf("ServicingActivity: %v", err)
	}
	if len(servicing) != 1 {
		t.Fatalf("got %d servicing activities, want 1", len(servicing))
	}
	if servicing[0].NPI != "2222222222" || servicing[0].Paid != 400 {
		t.Errorf("servicing[0] = %+v, want 2222222222 paid 400", servicing[0])
	}
}

func TestDuckStoreMonthlySeries(t *testing.T) {
	s := newTestDuckStore(t)

	series, err := s.MonthlySeries(context.Background(), NewIDSet("3333333333"))
	if err != nil {
		t.Fatalf("MonthlySeries: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d months, want 2", len(series))
	}
	if series[0].Month != "2023-01" || series[1].Month != "2023-03" {
		t.Errorf("months = [%s, %s], want [2023-01, 2023-03]", series[0].Month, series[1].Month)
	}
}

func TestDuckStoreProcedureMonthlySeries(t *testing.T) {
	s := newTestDuckStore(t)

	series, err := s.ProcedureMonthlySeries(context.Background(), []string{"T1019", "G0299"})
	if err != nil {
		t.Fatalf("ProcedureMonthlySeries: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d rows, want 2", len(series))
	}
	if series[0].NPI != "1111111111" || series[0].Claims != 8 {
		t.Errorf("series[0] = %+v, want 1111111111 claims 8", series[0])
	}
}

func TestDuckStoreDistinctBillingProviders(t *testing.T) {
	s := newTestDuckStore(t)

	n, err := s.DistinctBillingProviders(context.Background())
	if err != nil {
		t.Fatalf("DistinctBillingProviders: %v", err)
	}
	if n != 2 {
		t.Errorf("distinct providers = %d, want 2", n)
	}
}

func TestDuckStoreLargeRestrictionSet(t *testing.T) {
	s := newTestDuckStore(t)

	// Forces multiple insert batches for the restriction temp table.
	set := make(IDSet, insertBatchSize+10)
	for i := 0; i < insertBatchSize+10; i++ {
		set.Add(fmt.Sprintf("%010d", 5000000000+i))
	}
	set.Add("1111111111")

	totals, err := s.ProviderTotals(context.Background(), set)
	if err != nil {
		t.Fatalf("ProviderTotals: %v", err)
	}
	if len(totals) != 1 || totals[0].NPI != "1111111111" {
		t.Fatalf("totals = %+v, want only 1111111111", totals)
	}
}

func TestDuckStoreConcurrentRestrictedQueries(t *testing.T) {
	s := newTestDuckStore(t)

	// The restriction temp table is session-scoped; concurrent callers
	// must still hit the same pinned connection that created it.
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			totals, err := s.ProviderTotals(context.Background(), NewIDSet("3333333333"))
			if err != nil {
				errs <- err
				return
			}
			if len(totals) != 1 || totals[0].NPI != "3333333333" {
				errs <- fmt.Errorf("totals = %+v, want only 3333333333", totals)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("restricted query: %v", err)
	}
}

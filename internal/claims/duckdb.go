package claims

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/claimwatch/fraudscan/internal/adapter"
)

// insertBatchSize bounds the number of identifiers per INSERT statement when
// materializing a restriction set. DuckDB handles wide VALUES lists fine but
// statement size should stay bounded for very large sets.
const insertBatchSize = 1000

// DuckStore implements Store against the "spending" relation attached by the
// ingest layer. All restriction sets are materialized into a temp table and
// applied with a join before aggregation, so the engine never sees an
// unbounded IN list and never aggregates rows outside the set.
type DuckStore struct {
	db adapter.Adapter

	// tempSeq disambiguates temp table names across concurrent calls on
	// the same connection.
	tempSeq atomic.Int64
}

// NewDuckStore creates a store over a connected adapter.
func NewDuckStore(db adapter.Adapter) *DuckStore {
	return &DuckStore{db: db}
}

func (s *DuckStore) ProviderTotals(ctx context.Context, npis IDSet) ([]Totals, error) {
	from := `spending WHERE billing_npi IS NOT NULL`
	if npis != nil {
		tmp, cleanup, err := s.restrictTo(ctx, npis)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		from = fmt.Sprintf(`spending s JOIN %s r ON s.billing_npi = r.id`, tmp)
	}

	q := fmt.Sprintf(`
		SELECT billing_npi,
		       COALESCE(SUM(paid), 0),
		       COALESCE(SUM(claims), 0),
		       COALESCE(SUM(beneficiaries), 0)
		FROM %s
		GROUP BY billing_npi
		ORDER BY billing_npi`, from)

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("provider totals: %w", err)
	}
	defer rows.Close()

	var out []Totals
	for rows.Next() {
		var t Totals
		if err := rows.Scan(&t.NPI, &t.Paid, &t.Claims, &t.Beneficiaries); err != nil {
			return nil, fmt.Errorf("provider totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *DuckStore) BillingActivity(ctx context.Context, npis IDSet) ([]Activity, error) {
	return s.activity(ctx, npis, "billing_npi", "")
}

func (s *DuckStore) ServicingActivity(ctx context.Context, npis IDSet) ([]Activity, error) {
	return s.activity(ctx, npis, "servicing_npi", "s.servicing_npi <> s.billing_npi")
}

func (s *DuckStore) activity(ctx context.Context, npis IDSet, role, extra string) ([]Activity, error) {
	tmp, cleanup, err := s.restrictTo(ctx, npis)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	where := ""
	if extra != "" {
		where = "WHERE " + extra
	}
	q := fmt.Sprintf(`
		SELECT s.%[1]s,
		       COALESCE(SUM(s.paid), 0),
		       COALESCE(SUM(s.claims), 0),
		       COALESCE(SUM(s.beneficiaries), 0),
		       MIN(s.claim_month),
		       MAX(s.claim_month)
		FROM spending s JOIN %[2]s r ON s.%[1]s = r.id
		%[3]s
		GROUP BY s.%[1]s
		ORDER BY s.%[1]s`, role, tmp, where)

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s activity: %w", role, err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.NPI, &a.Paid, &a.Claims, &a.Beneficiaries, &a.FirstMonth, &a.LastMonth); err != nil {
			return nil, fmt.Errorf("%s activity: %w", role, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *DuckStore) MonthlySeries(ctx context.Context, npis IDSet) ([]Monthly, error) {
	tmp, cleanup, err := s.restrictTo(ctx, npis)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	q := fmt.Sprintf(`
		SELECT s.billing_npi, s.claim_month,
		       COALESCE(SUM(s.paid), 0),
		       COALESCE(SUM(s.claims), 0),
		       COALESCE(SUM(s.beneficiaries), 0)
		FROM spending s JOIN %s r ON s.billing_npi = r.id
		GROUP BY s.billing_npi, s.claim_month
		ORDER BY s.billing_npi, s.claim_month`, tmp)

	return s.queryMonthly(ctx, q)
}

func (s *DuckStore) ProcedureMonthlySeries(ctx context.Context, codes []string) ([]Monthly, error) {
	quoted := make([]string, len(codes))
	for i, c := range codes {
		quoted[i] = quoteLiteral(c)
	}

	// Procedure code sets are small and fixed, so an IN list is fine here.
	q := fmt.Sprintf(`
		SELECT billing_npi, claim_month,
		       COALESCE(SUM(paid), 0),
		       COALESCE(SUM(claims), 0),
		       COALESCE(SUM(beneficiaries), 0)
		FROM spending
		WHERE billing_npi IS NOT NULL AND hcpcs IN (%s)
		GROUP BY billing_npi, claim_month
		ORDER BY billing_npi, claim_month`, strings.Join(quoted, ", "))

	return s.queryMonthly(ctx, q)
}

func (s *DuckStore) queryMonthly(ctx context.Context, q string) ([]Monthly, error) {
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("monthly series: %w", err)
	}
	defer rows.Close()

	var out []Monthly
	for rows.Next() {
		var m Monthly
		if err := rows.Scan(&m.NPI, &m.Month, &m.Paid, &m.Claims, &m.Beneficiaries); err != nil {
			return nil, fmt.Errorf("monthly series: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *DuckStore) DistinctBillingProviders(ctx context.Context) (int64, error) {
	rows, err := s.db.Query(ctx, `SELECT COUNT(DISTINCT billing_npi) FROM spending WHERE billing_npi IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("distinct providers: %w", err)
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("distinct providers: %w", err)
		}
	}
	return n, rows.Err()
}

// restrictTo materializes the identifier set into a temp table and returns
// its name plus a cleanup func. The table carries a single "id" column.
func (s *DuckStore) restrictTo(ctx context.Context, npis IDSet) (string, func(), error) {
	name := fmt.Sprintf("restrict_ids_%d", s.tempSeq.Add(1))
	if err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TEMP TABLE %s (id VARCHAR PRIMARY KEY)`, name)); err != nil {
		return "", nil, fmt.Errorf("restriction set: %w", err)
	}
	cleanup := func() {
		_ = s.db.Exec(context.Background(), fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name))
	}

	ids := npis.Slice()
	for start := 0; start < len(ids); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		values := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			values = append(values, "("+quoteLiteral(id)+")")
		}
		stmt := fmt.Sprintf(`INSERT INTO %s VALUES %s`, name, strings.Join(values, ", "))
		if err := s.db.Exec(ctx, stmt); err != nil {
			cleanup()
			return "", nil, fmt.Errorf("restriction set: %w", err)
		}
	}
	return name, cleanup, nil
}

// quoteLiteral renders a SQL string literal, doubling any embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var _ Store = (*DuckStore)(nil)

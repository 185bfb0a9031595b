// Package ingest loads and normalizes the three input datasets: the
// claims-spending fact table, the exclusion list and the provider registry.
// File parsing is pushed down into the analytical engine; only small
// reference datasets are materialized into Go memory.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/claimwatch/fraudscan/internal/adapter"
)

// AttachSpending exposes the claims-spending dataset as the "spending" view
// with normalized column names. The fact table itself is never loaded into
// Go memory; every aggregation runs inside the engine against this view.
//
// Expected source columns: BILLING_PROVIDER_NPI_NUM,
// SERVICING_PROVIDER_NPI_NUM, HCPCS_CODE, CLAIM_FROM_MONTH (YYYY-MM),
// TOTAL_UNIQUE_BENEFICIARIES, TOTAL_CLAIMS, TOTAL_PAID.
func AttachSpending(ctx context.Context, db adapter.Adapter, path string) error {
	source, err := scanFunction(path)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`
		CREATE OR REPLACE VIEW spending AS
		SELECT
			CAST(BILLING_PROVIDER_NPI_NUM AS VARCHAR)   AS billing_npi,
			CAST(SERVICING_PROVIDER_NPI_NUM AS VARCHAR) AS servicing_npi,
			CAST(HCPCS_CODE AS VARCHAR)                 AS hcpcs,
			CAST(CLAIM_FROM_MONTH AS VARCHAR)           AS claim_month,
			CAST(TOTAL_UNIQUE_BENEFICIARIES AS BIGINT)  AS beneficiaries,
			CAST(TOTAL_CLAIMS AS BIGINT)                AS claims,
			CAST(TOTAL_PAID AS DOUBLE)                  AS paid
		FROM %s`, source)

	if err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to attach spending data from %s: %w", path, err)
	}
	return nil
}

// scanFunction picks the engine reader matching the file extension.
func scanFunction(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return fmt.Sprintf("read_parquet('%s')", escapePath(path)), nil
	case ".csv", ".gz":
		return fmt.Sprintf("read_csv('%s', header = true, nullstr = ['', ' '])", escapePath(path)), nil
	default:
		return "", fmt.Errorf("unsupported spending file format %q (want .parquet or .csv)", ext)
	}
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}

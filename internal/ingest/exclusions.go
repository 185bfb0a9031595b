package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/claimwatch/fraudscan/internal/adapter"
	"github.com/claimwatch/fraudscan/internal/provider"
)

// LoadExclusions reads the exclusion-list CSV and returns the rows that
// carry a valid provider identifier. Exclusion dates arrive as YYYYMMDD
// integers; unparseable dates load as absent rather than failing the run.
func LoadExclusions(ctx context.Context, db adapter.Adapter, path string) ([]provider.Exclusion, error) {
	q := fmt.Sprintf(`
		SELECT
			TRIM(NPI),
			TRY_STRPTIME(EXCLDATE, '%%Y%%m%%d'),
			EXCLTYPE,
			BUSNAME,
			FIRSTNAME,
			LASTNAME
		FROM read_csv('%s', header = true, all_varchar = true, nullstr = ['', ' '])`,
		escapePath(path))

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusion list %s: %w", path, err)
	}
	defer rows.Close()

	var out []provider.Exclusion
	for rows.Next() {
		var npi, exclType, busName, firstName, lastName sql.NullString
		var exclDate sql.NullTime
		if err := rows.Scan(&npi, &exclDate, &exclType, &busName, &firstName, &lastName); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion row: %w", err)
		}
		if !provider.ValidNPI(npi.String) {
			continue
		}

		e := provider.Exclusion{
			NPI:  npi.String,
			Name: displayName(busName, firstName, lastName),
			Type: exclType.String,
		}
		if exclDate.Valid {
			d := exclDate.Time
			e.Date = &d
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exclusion list %s: %w", path, err)
	}
	return out, nil
}

// displayName prefers the business name, falling back to "FIRST LAST" with
// absent parts skipped.
func displayName(busName, firstName, lastName sql.NullString) string {
	if busName.Valid && busName.String != "" {
		return busName.String
	}
	var parts []string
	if firstName.Valid && firstName.String != "" {
		parts = append(parts, firstName.String)
	}
	if lastName.Valid && lastName.String != "" {
		parts = append(parts, lastName.String)
	}
	return strings.Join(parts, " ")
}

// ExclusionsByNPI indexes exclusions by identifier, first record winning.
func ExclusionsByNPI(exclusions []provider.Exclusion) map[string]provider.Exclusion {
	idx := make(map[string]provider.Exclusion, len(exclusions))
	for _, e := range exclusions {
		if _, ok := idx[e.NPI]; !ok {
			idx[e.NPI] = e
		}
	}
	return idx
}

package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/claimwatch/fraudscan/internal/adapter"
	"github.com/claimwatch/fraudscan/internal/provider"
)

// LoadRegistry reads the NPI registry CSV into an indexed Registry. Rows are
// ordered by identifier so downstream grouping is deterministic regardless
// of how the engine schedules the scan. The practice-location state falls
// back to the mailing state when absent.
func LoadRegistry(ctx context.Context, db adapter.Adapter, path string) (*provider.Registry, error) {
	q := fmt.Sprintf(`
		SELECT
			TRIM(NPI),
			"Entity Type Code",
			COALESCE(NULLIF("Provider Organization Name (Legal Business Name)", ''),
			         TRIM(CONCAT_WS(' ', "Provider First Name", "Provider Last Name (Legal Name)"))),
			"Healthcare Provider Taxonomy Code_1",
			COALESCE("Provider Business Practice Location Address State Name",
			         "Provider Business Mailing Address State Name"),
			TRY_STRPTIME("Provider Enumeration Date", '%%m/%%d/%%Y'),
			"Authorized Official First Name",
			"Authorized Official Last Name"
		FROM read_csv('%s', header = true, all_varchar = true, nullstr = ['', ' '])
		ORDER BY NPI`, escapePath(path))

	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}
	defer rows.Close()

	var records []provider.Record
	for rows.Next() {
		var npi, entity, name, taxonomy, state, offFirst, offLast sql.NullString
		var enumerated sql.NullTime
		if err := rows.Scan(&npi, &entity, &name, &taxonomy, &state, &enumerated, &offFirst, &offLast); err != nil {
			return nil, fmt.Errorf("failed to scan registry row: %w", err)
		}
		if !provider.ValidNPI(npi.String) {
			continue
		}

		rec := provider.Record{
			NPI:      npi.String,
			Name:     name.String,
			Entity:   provider.ParseEntityType(entity.String),
			Taxonomy: taxonomy.String,
			State:    state.String,
		}
		if enumerated.Valid {
			d := enumerated.Time
			rec.Enumerated = &d
		}
		if offFirst.Valid || offLast.Valid {
			rec.Official = &provider.OfficialName{
				First: offFirst.String,
				Last:  offLast.String,
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}
	return provider.NewRegistry(records), nil
}

package signal

import (
	"time"

	"github.com/claimwatch/fraudscan/internal/provider"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func orgRecord(npi, name, taxonomy, state string) provider.Record {
	return provider.Record{
		NPI:      npi,
		Name:     name,
		Entity:   provider.EntityOrganization,
		Taxonomy: taxonomy,
		State:    state,
	}
}

func individualRecord(npi, name, taxonomy, state string) provider.Record {
	return provider.Record{
		NPI:      npi,
		Name:     name,
		Entity:   provider.EntityIndividual,
		Taxonomy: taxonomy,
		State:    state,
	}
}

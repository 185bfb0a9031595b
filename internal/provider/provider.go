// Package provider models the two reference tables the detection engine joins
// against the claims fact table: the provider registry and the exclusion list.
// Both are loaded once per run and treated as read-only afterwards.
package provider

import (
	"strings"
	"time"
)

// EntityType classifies a registered provider.
type EntityType int

const (
	EntityUnknown EntityType = iota
	EntityIndividual
	EntityOrganization
)

// String returns the human-readable entity type used in report output.
func (e EntityType) String() string {
	switch e {
	case EntityIndividual:
		return "individual"
	case EntityOrganization:
		return "organization"
	default:
		return "unknown"
	}
}

// ParseEntityType maps the registry's numeric entity type code.
// Code "1" is an individual, "2" an organization; anything else is unknown.
func ParseEntityType(code string) EntityType {
	switch strings.TrimSpace(code) {
	case "1":
		return EntityIndividual
	case "2":
		return EntityOrganization
	default:
		return EntityUnknown
	}
}

// OfficialName identifies the controlling official of a registered entity.
// A registry record without both name components carries a nil *OfficialName;
// detectors check for nil rather than matching placeholder strings.
type OfficialName struct {
	First string
	Last  string
}

// Key returns the normalized grouping key for the official.
func (o OfficialName) Key() string {
	return strings.ToUpper(o.First) + "|" + strings.ToUpper(o.Last)
}

// Display returns the official's name as printed in evidence.
func (o OfficialName) Display() string {
	return strings.TrimSpace(o.First + " " + o.Last)
}

// Record is one registry entry.
type Record struct {
	NPI        string
	Name       string
	Entity     EntityType
	Taxonomy   string
	State      string
	Enumerated *time.Time
	Official   *OfficialName
}

// Exclusion is one exclusion-list entry with a validated identifier.
type Exclusion struct {
	NPI  string
	Name string
	Type string
	Date *time.Time
}

// Registry holds the provider registry with an identifier index.
// Record order is the source file order and is preserved; detectors rely on
// it for deterministic output.
type Registry struct {
	records []Record
	index   map[string]int
}

// NewRegistry builds a registry from records in source order. When the same
// identifier appears more than once the first record wins.
func NewRegistry(records []Record) *Registry {
	idx := make(map[string]int, len(records))
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		// First record per identifier wins; repeated registry rows would
		// otherwise double-count in per-official aggregation.
		if _, ok := idx[r.NPI]; ok {
			continue
		}
		idx[r.NPI] = len(kept)
		kept = append(kept, r)
	}
	return &Registry{records: kept, index: idx}
}

// Len returns the number of records.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// All returns the records in source order. Callers must not mutate them.
func (r *Registry) All() []Record {
	if r == nil {
		return nil
	}
	return r.records
}

// Lookup returns the record for an identifier.
func (r *Registry) Lookup(npi string) (*Record, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := r.index[npi]
	if !ok {
		return nil, false
	}
	return &r.records[i], true
}

// ValidNPI reports whether s is a well-formed 10-digit provider identifier.
func ValidNPI(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

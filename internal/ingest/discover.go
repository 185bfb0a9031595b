package ingest

import (
	"os"
	"path/filepath"
	"strings"
)

// Conventional file names for each dataset, used when the operator does not
// pass explicit paths.
var (
	SpendingCandidates = []string{
		"medicaid-provider-spending.parquet",
		"medicaid_provider_spending.parquet",
	}
	ExclusionCandidates = []string{
		"leie_exclusions.csv",
		"LEIE.csv",
	}
	RegistryCandidates = []string{
		"npidata_pfile.csv",
		"nppes_npi.csv",
	}
)

// Find returns the first existing path matching any candidate name in any of
// the given directories. Each candidate is also tried in lower and upper
// case. Returns false when nothing matches.
func Find(dirs []string, candidates []string) (string, bool) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range candidates {
			for _, variant := range nameVariants(name) {
				path := filepath.Join(dir, variant)
				if info, err := os.Stat(path); err == nil && !info.IsDir() {
					return path, true
				}
			}
		}
	}
	return "", false
}

// SearchDirs returns the directories probed during auto-discovery: the
// working directory, then a data/ subdirectory of it.
func SearchDirs() []string {
	wd, err := os.Getwd()
	if err != nil {
		return []string{"."}
	}
	return []string{wd, filepath.Join(wd, "data")}
}

func nameVariants(name string) []string {
	out := []string{name}
	if lower := strings.ToLower(name); lower != name {
		out = append(out, lower)
	}
	if upper := strings.ToUpper(name); upper != name {
		out = append(out, upper)
	}
	return out
}

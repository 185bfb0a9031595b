// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
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

// ScanFixture holds the paths of a generated scan dataset.
type ScanFixture struct {
	Dir            string
	SpendingPath   string
	ExclusionsPath string
	RegistryPath   string
}

// SetupScanData writes a small three-provider dataset into a temp
// directory: an excluded biller, an implausible home-health biller, and
// a healthy control.
func SetupScanData(t *testing.T) ScanFixture {
	t.Helper()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		return path
	}

	return ScanFixture{
		Dir:            dir,
		SpendingPath:   write("spending.csv", spendingCSV),
		ExclusionsPath: write("leie.csv", leieCSV),
		RegistryPath:   write("npidata_pfile.csv", nppesCSV),
	}
}

// ExecuteCommand runs cmd with args and returns captured stdout and
// stderr.
func ExecuteCommand(cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

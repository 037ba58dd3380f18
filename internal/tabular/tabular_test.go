package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const plansCSV = `Name,Resource Group,Location,Pricing Tier,Operating System,Apps,Status
plan-a,rg-web,East US,Premium V3 (P1v3: 2),Linux,3,Ready
plan-b,rg-web,West Europe,Basic (B1: 1),Windows,n/a,Ready
,,,,,,
`

const appsCSV = `NAME,APP SERVICE PLAN,STATUS,LOCATION,SUBSCRIPTION,PRICING TIER
api,/subscriptions/s/resourceGroups/rg-web/providers/Microsoft.Web/serverfarms/plan-a,Running,East US,prod,P1v3
worker,/subscriptions/s/resourceGroups/rg-web/providers/Microsoft.Web/serverfarms/plan-a,Stopped,East US,prod,P1v3
`

func mustTable(t *testing.T, content string) *Table {
	t.Helper()
	rows, err := Parse([]byte(content))
	require.NoError(t, err)
	tbl, err := NewTable(rows)
	require.NoError(t, err)
	return tbl
}

func TestPlans_CaseInsensitiveHeadersAndDefaults(t *testing.T) {
	tbl := mustTable(t, plansCSV)
	assert.Equal(t, KindPlans, tbl.Kind())

	plans := tbl.Plans()
	require.Len(t, plans, 2, "blank rows are skipped")

	assert.Equal(t, "plan-a", plans[0].Name)
	assert.Equal(t, "rg-web", plans[0].ResourceGroup)
	assert.Equal(t, 3, plans[0].Apps)
	assert.Equal(t, 2, plans[0].Tier().Instances)
	assert.Equal(t, "Linux", plans[0].OS)

	assert.Equal(t, 0, plans[1].Apps, "unparsable APPS reads as zero")
	assert.Empty(t, plans[1].ID, "missing ID column reads as empty")
}

func TestApps(t *testing.T) {
	tbl := mustTable(t, appsCSV)
	assert.Equal(t, KindApps, tbl.Kind())

	apps := tbl.Apps()
	require.Len(t, apps, 2)
	assert.Equal(t, "plan-a", apps[0].PlanName())
	assert.True(t, apps[0].Running())
	assert.False(t, apps[1].Running())
	assert.Equal(t, "prod", apps[1].Subscription)
}

func TestMissingColumns(t *testing.T) {
	tbl := mustTable(t, "NAME,APPS\nsolo,1\n")
	assert.Equal(t, KindUnknown, tbl.Kind())

	plans := tbl.Plans()
	require.Len(t, plans, 1)
	assert.Empty(t, plans[0].PricingTier)
	assert.Equal(t, "Unknown", plans[0].Tier().SKU)
	assert.Equal(t, 1, plans[0].Tier().Instances)
}

func TestNewTable_Empty(t *testing.T) {
	_, err := NewTable(nil)
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func xlsxBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParse_XLSX(t *testing.T) {
	content := xlsxBytes(t, [][]string{
		{"NAME", "RESOURCE GROUP", "LOCATION", "PRICING TIER", "OPERATING SYSTEM", "APPS", "STATUS"},
		{"plan-x", "rg", "eastus", "Standard (S1: 3)", "Windows", "4", "Ready"},
	})
	require.True(t, IsExcel(content))

	rows, err := Parse(content)
	require.NoError(t, err)
	tbl, err := NewTable(rows)
	require.NoError(t, err)

	plans := tbl.Plans()
	require.Len(t, plans, 1)
	assert.Equal(t, "plan-x", plans[0].Name)
	assert.Equal(t, 4, plans[0].Apps)
	assert.Equal(t, 3, plans[0].Tier().Instances)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("20250101_file0_plans.csv", plansCSV)
	write("20250201_file0_plans.csv", plansCSV)
	write("20250101_file1_apps.csv", appsCSV)
	write("notes.csv", "A,B\n1,2\n")
	write("readme.txt", "ignored")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.xlsx"), []byte("not a workbook"), 0o644))

	src, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250201_file0_plans.csv"), src.PlansFile)
	assert.Equal(t, filepath.Join(dir, "20250101_file1_apps.csv"), src.AppsFile)

	plans, apps, err := LoadSources(src)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
	assert.Len(t, apps, 2)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

// Package tabular reads App Service plans and apps exports from CSV or XLSX
// files. Headers match case-insensitively and missing columns read as empty.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/azspectre/internal/resource"
)

// Plans table columns.
const (
	ColName          = "name"
	ColResourceGroup = "resource group"
	ColLocation      = "location"
	ColPricingTier   = "pricing tier"
	ColOS            = "operating system"
	ColApps          = "apps"
	ColStatus        = "status"
	ColID            = "id"
)

// Apps table columns.
const (
	ColAppServicePlan = "app service plan"
	ColSubscription   = "subscription"
)

// Kind is the detected content of a table.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlans
	KindApps
)

// ErrEmptyTable is returned for a file with no header row.
var ErrEmptyTable = errors.New("table has no header row")

// Table is a header-indexed set of rows.
type Table struct {
	columns map[string]int
	rows    [][]string
}

// NewTable indexes rows[0] as the header.
func NewTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return &Table{columns: cols, rows: rows[1:]}, nil
}

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) value(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Kind guesses whether the table is a plans or an apps export.
func (t *Table) Kind() Kind {
	switch {
	case t.Has(ColAppServicePlan):
		return KindApps
	case t.Has(ColPricingTier) && t.Has(ColApps):
		return KindPlans
	default:
		return KindUnknown
	}
}

// Plans converts rows to plans. An unparsable APPS cell counts as zero.
func (t *Table) Plans() []resource.Plan {
	plans := make([]resource.Plan, 0, len(t.rows))
	for _, row := range t.rows {
		if blank(row) {
			continue
		}
		apps, err := strconv.Atoi(t.value(row, ColApps))
		if err != nil {
			apps = 0
		}
		plans = append(plans, resource.Plan{
			ID:            t.value(row, ColID),
			Name:          t.value(row, ColName),
			ResourceGroup: t.value(row, ColResourceGroup),
			Location:      t.value(row, ColLocation),
			PricingTier:   t.value(row, ColPricingTier),
			OS:            t.value(row, ColOS),
			Apps:          apps,
			Status:        t.value(row, ColStatus),
		})
	}
	return plans
}

// Apps converts rows to apps.
func (t *Table) Apps() []resource.App {
	apps := make([]resource.App, 0, len(t.rows))
	for _, row := range t.rows {
		if blank(row) {
			continue
		}
		apps = append(apps, resource.App{
			Name:         t.value(row, ColName),
			Plan:         t.value(row, ColAppServicePlan),
			Status:       t.value(row, ColStatus),
			Location:     t.value(row, ColLocation),
			Subscription: t.value(row, ColSubscription),
			PricingTier:  t.value(row, ColPricingTier),
		})
	}
	return apps
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// IsExcel reports whether content looks like an XLSX workbook.
func IsExcel(content []byte) bool {
	return len(content) >= 2 && content[0] == 'P' && content[1] == 'K'
}

// Parse reads CSV or XLSX content into rows.
func Parse(content []byte) ([][]string, error) {
	if IsExcel(content) {
		return parseXLSX(content)
	}
	return parseCSV(content)
}

func parseCSV(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return rows, nil
}

func parseXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// Load reads a CSV or XLSX file into a Table.
func Load(path string) (*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rows, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewTable(rows)
}

// Sources are the newest plans and apps files found in a directory.
type Sources struct {
	PlansFile string
	AppsFile  string
}

func supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// Discover scans dir for exports and picks, per kind, the file whose name
// sorts last. Files are classified by their header row.
func Discover(dir string) (Sources, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Sources{}, fmt.Errorf("read data dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var src Sources
	for _, name := range names {
		path := filepath.Join(dir, name)
		t, err := Load(path)
		if err != nil {
			slog.Warn("Skipping unreadable table", "file", name, "error", err)
			continue
		}
		switch t.Kind() {
		case KindPlans:
			src.PlansFile = path
		case KindApps:
			src.AppsFile = path
		default:
			slog.Debug("Skipping table with unknown columns", "file", name)
		}
	}
	return src, nil
}

// LoadSources reads the plans and apps named by src. Either may be empty.
func LoadSources(src Sources) ([]resource.Plan, []resource.App, error) {
	var plans []resource.Plan
	var apps []resource.App
	if src.PlansFile != "" {
		t, err := Load(src.PlansFile)
		if err != nil {
			return nil, nil, err
		}
		plans = t.Plans()
	}
	if src.AppsFile != "" {
		t, err := Load(src.AppsFile)
		if err != nil {
			return nil, nil, err
		}
		apps = t.Apps()
	}
	return plans, apps, nil
}

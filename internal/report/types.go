// Package report assembles per-type analysis reports and renders them in
// several output formats.
package report

import (
	"io"
	"time"

	"github.com/ppiankov/azspectre/internal/analyzer"
)

// Reporter renders report data.
type Reporter interface {
	Generate(data Data) error
}

// Target identifies what was analyzed without exposing the raw identifier.
type Target struct {
	Type    string `json:"type"`
	URIHash string `json:"uri_hash"`
}

// ReportConfig records the settings a report was produced with.
type ReportConfig struct {
	Mode         string   `json:"mode"`
	SnapshotFile string   `json:"snapshot_file,omitempty"`
	Types        []string `json:"types,omitempty"`
}

// Data is the input to every Reporter.
type Data struct {
	Tool      string             `json:"tool"`
	Version   string             `json:"version"`
	Timestamp time.Time          `json:"timestamp"`
	Target    Target             `json:"target"`
	Config    ReportConfig       `json:"config"`
	Overview  *analyzer.Overview `json:"overview,omitempty"`
	Reports   []*Report          `json:"reports"`
}

// TotalOrphans counts orphaned resources across all reports.
func (d Data) TotalOrphans() int {
	n := 0
	for _, r := range d.Reports {
		n += len(r.OrphanedResources)
	}
	return n
}

// JSONReporter writes the spectre/v1 JSON envelope, optionally filtered by
// a jq expression.
type JSONReporter struct {
	Writer io.Writer
	Query  string
}

// TextReporter writes human-readable tables.
type TextReporter struct {
	Writer io.Writer
}

// SARIFReporter writes SARIF v2.1.0 with one result per orphaned resource.
type SARIFReporter struct {
	Writer io.Writer
}

// CSVReporter writes one row per orphaned resource.
type CSVReporter struct {
	Writer io.Writer
}

// PDFReporter writes a printable summary.
type PDFReporter struct {
	Writer io.Writer
}

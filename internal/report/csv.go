package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ppiankov/azspectre/internal/recommend"
)

var (
	orphanHeader         = []string{"resource_type", "name", "resource_group", "location", "id"}
	recommendationHeader = []string{"type", "resource", "current_state", "suggestion", "potential_saving", "priority", "impact", "tier"}
)

// Generate writes orphaned resources as CSV.
func (r *CSVReporter) Generate(data Data) error {
	cw := csv.NewWriter(r.Writer)
	if err := cw.Write(orphanHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, rep := range data.Reports {
		for _, o := range rep.OrphanedResources {
			if err := cw.Write([]string{string(rep.ResourceType), o.Name, o.ResourceGroup, o.Location, o.ID}); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecommendationsCSV exports recommendations, one per row.
func WriteRecommendationsCSV(w io.Writer, recs []recommend.Recommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recommendationHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, rec := range recs {
		row := []string{
			string(rec.Type),
			rec.Resource,
			rec.CurrentState,
			rec.Suggestion,
			rec.PotentialSaving,
			string(rec.Priority),
			rec.Impact,
			rec.Tier,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

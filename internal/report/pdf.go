package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

var (
	pdfHeaderFill = [3]int{0, 120, 212}
	pdfTitleColor = [3]int{0, 90, 160}
	pdfBodyColor  = [3]int{40, 40, 40}
)

const (
	pdfPageWidth   = 190.0
	pdfMaxOrphans  = 100
	pdfColumnWidth = pdfPageWidth / 3
)

// Generate writes a PDF with one section per resource type.
func (r *PDFReporter) Generate(data Data) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(pdfTitleColor[0], pdfTitleColor[1], pdfTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+pdfPageWidth, pdf.GetY())
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(pdfBodyColor[0], pdfBodyColor[1], pdfBodyColor[2])
	}

	pdf.AddPage()
	pdf.SetFillColor(pdfHeaderFill[0], pdfHeaderFill[1], pdfHeaderFill[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("  %s orphaned resource report", data.Tool)), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(pdfBodyColor[0], pdfBodyColor[1], pdfBodyColor[2])
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Generated %s, %s mode", data.Timestamp.Format("2006-01-02 15:04"), data.Config.Mode)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if ov := data.Overview; ov != nil {
		section("Overview")
		pdf.MultiCell(pdfPageWidth, 5, tr(fmt.Sprintf("Subscription %s: %d resources, %d orphaned, %d resource types with data.",
			ov.SubscriptionID, ov.TotalResources, ov.TotalOrphaned, ov.TypesWithData)), "", "L", false)
		pdf.Ln(4)
	}

	for _, rep := range data.Reports {
		section(rep.ResourceTypeName)
		if rep.InfoMessage != "" {
			pdf.MultiCell(pdfPageWidth, 5, tr(rep.InfoMessage), "", "L", false)
			pdf.Ln(4)
			continue
		}
		s := rep.Summary
		pdf.MultiCell(pdfPageWidth, 5, tr(fmt.Sprintf("%d resources, %d orphaned (%.1f%%). Risk: %s.",
			s.TotalResources, s.OrphanedCount, s.OrphanedPercentage, rep.RiskAssessment.Level)), "", "L", false)
		for _, rec := range rep.Recommendations {
			pdf.MultiCell(pdfPageWidth, 5, tr(fmt.Sprintf("[%s] %s: %s", rec.Priority, rec.Resource, rec.Suggestion)), "", "L", false)
		}
		pdf.Ln(2)

		if len(rep.OrphanedResources) > 0 {
			pdf.SetFont("Arial", "B", 9)
			for _, h := range []string{"Name", "Resource group", "Location"} {
				pdf.CellFormat(pdfColumnWidth, 6, h, "B", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetFont("Arial", "", 8)
			for i, o := range rep.OrphanedResources {
				if i == pdfMaxOrphans {
					pdf.CellFormat(0, 5, tr(fmt.Sprintf("... %d more", len(rep.OrphanedResources)-pdfMaxOrphans)), "", 1, "L", false, 0, "")
					break
				}
				pdf.CellFormat(pdfColumnWidth, 5, tr(o.Name), "", 0, "L", false, 0, "")
				pdf.CellFormat(pdfColumnWidth, 5, tr(o.ResourceGroup), "", 0, "L", false, 0, "")
				pdf.CellFormat(pdfColumnWidth, 5, tr(o.Location), "", 1, "L", false, 0, "")
			}
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(r.Writer); err != nil {
		return fmt.Errorf("write PDF report: %w", err)
	}
	return nil
}

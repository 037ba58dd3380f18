package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/ppiankov/azspectre/internal/recommend"
)

var (
	headingColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	criticalColor = color.New(color.FgRed, color.Bold).SprintFunc()
	highColor     = color.New(color.FgYellow, color.Bold).SprintFunc()
	okColor       = color.New(color.FgGreen, color.Bold).SprintFunc()
)

func priorityLabel(p recommend.Priority) string {
	switch p {
	case recommend.PriorityCritical:
		return criticalColor(string(p))
	case recommend.PriorityHigh:
		return highColor(string(p))
	default:
		return string(p)
	}
}

func renderTable(w io.Writer, data pterm.TableData) error {
	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Generate writes text output.
func (r *TextReporter) Generate(data Data) error {
	w := r.Writer
	fmt.Fprintf(w, "%s %s  %s\n", headingColor(data.Tool), data.Version, data.Timestamp.Format("2006-01-02 15:04:05 MST"))
	if data.Config.SnapshotFile != "" {
		fmt.Fprintf(w, "Snapshot: %s (%s mode)\n", data.Config.SnapshotFile, data.Config.Mode)
	}
	fmt.Fprintln(w)

	if ov := data.Overview; ov != nil {
		fmt.Fprintln(w, headingColor("Overview"))
		fmt.Fprintf(w, "Subscription %s scanned %s: %d resources, %d orphaned, %d types with data\n",
			ov.SubscriptionID, ov.ScanDate, ov.TotalResources, ov.TotalOrphaned, ov.TypesWithData)
		td := pterm.TableData{{"Type", "Resources", "Orphaned"}}
		for _, t := range ov.Types {
			if !t.HasData {
				continue
			}
			td = append(td, []string{t.Name, strconv.Itoa(t.Count), strconv.Itoa(t.OrphanedCount)})
		}
		if len(td) > 1 {
			if err := renderTable(w, td); err != nil {
				return err
			}
		}
		fmt.Fprintln(w)
	}

	for _, rep := range data.Reports {
		if err := r.writeReport(w, rep); err != nil {
			return err
		}
	}

	if len(data.Reports) == 0 {
		return nil
	}
	if data.TotalOrphans() == 0 {
		fmt.Fprintln(w, okColor("No orphaned resources found"))
		return nil
	}
	fmt.Fprintf(w, "Summary: %d orphaned resources across %d resource types\n", data.TotalOrphans(), len(data.Reports))
	return nil
}

func (r *TextReporter) writeReport(w io.Writer, rep *Report) error {
	fmt.Fprintln(w, headingColor(rep.ResourceTypeName))
	if rep.InfoMessage != "" {
		fmt.Fprintf(w, "%s\n\n", rep.InfoMessage)
		return nil
	}

	s := rep.Summary
	fmt.Fprintf(w, "Total: %d  Orphaned: %d  Active: %d  Orphan rate: %.1f%%  Risk: %s\n",
		s.TotalResources, s.OrphanedCount, s.ActiveCount, s.OrphanedPercentage, rep.RiskAssessment.Level)
	for _, item := range rep.RiskAssessment.Items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
	if b := rep.Benchmarks; b.WorstRG != nil {
		fmt.Fprintf(w, "Worst resource group: %s (%.1f%%)\n", b.WorstRG.Name, b.WorstRG.Rate)
	}

	if len(rep.Recommendations) > 0 {
		td := pterm.TableData{{"Priority", "Resource", "Suggestion", "Potential saving"}}
		for _, rec := range rep.Recommendations {
			td = append(td, []string{priorityLabel(rec.Priority), rec.Resource, rec.Suggestion, rec.PotentialSaving})
		}
		if err := renderTable(w, td); err != nil {
			return err
		}
	}

	if len(rep.OrphanedResources) > 0 {
		td := pterm.TableData{{"Name", "Resource group", "Location"}}
		for _, o := range rep.OrphanedResources {
			td = append(td, []string{o.Name, o.ResourceGroup, o.Location})
		}
		if err := renderTable(w, td); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}

// GenerateAppService writes an App Service analysis as text.
func (r *TextReporter) GenerateAppService(a *AppServiceAnalysis) error {
	w := r.Writer
	fmt.Fprintf(w, "%s (%s, source: %s)\n", headingColor("App Service analysis"), a.Mode, a.DataSource)
	s := a.Summary
	fmt.Fprintf(w, "Plans: %d  Apps: %d  Instances: %d  Avg apps/plan: %.2f\n\n",
		s.TotalPlans, s.TotalApps, s.TotalInstances, s.AvgAppsPerPlan)

	if len(a.DensityMetrics) > 0 {
		td := pterm.TableData{{"Plan", "Tier", "Apps", "Instances", "Density", "Status"}}
		for _, d := range a.DensityMetrics {
			td = append(td, []string{
				d.PlanName, d.Tier, strconv.Itoa(d.Apps), strconv.Itoa(d.Instances),
				strconv.FormatFloat(d.Density, 'f', 2, 64), d.Status,
			})
		}
		if err := renderTable(w, td); err != nil {
			return err
		}
	}

	if len(a.Recommendations) == 0 {
		fmt.Fprintln(w, okColor("No App Service recommendations"))
		return nil
	}
	td := pterm.TableData{{"Priority", "Resource", "Suggestion", "Potential saving"}}
	for _, rec := range a.Recommendations {
		td = append(td, []string{priorityLabel(rec.Priority), rec.Resource, rec.Suggestion, rec.PotentialSaving})
	}
	return renderTable(w, td)
}

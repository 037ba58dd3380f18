package report

import (
	"fmt"

	"github.com/ppiankov/azspectre/internal/analyzer"
	"github.com/ppiankov/azspectre/internal/pricing"
	"github.com/ppiankov/azspectre/internal/recommend"
	"github.com/ppiankov/azspectre/internal/resource"
)

const (
	// MaxResourceDetails caps the raw records echoed in a report.
	MaxResourceDetails = 50

	quickWinThreshold     = 5
	securityRiskThreshold = 5
	nicRiskThreshold      = 10
	hygieneRiskThreshold  = 15
)

// Risk levels.
const (
	RiskNone   = "None"
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Data sources recorded in Meta.
const (
	DataSourceSnapshot = "azure_scan"
	DataSourceTabular  = "tabular"
)

// Meta describes where a report's records came from.
type Meta struct {
	DataSource       string        `json:"data_source,omitempty"`
	ScanFile         string        `json:"scan_file,omitempty"`
	ScanDate         string        `json:"scan_date,omitempty"`
	ResourceType     resource.Type `json:"resource_type"`
	ResourceTypeName string        `json:"resource_type_name"`
}

// RiskAssessment is the qualitative risk of leaving orphans in place.
type RiskAssessment struct {
	Level string   `json:"level"`
	Items []string `json:"items"`
}

// ActionItem is a recommendation reduced to what to do.
type ActionItem struct {
	Title   string `json:"title"`
	Action  string `json:"action"`
	Savings string `json:"savings"`
}

// ActionPriorities buckets action items by urgency.
type ActionPriorities struct {
	Urgent []ActionItem `json:"urgent"`
	High   []ActionItem `json:"high"`
	Low    []ActionItem `json:"low"`
}

// RateRef names a resource group and its orphan rate.
type RateRef struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// Benchmarks compares the overall orphan rate with resource groups.
type Benchmarks struct {
	YourOrphanRate  float64  `json:"your_orphan_rate"`
	AvgRGOrphanRate float64  `json:"avg_rg_orphan_rate"`
	BestRG          *RateRef `json:"best_rg"`
	WorstRG         *RateRef `json:"worst_rg"`
	TotalRGCount    int      `json:"total_rg_count"`
}

// LocationStat is one row of the location table.
type LocationStat struct {
	Location string `json:"Location"`
	Total    int    `json:"Total"`
	Orphaned int    `json:"Orphaned"`
	Active   int    `json:"Active"`
}

// GroupStat is one row of the resource group table.
type GroupStat struct {
	ResourceGroup string `json:"ResourceGroup"`
	Total         int    `json:"Total"`
	Orphaned      int    `json:"Orphaned"`
	Active        int    `json:"Active"`
	OrphanRate    string `json:"OrphanRate"`
}

// OrphanRef identifies one orphaned resource.
type OrphanRef struct {
	Name          string `json:"name"`
	ResourceGroup string `json:"resource_group"`
	Location      string `json:"location"`
	ID            string `json:"id"`
}

// AppServiceSection carries the plan analysis for app_service_plans reports.
type AppServiceSection struct {
	Plans   *analyzer.PlanAnalysis   `json:"plans"`
	Density []analyzer.DensityMetric `json:"density_metrics"`
}

// Report is the full analysis of one resource type.
type Report struct {
	Meta
	Summary            analyzer.Summary           `json:"summary"`
	CostImpact         pricing.CostImpact         `json:"cost_impact"`
	RiskAssessment     RiskAssessment             `json:"risk_assessment"`
	ActionPriorities   ActionPriorities           `json:"action_priorities"`
	Benchmarks         Benchmarks                 `json:"benchmarks"`
	Recommendations    []recommend.Recommendation `json:"recommendations"`
	LocationStats      []LocationStat             `json:"location_stats"`
	ResourceGroupStats []GroupStat                `json:"resource_group_stats"`
	OrphanedResources  []OrphanRef                `json:"orphaned_resources"`
	ResourceDetails    []resource.Record          `json:"resource_details"`
	AppService         *AppServiceSection         `json:"app_service,omitempty"`
	InfoMessage        string                     `json:"info_message,omitempty"`
}

// Builder assembles reports with a recommendation engine.
type Builder struct {
	engine *recommend.Engine
}

// NewBuilder returns a Builder using engine.
func NewBuilder(engine *recommend.Engine) *Builder {
	return &Builder{engine: engine}
}

// Build assembles a report with the default recommendation rules.
func Build(info resource.Info, records []resource.Record, meta Meta) *Report {
	return NewBuilder(recommend.Default()).Build(info, records, meta)
}

func empty(meta Meta) *Report {
	return &Report{
		Meta:       meta,
		CostImpact: pricing.Placeholder(),
		RiskAssessment: RiskAssessment{
			Level: RiskNone,
			Items: []string{},
		},
		ActionPriorities:   ActionPriorities{Urgent: []ActionItem{}, High: []ActionItem{}, Low: []ActionItem{}},
		Recommendations:    []recommend.Recommendation{},
		LocationStats:      []LocationStat{},
		ResourceGroupStats: []GroupStat{},
		OrphanedResources:  []OrphanRef{},
		ResourceDetails:    []resource.Record{},
	}
}

// Build assembles the report for one classified resource type. Empty input
// yields a zeroed report with InfoMessage set.
func (b *Builder) Build(info resource.Info, records []resource.Record, meta Meta) *Report {
	meta.ResourceType = info.Type
	meta.ResourceTypeName = info.Name

	rep := empty(meta)
	if len(records) == 0 {
		rep.InfoMessage = fmt.Sprintf("No %s found in your Azure environment. This is normal if you don't use this resource type.", info.Name)
		return rep
	}

	in := recommend.NewInput(info, records)
	rep.Summary = analyzer.Summarize(records)
	rep.RiskAssessment = assessRisk(info.Type, len(in.Orphans))

	if n := len(in.Orphans); n > quickWinThreshold {
		rep.CostImpact.QuickWins = append(rep.CostImpact.QuickWins, pricing.QuickWin{
			Action:  fmt.Sprintf("Delete %d orphaned %s", n, info.Name),
			Savings: pricing.QuickWinPointer,
		})
	}

	rep.Recommendations = b.engine.Recommend(in)
	rep.ActionPriorities = prioritize(rep.Recommendations)
	rep.Benchmarks = benchmark(rep.Summary, in.ResourceGroups)

	for _, g := range in.Locations.SortByOrphaned() {
		rep.LocationStats = append(rep.LocationStats, LocationStat{
			Location: g.Key,
			Total:    g.Total,
			Orphaned: g.Orphaned,
			Active:   g.Active,
		})
	}
	for _, g := range in.ResourceGroups.SortByOrphanedRate().Top(analyzer.TopResourceGroups) {
		rep.ResourceGroupStats = append(rep.ResourceGroupStats, GroupStat{
			ResourceGroup: g.Key,
			Total:         g.Total,
			Orphaned:      g.Orphaned,
			Active:        g.Active,
			OrphanRate:    fmt.Sprintf("%.1f%%", g.Rate()),
		})
	}
	for _, r := range in.Orphans {
		rep.OrphanedResources = append(rep.OrphanedResources, orphanRef(r))
	}

	details := records
	if len(details) > MaxResourceDetails {
		details = details[:MaxResourceDetails]
	}
	rep.ResourceDetails = append(rep.ResourceDetails, details...)

	if info.Type == resource.TypeAppServicePlans {
		plans := resource.PlansFromRecords(records)
		rep.AppService = &AppServiceSection{
			Plans:   analyzer.AnalyzePlans(plans),
			Density: analyzer.Density(plans),
		}
	}
	return rep
}

func orphanRef(r resource.Record) OrphanRef {
	ref := OrphanRef{Name: r.Name, ResourceGroup: r.ResourceGroup, Location: r.Location, ID: r.ID}
	if ref.Name == "" {
		ref.Name = "Unknown"
	}
	if ref.ResourceGroup == "" {
		ref.ResourceGroup = "Unknown"
	}
	if ref.Location == "" {
		ref.Location = "Unknown"
	}
	return ref
}

// assessRisk grades orphans by type. Network security types escalate first.
func assessRisk(t resource.Type, orphans int) RiskAssessment {
	ra := RiskAssessment{Level: RiskLow, Items: []string{}}
	switch {
	case (t == resource.TypeNetworkSecurityGroups || t == resource.TypeRouteTables) && orphans > securityRiskThreshold:
		ra.Level = RiskHigh
		ra.Items = append(ra.Items, fmt.Sprintf("%d orphaned network security resources could weaken security posture", orphans))
	case t == resource.TypeNetworkInterfaces && orphans > nicRiskThreshold:
		ra.Level = RiskMedium
		ra.Items = append(ra.Items, fmt.Sprintf("%d orphaned NICs suggest incomplete VM cleanup", orphans))
	case orphans > hygieneRiskThreshold:
		ra.Items = append(ra.Items, fmt.Sprintf("%d orphaned resources (no direct cost, hygiene improvement)", orphans))
	}
	return ra
}

func prioritize(recs []recommend.Recommendation) ActionPriorities {
	b := recommend.Bucket(recs)
	return ActionPriorities{
		Urgent: actionItems(b.Urgent),
		High:   actionItems(b.High),
		Low:    actionItems(b.Low),
	}
}

func actionItems(recs []recommend.Recommendation) []ActionItem {
	out := make([]ActionItem, 0, len(recs))
	for _, r := range recs {
		out = append(out, ActionItem{Title: r.Resource, Action: r.Suggestion, Savings: r.PotentialSaving})
	}
	return out
}

func benchmark(sum analyzer.Summary, groups analyzer.Groups) Benchmarks {
	bm := Benchmarks{
		YourOrphanRate: sum.OrphanedPercentage,
		TotalRGCount:   len(groups),
	}
	if avg, ok := analyzer.AverageRate(groups, analyzer.MinGroupSize); ok {
		bm.AvgRGOrphanRate = avg
	} else {
		bm.AvgRGOrphanRate = sum.OrphanedPercentage
	}
	best, worst := analyzer.BestWorst(groups, analyzer.MinGroupSize)
	if best != nil {
		bm.BestRG = &RateRef{Name: best.Key, Rate: best.Rate()}
	}
	if worst != nil {
		bm.WorstRG = &RateRef{Name: worst.Key, Rate: worst.Rate()}
	}
	return bm
}

// FromSnapshot builds the report for one type of a stored snapshot.
func FromSnapshot(snap *resource.Snapshot, file string, info resource.Info) *Report {
	return Build(info, snap.Get(info.Type), Meta{
		DataSource: DataSourceSnapshot,
		ScanFile:   file,
		ScanDate:   snap.Timestamp,
	})
}

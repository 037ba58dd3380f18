package analyzer

import (
	"sort"
	"strings"

	"github.com/ppiankov/azspectre/internal/resource"
)

// PlanSummary totals an App Service plans table.
type PlanSummary struct {
	TotalPlans     int     `json:"total_plans"`
	TotalApps      int     `json:"total_apps"`
	TotalInstances int     `json:"total_instances"`
	AvgAppsPerPlan float64 `json:"avg_apps_per_plan"`
}

// TierStat aggregates plans sharing a SKU and operating system.
type TierStat struct {
	Tier      string `json:"Tier"`
	OS        string `json:"OS"`
	Plans     int    `json:"Plans"`
	Apps      int    `json:"Apps"`
	Instances int    `json:"Instances"`
}

// PlanGroup aggregates plans sharing a location, OS or resource group.
type PlanGroup struct {
	Name      string `json:"name"`
	Plans     int    `json:"plans"`
	Apps      int    `json:"apps"`
	Instances int    `json:"instances"`
}

// PlanAnalysis is the aggregate view of an App Service plans table.
type PlanAnalysis struct {
	Summary            PlanSummary `json:"summary"`
	TierStats          []TierStat  `json:"tier_stats"`
	LocationStats      []PlanGroup `json:"location_stats"`
	OSStats            []PlanGroup `json:"os_stats"`
	ResourceGroupStats []PlanGroup `json:"rg_stats"`
}

// Density bands for apps per instance.
const (
	DensityUnderutilized = "Underutilized"
	DensityLow           = "Low Density"
	DensityGood          = "Good"
	DensityOptimal       = "Optimal"
)

// DensityMetric is the apps-per-instance ratio of one plan.
type DensityMetric struct {
	PlanName  string  `json:"plan_name"`
	Apps      int     `json:"apps"`
	Instances int     `json:"instances"`
	Density   float64 `json:"density"`
	Tier      string  `json:"tier"`
	Status    string  `json:"status"`
	Location  string  `json:"location"`
}

// NamedCount is a key with an app count.
type NamedCount struct {
	Name string `json:"name"`
	Apps int    `json:"apps"`
}

// AppAnalysis is the aggregate view of an App Services table.
type AppAnalysis struct {
	Summary           PlanSummary  `json:"summary"`
	RunningApps       int          `json:"running_apps"`
	StoppedApps       int          `json:"stopped_apps"`
	PlanStats         []NamedCount `json:"plan_stats"`
	LocationStats     []NamedCount `json:"location_stats"`
	TierStats         []NamedCount `json:"tier_stats"`
	SubscriptionStats []NamedCount `json:"subscription_stats"`
}

// AnalyzePlans aggregates a plans table by SKU/OS, location, OS and
// resource group.
func AnalyzePlans(plans []resource.Plan) *PlanAnalysis {
	pa := &PlanAnalysis{
		TierStats:          []TierStat{},
		LocationStats:      []PlanGroup{},
		OSStats:            []PlanGroup{},
		ResourceGroupStats: []PlanGroup{},
	}

	tierIndex := map[[2]string]int{}
	locations := newPlanGrouper()
	oses := newPlanGrouper()
	groups := newPlanGrouper()

	for _, p := range plans {
		t := p.Tier()
		pa.Summary.TotalPlans++
		pa.Summary.TotalApps += p.Apps
		pa.Summary.TotalInstances += t.Instances

		key := [2]string{t.SKU, p.OS}
		i, ok := tierIndex[key]
		if !ok {
			i = len(pa.TierStats)
			tierIndex[key] = i
			pa.TierStats = append(pa.TierStats, TierStat{Tier: t.SKU, OS: p.OS})
		}
		pa.TierStats[i].Plans++
		pa.TierStats[i].Apps += p.Apps
		pa.TierStats[i].Instances += t.Instances

		locations.add(p.Location, p.Apps, t.Instances)
		oses.add(p.OS, p.Apps, t.Instances)
		groups.add(p.ResourceGroup, p.Apps, t.Instances)
	}

	if pa.Summary.TotalPlans > 0 {
		pa.Summary.AvgAppsPerPlan = round(float64(pa.Summary.TotalApps)/float64(pa.Summary.TotalPlans), 2)
	}

	sort.SliceStable(pa.TierStats, func(i, j int) bool {
		a, b := pa.TierStats[i], pa.TierStats[j]
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		return a.OS < b.OS
	})
	pa.LocationStats = locations.sortedByPlans()
	pa.OSStats = oses.groups
	pa.ResourceGroupStats = groups.sortedByPlans()
	return pa
}

type planGrouper struct {
	index  map[string]int
	groups []PlanGroup
}

func newPlanGrouper() *planGrouper {
	return &planGrouper{index: map[string]int{}, groups: []PlanGroup{}}
}

func (g *planGrouper) add(key string, apps, instances int) {
	if key == "" {
		key = unknownKey
	}
	i, ok := g.index[key]
	if !ok {
		i = len(g.groups)
		g.index[key] = i
		g.groups = append(g.groups, PlanGroup{Name: key})
	}
	g.groups[i].Plans++
	g.groups[i].Apps += apps
	g.groups[i].Instances += instances
}

func (g *planGrouper) sortedByPlans() []PlanGroup {
	out := make([]PlanGroup, len(g.groups))
	copy(out, g.groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Plans > out[j].Plans
	})
	return out
}

// Density computes apps per instance for each plan, lowest first.
func Density(plans []resource.Plan) []DensityMetric {
	out := make([]DensityMetric, 0, len(plans))
	for _, p := range plans {
		t := p.Tier()
		d := 0.0
		if t.Instances > 0 {
			d = float64(p.Apps) / float64(t.Instances)
		}
		out = append(out, DensityMetric{
			PlanName:  p.Name,
			Apps:      p.Apps,
			Instances: t.Instances,
			Density:   round(d, 2),
			Tier:      t.Name,
			Status:    densityBand(d),
			Location:  p.Location,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Density < out[j].Density
	})
	return out
}

func densityBand(d float64) string {
	switch {
	case d < 1:
		return DensityUnderutilized
	case d < 2:
		return DensityLow
	case d < 4:
		return DensityGood
	default:
		return DensityOptimal
	}
}

// AnalyzeApps aggregates an App Services table when no plans table exists.
func AnalyzeApps(apps []resource.App) *AppAnalysis {
	aa := &AppAnalysis{}

	uniquePlans := map[string]bool{}
	byPlan := newCounter()
	byLocation := newCounter()
	byTier := newCounter()
	bySubscription := newCounter()

	for _, a := range apps {
		aa.Summary.TotalApps++
		if a.Running() {
			aa.RunningApps++
		} else {
			aa.StoppedApps++
		}
		if a.Plan != "" {
			uniquePlans[strings.ToLower(a.Plan)] = true
		}
		byPlan.add(a.PlanName())
		byLocation.add(a.Location)
		byTier.add(a.PricingTier)
		bySubscription.add(a.Subscription)
	}

	aa.Summary.TotalPlans = len(uniquePlans)
	if aa.Summary.TotalPlans > 0 {
		aa.Summary.AvgAppsPerPlan = round(float64(aa.Summary.TotalApps)/float64(aa.Summary.TotalPlans), 2)
	}
	aa.PlanStats = byPlan.sortedByApps()
	aa.LocationStats = byLocation.counts
	aa.TierStats = byTier.counts
	aa.SubscriptionStats = bySubscription.sortedByApps()
	return aa
}

type counter struct {
	index  map[string]int
	counts []NamedCount
}

func newCounter() *counter {
	return &counter{index: map[string]int{}, counts: []NamedCount{}}
}

func (c *counter) add(key string) {
	if key == "" {
		key = unknownKey
	}
	i, ok := c.index[key]
	if !ok {
		i = len(c.counts)
		c.index[key] = i
		c.counts = append(c.counts, NamedCount{Name: key})
	}
	c.counts[i].Apps++
}

func (c *counter) sortedByApps() []NamedCount {
	out := make([]NamedCount, len(c.counts))
	copy(out, c.counts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Apps > out[j].Apps
	})
	return out
}

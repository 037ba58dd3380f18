package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/azspectre/internal/pricing"
	"github.com/ppiankov/azspectre/internal/resource"
)

const (
	oversizedMinInstances   = 5
	oversizedMaxApps        = 2
	premiumMaxApps          = 2
	premiumMaxInstances     = 2
	basicConsolidationCount = 3
	singleAppPlanCount      = 5
	highDensityApps         = 10
	limitedAnalysisMinimum  = 3
	tierAll                 = "All"
)

// tierContains matches tier names ignoring case and spaces, so "PremiumV3"
// and "Premium V3" are the same tier.
func tierContains(tierName, want string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, " ", ""))
	}
	return strings.Contains(norm(tierName), norm(want))
}

// PlanRecommendations evaluates App Service plans for right-sizing and
// consolidation. The result is never nil.
func PlanRecommendations(plans []resource.Plan) []Recommendation {
	recs := []Recommendation{}

	for _, p := range plans {
		t := p.Tier()
		if t.Instances >= oversizedMinInstances && p.Apps <= oversizedMaxApps {
			recs = append(recs, Recommendation{
				Type:            KindOversizedPlans,
				Resource:        p.Name,
				CurrentState:    fmt.Sprintf("%d instances, %d app(s)", t.Instances, p.Apps),
				Suggestion:      "Reduce the instance count or move more apps onto this plan",
				PotentialSaving: pricing.SavingHigh,
				Priority:        PriorityHigh,
				Impact:          "Right-sizing",
				Tier:            t.Name,
			})
		}
	}

	for _, p := range plans {
		t := p.Tier()
		if tierContains(t.Name, "Premium V3") && p.Apps <= premiumMaxApps && t.Instances <= premiumMaxInstances {
			recs = append(recs, Recommendation{
				Type:            KindPremiumUnderutilized,
				Resource:        p.Name,
				CurrentState:    fmt.Sprintf("Premium V3 with %d app(s)", p.Apps),
				Suggestion:      "Merge Premium plans together or move the apps to the Standard tier",
				PotentialSaving: pricing.SavingMedium,
				Priority:        PriorityMedium,
				Impact:          "Consolidation",
				Tier:            t.Name,
			})
		}
	}

	basic := 0
	standard := 0
	singlePremium := 0
	single := 0
	for _, p := range plans {
		name := p.Tier().Name
		if tierContains(name, "Basic") {
			basic++
		}
		if tierContains(name, "Standard") {
			standard++
		}
		if p.Apps == 1 {
			single++
			if tierContains(name, "Premium") {
				singlePremium++
			}
		}
	}

	if basic > basicConsolidationCount {
		recs = append(recs, Recommendation{
			Type:            KindBasicConsolidation,
			Resource:        fmt.Sprintf("%d Basic tier plans", basic),
			CurrentState:    fmt.Sprintf("%d separate Basic plans", basic),
			Suggestion:      "Host the Basic tier apps on fewer plans",
			PotentialSaving: pricing.SavingMedium,
			Priority:        PriorityMedium,
			Impact:          "Consolidation",
			Tier:            "Basic",
		})
	}

	if locs := planLocations(plans); len(locs) > 1 {
		shown := locs
		if len(shown) > 3 {
			shown = shown[:3]
		}
		parts := make([]string, 0, len(shown))
		for _, l := range shown {
			parts = append(parts, fmt.Sprintf("%s: %d", l.name, l.count))
		}
		recs = append(recs, Recommendation{
			Type:            KindMixedLocations,
			Resource:        fmt.Sprintf("%d different regions", len(locs)),
			CurrentState:    strings.Join(parts, ", "),
			Suggestion:      "Review cross-region data transfer and consolidate where possible",
			PotentialSaving: pricing.SavingLow,
			Priority:        PriorityLow,
			Impact:          "Architecture",
			Tier:            tierAll,
		})
	}

	if standard > 0 {
		recs = append(recs, Recommendation{
			Type:            KindStandardUpgrade,
			Resource:        fmt.Sprintf("%d Standard plan(s)", standard),
			CurrentState:    "Using Standard tier",
			Suggestion:      "Compare with Premium V3 reserved instances, which are often cheaper for steady workloads",
			PotentialSaving: pricing.CostManagementPointer,
			Priority:        PriorityMedium,
			Impact:          "Optimization",
			Tier:            "Standard",
		})
	}

	if single > singleAppPlanCount && singlePremium > 0 {
		recs = append(recs, Recommendation{
			Type:            KindSingleAppConsolidation,
			Resource:        fmt.Sprintf("%d Premium plans with single apps", singlePremium),
			CurrentState:    "One app per plan",
			Suggestion:      "Move compatible apps onto shared Premium plans",
			PotentialSaving: pricing.SavingHigh,
			Priority:        PriorityHigh,
			Impact:          "Consolidation",
			Tier:            "Premium V3",
		})
	}

	return recs
}

type locationCount struct {
	name  string
	count int
}

// planLocations counts plans per location, most populated first.
func planLocations(plans []resource.Plan) []locationCount {
	index := map[string]int{}
	var out []locationCount
	for _, p := range plans {
		i, ok := index[p.Location]
		if !ok {
			i = len(out)
			index[p.Location] = i
			out = append(out, locationCount{name: p.Location})
		}
		out[i].count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

// appsByPlan counts apps per plan name in first-seen order.
func appsByPlan(apps []resource.App) ([]string, map[string]int) {
	var order []string
	counts := map[string]int{}
	for _, a := range apps {
		name := a.PlanName()
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}
	return order, counts
}

func highDensity(apps []resource.App, state string) []Recommendation {
	order, counts := appsByPlan(apps)
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	var recs []Recommendation
	for _, name := range order {
		if counts[name] <= highDensityApps {
			continue
		}
		recs = append(recs, Recommendation{
			Type:            KindHighAppDensity,
			Resource:        name,
			CurrentState:    fmt.Sprintf(state, counts[name]),
			Suggestion:      "Split the apps across several plans for isolation and independent scaling",
			PotentialSaving: pricing.SavingLow,
			Priority:        PriorityLow,
			Impact:          "Performance",
			Tier:            tierAll,
		})
	}
	return recs
}

// AppRecommendations evaluates an App Services table when no plans table is
// available. A limited_analysis note is appended when fewer than three
// findings exist. The result is never nil.
func AppRecommendations(apps []resource.App) []Recommendation {
	recs := []Recommendation{}

	for _, a := range apps {
		if a.Running() {
			continue
		}
		status := a.Status
		if status == "" {
			status = "Unknown"
		}
		tierName := a.PricingTier
		if tierName == "" {
			tierName = "Unknown"
		}
		recs = append(recs, Recommendation{
			Type:            KindStoppedApps,
			Resource:        a.Name,
			CurrentState:    "Status: " + status,
			Suggestion:      "Remove stopped apps that are no longer needed",
			PotentialSaving: pricing.SavingLow,
			Priority:        PriorityLow,
			Impact:          "Cost waste",
			Tier:            tierName,
		})
	}

	recs = append(recs, highDensity(apps, "%d apps on this plan")...)

	if len(recs) < limitedAnalysisMinimum {
		recs = append(recs, Recommendation{
			Type:            KindLimitedAnalysis,
			Resource:        "Analysis Scope",
			CurrentState:    "Analyzing apps data only",
			Suggestion:      "Provide the App Service Plans export for a complete analysis",
			PotentialSaving: pricing.SavingNA,
			Priority:        PriorityLow,
			Impact:          "Information",
			Tier:            tierAll,
		})
	}
	return recs
}

func stoppedOrDisabled(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "stop") || strings.Contains(s, "disabled")
}

// CombinedRecommendations cross-references apps with the plans they run on.
// Apps are matched to plans by plan name. The result is never nil.
func CombinedRecommendations(plans []resource.Plan, apps []resource.App) []Recommendation {
	recs := []Recommendation{}
	order, totals := appsByPlan(apps)

	stopped := map[string]int{}
	for _, a := range apps {
		if stoppedOrDisabled(a.Status) {
			stopped[a.PlanName()]++
		}
	}
	for _, name := range order {
		n := stopped[name]
		if n == 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Type:            KindStoppedApps,
			Resource:        fmt.Sprintf("%s (%d stopped apps)", name, n),
			CurrentState:    fmt.Sprintf("%d of %d apps are stopped", n, totals[name]),
			Suggestion:      "Remove stopped apps that are no longer needed to shrink the plan",
			PotentialSaving: pricing.SavingMedium,
			Priority:        PriorityMedium,
			Impact:          "Cost waste",
			Tier:            tierAll,
		})
	}

	recs = append(recs, highDensity(apps, "%d apps on single plan")...)

	known := map[string]bool{}
	for _, p := range plans {
		known[p.Name] = true
	}
	var missing []string
	for _, name := range order {
		if !known[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		shown := strings.Join(missing[:min(len(missing), 3)], ", ")
		if len(missing) > 3 {
			shown += "..."
		}
		recs = append(recs, Recommendation{
			Type:            KindOrphanedApps,
			Resource:        fmt.Sprintf("%d plan(s) with apps but not in plans export", len(missing)),
			CurrentState:    "Apps reference plans: " + shown,
			Suggestion:      "Re-export the plans table; these apps may sit on deleted plans",
			PotentialSaving: pricing.SavingNA,
			Priority:        PriorityLow,
			Impact:          "Data quality",
			Tier:            tierAll,
		})
	}

	seen := map[string]bool{}
	for _, p := range plans {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true

		var regions []string
		regionSeen := map[string]bool{}
		for _, a := range apps {
			if a.PlanName() != p.Name || regionSeen[a.Location] {
				continue
			}
			regionSeen[a.Location] = true
			regions = append(regions, a.Location)
		}
		if len(regions) == 0 {
			continue
		}
		if len(regions) > 1 || regions[0] != p.Location {
			recs = append(recs, Recommendation{
				Type:            KindRegionMismatch,
				Resource:        p.Name,
				CurrentState:    fmt.Sprintf("Plan in %s, apps in %s", p.Location, strings.Join(regions, ", ")),
				Suggestion:      "Apps run in their plan's region; check the export for inconsistencies",
				PotentialSaving: pricing.SavingNA,
				Priority:        PriorityLow,
				Impact:          "Data quality",
				Tier:            tierAll,
			})
		}
	}

	return recs
}

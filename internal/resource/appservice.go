package resource

import (
	"strings"

	"github.com/ppiankov/azspectre/internal/tier"
)

// Plan is one row of the App Service plans table.
type Plan struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	ResourceGroup string `json:"resource_group"`
	Location      string `json:"location"`
	PricingTier   string `json:"pricing_tier"`
	OS            string `json:"os"`
	Apps          int    `json:"apps"`
	Status        string `json:"status"`
}

// Tier parses the plan's pricing tier string.
func (p Plan) Tier() tier.Tier {
	return tier.Parse(p.PricingTier)
}

// App is one row of the App Services table. Plan holds the full resource
// path of the hosting App Service plan.
type App struct {
	Name         string `json:"name"`
	Plan         string `json:"app_service_plan"`
	Status       string `json:"status"`
	Location     string `json:"location"`
	Subscription string `json:"subscription"`
	PricingTier  string `json:"pricing_tier"`
}

// PlanName returns the final path segment of the hosting plan reference.
func (a App) PlanName() string {
	if i := strings.LastIndex(a.Plan, "/"); i >= 0 {
		return a.Plan[i+1:]
	}
	return a.Plan
}

// Running reports whether the app status mentions "Running".
func (a App) Running() bool {
	return strings.Contains(strings.ToLower(a.Status), "running")
}

// OSFromKind infers the plan operating system from its kind string.
func OSFromKind(kind string) string {
	if strings.Contains(strings.ToLower(kind), "linux") {
		return "Linux"
	}
	return "Windows"
}

// CountAppsByPlan returns copies of plans with NumApps set to the number of
// apps whose plan reference matches the plan id, ignoring case.
func CountAppsByPlan(plans []Record, apps []App) []Record {
	counts := make(map[string]int, len(plans))
	for _, a := range apps {
		if a.Plan == "" {
			continue
		}
		counts[strings.ToLower(a.Plan)]++
	}

	out := make([]Record, len(plans))
	for i, p := range plans {
		n := counts[strings.ToLower(p.ID)]
		p.NumApps = &n
		out[i] = p
	}
	return out
}

// CountLogicAppsByGroup returns copies of API connection records with
// LogicAppsInGroup set from the resource groups that host Logic App
// workflows. Group names compare case-insensitively.
func CountLogicAppsByGroup(conns []Record, workflowGroups []string) []Record {
	counts := make(map[string]int, len(workflowGroups))
	for _, g := range workflowGroups {
		counts[strings.ToLower(g)]++
	}

	out := make([]Record, len(conns))
	for i, c := range conns {
		n := counts[strings.ToLower(c.ResourceGroup)]
		c.LogicAppsInGroup = &n
		out[i] = c
	}
	return out
}

// PlansFromRecords renders App Service plan records as plan table rows so
// snapshot data and tabular exports share one analysis path.
func PlansFromRecords(records []Record) []Plan {
	plans := make([]Plan, 0, len(records))
	for _, r := range records {
		capacity := 1
		if r.SKUCapacity != nil {
			capacity = *r.SKUCapacity
		}
		apps := 0
		if r.NumApps != nil {
			apps = *r.NumApps
		}
		plans = append(plans, Plan{
			ID:            r.ID,
			Name:          r.Name,
			ResourceGroup: r.ResourceGroup,
			Location:      r.Location,
			PricingTier:   tier.Format(r.SKUName, r.SKUTier, r.SKUSize, capacity),
			OS:            OSFromKind(r.Kind),
			Apps:          apps,
			Status:        "Running",
		})
	}
	return plans
}

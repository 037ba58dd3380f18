// Package pricing classifies resource types by cost exposure and holds the
// only savings wording the tool is allowed to emit. No currency figure is
// ever computed here; actual costs live in Azure Cost Management.
package pricing

import "github.com/ppiankov/azspectre/internal/resource"

// Class is the cost exposure of a resource type.
type Class int

const (
	// ClassStandard covers types that are free or cheap when idle.
	ClassStandard Class = iota
	// ClassCostBearing covers types billed while provisioned.
	ClassCostBearing
	// ClassCritical covers expensive or security-sensitive types.
	ClassCritical
)

func (c Class) String() string {
	switch c {
	case ClassCritical:
		return "critical"
	case ClassCostBearing:
		return "cost-bearing"
	default:
		return "standard"
	}
}

var classes = map[resource.Type]Class{
	resource.TypeDDoSProtectionPlans:    ClassCritical,
	resource.TypeVirtualNetworkGateways: ClassCritical,
	resource.TypeApplicationGateways:    ClassCritical,
	resource.TypeDisks:                  ClassCostBearing,
	resource.TypePublicIPs:              ClassCostBearing,
	resource.TypeLoadBalancers:          ClassCostBearing,
	resource.TypeNATGateways:            ClassCostBearing,
}

// ClassOf returns the cost class of t.
func ClassOf(t resource.Type) Class {
	return classes[t]
}

// Savings wording. potential_saving values must be one of these.
const (
	SavingHigh   = "High"
	SavingMedium = "Medium"
	SavingLow    = "Low"
	SavingNA     = "N/A"

	// CostManagementPointer refers readers to the external cost system.
	CostManagementPointer = "Integrate Azure Cost Management for actual cost data"
	// QuickWinPointer labels quick wins whose value is unknown.
	QuickWinPointer = "Cost data requires Azure Cost Management integration"
)

// ValidSaving reports whether s is an allowed potential_saving value.
func ValidSaving(s string) bool {
	switch s {
	case SavingHigh, SavingMedium, SavingLow, SavingNA, CostManagementPointer, QuickWinPointer:
		return true
	}
	return false
}

// CostImpact is the cost section of a report. Monetary fields stay zero:
// they are placeholders until a cost source is integrated.
type CostImpact struct {
	MonthlyWaste  float64    `json:"monthly_waste"`
	AnnualSavings float64    `json:"annual_savings"`
	QuickWins     []QuickWin `json:"quick_wins"`
}

// QuickWin is a bulk cleanup action with unknown value.
type QuickWin struct {
	Action  string `json:"action"`
	Savings string `json:"savings"`
}

// Placeholder returns a CostImpact with zeroed figures and no quick wins.
func Placeholder() CostImpact {
	return CostImpact{QuickWins: []QuickWin{}}
}

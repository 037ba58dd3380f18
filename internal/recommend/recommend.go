// Package recommend turns classified resources and their aggregates into
// prioritized cleanup suggestions.
package recommend

import (
	"fmt"

	"github.com/ppiankov/azspectre/internal/analyzer"
	"github.com/ppiankov/azspectre/internal/resource"
)

// Priority ranks a recommendation.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Kind tags the rule that produced a recommendation.
type Kind string

const (
	KindOrphanedCleanup        Kind = "orphaned_cleanup"
	KindSQLOptimization        Kind = "sql_optimization"
	KindSQLConsolidation       Kind = "sql_consolidation"
	KindVMCleanup              Kind = "vm_cleanup"
	KindVMAutoShutdown         Kind = "vm_autoshutdown"
	KindPremiumDiskCleanup     Kind = "premium_disk_cleanup"
	KindDiskSnapshotStrategy   Kind = "disk_snapshot_strategy"
	KindStaticIPCleanup        Kind = "static_ip_cleanup"
	KindIPAllocationReview     Kind = "ip_allocation_review"
	KindNATGatewayCleanup      Kind = "nat_gateway_cleanup"
	KindDDoSConsolidation      Kind = "ddos_consolidation"
	KindVNetGatewayCleanup     Kind = "vnet_gateway_cleanup"
	KindNICCleanup             Kind = "nic_cleanup_investigation"
	KindNSGSecurityReview      Kind = "nsg_security_review"
	KindLoadBalancerCleanup    Kind = "load_balancer_cleanup"
	KindRGCleanupFocus         Kind = "rg_cleanup_focus"
	KindRegionConsolidation    Kind = "region_consolidation"
	KindOversizedPlans         Kind = "oversized_plans"
	KindPremiumUnderutilized   Kind = "premium_underutilized"
	KindBasicConsolidation     Kind = "basic_consolidation"
	KindMixedLocations         Kind = "mixed_locations"
	KindStandardUpgrade        Kind = "standard_upgrade"
	KindSingleAppConsolidation Kind = "single_app_consolidation"
	KindStoppedApps            Kind = "stopped_apps"
	KindHighAppDensity         Kind = "high_app_density"
	KindOrphanedApps           Kind = "orphaned_apps"
	KindRegionMismatch         Kind = "region_mismatch"
	KindLimitedAnalysis        Kind = "limited_analysis"
)

// Recommendation is one remediation suggestion.
type Recommendation struct {
	Type            Kind     `json:"type"`
	Resource        string   `json:"resource"`
	CurrentState    string   `json:"current_state"`
	Suggestion      string   `json:"suggestion"`
	PotentialSaving string   `json:"potential_saving"`
	Priority        Priority `json:"priority"`
	Impact          string   `json:"impact"`
	Tier            string   `json:"tier,omitempty"`
}

// Input is everything a rule may inspect for one resource type.
type Input struct {
	Info           resource.Info
	Records        []resource.Record
	Orphans        []resource.Record
	Locations      analyzer.Groups
	ResourceGroups analyzer.Groups
	WorstGroup     *analyzer.Group
}

// NewInput derives orphans and groupings from classified records.
func NewInput(info resource.Info, records []resource.Record) Input {
	rgs := analyzer.GroupBy(records, analyzer.ByResourceGroup)
	_, worst := analyzer.BestWorst(rgs, analyzer.MinGroupSize)
	return Input{
		Info:           info,
		Records:        records,
		Orphans:        resource.Orphans(records),
		Locations:      analyzer.GroupBy(records, analyzer.ByLocation),
		ResourceGroups: rgs,
		WorstGroup:     worst,
	}
}

// Rule produces zero or more recommendations for an input.
type Rule interface {
	Name() string
	Evaluate(in Input) []Recommendation
}

// rule is a Rule optionally scoped to a set of resource types.
type rule struct {
	name  string
	types []resource.Type
	fn    func(Input) []Recommendation
}

func (r rule) Name() string { return r.name }

func (r rule) Evaluate(in Input) []Recommendation {
	if len(r.types) > 0 && !containsType(r.types, in.Info.Type) {
		return nil
	}
	return r.fn(in)
}

func containsType(types []resource.Type, t resource.Type) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// Engine evaluates registered rules in order.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with no rules.
func NewEngine() *Engine {
	return &Engine{rules: make([]Rule, 0)}
}

// Register appends a rule. It panics on a duplicate rule name.
func (e *Engine) Register(r Rule) {
	for _, existing := range e.rules {
		if existing.Name() == r.Name() {
			panic(fmt.Sprintf("recommend: rule %q already registered", r.Name()))
		}
	}
	e.rules = append(e.rules, r)
}

// Recommend runs every rule against in. The result is never nil.
func (e *Engine) Recommend(in Input) []Recommendation {
	out := []Recommendation{}
	for _, r := range e.rules {
		out = append(out, r.Evaluate(in)...)
	}
	return out
}

// Default returns an engine loaded with the universal, per-type and
// cross-cutting rules, in that order.
func Default() *Engine {
	e := NewEngine()
	e.Register(rule{name: "orphaned_cleanup", fn: orphanedCleanup})
	for _, r := range typeRules() {
		e.Register(r)
	}
	e.Register(rule{name: "app_service_plans", types: []resource.Type{resource.TypeAppServicePlans}, fn: func(in Input) []Recommendation {
		return PlanRecommendations(resource.PlansFromRecords(in.Records))
	}})
	e.Register(rule{name: "rg_cleanup_focus", fn: rgCleanupFocus})
	e.Register(rule{name: "region_consolidation", fn: regionConsolidation})
	return e
}

// Buckets groups recommendations for action planning.
type Buckets struct {
	Urgent []Recommendation `json:"urgent"`
	High   []Recommendation `json:"high"`
	Low    []Recommendation `json:"low"`
}

// Bucket sorts recommendations into urgent (Critical), high (High) and low
// (everything else).
func Bucket(recs []Recommendation) Buckets {
	b := Buckets{Urgent: []Recommendation{}, High: []Recommendation{}, Low: []Recommendation{}}
	for _, r := range recs {
		switch r.Priority {
		case PriorityCritical:
			b.Urgent = append(b.Urgent, r)
		case PriorityHigh:
			b.High = append(b.High, r)
		default:
			b.Low = append(b.Low, r)
		}
	}
	return b
}

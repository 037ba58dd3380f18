package recommend

import (
	"fmt"
	"strings"

	"github.com/ppiankov/azspectre/internal/pricing"
	"github.com/ppiankov/azspectre/internal/resource"
)

const (
	rgFocusThreshold       = 40.0
	regionSpreadLocations  = 3
	regionSpreadResources  = 15
	cleanupBatchSize       = 10
	manyOrphansThreshold   = 10
	someOrphansThreshold   = 5
	sqlLocationDensity     = 5
	vmAutoShutdownMinimum  = 5
	diskSnapshotThreshold  = 3
	ipReviewThreshold      = 10
	nicHygieneThreshold    = 10
	nsgReviewThreshold     = 5
	ddosConsolidationCount = 1
)

// cleanupPriority escalates by cost class, then by orphan count.
func cleanupPriority(t resource.Type, orphans int) Priority {
	switch {
	case pricing.ClassOf(t) == pricing.ClassCritical:
		return PriorityCritical
	case pricing.ClassOf(t) == pricing.ClassCostBearing:
		return PriorityHigh
	case orphans > manyOrphansThreshold:
		return PriorityHigh
	case orphans > someOrphansThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func orphanedCleanup(in Input) []Recommendation {
	n := len(in.Orphans)
	if n == 0 {
		return nil
	}
	return []Recommendation{{
		Type:            KindOrphanedCleanup,
		Resource:        fmt.Sprintf("%d orphaned %s", n, in.Info.Name),
		CurrentState:    fmt.Sprintf("%d unused resources detected", n),
		Suggestion:      fmt.Sprintf("Review and delete orphaned resources. Start with %d resources", min(n, cleanupBatchSize)),
		PotentialSaving: pricing.CostManagementPointer,
		Priority:        cleanupPriority(in.Info.Type, n),
		Impact:          "Cost reduction opportunity",
	}}
}

func typeRules() []Rule {
	return []Rule{
		rule{name: "sql", types: []resource.Type{resource.TypeSQLServers}, fn: sqlRules},
		rule{name: "virtual_machines", types: []resource.Type{resource.TypeVirtualMachines}, fn: vmRules},
		rule{name: "disks", types: []resource.Type{resource.TypeDisks}, fn: diskRules},
		rule{name: "public_ips", types: []resource.Type{resource.TypePublicIPs}, fn: publicIPRules},
		rule{name: "nat_gateways", types: []resource.Type{resource.TypeNATGateways}, fn: natGatewayRules},
		rule{name: "ddos_protection_plans", types: []resource.Type{resource.TypeDDoSProtectionPlans}, fn: ddosRules},
		rule{name: "virtual_network_gateways", types: []resource.Type{resource.TypeVirtualNetworkGateways}, fn: vnetGatewayRules},
		rule{name: "network_interfaces", types: []resource.Type{resource.TypeNetworkInterfaces}, fn: nicRules},
		rule{name: "network_security_groups", types: []resource.Type{resource.TypeNetworkSecurityGroups}, fn: nsgRules},
		rule{name: "load_balancers", types: []resource.Type{resource.TypeLoadBalancers}, fn: loadBalancerRules},
	}
}

func sqlRules(in Input) []Recommendation {
	var recs []Recommendation

	pools := 0
	for _, r := range in.Records {
		name := strings.ToLower(r.Name)
		if strings.Contains(name, "elastic") || strings.Contains(name, "pool") {
			pools++
		}
	}
	if pools > 0 {
		recs = append(recs, Recommendation{
			Type:            KindSQLOptimization,
			Resource:        fmt.Sprintf("%d SQL Elastic Pools", pools),
			CurrentState:    "Elastic pools detected",
			Suggestion:      "Review 30 days of DTU/vCore usage in Azure Monitor and downgrade pools that stay under 50% utilization",
			PotentialSaving: pricing.CostManagementPointer,
			Priority:        PriorityHigh,
			Impact:          "Same performance at a lower tier",
		})
	}

	var dense []string
	for _, g := range in.Locations {
		if g.Total > sqlLocationDensity {
			dense = append(dense, g.Key)
		}
	}
	if len(dense) > 0 {
		shown := dense
		if len(shown) > 2 {
			shown = shown[:2]
		}
		recs = append(recs, Recommendation{
			Type:            KindSQLConsolidation,
			Resource:        fmt.Sprintf("Multiple SQL servers in %d locations", len(dense)),
			CurrentState:    "High database count in " + strings.Join(shown, ", "),
			Suggestion:      "Move databases that share a region into elastic pools",
			PotentialSaving: pricing.CostManagementPointer,
			Priority:        PriorityMedium,
			Impact:          "Better utilization across many databases",
		})
	}
	return recs
}

func vmRules(in Input) []Recommendation {
	var recs []Recommendation

	stopped := 0
	for _, r := range in.Records {
		if r.Stopped() {
			stopped++
		}
	}
	if stopped > 0 {
		recs = append(recs, Recommendation{
			Type:            KindVMCleanup,
			Resource:        fmt.Sprintf("%d Stopped/Deallocated VMs", stopped),
			CurrentState:    "VMs are stopped but their disks are still billed",
			Suggestion:      "Delete VMs unused for 30+ days after snapshotting any disks needed for recovery",
			PotentialSaving: pricing.CostManagementPointer,
			Priority:        PriorityHigh,
			Impact:          "Removes idle compute and storage",
		})
	}

	if len(in.Records) > vmAutoShutdownMinimum {
		recs = append(recs, Recommendation{
			Type:            KindVMAutoShutdown,
			Resource:        fmt.Sprintf("%d Virtual Machines", len(in.Records)),
			CurrentState:    "No auto-shutdown policy evaluated",
			Suggestion:      "Schedule auto-shutdown for dev/test VMs outside working hours and on weekends",
			PotentialSaving: pricing.SavingMedium,
			Priority:        PriorityMedium,
			Impact:          "Automated cost control",
		})
	}
	return recs
}

func diskRules(in Input) []Recommendation {
	var recs []Recommendation

	premium := 0
	for _, r := range in.Orphans {
		if strings.Contains(strings.ToLower(r.SKU), "premium") {
			premium++
		}
	}
	if premium > 0 {
		recs = append(recs, Recommendation{
			Type:            KindPremiumDiskCleanup,
			Resource:        fmt.Sprintf("%d Unattached Premium Disks", premium),
			CurrentState:    "Premium SSD disks are not attached to any VM",
			Suggestion:      "Snapshot the disks if the data matters, then delete them",
			PotentialSaving: pricing.CostManagementPointer,
			Priority:        PriorityCritical,
			Impact:          "Storage cost reduction",
		})
	}

	if len(in.Orphans) > diskSnapshotThreshold {
		recs = append(recs, Recommendation{
			Type:            KindDiskSnapshotStrategy,
			Resource:        fmt.Sprintf("%d Unattached Disks", len(in.Orphans)),
			CurrentState:    "Multiple unattached disks detected",
			Suggestion:      "Keep incremental snapshots instead of whole disks when the data only needs to be retained",
			PotentialSaving: pricing.SavingMedium,
			Priority:        PriorityMedium,
			Impact:          "Data retained at lower storage footprint",
		})
	}
	return recs
}

func publicIPRules(in Input) []Recommendation {
	var recs []Recommendation

	static := 0
	for _, r := range in.Orphans {
		if r.AllocationMethod == "Static" || r.SKU == "Standard" {
			static++
		}
	}
	if static > 0 {
		recs = append(recs, Recommendation{
			Type:            KindStaticIPCleanup,
			Resource:        fmt.Sprintf("%d Orphaned Static Public IPs", static),
			CurrentState:    "Reserved IPs are not associated with any resource",
			Suggestion:      "Release the static IPs and allocate new ones when a workload needs them",
			PotentialSaving: pricing.CostManagementPointer,
			Priority:        PriorityHigh,
			Impact:          "No effect on active resources",
		})
	}

	if len(in.Records) > ipReviewThreshold {
		recs = append(recs, Recommendation{
			Type:            KindIPAllocationReview,
			Resource:        fmt.Sprintf("%d Public IP Addresses", len(in.Records)),
			CurrentState:    "Large static/dynamic allocation footprint",
			Suggestion:      "Check which IPs really need static allocation and use dynamic ones for dev/test",
			PotentialSaving: pricing.SavingLow,
			Priority:        PriorityLow,
			Impact:          "Ongoing cost optimization",
		})
	}
	return recs
}

func natGatewayRules(in Input) []Recommendation {
	if len(in.Orphans) == 0 {
		return nil
	}
	return []Recommendation{{
		Type:            KindNATGatewayCleanup,
		Resource:        fmt.Sprintf("%d Orphaned NAT Gateways", len(in.Orphans)),
		CurrentState:    "NAT gateways have no subnet associations",
		Suggestion:      "Delete the gateways once no planned workload needs them",
		PotentialSaving: pricing.CostManagementPointer,
		Priority:        PriorityHigh,
		Impact:          "Cost reduction opportunity",
	}}
}

func ddosRules(in Input) []Recommendation {
	if len(in.Orphans) == 0 && len(in.Records) <= ddosConsolidationCount {
		return nil
	}
	return []Recommendation{{
		Type:            KindDDoSConsolidation,
		Resource:        fmt.Sprintf("%d DDoS Protection Plans", len(in.Records)),
		CurrentState:    "DDoS Network Protection plans are high-cost resources",
		Suggestion:      "Keep one plan per tenant or region and confirm the workloads need more than the default infrastructure protection",
		PotentialSaving: pricing.CostManagementPointer,
		Priority:        PriorityCritical,
		Impact:          "Major cost reduction opportunity",
	}}
}

func vnetGatewayRules(in Input) []Recommendation {
	if len(in.Orphans) == 0 {
		return nil
	}
	return []Recommendation{{
		Type:            KindVNetGatewayCleanup,
		Resource:        fmt.Sprintf("%d Orphaned VNet Gateways", len(in.Orphans)),
		CurrentState:    "VPN/ExpressRoute gateways have no connections or point-to-site clients",
		Suggestion:      "Delete the gateways; they can be recreated when a tunnel is needed",
		PotentialSaving: pricing.CostManagementPointer,
		Priority:        PriorityCritical,
		Impact:          "High-cost infrastructure cleanup",
	}}
}

func nicRules(in Input) []Recommendation {
	if len(in.Orphans) <= nicHygieneThreshold {
		return nil
	}
	return []Recommendation{{
		Type:            KindNICCleanup,
		Resource:        fmt.Sprintf("%d Orphaned Network Interfaces", len(in.Orphans)),
		CurrentState:    "Many detached NICs point to incomplete VM cleanup",
		Suggestion:      "Trace the deleted parent VMs and remove what they left behind",
		PotentialSaving: pricing.SavingNA,
		Priority:        PriorityMedium,
		Impact:          "Environment hygiene and inventory accuracy",
	}}
}

func nsgRules(in Input) []Recommendation {
	if len(in.Orphans) <= nsgReviewThreshold {
		return nil
	}
	return []Recommendation{{
		Type:            KindNSGSecurityReview,
		Resource:        fmt.Sprintf("%d Orphaned Network Security Groups", len(in.Orphans)),
		CurrentState:    "Unattached NSGs add security review overhead",
		Suggestion:      "Document and delete NSGs that protect no subnet or NIC",
		PotentialSaving: pricing.SavingNA,
		Priority:        PriorityHigh,
		Impact:          "Security hygiene and compliance",
	}}
}

func loadBalancerRules(in Input) []Recommendation {
	if len(in.Orphans) == 0 {
		return nil
	}
	return []Recommendation{{
		Type:            KindLoadBalancerCleanup,
		Resource:        fmt.Sprintf("%d Orphaned Load Balancers", len(in.Orphans)),
		CurrentState:    "Load balancers have no backend pools or inbound NAT rules",
		Suggestion:      "Delete the unused load balancers; Standard SKU is billed while provisioned",
		PotentialSaving: pricing.CostManagementPointer,
		Priority:        PriorityHigh,
		Impact:          "Cost reduction and a simpler network",
	}}
}

func rgCleanupFocus(in Input) []Recommendation {
	w := in.WorstGroup
	if w == nil || w.Rate() <= rgFocusThreshold {
		return nil
	}
	return []Recommendation{{
		Type:            KindRGCleanupFocus,
		Resource:        "Resource Group: " + w.Key,
		CurrentState:    fmt.Sprintf("%.1f%% orphan rate - highest in your environment", w.Rate()),
		Suggestion:      fmt.Sprintf("Start cleanup in %s, which holds %d orphaned resources", w.Key, w.Orphaned),
		PotentialSaving: pricing.SavingHigh,
		Priority:        PriorityHigh,
		Impact:          "Focused cleanup approach",
	}}
}

func regionConsolidation(in Input) []Recommendation {
	if len(in.Locations) <= regionSpreadLocations || len(in.Records) <= regionSpreadResources {
		return nil
	}
	return []Recommendation{{
		Type:            KindRegionConsolidation,
		Resource:        fmt.Sprintf("%d resources across %d regions", len(in.Records), len(in.Locations)),
		CurrentState:    "Resources are spread across many Azure regions",
		Suggestion:      "Check whether every region is needed and converge on 2-3 primary regions",
		PotentialSaving: pricing.SavingLow,
		Priority:        PriorityLow,
		Impact:          "Long-term architecture optimization",
	}}
}

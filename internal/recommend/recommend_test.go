package recommend

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/azspectre/internal/pricing"
	"github.com/ppiankov/azspectre/internal/resource"
)

func info(t *testing.T, typ resource.Type) resource.Info {
	t.Helper()
	i, ok := resource.Lookup(string(typ))
	if !ok {
		t.Fatalf("unknown type %s", typ)
	}
	return i
}

func records(n, orphaned int, fill func(i int, r *resource.Record)) []resource.Record {
	out := make([]resource.Record, n)
	for i := range out {
		out[i] = resource.Record{
			ID:            fmt.Sprintf("id-%d", i),
			Name:          fmt.Sprintf("res-%d", i),
			ResourceGroup: "rg-main",
			Location:      "eastus",
			IsOrphaned:    i < orphaned,
		}
		if fill != nil {
			fill(i, &out[i])
		}
	}
	return out
}

func findKind(recs []Recommendation, k Kind) (Recommendation, bool) {
	for _, r := range recs {
		if r.Type == k {
			return r, true
		}
	}
	return Recommendation{}, false
}

func countKind(recs []Recommendation, k Kind) int {
	n := 0
	for _, r := range recs {
		if r.Type == k {
			n++
		}
	}
	return n
}

func assertValidSavings(t *testing.T, recs []Recommendation) {
	t.Helper()
	for _, r := range recs {
		if !pricing.ValidSaving(r.PotentialSaving) {
			t.Errorf("%s: potential_saving %q is not an allowed value", r.Type, r.PotentialSaving)
		}
	}
}

func TestRecommend_EmptyInputNeverNil(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypeDisks), nil))
	if recs == nil {
		t.Fatal("expected non-nil slice")
	}
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %d", len(recs))
	}
}

func TestOrphanedCleanup_PriorityByClass(t *testing.T) {
	tests := []struct {
		name     string
		typ      resource.Type
		total    int
		orphaned int
		want     Priority
	}{
		{"ddos single orphan is critical", resource.TypeDDoSProtectionPlans, 1, 1, PriorityCritical},
		{"vnet gateway", resource.TypeVirtualNetworkGateways, 2, 1, PriorityCritical},
		{"disk cost-bearing", resource.TypeDisks, 3, 1, PriorityHigh},
		{"nsg many orphans", resource.TypeNetworkSecurityGroups, 20, 11, PriorityHigh},
		{"nsg some orphans", resource.TypeNetworkSecurityGroups, 10, 6, PriorityMedium},
		{"nsg few orphans", resource.TypeNetworkSecurityGroups, 10, 2, PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := Default().Recommend(NewInput(info(t, tt.typ), records(tt.total, tt.orphaned, nil)))
			r, ok := findKind(recs, KindOrphanedCleanup)
			if !ok {
				t.Fatal("expected orphaned_cleanup recommendation")
			}
			if r.Priority != tt.want {
				t.Fatalf("priority = %s, want %s", r.Priority, tt.want)
			}
			if r.PotentialSaving != pricing.CostManagementPointer {
				t.Fatalf("potential_saving = %q", r.PotentialSaving)
			}
			assertValidSavings(t, recs)
		})
	}
}

func TestOrphanedCleanup_StartBatchCapped(t *testing.T) {
	recs := orphanedCleanup(NewInput(info(t, resource.TypeRouteTables), records(30, 25, nil)))
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	if !strings.HasSuffix(recs[0].Suggestion, "Start with 10 resources") {
		t.Fatalf("suggestion = %q", recs[0].Suggestion)
	}
	if recs[0].Resource != "25 orphaned Route Tables" {
		t.Fatalf("resource = %q", recs[0].Resource)
	}
}

func TestOrphanedCleanup_NoOrphans(t *testing.T) {
	if recs := orphanedCleanup(NewInput(info(t, resource.TypeDisks), records(5, 0, nil))); len(recs) != 0 {
		t.Fatalf("expected nothing, got %d", len(recs))
	}
}

func TestVMRules(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypeVirtualMachines), records(6, 0, func(i int, r *resource.Record) {
		if i < 2 {
			r.PowerState = "VM deallocated"
		} else {
			r.PowerState = "VM running"
		}
	})))

	cleanup, ok := findKind(recs, KindVMCleanup)
	if !ok {
		t.Fatal("expected vm_cleanup")
	}
	if !strings.HasPrefix(cleanup.Resource, "2 ") {
		t.Fatalf("resource = %q", cleanup.Resource)
	}
	if _, ok := findKind(recs, KindVMAutoShutdown); !ok {
		t.Fatal("expected vm_autoshutdown for more than five VMs")
	}
	assertValidSavings(t, recs)
}

func TestDiskRules(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypeDisks), records(6, 4, func(i int, r *resource.Record) {
		if i == 0 {
			r.SKU = "Premium_LRS"
		} else {
			r.SKU = "Standard_LRS"
		}
	})))

	premium, ok := findKind(recs, KindPremiumDiskCleanup)
	if !ok {
		t.Fatal("expected premium_disk_cleanup")
	}
	if premium.Priority != PriorityCritical {
		t.Fatalf("priority = %s", premium.Priority)
	}
	if _, ok := findKind(recs, KindDiskSnapshotStrategy); !ok {
		t.Fatal("expected disk_snapshot_strategy for more than three unattached disks")
	}
	assertValidSavings(t, recs)
}

func TestPublicIPRules(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypePublicIPs), records(11, 1, func(i int, r *resource.Record) {
		r.AllocationMethod = "Static"
	})))
	if _, ok := findKind(recs, KindStaticIPCleanup); !ok {
		t.Fatal("expected static_ip_cleanup")
	}
	if _, ok := findKind(recs, KindIPAllocationReview); !ok {
		t.Fatal("expected ip_allocation_review")
	}
}

func TestDDoSRules_SinglePlanNoOrphans(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypeDDoSProtectionPlans), records(1, 0, nil)))
	if len(recs) != 0 {
		t.Fatalf("expected nothing, got %+v", recs)
	}
}

func TestDDoSRules_MultiplePlans(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypeDDoSProtectionPlans), records(2, 0, nil)))
	r, ok := findKind(recs, KindDDoSConsolidation)
	if !ok {
		t.Fatal("expected ddos_consolidation")
	}
	if r.Priority != PriorityCritical {
		t.Fatalf("priority = %s", r.Priority)
	}
}

func TestHygieneRules_Thresholds(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypeNetworkInterfaces), records(10, 10, nil)))
	if _, ok := findKind(recs, KindNICCleanup); ok {
		t.Fatal("nic investigation needs more than ten orphans")
	}
	recs = Default().Recommend(NewInput(info(t, resource.TypeNetworkInterfaces), records(11, 11, nil)))
	r, ok := findKind(recs, KindNICCleanup)
	if !ok {
		t.Fatal("expected nic_cleanup_investigation")
	}
	if r.PotentialSaving != pricing.SavingNA {
		t.Fatalf("potential_saving = %q", r.PotentialSaving)
	}

	recs = Default().Recommend(NewInput(info(t, resource.TypeNetworkSecurityGroups), records(6, 6, nil)))
	if _, ok := findKind(recs, KindNSGSecurityReview); !ok {
		t.Fatal("expected nsg_security_review")
	}
}

func TestTypeRules_ScopedToTheirType(t *testing.T) {
	// Stopped VM evidence on a non-VM type must not trigger VM rules.
	recs := Default().Recommend(NewInput(info(t, resource.TypeDisks), records(8, 0, func(i int, r *resource.Record) {
		r.PowerState = "VM stopped"
	})))
	if _, ok := findKind(recs, KindVMCleanup); ok {
		t.Fatal("vm_cleanup fired for disks")
	}
}

func TestRGCleanupFocus(t *testing.T) {
	recs := Default().Recommend(NewInput(info(t, resource.TypeRouteTables), records(6, 3, func(i int, r *resource.Record) {
		if i >= 3 {
			r.ResourceGroup = "rg-clean"
		}
	})))
	r, ok := findKind(recs, KindRGCleanupFocus)
	if !ok {
		t.Fatal("expected rg_cleanup_focus")
	}
	if r.Resource != "Resource Group: rg-main" {
		t.Fatalf("resource = %q", r.Resource)
	}
	if r.Priority != PriorityHigh {
		t.Fatalf("priority = %s", r.Priority)
	}
}

func TestRegionConsolidation(t *testing.T) {
	regions := []string{"eastus", "westus", "northeurope", "westeurope"}
	recs := Default().Recommend(NewInput(info(t, resource.TypeRouteTables), records(16, 0, func(i int, r *resource.Record) {
		r.Location = regions[i%len(regions)]
	})))
	if _, ok := findKind(recs, KindRegionConsolidation); !ok {
		t.Fatal("expected region_consolidation")
	}

	recs = Default().Recommend(NewInput(info(t, resource.TypeRouteTables), records(15, 0, func(i int, r *resource.Record) {
		r.Location = regions[i%len(regions)]
	})))
	if _, ok := findKind(recs, KindRegionConsolidation); ok {
		t.Fatal("region_consolidation needs more than fifteen resources")
	}
}

func TestEngine_RegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	e := NewEngine()
	e.Register(rule{name: "x", fn: orphanedCleanup})
	e.Register(rule{name: "x", fn: orphanedCleanup})
}

func TestBucket(t *testing.T) {
	b := Bucket([]Recommendation{
		{Priority: PriorityCritical},
		{Priority: PriorityHigh},
		{Priority: PriorityMedium},
		{Priority: PriorityLow},
	})
	if len(b.Urgent) != 1 || len(b.High) != 1 || len(b.Low) != 2 {
		t.Fatalf("unexpected buckets: %+v", b)
	}

	empty := Bucket(nil)
	if empty.Urgent == nil || empty.High == nil || empty.Low == nil {
		t.Fatal("empty buckets must not be nil")
	}
}

func plan(name, tierStr, location string, apps int) resource.Plan {
	return resource.Plan{Name: name, PricingTier: tierStr, Location: location, Apps: apps, OS: "Linux"}
}

func TestPlanRecommendations(t *testing.T) {
	plans := []resource.Plan{
		plan("big", "PremiumV3 (P2v3: 6)", "eastus", 1),
		plan("prem", "Premium V3 (P1v3: 1)", "eastus", 2),
		plan("std", "Standard (S1: 2)", "westus", 8),
	}
	recs := PlanRecommendations(plans)

	over, ok := findKind(recs, KindOversizedPlans)
	if !ok || over.Resource != "big" {
		t.Fatalf("expected oversized_plans for big, got %+v", recs)
	}
	if over.CurrentState != "6 instances, 1 app(s)" {
		t.Fatalf("current_state = %q", over.CurrentState)
	}
	if n := countKind(recs, KindPremiumUnderutilized); n != 1 {
		t.Fatalf("premium_underutilized count = %d, want 1", n)
	}
	mixed, ok := findKind(recs, KindMixedLocations)
	if !ok {
		t.Fatal("expected mixed_locations")
	}
	if mixed.CurrentState != "eastus: 2, westus: 1" {
		t.Fatalf("current_state = %q", mixed.CurrentState)
	}
	std, ok := findKind(recs, KindStandardUpgrade)
	if !ok {
		t.Fatal("expected standard_upgrade")
	}
	if std.PotentialSaving != pricing.CostManagementPointer {
		t.Fatalf("standard_upgrade saving = %q", std.PotentialSaving)
	}
	assertValidSavings(t, recs)
}

func TestPlanRecommendations_BasicAndSingleApp(t *testing.T) {
	var plans []resource.Plan
	for i := 0; i < 4; i++ {
		plans = append(plans, plan(fmt.Sprintf("b%d", i), "Basic (B1: 1)", "eastus", 3))
	}
	for i := 0; i < 6; i++ {
		plans = append(plans, plan(fmt.Sprintf("p%d", i), "Premium V3 (P1v3: 3)", "eastus", 1))
	}
	recs := PlanRecommendations(plans)
	if _, ok := findKind(recs, KindBasicConsolidation); !ok {
		t.Fatal("expected basic_consolidation")
	}
	single, ok := findKind(recs, KindSingleAppConsolidation)
	if !ok {
		t.Fatal("expected single_app_consolidation")
	}
	if single.Resource != "6 Premium plans with single apps" {
		t.Fatalf("resource = %q", single.Resource)
	}
	if _, ok := findKind(recs, KindMixedLocations); ok {
		t.Fatal("single location must not produce mixed_locations")
	}
}

func TestPlanRecommendations_Empty(t *testing.T) {
	recs := PlanRecommendations(nil)
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", recs)
	}
}

func TestAppRecommendations_LimitedAnalysis(t *testing.T) {
	apps := []resource.App{
		{Name: "a", Status: "Running", Plan: "/subs/x/serverfarms/p1"},
		{Name: "b", Status: "Stopped", Plan: "/subs/x/serverfarms/p1"},
	}
	recs := AppRecommendations(apps)
	if n := countKind(recs, KindStoppedApps); n != 1 {
		t.Fatalf("stopped_apps = %d, want 1", n)
	}
	if _, ok := findKind(recs, KindLimitedAnalysis); !ok {
		t.Fatal("expected limited_analysis with fewer than three findings")
	}
	assertValidSavings(t, recs)
}

func TestAppRecommendations_HighDensity(t *testing.T) {
	var apps []resource.App
	for i := 0; i < 11; i++ {
		apps = append(apps, resource.App{Name: fmt.Sprintf("app%d", i), Status: "Stopped", Plan: "/x/serverfarms/crowded"})
	}
	recs := AppRecommendations(apps)
	r, ok := findKind(recs, KindHighAppDensity)
	if !ok {
		t.Fatal("expected high_app_density")
	}
	if r.Resource != "crowded" {
		t.Fatalf("resource = %q", r.Resource)
	}
	if _, ok := findKind(recs, KindLimitedAnalysis); ok {
		t.Fatal("limited_analysis must not appear with many findings")
	}
}

func TestCombinedRecommendations(t *testing.T) {
	plans := []resource.Plan{
		plan("p1", "Standard (S1: 1)", "eastus", 0),
		plan("p2", "Standard (S1: 1)", "eastus", 0),
	}
	apps := []resource.App{
		{Name: "a", Status: "Stopped", Plan: "/subs/x/serverfarms/p1", Location: "eastus"},
		{Name: "b", Status: "Running", Plan: "/subs/x/serverfarms/p1", Location: "eastus"},
		{Name: "c", Status: "Running", Plan: "/subs/x/serverfarms/p2", Location: "westus"},
		{Name: "d", Status: "Running", Plan: "/subs/x/serverfarms/gone", Location: "eastus"},
	}
	recs := CombinedRecommendations(plans, apps)

	stopped, ok := findKind(recs, KindStoppedApps)
	if !ok {
		t.Fatal("expected stopped_apps")
	}
	if stopped.CurrentState != "1 of 2 apps are stopped" {
		t.Fatalf("current_state = %q", stopped.CurrentState)
	}
	if stopped.Priority != PriorityMedium {
		t.Fatalf("priority = %s", stopped.Priority)
	}

	orphaned, ok := findKind(recs, KindOrphanedApps)
	if !ok {
		t.Fatal("expected orphaned_apps")
	}
	if orphaned.CurrentState != "Apps reference plans: gone" {
		t.Fatalf("current_state = %q", orphaned.CurrentState)
	}

	mismatch, ok := findKind(recs, KindRegionMismatch)
	if !ok || mismatch.Resource != "p2" {
		t.Fatalf("expected region_mismatch for p2, got %+v", recs)
	}
	if n := countKind(recs, KindRegionMismatch); n != 1 {
		t.Fatalf("region_mismatch count = %d, want 1", n)
	}
	assertValidSavings(t, recs)
}

func TestDefault_AppServicePlansRule(t *testing.T) {
	six := 6
	none := 0
	recs := Default().Recommend(NewInput(info(t, resource.TypeAppServicePlans), []resource.Record{{
		ID: "p", Name: "big", Location: "eastus",
		SKUName: "P2v3", SKUTier: "PremiumV3", SKUCapacity: &six, NumApps: &none, IsOrphaned: true,
	}}))
	if _, ok := findKind(recs, KindOversizedPlans); !ok {
		t.Fatalf("expected oversized_plans from plan records, got %+v", recs)
	}
	if _, ok := findKind(recs, KindOrphanedCleanup); !ok {
		t.Fatal("expected orphaned_cleanup for the empty plan")
	}
	assertValidSavings(t, recs)
}

package analyzer

import (
	"testing"

	"github.com/ppiankov/azspectre/internal/resource"
)

func rec(name, rg, loc string, orphaned bool) resource.Record {
	return resource.Record{ID: "/" + name, Name: name, ResourceGroup: rg, Location: loc, IsOrphaned: orphaned}
}

func sampleRecords() []resource.Record {
	return []resource.Record{
		rec("a", "rg-prod", "eastus", false),
		rec("b", "rg-prod", "eastus", false),
		rec("c", "rg-prod", "westus", true),
		rec("d", "rg-dev", "westus", true),
		rec("e", "rg-dev", "westus", true),
		rec("f", "rg-dev", "northeurope", false),
		rec("g", "rg-tiny", "", true),
	}
}

func TestRate(t *testing.T) {
	if Rate(1, 3) != 33.3 {
		t.Fatalf("expected 33.3, got %v", Rate(1, 3))
	}
	if Rate(2, 3) != 66.7 {
		t.Fatalf("expected 66.7, got %v", Rate(2, 3))
	}
	if Rate(5, 0) != 0 {
		t.Fatal("expected zero-division guard to return 0")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())
	if s.TotalResources != 7 || s.OrphanedCount != 4 || s.ActiveCount != 3 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.OrphanedPercentage != 57.1 {
		t.Fatalf("expected 57.1%%, got %v", s.OrphanedPercentage)
	}
	if Summarize(nil).OrphanedPercentage != 0 {
		t.Fatal("expected zero percentage for empty input")
	}
}

func TestGroupBy_TotalsMatchInput(t *testing.T) {
	records := sampleRecords()
	for name, key := range map[string]KeyFunc{"location": ByLocation, "resource_group": ByResourceGroup} {
		groups := GroupBy(records, key)
		total, orphaned := groups.Totals()
		if total != len(records) {
			t.Fatalf("%s: expected total %d, got %d", name, len(records), total)
		}
		if orphaned != resource.CountOrphans(records) {
			t.Fatalf("%s: expected orphaned %d, got %d", name, resource.CountOrphans(records), orphaned)
		}
	}
}

func TestGroupBy_UnknownKeyAndOrder(t *testing.T) {
	groups := GroupBy(sampleRecords(), ByLocation)
	want := []string{"eastus", "westus", "northeurope", "Unknown"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, k := range want {
		if groups[i].Key != k {
			t.Fatalf("group %d: expected %s, got %s", i, k, groups[i].Key)
		}
	}
}

func TestBestWorst_ExcludesSmallGroups(t *testing.T) {
	groups := GroupBy(sampleRecords(), ByResourceGroup)
	best, worst := BestWorst(groups, MinGroupSize)
	if best == nil || worst == nil {
		t.Fatal("expected best and worst groups")
	}
	if best.Key != "rg-prod" {
		t.Fatalf("expected best rg-prod, got %s", best.Key)
	}
	if worst.Key != "rg-dev" {
		t.Fatalf("expected worst rg-dev, got %s (rg-tiny has 100%% but only 1 record)", worst.Key)
	}
}

func TestBestWorst_NoQualifyingGroups(t *testing.T) {
	groups := GroupBy([]resource.Record{rec("a", "rg", "x", true)}, ByResourceGroup)
	best, worst := BestWorst(groups, MinGroupSize)
	if best != nil || worst != nil {
		t.Fatal("expected nil best/worst when no group is large enough")
	}
}

func TestAverageRate(t *testing.T) {
	groups := GroupBy(sampleRecords(), ByResourceGroup)
	avg, ok := AverageRate(groups, MinGroupSize)
	if !ok {
		t.Fatal("expected qualifying groups")
	}
	if avg != 50 {
		t.Fatalf("expected average 50, got %v", avg)
	}
}

func TestSortByOrphanedRate(t *testing.T) {
	records := []resource.Record{
		rec("a", "big", "x", true), rec("b", "big", "x", false), rec("c", "big", "x", false), rec("d", "big", "x", false),
		rec("e", "small", "x", true),
		rec("f", "none", "x", false),
	}
	sorted := GroupBy(records, ByResourceGroup).SortByOrphanedRate()
	if sorted[0].Key != "small" || sorted[1].Key != "big" || sorted[2].Key != "none" {
		t.Fatalf("unexpected order: %s %s %s", sorted[0].Key, sorted[1].Key, sorted[2].Key)
	}
}

func TestTop(t *testing.T) {
	var records []resource.Record
	for i := 0; i < 15; i++ {
		records = append(records, rec("r", string(rune('a'+i)), "x", false))
	}
	if got := GroupBy(records, ByResourceGroup).Top(TopResourceGroups); len(got) != 10 {
		t.Fatalf("expected 10 groups, got %d", len(got))
	}
}

func TestAnalyze_Overview(t *testing.T) {
	snap := resource.NewSnapshot("sub-1", fixedTime)
	snap.Resources[resource.TypeDisks] = []resource.Record{rec("d1", "rg", "x", true), rec("d2", "rg", "x", false)}
	snap.Resources[resource.TypeNATGateways] = []resource.Record{rec("n1", "rg", "x", true)}

	ov := Analyze(snap)
	if ov.TotalResources != 3 || ov.TotalOrphaned != 2 {
		t.Fatalf("unexpected totals %d/%d", ov.TotalResources, ov.TotalOrphaned)
	}
	if ov.TypesWithData != 2 {
		t.Fatalf("expected 2 types with data, got %d", ov.TypesWithData)
	}
	if ov.ByResourceType["disks"] != 1 || ov.ByResourceType["nat_gateways"] != 1 {
		t.Fatalf("unexpected by-type counts %v", ov.ByResourceType)
	}
	if len(ov.Types) != len(resource.All()) {
		t.Fatalf("expected an entry per registered type, got %d", len(ov.Types))
	}
}

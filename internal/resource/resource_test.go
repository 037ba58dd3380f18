package resource

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLookup_KeyAndSlug(t *testing.T) {
	byKey, ok := Lookup("public_ips")
	if !ok {
		t.Fatal("expected public_ips to resolve")
	}
	bySlug, ok := Lookup("Public-IPs")
	if !ok {
		t.Fatal("expected public-ips slug to resolve")
	}
	if byKey != bySlug {
		t.Fatalf("key and slug resolved differently: %+v vs %+v", byKey, bySlug)
	}
	if byKey.Name != "Public IP Addresses" {
		t.Fatalf("unexpected name %q", byKey.Name)
	}
	if _, ok := Lookup("mainframes"); ok {
		t.Fatal("expected unknown type to fail lookup")
	}
}

func TestRegistry_UniqueEntries(t *testing.T) {
	seenType := map[Type]bool{}
	seenSlug := map[string]bool{}
	for _, info := range All() {
		if seenType[info.Type] || seenSlug[info.Slug] {
			t.Fatalf("duplicate registry entry %+v", info)
		}
		seenType[info.Type] = true
		seenSlug[info.Slug] = true
	}
	if len(seenType) != 25 {
		t.Fatalf("expected 25 registered types, got %d", len(seenType))
	}
}

func TestDecodeSnapshot_MissingAndNullKeys(t *testing.T) {
	doc := `{
  "subscription_id": "sub-1",
  "timestamp": "2025-01-15T10:30:00.123456",
  "resources": {
    "disks": null,
    "public_ips": [{"id": "/ip/1", "name": "ip1", "resource_group": "rg", "location": "eastus", "is_orphaned": true}],
    "mainframes": [{"id": "x"}]
  }
}`
	snap, err := DecodeSnapshot(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, typ := range Types() {
		recs, ok := snap.Resources[typ]
		if !ok || recs == nil {
			t.Fatalf("expected non-nil slice for %s", typ)
		}
	}
	if _, ok := snap.Resources["mainframes"]; ok {
		t.Fatal("expected unknown key to be dropped")
	}
	if len(snap.Get(TypePublicIPs)) != 1 {
		t.Fatalf("expected 1 public IP, got %d", len(snap.Get(TypePublicIPs)))
	}
	if snap.TotalOrphaned() != 1 {
		t.Fatalf("expected 1 orphan, got %d", snap.TotalOrphaned())
	}
	ts, ok := snap.ScanTime()
	if !ok || ts.Year() != 2025 {
		t.Fatalf("expected parsed 2025 timestamp, got %v %v", ts, ok)
	}
}

func TestSnapshot_EncodeEmptyTypesAsArrays(t *testing.T) {
	snap := NewSnapshot("sub-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(buf.String(), "null") {
		t.Fatalf("expected no null values, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"disks": []`) {
		t.Fatalf("expected empty disks array, got %s", buf.String())
	}
}

func TestGet_NilSnapshot(t *testing.T) {
	var snap *Snapshot
	if got := snap.Get(TypeDisks); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestCountAppsByPlan_CaseInsensitive(t *testing.T) {
	plans := []Record{
		{ID: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Web/serverfarms/PlanX", Name: "PlanX"},
		{ID: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Web/serverfarms/PlanY", Name: "PlanY"},
	}
	apps := []App{
		{Name: "a1", Plan: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Web/serverfarms/PlanX"},
		{Name: "a2", Plan: "/SUBSCRIPTIONS/S/RESOURCEGROUPS/RG/PROVIDERS/MICROSOFT.WEB/SERVERFARMS/PLANX"},
		{Name: "a3", Plan: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Web/serverfarms/PlanZ"},
	}

	got := CountAppsByPlan(plans, apps)
	if *got[0].NumApps != 2 {
		t.Fatalf("expected 2 apps on PlanX, got %d", *got[0].NumApps)
	}
	if *got[1].NumApps != 0 {
		t.Fatalf("expected 0 apps on PlanY, got %d", *got[1].NumApps)
	}
	if plans[0].NumApps != nil {
		t.Fatal("input records must not be mutated")
	}
}

func TestCountLogicAppsByGroup(t *testing.T) {
	conns := []Record{{Name: "office365", ResourceGroup: "RG-Flows"}, {Name: "sql", ResourceGroup: "rg-other"}}
	got := CountLogicAppsByGroup(conns, []string{"rg-flows", "rg-flows"})
	if *got[0].LogicAppsInGroup != 2 || *got[1].LogicAppsInGroup != 0 {
		t.Fatalf("unexpected counts: %d %d", *got[0].LogicAppsInGroup, *got[1].LogicAppsInGroup)
	}
}

func TestPlansFromRecords(t *testing.T) {
	capacity, apps := 3, 4
	plans := PlansFromRecords([]Record{{
		ID: "/p/1", Name: "plan-linux", ResourceGroup: "rg", Location: "westeurope",
		Kind: "linux", SKUName: "P1v3", SKUTier: "PremiumV3", SKUSize: "P1v3",
		SKUCapacity: &capacity, NumApps: &apps,
	}})
	if len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(plans))
	}
	p := plans[0]
	if p.OS != "Linux" || p.Apps != 4 || p.Status != "Running" {
		t.Fatalf("unexpected plan row: %+v", p)
	}
	parsed := p.Tier()
	if parsed.SKU != "P1v3" || parsed.Instances != 3 {
		t.Fatalf("unexpected parsed tier: %+v", parsed)
	}
}

func TestOSFromKind(t *testing.T) {
	if OSFromKind("app,Linux") != "Linux" {
		t.Fatal("expected Linux")
	}
	if OSFromKind("app") != "Windows" {
		t.Fatal("expected Windows")
	}
}

func TestAppPlanName(t *testing.T) {
	a := App{Plan: "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Web/serverfarms/plan-a"}
	if a.PlanName() != "plan-a" {
		t.Fatalf("unexpected plan name %q", a.PlanName())
	}
	if (App{Plan: "plain"}).PlanName() != "plain" {
		t.Fatal("expected bare plan name to pass through")
	}
}

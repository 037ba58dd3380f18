package azure

import (
	"context"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"

	"github.com/ppiankov/azspectre/internal/resource"
)

// pagerOf serves the given pages in order.
func pagerOf[T any](pages ...T) *runtime.Pager[T] {
	i := 0
	return runtime.NewPager(runtime.PagingHandler[T]{
		More: func(T) bool { return i < len(pages) },
		Fetcher: func(context.Context, *T) (T, error) {
			p := pages[i]
			i++
			return p, nil
		},
	})
}

type mockDisksClient struct {
	pages []armcompute.DisksClientListResponse
}

func (m *mockDisksClient) NewListPager(*armcompute.DisksClientListOptions) *runtime.Pager[armcompute.DisksClientListResponse] {
	return pagerOf(m.pages...)
}

func TestDiskCollector(t *testing.T) {
	unattached := armcompute.DiskStateUnattached
	attached := armcompute.DiskStateAttached
	premium := armcompute.DiskStorageAccountTypesPremiumLRS

	mock := &mockDisksClient{pages: []armcompute.DisksClientListResponse{
		{DiskList: armcompute.DiskList{Value: []*armcompute.Disk{{
			ID:         to.Ptr("/subscriptions/s/resourceGroups/RG-Data/providers/Microsoft.Compute/disks/old-data"),
			Name:       to.Ptr("old-data"),
			Location:   to.Ptr("eastus"),
			SKU:        &armcompute.DiskSKU{Name: &premium},
			Tags:       map[string]*string{"owner": to.Ptr("team-a")},
			Properties: &armcompute.DiskProperties{DiskState: &unattached, DiskSizeGB: to.Ptr[int32](128)},
		}}}},
		{DiskList: armcompute.DiskList{Value: []*armcompute.Disk{{
			ID:         to.Ptr("/subscriptions/s/resourceGroups/rg-vm/providers/Microsoft.Compute/disks/os"),
			Name:       to.Ptr("os"),
			ManagedBy:  to.Ptr("/subscriptions/s/resourceGroups/rg-vm/providers/Microsoft.Compute/virtualMachines/vm1"),
			Properties: &armcompute.DiskProperties{DiskState: &attached},
		}, nil}}},
	}}

	records, err := NewDiskCollector(mock).Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 disks, got %d", len(records))
	}

	d := records[0]
	if d.ResourceGroup != "RG-Data" {
		t.Fatalf("expected resource group from id, got %q", d.ResourceGroup)
	}
	if d.SKU != "Premium_LRS" || d.DiskState == nil || *d.DiskState != "Unattached" {
		t.Fatalf("unexpected disk %+v", d)
	}
	if d.SizeGB == nil || *d.SizeGB != 128 || d.ManagedBy != nil {
		t.Fatalf("unexpected size/owner on %+v", d)
	}
	if d.Tags["owner"] != "team-a" {
		t.Fatalf("tags not flattened: %v", d.Tags)
	}
	if records[1].ManagedBy == nil {
		t.Fatal("expected managed_by on attached disk")
	}
}

type mockAvailabilitySetsClient struct {
	page armcompute.AvailabilitySetsClientListBySubscriptionResponse
}

func (m *mockAvailabilitySetsClient) NewListBySubscriptionPager(*armcompute.AvailabilitySetsClientListBySubscriptionOptions) *runtime.Pager[armcompute.AvailabilitySetsClientListBySubscriptionResponse] {
	return pagerOf(m.page)
}

func TestAvailabilitySetCollector(t *testing.T) {
	mock := &mockAvailabilitySetsClient{page: armcompute.AvailabilitySetsClientListBySubscriptionResponse{
		AvailabilitySetListResult: armcompute.AvailabilitySetListResult{Value: []*armcompute.AvailabilitySet{
			{
				ID:   to.Ptr("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/availabilitySets/empty"),
				Name: to.Ptr("empty"),
				SKU:  &armcompute.SKU{Name: to.Ptr("Aligned")},
			},
			{
				ID:   to.Ptr("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/availabilitySets/web"),
				Name: to.Ptr("web"),
				Properties: &armcompute.AvailabilitySetProperties{VirtualMachines: []*armcompute.SubResource{
					{ID: to.Ptr("vm1")}, {ID: to.Ptr("vm2")},
				}},
			},
		}},
	}}

	c := NewAvailabilitySetCollector(mock)
	if c.Type() != resource.TypeAvailabilitySets {
		t.Fatalf("unexpected type %s", c.Type())
	}
	records, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *records[0].VirtualMachinesCount != 0 || records[0].SKU != "Aligned" {
		t.Fatalf("unexpected empty set %+v", records[0])
	}
	if *records[1].VirtualMachinesCount != 2 {
		t.Fatalf("expected 2 VMs, got %d", *records[1].VirtualMachinesCount)
	}
}

func TestResourceGroupOf(t *testing.T) {
	tests := map[string]string{
		"/subscriptions/s/resourceGroups/rg-1/providers/Microsoft.Network/publicIPAddresses/ip": "rg-1",
		"/subscriptions/s/resourcegroups/RG-2/providers/Microsoft.Web/serverfarms/p":            "RG-2",
		"": "",
	}
	for id, want := range tests {
		if got := resourceGroupOf(id); got != want {
			t.Fatalf("resourceGroupOf(%q) = %q, want %q", id, got, want)
		}
	}
}

package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"

	"github.com/ppiankov/azspectre/internal/resource"
)

// DisksAPI is the minimal interface for managed disk listing.
type DisksAPI interface {
	NewListPager(options *armcompute.DisksClientListOptions) *runtime.Pager[armcompute.DisksClientListResponse]
}

// DiskCollector collects managed disks with their attachment state.
type DiskCollector struct {
	client DisksAPI
}

// NewDiskCollector creates a collector for managed disks.
func NewDiskCollector(client DisksAPI) *DiskCollector {
	return &DiskCollector{client: client}
}

// Type returns the resource type.
func (c *DiskCollector) Type() resource.Type {
	return resource.TypeDisks
}

// Collect lists every disk in the subscription.
func (c *DiskCollector) Collect(ctx context.Context) ([]resource.Record, error) {
	disks, err := collectPages(ctx, c.client.NewListPager(nil), func(p armcompute.DisksClientListResponse) []*armcompute.Disk {
		return p.Value
	})
	if err != nil {
		return nil, fmt.Errorf("list disks: %w", err)
	}

	records := make([]resource.Record, 0, len(disks))
	for _, d := range disks {
		rec := baseRecord(d.ID, d.Name, d.Location, d.Tags)
		rec.ManagedBy = copyString(d.ManagedBy)
		if d.SKU != nil && d.SKU.Name != nil {
			rec.SKU = string(*d.SKU.Name)
		}
		if p := d.Properties; p != nil {
			if p.DiskState != nil {
				state := string(*p.DiskState)
				rec.DiskState = &state
			}
			if p.DiskSizeGB != nil {
				size := int(*p.DiskSizeGB)
				rec.SizeGB = &size
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// AvailabilitySetsAPI is the minimal interface for availability set listing.
type AvailabilitySetsAPI interface {
	NewListBySubscriptionPager(options *armcompute.AvailabilitySetsClientListBySubscriptionOptions) *runtime.Pager[armcompute.AvailabilitySetsClientListBySubscriptionResponse]
}

// AvailabilitySetCollector collects availability sets with their VM counts.
type AvailabilitySetCollector struct {
	client AvailabilitySetsAPI
}

// NewAvailabilitySetCollector creates a collector for availability sets.
func NewAvailabilitySetCollector(client AvailabilitySetsAPI) *AvailabilitySetCollector {
	return &AvailabilitySetCollector{client: client}
}

// Type returns the resource type.
func (c *AvailabilitySetCollector) Type() resource.Type {
	return resource.TypeAvailabilitySets
}

// Collect lists every availability set in the subscription.
func (c *AvailabilitySetCollector) Collect(ctx context.Context) ([]resource.Record, error) {
	sets, err := collectPages(ctx, c.client.NewListBySubscriptionPager(nil), func(p armcompute.AvailabilitySetsClientListBySubscriptionResponse) []*armcompute.AvailabilitySet {
		return p.Value
	})
	if err != nil {
		return nil, fmt.Errorf("list availability sets: %w", err)
	}

	records := make([]resource.Record, 0, len(sets))
	for _, s := range sets {
		rec := baseRecord(s.ID, s.Name, s.Location, s.Tags)
		if s.SKU != nil {
			rec.SKU = deref(s.SKU.Name)
		}
		vms := 0
		if s.Properties != nil {
			vms = len(s.Properties.VirtualMachines)
		}
		rec.VirtualMachinesCount = &vms
		records = append(records, rec)
	}
	return records, nil
}

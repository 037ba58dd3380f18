package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appservice/armappservice"

	"github.com/ppiankov/azspectre/internal/resource"
)

// PlansAPI is the minimal interface for App Service plan listing.
type PlansAPI interface {
	NewListPager(options *armappservice.PlansClientListOptions) *runtime.Pager[armappservice.PlansClientListResponse]
}

// WebAppsAPI is the minimal interface for web app listing.
type WebAppsAPI interface {
	NewListPager(options *armappservice.WebAppsClientListOptions) *runtime.Pager[armappservice.WebAppsClientListResponse]
}

// CertificatesAPI is the minimal interface for App Service certificate listing.
type CertificatesAPI interface {
	NewListPager(options *armappservice.CertificatesClientListOptions) *runtime.Pager[armappservice.CertificatesClientListResponse]
}

// PlanCollector collects App Service plans and counts the apps hosted on each.
type PlanCollector struct {
	plans PlansAPI
	apps  WebAppsAPI
}

// NewPlanCollector creates a collector for App Service plans.
func NewPlanCollector(plans PlansAPI, apps WebAppsAPI) *PlanCollector {
	return &PlanCollector{plans: plans, apps: apps}
}

// Type returns the resource type.
func (c *PlanCollector) Type() resource.Type {
	return resource.TypeAppServicePlans
}

// Collect lists plans, then web apps, and sets each plan's app count from
// the apps whose server farm is the plan.
func (c *PlanCollector) Collect(ctx context.Context) ([]resource.Record, error) {
	plans, err := collectPages(ctx, c.plans.NewListPager(nil), func(p armappservice.PlansClientListResponse) []*armappservice.Plan {
		return p.Value
	})
	if err != nil {
		return nil, fmt.Errorf("list app service plans: %w", err)
	}

	records := make([]resource.Record, 0, len(plans))
	for _, p := range plans {
		rec := baseRecord(p.ID, p.Name, p.Location, p.Tags)
		rec.Kind = deref(p.Kind)
		if sku := p.SKU; sku != nil {
			rec.SKUName = deref(sku.Name)
			rec.SKUTier = deref(sku.Tier)
			rec.SKUSize = deref(sku.Size)
			rec.SKUFamily = deref(sku.Family)
			rec.SKU = rec.SKUName
			if sku.Capacity != nil {
				capacity := int(*sku.Capacity)
				rec.SKUCapacity = &capacity
			}
		}
		if p.Properties != nil && p.Properties.Status != nil {
			rec.Status = string(*p.Properties.Status)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return records, nil
	}

	apps, err := c.listApps(ctx)
	if err != nil {
		return nil, err
	}
	return resource.CountAppsByPlan(records, apps), nil
}

func (c *PlanCollector) listApps(ctx context.Context) ([]resource.App, error) {
	sites, err := collectPages(ctx, c.apps.NewListPager(nil), func(p armappservice.WebAppsClientListResponse) []*armappservice.Site {
		return p.Value
	})
	if err != nil {
		return nil, fmt.Errorf("list web apps: %w", err)
	}
	apps := make([]resource.App, 0, len(sites))
	for _, s := range sites {
		app := resource.App{Name: deref(s.Name), Location: deref(s.Location)}
		if s.Properties != nil {
			app.Plan = deref(s.Properties.ServerFarmID)
			app.Status = deref(s.Properties.State)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// CertificateCollector collects App Service certificates.
type CertificateCollector struct {
	client CertificatesAPI
}

// NewCertificateCollector creates a collector for App Service certificates.
func NewCertificateCollector(client CertificatesAPI) *CertificateCollector {
	return &CertificateCollector{client: client}
}

// Type returns the resource type.
func (c *CertificateCollector) Type() resource.Type {
	return resource.TypeCertificates
}

// Collect lists certificates with their expiry and issuer.
func (c *CertificateCollector) Collect(ctx context.Context) ([]resource.Record, error) {
	certs, err := collectPages(ctx, c.client.NewListPager(nil), func(p armappservice.CertificatesClientListResponse) []*armappservice.AppCertificate {
		return p.Value
	})
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}

	records := make([]resource.Record, 0, len(certs))
	for _, cert := range certs {
		rec := baseRecord(cert.ID, cert.Name, cert.Location, cert.Tags)
		if p := cert.Properties; p != nil {
			if p.ExpirationDate != nil {
				exp := p.ExpirationDate.UTC()
				rec.ExpirationDate = &exp
			}
			rec.Issuer = deref(p.Issuer)
		}
		records = append(records, rec)
	}
	return records, nil
}

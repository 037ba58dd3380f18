package azure

import (
	"context"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"github.com/ppiankov/azspectre/internal/resource"
)

// collectPages drains pager and flattens the values of every page.
func collectPages[P any, V any](ctx context.Context, pager *runtime.Pager[P], values func(P) []*V) ([]*V, error) {
	var out []*V
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, v := range values(page) {
			if v != nil {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// baseRecord fills the fields every ARM resource carries.
func baseRecord(id, name, location *string, tags map[string]*string) resource.Record {
	return resource.Record{
		ID:            deref(id),
		Name:          deref(name),
		ResourceGroup: resourceGroupOf(deref(id)),
		Location:      deref(location),
		Tags:          flattenTags(tags),
	}
}

// resourceGroupOf extracts the resource group name from an ARM resource id.
func resourceGroupOf(id string) string {
	if id == "" {
		return ""
	}
	if rid, err := arm.ParseResourceID(id); err == nil && rid.ResourceGroupName != "" {
		return rid.ResourceGroupName
	}
	parts := strings.Split(id, "/")
	for i := 0; i+1 < len(parts); i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}

func flattenTags(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = deref(v)
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

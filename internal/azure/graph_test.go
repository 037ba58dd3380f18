package azure

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"

	"github.com/ppiankov/azspectre/internal/resource"
)

type mockGraphClient struct {
	rows  []any
	page  int
	skips []int32
	err   error
}

func (m *mockGraphClient) Resources(_ context.Context, q armresourcegraph.QueryRequest, _ *armresourcegraph.ClientResourcesOptions) (armresourcegraph.ClientResourcesResponse, error) {
	if m.err != nil {
		return armresourcegraph.ClientResourcesResponse{}, m.err
	}
	var skip int32
	if q.Options != nil && q.Options.Skip != nil {
		skip = *q.Options.Skip
	}
	m.skips = append(m.skips, skip)

	end := int(skip) + m.page
	if end > len(m.rows) {
		end = len(m.rows)
	}
	data := m.rows[skip:end]
	var resp armresourcegraph.ClientResourcesResponse
	resp.Data = data
	resp.Count = to.Ptr(int64(len(data)))
	resp.TotalRecords = to.Ptr(int64(len(m.rows)))
	return resp, nil
}

func TestGraphQuerier_Paginates(t *testing.T) {
	mock := &mockGraphClient{page: 2}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		mock.rows = append(mock.rows, map[string]any{"name": name})
	}

	rows, err := NewGraphQuerier(mock, "sub-1").Query(context.Background(), "Resources")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if len(mock.skips) != 3 || mock.skips[1] != 2 || mock.skips[2] != 4 {
		t.Fatalf("unexpected skips %v", mock.skips)
	}
}

func TestGraphQuerier_Empty(t *testing.T) {
	mock := &mockGraphClient{page: 10}
	rows, err := NewGraphQuerier(mock, "sub-1").Query(context.Background(), "Resources")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 || len(mock.skips) != 1 {
		t.Fatalf("expected one empty call, got rows=%d calls=%d", len(rows), len(mock.skips))
	}
}

func TestGraphQuerier_Error(t *testing.T) {
	mock := &mockGraphClient{err: errors.New("AuthorizationFailed")}
	_, err := NewGraphQuerier(mock, "sub-1").Query(context.Background(), "Resources")
	if err == nil || !strings.Contains(err.Error(), "AuthorizationFailed") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

// mockQuerier answers queries by matching a substring of the KQL text.
type mockQuerier struct {
	results map[string][]map[string]any
	err     error
	queries []string
}

func (m *mockQuerier) Query(_ context.Context, kql string) ([]map[string]any, error) {
	m.queries = append(m.queries, kql)
	if m.err != nil {
		return nil, m.err
	}
	for key, rows := range m.results {
		if strings.Contains(kql, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func TestGraphCollector_PublicIPs(t *testing.T) {
	q := &mockQuerier{results: map[string][]map[string]any{
		"publicipaddresses": {
			{
				"id": "/subscriptions/s/resourceGroups/rg-net/providers/Microsoft.Network/publicIPAddresses/pip-1", "name": "pip-1",
				"resource_group": "rg-net", "location": "westeurope", "tags": map[string]any{"env": "prod"},
				"sku": "Standard", "allocation_method": "Static", "ip_address": "20.1.2.3",
				"has_ip_configuration": false, "has_nat_gateway": false, "has_public_ip_prefix": false,
			},
			{"id": "pip-2", "name": "pip-2", "tags": "", "has_ip_configuration": true},
		},
	}}

	c := NewGraphCollector(q, resource.TypePublicIPs)
	if c == nil {
		t.Fatal("expected a collector for public IPs")
	}
	records, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	r := records[0]
	if r.AllocationMethod != "Static" || r.SKU != "Standard" || r.Tags["env"] != "prod" {
		t.Fatalf("unexpected record %+v", r)
	}
	if r.HasIPConfiguration == nil || *r.HasIPConfiguration {
		t.Fatal("expected has_ip_configuration=false evidence")
	}
	if records[1].Tags != nil {
		t.Fatal("non-object tags should be dropped")
	}
	if records[1].HasNATGateway != nil {
		t.Fatal("missing evidence must stay nil")
	}
}

func TestGraphCollector_ApplicationGatewayPools(t *testing.T) {
	q := &mockQuerier{results: map[string][]map[string]any{
		"applicationgateways": {{
			"id": "agw", "name": "agw",
			"backend_address_pools": []any{
				map[string]any{"name": "empty", "properties": map[string]any{}},
				map[string]any{"name": "web", "properties": map[string]any{
					"backendAddresses": []any{map[string]any{"fqdn": "a"}, map[string]any{"fqdn": "b"}},
				}},
			},
		}},
	}}

	records, err := NewGraphCollector(q, resource.TypeApplicationGateways).Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pools := records[0].BackendPools
	if pools == nil || len(*pools) != 2 {
		t.Fatalf("expected 2 pools, got %v", pools)
	}
	if (*pools)[1].Name != "web" || (*pools)[1].BackendAddresses != 2 || (*pools)[0].BackendAddresses != 0 {
		t.Fatalf("unexpected pools %+v", *pools)
	}
}

func TestGraphCollector_PrivateEndpointConnections(t *testing.T) {
	approved := map[string]any{"name": "c1", "properties": map[string]any{
		"privateLinkServiceConnectionState": map[string]any{"status": "Approved"},
	}}
	pending := map[string]any{"name": "c2", "properties": map[string]any{
		"privateLinkServiceConnectionState": map[string]any{"status": "Pending"},
	}}
	q := &mockQuerier{results: map[string][]map[string]any{
		"privateendpoints": {
			{"id": "pe-1", "link_connections": []any{approved}, "manual_link_connections": []any{pending}},
			{"id": "pe-2"},
		},
	}}

	records, err := NewGraphCollector(q, resource.TypePrivateEndpoints).Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conns := *records[0].Connections
	if len(conns) != 2 || conns[0].Status != "Approved" || !conns[1].Manual {
		t.Fatalf("unexpected connections %+v", conns)
	}
	if records[1].Connections == nil || len(*records[1].Connections) != 0 {
		t.Fatal("endpoint without connections should carry an empty list")
	}
}

func TestGraphQueries_FrontDoorCountsSecurityPolicyLinksOnly(t *testing.T) {
	q, ok := graphQueries[resource.TypeFrontDoorWAFPolicies]
	if !ok || len(q.kql) != 1 {
		t.Fatal("expected a single Front Door WAF query")
	}
	kql := q.kql[0]
	if !strings.Contains(kql, "security_policy_links_count = "+count("properties.securityPolicyLinks")) {
		t.Fatalf("expected security policy links projection, got %s", kql)
	}
	if strings.Contains(kql, "frontendEndpointLinks") {
		t.Fatal("frontend endpoint links must not count as security policy links")
	}
}

func TestGraphCollector_SQLRunsBothQueries(t *testing.T) {
	q := &mockQuerier{results: map[string][]map[string]any{
		"microsoft.sql/servers/elasticpools": {{"id": "pool", "name": "pool-1", "type": resource.ElasticPoolKind, "databases_count": float64(0)}},
		"microsoft.sql/servers'":             {{"id": "srv", "name": "srv-1", "type": "server", "databases_count": float64(3)}},
	}}

	records, err := NewGraphCollector(q, resource.TypeSQLServers).Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.queries) != 2 || len(records) != 2 {
		t.Fatalf("expected 2 queries and 2 records, got %d/%d", len(q.queries), len(records))
	}
	if records[1].ResourceKind != resource.ElasticPoolKind || *records[1].DatabasesCount != 0 {
		t.Fatalf("unexpected pool record %+v", records[1])
	}
}

func TestAPIConnectionCollector_CountsWorkflows(t *testing.T) {
	q := &mockQuerier{results: map[string][]map[string]any{
		"microsoft.web/connections": {
			{"id": "c1", "name": "office365", "resource_group": "rg-logic"},
			{"id": "c2", "name": "sql", "resource_group": "rg-idle"},
		},
		"microsoft.logic/workflows": {
			{"resource_group": "RG-LOGIC"},
			{"resource_group": "rg-logic"},
		},
	}}

	var c ResourceCollector
	for _, rc := range GraphCollectors(q) {
		if rc.Type() == resource.TypeAPIConnections {
			c = rc
		}
	}
	if c == nil {
		t.Fatal("api connection collector not registered")
	}
	records, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *records[0].LogicAppsInGroup != 2 || *records[1].LogicAppsInGroup != 0 {
		t.Fatalf("unexpected counts %d/%d", *records[0].LogicAppsInGroup, *records[1].LogicAppsInGroup)
	}
}

func TestGraphCollectors_CoverGraphTypes(t *testing.T) {
	collectors := GraphCollectors(&mockQuerier{})
	if len(collectors) != len(graphQueries) {
		t.Fatalf("expected %d collectors, got %d", len(graphQueries), len(collectors))
	}
	for _, typ := range []resource.Type{resource.TypeDisks, resource.TypeAppServicePlans, resource.TypeCertificates, resource.TypeAvailabilitySets} {
		if NewGraphCollector(&mockQuerier{}, typ) != nil {
			t.Fatalf("%s is collected through the SDK, not Resource Graph", typ)
		}
	}
}

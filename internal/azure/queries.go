package azure

import (
	"strings"

	"github.com/ppiankov/azspectre/internal/resource"
)

type graphQuery struct {
	typ resource.Type
	kql []string
	// fix derives nested evidence that KQL cannot shape into Record fields.
	fix func(row map[string]any, rec *resource.Record)
}

const baseColumns = "id, name, resource_group = resourceGroup, location, tags"

// projectType builds a query over one ARM type projecting the base columns
// followed by extra.
func projectType(armType string, extra ...string) string {
	cols := append([]string{baseColumns}, extra...)
	return "Resources\n| where type =~ '" + armType + "'\n| project " + strings.Join(cols, ",\n    ")
}

func count(path string) string {
	return "coalesce(array_length(" + path + "), 0)"
}

const connectionsByGateway = `Resources
| where type =~ 'microsoft.network/virtualnetworkgateways'
| extend gateway_key = tolower(id)
| join kind=leftouter (
    Resources
    | where type =~ 'microsoft.network/connections'
    | mv-expand gateway = pack_array(properties.virtualNetworkGateway1.id, properties.virtualNetworkGateway2.id)
    | where isnotempty(gateway)
    | summarize connections_count = count() by gateway_key = tolower(tostring(gateway))
) on gateway_key
| project ` + baseColumns + `,
    sku = tostring(properties.sku.name),
    gateway_type = tostring(properties.gatewayType),
    vpn_type = tostring(properties.vpnType),
    has_p2s_configuration = isnotnull(properties.vpnClientConfiguration),
    connections_count = coalesce(connections_count, 0)`

const subnetsQuery = `Resources
| where type =~ 'microsoft.network/virtualnetworks'
| mv-expand subnet = properties.subnets
| where isnotempty(subnet)
| project id = tostring(subnet.id),
    name = tostring(subnet.name),
    resource_group = resourceGroup,
    location,
    vnet_name = name,
    address_prefix = tostring(subnet.properties.addressPrefix),
    ip_configurations_count = coalesce(array_length(subnet.properties.ipConfigurations), 0),
    private_endpoints_count = coalesce(array_length(subnet.properties.privateEndpoints), 0),
    delegations_count = coalesce(array_length(subnet.properties.delegations), 0)`

const sqlServersQuery = `Resources
| where type =~ 'microsoft.sql/servers'
| extend server_key = tolower(id)
| join kind=leftouter (
    Resources
    | where type =~ 'microsoft.sql/servers/databases' and name !~ 'master'
    | summarize databases_count = count() by server_key = tolower(tostring(split(id, '/databases/')[0]))
) on server_key
| project ` + baseColumns + `,
    type = 'server',
    status = tostring(properties.state),
    databases_count = coalesce(databases_count, 0)`

const elasticPoolsQuery = `Resources
| where type =~ 'microsoft.sql/servers/elasticpools'
| extend pool_key = tolower(id)
| join kind=leftouter (
    Resources
    | where type =~ 'microsoft.sql/servers/databases' and isnotempty(properties.elasticPoolId)
    | summarize databases_count = count() by pool_key = tolower(tostring(properties.elasticPoolId))
) on pool_key
| project ` + baseColumns + `,
    type = '` + resource.ElasticPoolKind + `',
    sku = tostring(sku.name),
    status = tostring(properties.state),
    databases_count = coalesce(databases_count, 0)`

const resourceGroupsQuery = `ResourceContainers
| where type =~ 'microsoft.resources/subscriptions/resourcegroups'
| extend group_key = tolower(name)
| join kind=leftouter (
    Resources
    | summarize resources_count = count() by group_key = tolower(resourceGroup)
) on group_key
| project ` + baseColumns + `,
    status = tostring(properties.provisioningState),
    resources_count = coalesce(resources_count, 0)`

// logicAppGroupsQuery lists the resource group of every Logic App workflow.
const logicAppGroupsQuery = `Resources
| where type =~ 'microsoft.logic/workflows'
| project resource_group = resourceGroup`

var graphQueries = map[resource.Type]graphQuery{
	resource.TypePublicIPs: {typ: resource.TypePublicIPs, kql: []string{projectType(
		"microsoft.network/publicipaddresses",
		"sku = tostring(sku.name)",
		"allocation_method = tostring(properties.publicIPAllocationMethod)",
		"ip_address = tostring(properties.ipAddress)",
		"has_ip_configuration = isnotnull(properties.ipConfiguration)",
		"has_nat_gateway = isnotnull(properties.natGateway)",
		"has_public_ip_prefix = isnotnull(properties.publicIPPrefix)",
	)}},
	resource.TypeNetworkInterfaces: {typ: resource.TypeNetworkInterfaces, kql: []string{projectType(
		"microsoft.network/networkinterfaces",
		"has_private_endpoint = isnotnull(properties.privateEndpoint)",
		"has_private_link_service = isnotnull(properties.privateLinkService)",
		"has_hosted_workloads = "+count("properties.hostedWorkloads")+" > 0",
		"has_virtual_machine = isnotnull(properties.virtualMachine)",
	)}},
	resource.TypeNetworkSecurityGroups: {typ: resource.TypeNetworkSecurityGroups, kql: []string{projectType(
		"microsoft.network/networksecuritygroups",
		"network_interfaces_count = "+count("properties.networkInterfaces"),
		"subnets_count = "+count("properties.subnets"),
	)}},
	resource.TypeRouteTables: {typ: resource.TypeRouteTables, kql: []string{projectType(
		"microsoft.network/routetables",
		"subnets_count = "+count("properties.subnets"),
	)}},
	resource.TypeLoadBalancers: {typ: resource.TypeLoadBalancers, kql: []string{projectType(
		"microsoft.network/loadbalancers",
		"sku = tostring(sku.name)",
		"backend_pools_count = "+count("properties.backendAddressPools"),
		"inbound_nat_rules_count = "+count("properties.inboundNatRules"),
	)}},
	resource.TypeFrontDoorWAFPolicies: {typ: resource.TypeFrontDoorWAFPolicies, kql: []string{projectType(
		"microsoft.network/frontdoorwebapplicationfirewallpolicies",
		"sku = tostring(sku.name)",
		"security_policy_links_count = "+count("properties.securityPolicyLinks"),
	)}},
	resource.TypeTrafficManagerProfiles: {typ: resource.TypeTrafficManagerProfiles, kql: []string{projectType(
		"microsoft.network/trafficmanagerprofiles",
		"status = tostring(properties.profileStatus)",
		"endpoints_count = "+count("properties.endpoints"),
	)}},
	resource.TypeApplicationGateways: {typ: resource.TypeApplicationGateways, kql: []string{projectType(
		"microsoft.network/applicationgateways",
		"sku = tostring(properties.sku.name)",
		"status = tostring(properties.operationalState)",
		"backend_address_pools = properties.backendAddressPools",
	)}, fix: backendPools},
	resource.TypeVirtualNetworks: {typ: resource.TypeVirtualNetworks, kql: []string{projectType(
		"microsoft.network/virtualnetworks",
		"subnets_count = "+count("properties.subnets"),
	)}},
	resource.TypeSubnets: {typ: resource.TypeSubnets, kql: []string{subnetsQuery}},
	resource.TypeIPGroups: {typ: resource.TypeIPGroups, kql: []string{projectType(
		"microsoft.network/ipgroups",
		"firewalls_count = "+count("properties.firewalls"),
		"firewall_policies_count = "+count("properties.firewallPolicies"),
	)}},
	resource.TypePrivateDNSZones: {typ: resource.TypePrivateDNSZones, kql: []string{projectType(
		"microsoft.network/privatednszones",
		"virtual_network_links_count = toint(properties.numberOfVirtualNetworkLinks)",
	)}},
	resource.TypePrivateEndpoints: {typ: resource.TypePrivateEndpoints, kql: []string{projectType(
		"microsoft.network/privateendpoints",
		"link_connections = properties.privateLinkServiceConnections",
		"manual_link_connections = properties.manualPrivateLinkServiceConnections",
	)}, fix: endpointConnections},
	resource.TypeVirtualNetworkGateways: {typ: resource.TypeVirtualNetworkGateways, kql: []string{connectionsByGateway}},
	resource.TypeDDoSProtectionPlans: {typ: resource.TypeDDoSProtectionPlans, kql: []string{projectType(
		"microsoft.network/ddosprotectionplans",
		"virtual_networks_count = "+count("properties.virtualNetworks"),
	)}},
	resource.TypeNATGateways: {typ: resource.TypeNATGateways, kql: []string{projectType(
		"microsoft.network/natgateways",
		"sku = tostring(sku.name)",
		"subnets_count = "+count("properties.subnets"),
	)}},
	resource.TypeAPIConnections: {typ: resource.TypeAPIConnections, kql: []string{projectType(
		"microsoft.web/connections",
		"kind = tostring(kind)",
		"status = tostring(properties.statuses[0].status)",
	)}},
	resource.TypeSQLServers:     {typ: resource.TypeSQLServers, kql: []string{sqlServersQuery, elasticPoolsQuery}},
	resource.TypeResourceGroups: {typ: resource.TypeResourceGroups, kql: []string{resourceGroupsQuery}},
	resource.TypeVirtualMachines: {typ: resource.TypeVirtualMachines, kql: []string{projectType(
		"microsoft.compute/virtualmachines",
		"vm_size = tostring(properties.hardwareProfile.vmSize)",
		"os_type = tostring(properties.storageProfile.osDisk.osType)",
		"power_state = tostring(properties.extended.instanceView.powerState.displayStatus)",
	)}},
	resource.TypeStorageAccounts: {typ: resource.TypeStorageAccounts, kql: []string{projectType(
		"microsoft.storage/storageaccounts",
		"sku = tostring(sku.name)",
		"kind = tostring(kind)",
		"status = tostring(properties.statusOfPrimary)",
	)}},
}

func backendPools(row map[string]any, rec *resource.Record) {
	raw, _ := row["backend_address_pools"].([]any)
	pools := make([]resource.BackendPool, 0, len(raw))
	for _, item := range raw {
		pool, _ := item.(map[string]any)
		props, _ := pool["properties"].(map[string]any)
		pools = append(pools, resource.BackendPool{
			Name:                    stringField(pool, "name"),
			BackendIPConfigurations: arrayLen(props, "backendIPConfigurations"),
			BackendAddresses:        arrayLen(props, "backendAddresses"),
		})
	}
	rec.BackendPools = &pools
}

func endpointConnections(row map[string]any, rec *resource.Record) {
	conns := []resource.EndpointConnection{}
	add := func(key string, manual bool) {
		raw, _ := row[key].([]any)
		for _, item := range raw {
			conn, _ := item.(map[string]any)
			props, _ := conn["properties"].(map[string]any)
			state, _ := props["privateLinkServiceConnectionState"].(map[string]any)
			conns = append(conns, resource.EndpointConnection{
				Name:   stringField(conn, "name"),
				Status: stringField(state, "status"),
				Manual: manual,
			})
		}
	}
	add("link_connections", false)
	add("manual_link_connections", true)
	rec.Connections = &conns
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func arrayLen(m map[string]any, key string) int {
	a, _ := m[key].([]any)
	return len(a)
}

package resource

import (
	"strings"
	"time"
)

// Record is one discovered Azure object. Relational fields are pointers so
// that an absent field can be told apart from a zero count; classifiers treat
// missing evidence as "not orphaned".
type Record struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	ResourceGroup string            `json:"resource_group"`
	Location      string            `json:"location"`
	IsOrphaned    bool              `json:"is_orphaned"`
	SKU           string            `json:"sku,omitempty"`
	Kind          string            `json:"kind,omitempty"`
	Status        string            `json:"status,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`

	// Disks
	DiskState *string `json:"disk_state,omitempty"`
	ManagedBy *string `json:"managed_by,omitempty"`
	SizeGB    *int    `json:"size_gb,omitempty"`

	// Public IPs
	AllocationMethod   string `json:"allocation_method,omitempty"`
	IPAddress          string `json:"ip_address,omitempty"`
	HasIPConfiguration *bool  `json:"has_ip_configuration,omitempty"`
	HasNATGateway      *bool  `json:"has_nat_gateway,omitempty"`
	HasPublicIPPrefix  *bool  `json:"has_public_ip_prefix,omitempty"`

	// Network interfaces
	HasPrivateEndpoint    *bool `json:"has_private_endpoint,omitempty"`
	HasPrivateLinkService *bool `json:"has_private_link_service,omitempty"`
	HasHostedWorkloads    *bool `json:"has_hosted_workloads,omitempty"`
	HasVirtualMachine     *bool `json:"has_virtual_machine,omitempty"`

	// Attachment counts shared by several network types
	NetworkInterfacesCount   *int `json:"network_interfaces_count,omitempty"`
	SubnetsCount             *int `json:"subnets_count,omitempty"`
	BackendPoolsCount        *int `json:"backend_pools_count,omitempty"`
	InboundNATRulesCount     *int `json:"inbound_nat_rules_count,omitempty"`
	SecurityPolicyLinksCount *int `json:"security_policy_links_count,omitempty"`
	EndpointsCount           *int `json:"endpoints_count,omitempty"`
	FirewallsCount           *int `json:"firewalls_count,omitempty"`
	FirewallPoliciesCount    *int `json:"firewall_policies_count,omitempty"`
	VirtualNetworkLinksCount *int `json:"virtual_network_links_count,omitempty"`
	VirtualNetworksCount     *int `json:"virtual_networks_count,omitempty"`
	VirtualMachinesCount     *int `json:"virtual_machines_count,omitempty"`

	// Application gateways
	BackendPools *[]BackendPool `json:"backend_pools,omitempty"`

	// Subnets
	VNetName              string `json:"vnet_name,omitempty"`
	AddressPrefix         string `json:"address_prefix,omitempty"`
	IPConfigurationsCount *int   `json:"ip_configurations_count,omitempty"`
	PrivateEndpointsCount *int   `json:"private_endpoints_count,omitempty"`
	DelegationsCount      *int   `json:"delegations_count,omitempty"`

	// Private endpoints
	Connections *[]EndpointConnection `json:"connections,omitempty"`

	// Virtual network gateways
	GatewayType      string `json:"gateway_type,omitempty"`
	VPNType          string `json:"vpn_type,omitempty"`
	HasP2SConfig     *bool  `json:"has_p2s_configuration,omitempty"`
	ConnectionsCount *int   `json:"connections_count,omitempty"`

	// API connections
	LogicAppsInGroup *int `json:"logic_apps_in_group,omitempty"`

	// Certificates
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`

	// App Service plans
	SKUName     string `json:"sku_name,omitempty"`
	SKUTier     string `json:"sku_tier,omitempty"`
	SKUSize     string `json:"sku_size,omitempty"`
	SKUFamily   string `json:"sku_family,omitempty"`
	SKUCapacity *int   `json:"sku_capacity,omitempty"`
	NumApps     *int   `json:"num_apps,omitempty"`

	// SQL servers and elastic pools
	ResourceKind   string `json:"type,omitempty"`
	DatabasesCount *int   `json:"databases_count,omitempty"`

	// Resource groups
	ResourcesCount *int `json:"resources_count,omitempty"`

	// Virtual machines
	VMSize     string `json:"vm_size,omitempty"`
	OSType     string `json:"os_type,omitempty"`
	PowerState string `json:"power_state,omitempty"`
}

// BackendPool is an application gateway backend pool.
type BackendPool struct {
	Name                    string `json:"name"`
	BackendIPConfigurations int    `json:"backend_ip_configurations"`
	BackendAddresses        int    `json:"backend_addresses"`
}

// EndpointConnection is a private link service connection on a private endpoint.
type EndpointConnection struct {
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
	Manual bool   `json:"manual,omitempty"`
}

// ElasticPoolKind marks sql_servers records that describe an elastic pool.
const ElasticPoolKind = "elastic_pool"

// Orphans returns the subset of records flagged as orphaned.
func Orphans(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.IsOrphaned {
			out = append(out, r)
		}
	}
	return out
}

// CountOrphans returns how many records are flagged as orphaned.
func CountOrphans(records []Record) int {
	n := 0
	for _, r := range records {
		if r.IsOrphaned {
			n++
		}
	}
	return n
}

// Stopped reports whether a VM power state means the machine is not running.
func (r Record) Stopped() bool {
	s := strings.ToLower(r.PowerState)
	return strings.Contains(s, "stopped") || strings.Contains(s, "deallocated")
}

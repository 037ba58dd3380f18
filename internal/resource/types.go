package resource

import "strings"

// Type is the snapshot key identifying an Azure resource kind.
type Type string

const (
	TypeDisks                  Type = "disks"
	TypePublicIPs              Type = "public_ips"
	TypeNetworkInterfaces      Type = "network_interfaces"
	TypeNetworkSecurityGroups  Type = "network_security_groups"
	TypeRouteTables            Type = "route_tables"
	TypeLoadBalancers          Type = "load_balancers"
	TypeFrontDoorWAFPolicies   Type = "frontdoor_waf_policies"
	TypeTrafficManagerProfiles Type = "traffic_manager_profiles"
	TypeApplicationGateways    Type = "application_gateways"
	TypeVirtualNetworks        Type = "virtual_networks"
	TypeSubnets                Type = "subnets"
	TypeIPGroups               Type = "ip_groups"
	TypePrivateDNSZones        Type = "private_dns_zones"
	TypePrivateEndpoints       Type = "private_endpoints"
	TypeVirtualNetworkGateways Type = "virtual_network_gateways"
	TypeDDoSProtectionPlans    Type = "ddos_protection_plans"
	TypeAPIConnections         Type = "api_connections"
	TypeCertificates           Type = "certificates"
	TypeAvailabilitySets       Type = "availability_sets"
	TypeNATGateways            Type = "nat_gateways"
	TypeAppServicePlans        Type = "app_service_plans"
	TypeSQLServers             Type = "sql_servers"
	TypeResourceGroups         Type = "resource_groups"
	TypeVirtualMachines        Type = "virtual_machines"
	TypeStorageAccounts        Type = "storage_accounts"
)

// Info describes a registered resource type.
type Info struct {
	Type        Type   `json:"type"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var registry = []Info{
	{TypeAppServicePlans, "app-service", "App Service Plans", "Analyze App Service Plans and App Services for cost optimization"},
	{TypeSQLServers, "sql-databases", "SQL Databases & Elastic Pools", "Optimize SQL databases, elastic pools, and DTU allocations"},
	{TypeVirtualMachines, "virtual-machines", "Virtual Machines", "Right-size VMs, identify stopped instances, and optimize SKUs"},
	{TypePublicIPs, "public-ips", "Public IP Addresses", "Find unattached public IPs and optimize IP allocations"},
	{TypeDisks, "disks", "Managed Disks", "Identify unattached disks and optimize disk tiers"},
	{TypeNetworkInterfaces, "nics", "Network Interfaces", "Find orphaned NICs and optimize network configurations"},
	{TypeLoadBalancers, "load-balancers", "Load Balancers", "Optimize load balancers and backend pool configurations"},
	{TypeAvailabilitySets, "availability-sets", "Availability Sets", "Find empty availability sets and consolidate resources"},
	{TypeRouteTables, "route-tables", "Route Tables", "Optimize route tables and identify unused routes"},
	{TypeNATGateways, "nat-gateways", "NAT Gateways", "Review NAT gateway usage"},
	{TypeFrontDoorWAFPolicies, "frontdoor-waf", "Front Door WAF Policies", "Optimize WAF policies and Front Door configurations"},
	{TypeTrafficManagerProfiles, "traffic-manager", "Traffic Manager Profiles", "Analyze Traffic Manager profiles and endpoint health"},
	{TypeSubnets, "subnets", "Virtual Network Subnets", "Optimize subnet IP allocations and identify unused subnets"},
	{TypeIPGroups, "ip-groups", "IP Groups", "Review IP group configurations and usage"},
	{TypePrivateDNSZones, "private-dns", "Private DNS Zones", "Optimize private DNS zones and record sets"},
	{TypePrivateEndpoints, "private-endpoints", "Private Endpoints", "Review private endpoint connections"},
	{TypeVirtualNetworkGateways, "vnet-gateways", "Virtual Network Gateways", "Optimize VPN and ExpressRoute gateway configurations"},
	{TypeDDoSProtectionPlans, "ddos-plans", "DDoS Protection Plans", "Review DDoS protection coverage"},
	{TypeAPIConnections, "api-connections", "API Connections", "Optimize Logic Apps API connections"},
	{TypeCertificates, "certificates", "App Service Certificates", "Manage SSL/TLS certificates and expiration dates"},
	{TypeStorageAccounts, "storage-accounts", "Storage Accounts", "Optimize storage tiers and identify unused accounts"},
	{TypeNetworkSecurityGroups, "nsgs", "Network Security Groups", "Review NSG rules and security configurations"},
	{TypeApplicationGateways, "application-gateways", "Application Gateways", "Find application gateways without backend targets"},
	{TypeVirtualNetworks, "virtual-networks", "Virtual Networks", "Find virtual networks without subnets"},
	{TypeResourceGroups, "resource-groups", "Resource Groups", "Find empty resource groups"},
}

// All returns every registered resource type in display order.
func All() []Info {
	out := make([]Info, len(registry))
	copy(out, registry)
	return out
}

// Types returns the registered snapshot keys in display order.
func Types() []Type {
	out := make([]Type, 0, len(registry))
	for _, info := range registry {
		out = append(out, info.Type)
	}
	return out
}

// Lookup resolves either a snapshot key ("public_ips") or a dashboard slug
// ("public-ips") to its registry entry.
func Lookup(s string) (Info, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, info := range registry {
		if string(info.Type) == s || info.Slug == s {
			return info, true
		}
	}
	return Info{}, false
}

// Known reports whether t is a registered snapshot key.
func Known(t Type) bool {
	for _, info := range registry {
		if info.Type == t {
			return true
		}
	}
	return false
}

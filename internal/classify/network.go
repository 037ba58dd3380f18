package classify

import (
	"strings"

	"github.com/ppiankov/azspectre/internal/resource"
)

func networkClassifiers() []Classifier {
	return []Classifier{
		Func{resource.TypePublicIPs, func(r resource.Record) (bool, bool) {
			return allFalse(r.HasIPConfiguration, r.HasNATGateway, r.HasPublicIPPrefix)
		}},
		Func{resource.TypeNetworkInterfaces, func(r resource.Record) (bool, bool) {
			return allFalse(r.HasPrivateEndpoint, r.HasPrivateLinkService, r.HasHostedWorkloads, r.HasVirtualMachine)
		}},
		Func{resource.TypeNetworkSecurityGroups, func(r resource.Record) (bool, bool) {
			return allZero(r.NetworkInterfacesCount, r.SubnetsCount)
		}},
		Func{resource.TypeRouteTables, func(r resource.Record) (bool, bool) {
			return allZero(r.SubnetsCount)
		}},
		Func{resource.TypeLoadBalancers, func(r resource.Record) (bool, bool) {
			return allZero(r.BackendPoolsCount, r.InboundNATRulesCount)
		}},
		Func{resource.TypeFrontDoorWAFPolicies, func(r resource.Record) (bool, bool) {
			return allZero(r.SecurityPolicyLinksCount)
		}},
		Func{resource.TypeTrafficManagerProfiles, func(r resource.Record) (bool, bool) {
			return allZero(r.EndpointsCount)
		}},
		Func{resource.TypeApplicationGateways, appGatewayOrphaned},
		Func{resource.TypeVirtualNetworks, func(r resource.Record) (bool, bool) {
			return allZero(r.SubnetsCount)
		}},
		Func{resource.TypeSubnets, func(r resource.Record) (bool, bool) {
			return allZero(r.IPConfigurationsCount, r.PrivateEndpointsCount, r.DelegationsCount)
		}},
		Func{resource.TypeIPGroups, func(r resource.Record) (bool, bool) {
			return allZero(r.FirewallsCount, r.FirewallPoliciesCount)
		}},
		Func{resource.TypePrivateDNSZones, func(r resource.Record) (bool, bool) {
			return allZero(r.VirtualNetworkLinksCount)
		}},
		Func{resource.TypePrivateEndpoints, privateEndpointOrphaned},
		Func{resource.TypeVirtualNetworkGateways, vnetGatewayOrphaned},
		Func{resource.TypeDDoSProtectionPlans, func(r resource.Record) (bool, bool) {
			return allZero(r.VirtualNetworksCount)
		}},
		Func{resource.TypeNATGateways, func(r resource.Record) (bool, bool) {
			return allZero(r.SubnetsCount)
		}},
	}
}

func appGatewayOrphaned(r resource.Record) (bool, bool) {
	if r.BackendPools == nil {
		return false, false
	}
	for _, pool := range *r.BackendPools {
		if pool.BackendIPConfigurations > 0 || pool.BackendAddresses > 0 {
			return false, true
		}
	}
	return true, true
}

func privateEndpointOrphaned(r resource.Record) (bool, bool) {
	if r.Connections == nil {
		return false, false
	}
	for _, c := range *r.Connections {
		if strings.EqualFold(c.Status, "Approved") {
			return false, true
		}
	}
	return true, true
}

// vnetGatewayOrphaned needs both signals unless one of them already shows use.
func vnetGatewayOrphaned(r resource.Record) (bool, bool) {
	noP2S, p2sKnown := allFalse(r.HasP2SConfig)
	noConns, connsKnown := allZero(r.ConnectionsCount)
	if (p2sKnown && !noP2S) || (connsKnown && !noConns) {
		return false, true
	}
	if !p2sKnown || !connsKnown {
		return false, false
	}
	return true, true
}

package azure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appservice/armappservice"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
)

const applicationID = "azspectre"

// ErrNoSubscription means the credential cannot see any enabled subscription.
var ErrNoSubscription = errors.New("no enabled Azure subscription found")

// Client holds the credential and subscription every service client is built from.
type Client struct {
	cred           azcore.TokenCredential
	subscriptionID string
	options        *arm.ClientOptions
}

// NewClient authenticates with the default Azure credential chain (environment,
// workload identity, managed identity, Azure CLI). If subscriptionID is empty,
// the first enabled subscription visible to the credential is used.
func NewClient(ctx context.Context, subscriptionID string) (*Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("load Azure credentials: %w", err)
	}

	c := &Client{
		cred:           cred,
		subscriptionID: subscriptionID,
		options: &arm.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Telemetry: policy.TelemetryOptions{ApplicationID: applicationID},
			},
		},
	}

	if subscriptionID == "" {
		subs, err := armsubscriptions.NewClient(cred, c.options)
		if err != nil {
			return nil, fmt.Errorf("create subscriptions client: %w", err)
		}
		id, err := ResolveSubscription(ctx, subs)
		if err != nil {
			return nil, err
		}
		c.subscriptionID = id
	}
	return c, nil
}

// SubscriptionID returns the subscription being scanned.
func (c *Client) SubscriptionID() string {
	return c.subscriptionID
}

// SubscriptionsAPI is the minimal interface for subscription listing.
type SubscriptionsAPI interface {
	NewListPager(options *armsubscriptions.ClientListOptions) *runtime.Pager[armsubscriptions.ClientListResponse]
}

// ResolveSubscription returns the id of the first enabled subscription.
func ResolveSubscription(ctx context.Context, api SubscriptionsAPI) (string, error) {
	subs, err := collectPages(ctx, api.NewListPager(nil), func(p armsubscriptions.ClientListResponse) []*armsubscriptions.Subscription {
		return p.Value
	})
	if err != nil {
		return "", fmt.Errorf("list subscriptions: %w", err)
	}
	for _, s := range subs {
		if s.State != nil && *s.State != armsubscriptions.SubscriptionStateEnabled {
			continue
		}
		if id := deref(s.SubscriptionID); id != "" {
			slog.Debug("Resolved subscription", "subscription", id, "name", deref(s.DisplayName))
			return id, nil
		}
	}
	return "", ErrNoSubscription
}

// Collectors builds one collector per supported resource type.
func (c *Client) Collectors() ([]ResourceCollector, error) {
	graph, err := armresourcegraph.NewClient(c.cred, c.options)
	if err != nil {
		return nil, fmt.Errorf("create resource graph client: %w", err)
	}
	disks, err := armcompute.NewDisksClient(c.subscriptionID, c.cred, c.options)
	if err != nil {
		return nil, fmt.Errorf("create disks client: %w", err)
	}
	sets, err := armcompute.NewAvailabilitySetsClient(c.subscriptionID, c.cred, c.options)
	if err != nil {
		return nil, fmt.Errorf("create availability sets client: %w", err)
	}
	plans, err := armappservice.NewPlansClient(c.subscriptionID, c.cred, c.options)
	if err != nil {
		return nil, fmt.Errorf("create app service plans client: %w", err)
	}
	apps, err := armappservice.NewWebAppsClient(c.subscriptionID, c.cred, c.options)
	if err != nil {
		return nil, fmt.Errorf("create web apps client: %w", err)
	}
	certs, err := armappservice.NewCertificatesClient(c.subscriptionID, c.cred, c.options)
	if err != nil {
		return nil, fmt.Errorf("create certificates client: %w", err)
	}

	collectors := GraphCollectors(NewGraphQuerier(graph, c.subscriptionID))
	collectors = append(collectors,
		NewDiskCollector(disks),
		NewAvailabilitySetCollector(sets),
		NewPlanCollector(plans, apps),
		NewCertificateCollector(certs),
	)
	return collectors, nil
}

package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"

	"github.com/ppiankov/azspectre/internal/resource"
)

// graphPageSize is the largest page Resource Graph returns.
const graphPageSize int32 = 1000

// ResourceGraphAPI is the minimal interface for Resource Graph queries.
type ResourceGraphAPI interface {
	Resources(ctx context.Context, query armresourcegraph.QueryRequest, options *armresourcegraph.ClientResourcesOptions) (armresourcegraph.ClientResourcesResponse, error)
}

// Querier runs a KQL query and returns its rows as objects.
type Querier interface {
	Query(ctx context.Context, kql string) ([]map[string]any, error)
}

// GraphQuerier pages through Resource Graph results scoped to one subscription.
type GraphQuerier struct {
	client         ResourceGraphAPI
	subscriptionID string
	logger         *slog.Logger
}

// NewGraphQuerier creates a querier for subscriptionID.
func NewGraphQuerier(client ResourceGraphAPI, subscriptionID string) *GraphQuerier {
	return &GraphQuerier{
		client:         client,
		subscriptionID: subscriptionID,
		logger:         slog.Default().With("component", "ResourceGraph"),
	}
}

// Query runs kql and follows skip-based pagination until every row is read.
func (q *GraphQuerier) Query(ctx context.Context, kql string) ([]map[string]any, error) {
	var (
		rows []map[string]any
		skip int32
	)
	for {
		opts := &armresourcegraph.QueryRequestOptions{
			ResultFormat: to.Ptr(armresourcegraph.ResultFormatObjectArray),
			Top:          to.Ptr(graphPageSize),
		}
		if skip > 0 {
			opts.Skip = to.Ptr(skip)
		}
		req := armresourcegraph.QueryRequest{
			Query:         to.Ptr(kql),
			Options:       opts,
			Subscriptions: []*string{to.Ptr(q.subscriptionID)},
		}

		resp, err := q.client.Resources(ctx, req, nil)
		if err != nil {
			return nil, fmt.Errorf("resource graph query: %w", err)
		}

		page, ok := resp.Data.([]any)
		if resp.Data != nil && !ok {
			return nil, fmt.Errorf("resource graph query: unexpected result format %T", resp.Data)
		}
		for _, item := range page {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}

		if resp.TotalRecords == nil || resp.Count == nil || *resp.Count == 0 {
			break
		}
		skip += int32(*resp.Count)
		if int64(skip) >= *resp.TotalRecords {
			break
		}
		q.logger.Debug("Fetching next page", "skip", skip, "total", *resp.TotalRecords)
	}
	return rows, nil
}

// decodeRow maps a projected row onto a Record. Column names match the
// Record JSON tags.
func decodeRow(row map[string]any) (resource.Record, error) {
	if _, ok := row["tags"].(map[string]any); !ok {
		delete(row, "tags")
	}
	var rec resource.Record
	b, err := json.Marshal(row)
	if err != nil {
		return rec, fmt.Errorf("encode row: %w", err)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode row: %w", err)
	}
	return rec, nil
}

// GraphCollector collects one resource type through Resource Graph.
type GraphCollector struct {
	querier Querier
	query   graphQuery
}

// NewGraphCollector creates a collector for t. It returns nil when no
// Resource Graph query is defined for t.
func NewGraphCollector(q Querier, t resource.Type) *GraphCollector {
	gq, ok := graphQueries[t]
	if !ok {
		return nil
	}
	return &GraphCollector{querier: q, query: gq}
}

// Type returns the resource type.
func (c *GraphCollector) Type() resource.Type {
	return c.query.typ
}

// Collect runs the type's queries and decodes every row.
func (c *GraphCollector) Collect(ctx context.Context) ([]resource.Record, error) {
	records := []resource.Record{}
	for _, kql := range c.query.kql {
		rows, err := c.querier.Query(ctx, kql)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec, err := decodeRow(row)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", c.query.typ, err)
			}
			if c.query.fix != nil {
				c.query.fix(row, &rec)
			}
			records = append(records, rec)
		}
	}
	slog.Debug("Collected resources", "type", c.query.typ, "count", len(records))
	return records, nil
}

// GraphCollectors returns a collector for every type served by Resource Graph.
func GraphCollectors(q Querier) []ResourceCollector {
	out := make([]ResourceCollector, 0, len(graphQueries))
	for _, t := range resource.Types() {
		c := NewGraphCollector(q, t)
		switch {
		case c == nil:
			continue
		case t == resource.TypeAPIConnections:
			out = append(out, &APIConnectionCollector{connections: c, querier: q})
		default:
			out = append(out, c)
		}
	}
	return out
}

// APIConnectionCollector collects API connections and counts the Logic App
// workflows sharing each connection's resource group.
type APIConnectionCollector struct {
	connections *GraphCollector
	querier     Querier
}

// Type returns the resource type.
func (c *APIConnectionCollector) Type() resource.Type {
	return resource.TypeAPIConnections
}

// Collect lists connections, then workflow resource groups.
func (c *APIConnectionCollector) Collect(ctx context.Context) ([]resource.Record, error) {
	conns, err := c.connections.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return conns, nil
	}
	rows, err := c.querier.Query(ctx, logicAppGroupsQuery)
	if err != nil {
		return nil, fmt.Errorf("list logic app workflows: %w", err)
	}
	groups := make([]string, 0, len(rows))
	for _, row := range rows {
		if g := stringField(row, "resource_group"); g != "" {
			groups = append(groups, g)
		}
	}
	return resource.CountLogicAppsByGroup(conns, groups), nil
}

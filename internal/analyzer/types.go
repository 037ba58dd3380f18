package analyzer

import "github.com/ppiankov/azspectre/internal/resource"

// Summary holds orphan counts for one homogeneous record collection.
type Summary struct {
	TotalResources     int     `json:"total_resources"`
	OrphanedCount      int     `json:"orphaned_count"`
	ActiveCount        int     `json:"active_count"`
	OrphanedPercentage float64 `json:"orphaned_percentage"`
}

// Group is the aggregate for one grouping key.
type Group struct {
	Key      string `json:"key"`
	Total    int    `json:"total"`
	Orphaned int    `json:"orphaned"`
	Active   int    `json:"active"`
}

// Rate returns the group's orphan rate in percent.
func (g Group) Rate() float64 {
	return Rate(g.Orphaned, g.Total)
}

// Groups is an ordered set of aggregates, first-seen key first.
type Groups []Group

// KeyFunc extracts a grouping key from a record.
type KeyFunc func(resource.Record) string

// TypeAvailability reports whether a snapshot holds data for one type.
type TypeAvailability struct {
	Type          resource.Type `json:"type"`
	Slug          string        `json:"slug"`
	Name          string        `json:"name"`
	HasData       bool          `json:"has_data"`
	Count         int           `json:"count"`
	OrphanedCount int           `json:"orphaned_count"`
}

// Overview summarizes a whole snapshot across types.
type Overview struct {
	SubscriptionID string             `json:"subscription_id"`
	ScanDate       string             `json:"scan_date"`
	TotalResources int                `json:"total_resources"`
	TotalOrphaned  int                `json:"total_orphaned"`
	TypesWithData  int                `json:"types_with_data"`
	ByResourceType map[string]int     `json:"by_resource_type"`
	Types          []TypeAvailability `json:"types"`
}

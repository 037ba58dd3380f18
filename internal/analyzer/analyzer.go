// Package analyzer aggregates classified resource records into grouped
// statistics.
package analyzer

import (
	"math"
	"sort"

	"github.com/ppiankov/azspectre/internal/resource"
)

// MinGroupSize is the smallest group considered for best/worst selection.
const MinGroupSize = 3

// TopResourceGroups caps resource-group tables.
const TopResourceGroups = 10

const unknownKey = "Unknown"

// ByLocation groups records by Azure region.
func ByLocation(r resource.Record) string {
	if r.Location == "" {
		return unknownKey
	}
	return r.Location
}

// ByResourceGroup groups records by resource group.
func ByResourceGroup(r resource.Record) string {
	if r.ResourceGroup == "" {
		return unknownKey
	}
	return r.ResourceGroup
}

// Rate returns orphaned/total as a percentage rounded to one decimal, or 0
// when total is zero.
func Rate(orphaned, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round(float64(orphaned)/float64(total)*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Summarize counts total, orphaned and active records.
func Summarize(records []resource.Record) Summary {
	orphaned := resource.CountOrphans(records)
	return Summary{
		TotalResources:     len(records),
		OrphanedCount:      orphaned,
		ActiveCount:        len(records) - orphaned,
		OrphanedPercentage: Rate(orphaned, len(records)),
	}
}

// GroupBy aggregates records by key, preserving first-seen key order.
func GroupBy(records []resource.Record, key KeyFunc) Groups {
	index := make(map[string]int)
	var groups Groups
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Total++
		if r.IsOrphaned {
			groups[i].Orphaned++
		} else {
			groups[i].Active++
		}
	}
	return groups
}

// BestWorst returns the groups with the lowest and highest orphan rate among
// groups holding at least minSize records. Earlier groups win ties. Both are
// nil when no group qualifies.
func BestWorst(groups Groups, minSize int) (best, worst *Group) {
	for i := range groups {
		g := groups[i]
		if g.Total < minSize {
			continue
		}
		if best == nil || g.Rate() < best.Rate() {
			best = &g
		}
		if worst == nil || g.Rate() > worst.Rate() {
			worst = &g
		}
	}
	return best, worst
}

// AverageRate returns the mean orphan rate of groups holding at least
// minSize records, and false when none qualify.
func AverageRate(groups Groups, minSize int) (float64, bool) {
	var sum float64
	n := 0
	for _, g := range groups {
		if g.Total < minSize {
			continue
		}
		sum += g.Rate()
		n++
	}
	if n == 0 {
		return 0, false
	}
	return round(sum/float64(n), 1), true
}

// SortByOrphaned returns a copy sorted by orphaned count, descending.
func (gs Groups) SortByOrphaned() Groups {
	out := append(Groups(nil), gs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Orphaned > out[j].Orphaned
	})
	return out
}

// SortByOrphanedRate returns a copy sorted by orphaned count then orphan
// rate, both descending.
func (gs Groups) SortByOrphanedRate() Groups {
	out := append(Groups(nil), gs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Orphaned != out[j].Orphaned {
			return out[i].Orphaned > out[j].Orphaned
		}
		return out[i].Rate() > out[j].Rate()
	})
	return out
}

// Top returns at most n groups.
func (gs Groups) Top(n int) Groups {
	if len(gs) <= n {
		return gs
	}
	return gs[:n]
}

// Totals sums total and orphaned counts across groups.
func (gs Groups) Totals() (total, orphaned int) {
	for _, g := range gs {
		total += g.Total
		orphaned += g.Orphaned
	}
	return total, orphaned
}

// Analyze builds a cross-type overview of a classified snapshot.
func Analyze(snap *resource.Snapshot) *Overview {
	ov := &Overview{
		SubscriptionID: snap.SubscriptionID,
		ScanDate:       snap.Timestamp,
		ByResourceType: make(map[string]int),
	}
	for _, info := range resource.All() {
		recs := snap.Get(info.Type)
		orphaned := resource.CountOrphans(recs)
		ov.Types = append(ov.Types, TypeAvailability{
			Type:          info.Type,
			Slug:          info.Slug,
			Name:          info.Name,
			HasData:       len(recs) > 0,
			Count:         len(recs),
			OrphanedCount: orphaned,
		})
		ov.TotalResources += len(recs)
		ov.TotalOrphaned += orphaned
		if len(recs) > 0 {
			ov.TypesWithData++
		}
		if orphaned > 0 {
			ov.ByResourceType[string(info.Type)] = orphaned
		}
	}
	return ov
}

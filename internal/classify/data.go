package classify

import (
	"strings"

	"github.com/ppiankov/azspectre/internal/resource"
)

func dataClassifiers() []Classifier {
	return []Classifier{
		Func{resource.TypeSQLServers, sqlOrphaned},
		Func{resource.TypeResourceGroups, func(r resource.Record) (bool, bool) {
			return allZero(r.ResourcesCount)
		}},
	}
}

// sqlOrphaned flags empty elastic pools. Servers are never orphaned; a record
// without a kind cannot be judged.
func sqlOrphaned(r resource.Record) (bool, bool) {
	switch {
	case r.ResourceKind == "":
		return false, false
	case !strings.EqualFold(r.ResourceKind, resource.ElasticPoolKind):
		return false, true
	}
	return allZero(r.DatabasesCount)
}

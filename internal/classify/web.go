package classify

import (
	"time"

	"github.com/ppiankov/azspectre/internal/resource"
)

// certificateClassifier flags certificates that expired before now.
type certificateClassifier struct {
	now func() time.Time
}

func (c certificateClassifier) Type() resource.Type { return resource.TypeCertificates }

func (c certificateClassifier) IsOrphaned(r resource.Record) (bool, bool) {
	if r.ExpirationDate == nil {
		return false, false
	}
	return r.ExpirationDate.Before(c.now()), true
}

func webClassifiers(now func() time.Time) []Classifier {
	return []Classifier{
		certificateClassifier{now: now},
		Func{resource.TypeAppServicePlans, func(r resource.Record) (bool, bool) {
			return allZero(r.NumApps)
		}},
		// Same-resource-group presence of a Logic App stands in for a real
		// reference check.
		Func{resource.TypeAPIConnections, func(r resource.Record) (bool, bool) {
			return allZero(r.LogicAppsInGroup)
		}},
	}
}

// Package classify decides whether individual Azure resources are orphaned.
// Each resource type has its own rule; a Registry dispatches by type.
package classify

import (
	"log/slog"
	"time"

	"github.com/ppiankov/azspectre/internal/resource"
)

// Classifier is the orphan rule for one resource type. IsOrphaned reports
// the verdict and whether r carried enough evidence to reach it; without
// evidence the verdict is false.
type Classifier interface {
	Type() resource.Type
	IsOrphaned(r resource.Record) (orphaned, evaluated bool)
}

// Func adapts a plain predicate to the Classifier interface.
type Func struct {
	T    resource.Type
	Rule func(resource.Record) (bool, bool)
}

// Type returns the resource type the rule applies to.
func (f Func) Type() resource.Type { return f.T }

// IsOrphaned evaluates the rule.
func (f Func) IsOrphaned(r resource.Record) (bool, bool) { return f.Rule(r) }

// Registry maps resource types to their classifiers.
type Registry struct {
	rules map[resource.Type]Classifier
}

// NewRegistry builds the canonical rule set. now supplies the reference
// time for expiry-based rules.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	r := &Registry{rules: make(map[resource.Type]Classifier)}
	for _, c := range networkClassifiers() {
		r.Register(c)
	}
	for _, c := range computeClassifiers() {
		r.Register(c)
	}
	for _, c := range webClassifiers(now) {
		r.Register(c)
	}
	for _, c := range dataClassifiers() {
		r.Register(c)
	}
	return r
}

// Default returns a registry using the wall clock.
func Default() *Registry {
	return NewRegistry(time.Now)
}

// Register adds or replaces the classifier for c.Type().
func (r *Registry) Register(c Classifier) {
	r.rules[c.Type()] = c
}

// For returns the classifier registered for t.
func (r *Registry) For(t resource.Type) (Classifier, bool) {
	c, ok := r.rules[t]
	return c, ok
}

// Classify returns annotated copies of records. Records whose type has no
// rule, or that lack the evidence their rule needs, keep their existing
// verdict. Collected records start unflagged, so missing evidence still
// reads as not orphaned for them.
func (r *Registry) Classify(t resource.Type, records []resource.Record) []resource.Record {
	out := make([]resource.Record, len(records))
	c, ok := r.rules[t]
	if !ok {
		copy(out, records)
		return out
	}
	for i, rec := range records {
		if orphaned, ok := c.IsOrphaned(rec); ok {
			rec.IsOrphaned = orphaned
		}
		out[i] = rec
	}
	return out
}

// ClassifySnapshot returns a copy of snap with every type classified.
func (r *Registry) ClassifySnapshot(snap *resource.Snapshot) *resource.Snapshot {
	out := &resource.Snapshot{
		SubscriptionID: snap.SubscriptionID,
		Timestamp:      snap.Timestamp,
		Resources:      make(map[resource.Type][]resource.Record, len(snap.Resources)),
	}
	for _, t := range resource.Types() {
		recs := r.Classify(t, snap.Get(t))
		out.Resources[t] = recs
		if n := resource.CountOrphans(recs); n > 0 {
			slog.Debug("Classified resources", "type", t, "total", len(recs), "orphaned", n)
		}
	}
	return out
}

// allZero is orphaned when every count is zero. A non-zero count decides
// the record is in use even when other counts are missing.
func allZero(counts ...*int) (orphaned, evaluated bool) {
	missing := false
	for _, n := range counts {
		switch {
		case n == nil:
			missing = true
		case *n != 0:
			return false, true
		}
	}
	return !missing, !missing
}

// allFalse is allZero for association flags.
func allFalse(flags ...*bool) (orphaned, evaluated bool) {
	missing := false
	for _, b := range flags {
		switch {
		case b == nil:
			missing = true
		case *b:
			return false, true
		}
	}
	return !missing, !missing
}

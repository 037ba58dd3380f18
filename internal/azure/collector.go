// Package azure collects Azure resource inventories into scan snapshots.
package azure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/azspectre/internal/classify"
	"github.com/ppiankov/azspectre/internal/resource"
)

// ResourceCollector is the interface each resource-type collector implements.
type ResourceCollector interface {
	Collect(ctx context.Context) ([]resource.Record, error)
	Type() resource.Type
}

// Classifier annotates a snapshot with orphan verdicts.
type Classifier interface {
	ClassifySnapshot(snap *resource.Snapshot) *resource.Snapshot
}

// ExcludeConfig holds resource exclusion rules. A tag rule with an empty
// value matches any value of that key.
type ExcludeConfig struct {
	ResourceIDs map[string]bool
	Tags        map[string]string
}

// Excluded reports whether rec matches an exclusion rule.
func (e ExcludeConfig) Excluded(rec resource.Record) bool {
	if e.ResourceIDs[rec.ID] || e.ResourceIDs[strings.ToLower(rec.ID)] {
		return true
	}
	for k, want := range e.Tags {
		got, ok := rec.Tags[k]
		if ok && (want == "" || got == want) {
			return true
		}
	}
	return false
}

// Options control which types are collected and how.
type Options struct {
	Concurrency int
	Types       []resource.Type
	Exclude     ExcludeConfig
	Classifier  Classifier
	Now         func() time.Time
}

// Progress reports collection progress to callers.
type Progress struct {
	Type      resource.Type
	Count     int
	Err       error
	Timestamp time.Time
}

// Result is a classified snapshot plus the per-type failures encountered.
type Result struct {
	Snapshot *resource.Snapshot
	Errors   []string
}

// Collector orchestrates every resource collector for one subscription.
type Collector struct {
	subscriptionID string
	collectors     []ResourceCollector
	opts           Options
	progressFn     func(Progress)
}

// NewCollector creates a collector running the given collectors.
func NewCollector(subscriptionID string, collectors []ResourceCollector, opts Options) *Collector {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{
		subscriptionID: subscriptionID,
		collectors:     filterCollectors(collectors, opts.Types),
		opts:           opts,
	}
}

func filterCollectors(collectors []ResourceCollector, types []resource.Type) []ResourceCollector {
	if len(types) == 0 {
		return collectors
	}
	want := make(map[resource.Type]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	out := make([]ResourceCollector, 0, len(types))
	for _, c := range collectors {
		if want[c.Type()] {
			out = append(out, c)
		}
	}
	return out
}

// SetProgressFn sets a callback invoked after each collector finishes. It may
// be called from several goroutines at once.
func (c *Collector) SetProgressFn(fn func(Progress)) {
	c.progressFn = fn
}

// Types returns the resource types this collector will gather.
func (c *Collector) Types() []resource.Type {
	out := make([]resource.Type, 0, len(c.collectors))
	for _, rc := range c.collectors {
		out = append(out, rc.Type())
	}
	return out
}

// CollectAll runs every collector concurrently. A failing collector leaves
// its type empty and is recorded in Result.Errors; it does not abort the scan.
func (c *Collector) CollectAll(ctx context.Context) (*Result, error) {
	var (
		mu     sync.Mutex
		result = &Result{Errors: []string{}}
		snap   = resource.NewSnapshot(c.subscriptionID, c.opts.Now())
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for _, rc := range c.collectors {
		rc := rc
		g.Go(func() error {
			slog.Debug("Running collector", "type", rc.Type())
			records, err := rc.Collect(gctx)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rc.Type(), err))
				mu.Unlock()
				slog.Warn("Collector failed", "type", rc.Type(), "error", err)
				c.report(Progress{Type: rc.Type(), Err: err})
				return nil
			}

			kept := records[:0]
			for _, rec := range records {
				if !c.opts.Exclude.Excluded(rec) {
					kept = append(kept, rec)
				}
			}

			mu.Lock()
			snap.Resources[rc.Type()] = append(snap.Resources[rc.Type()], kept...)
			mu.Unlock()
			c.report(Progress{Type: rc.Type(), Count: len(kept)})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect resources: %w", err)
	}

	snap.Normalize()
	result.Snapshot = c.opts.Classifier.ClassifySnapshot(snap)
	slog.Info("Collection complete",
		"subscription", c.subscriptionID,
		"resources", result.Snapshot.Total(),
		"orphaned", result.Snapshot.TotalOrphaned(),
		"errors", len(result.Errors),
	)
	return result, nil
}

func (c *Collector) report(p Progress) {
	if c.progressFn == nil {
		return
	}
	p.Timestamp = time.Now()
	c.progressFn(p)
}

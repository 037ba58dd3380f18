package resource

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Snapshot is one immutable capture of a subscription's inventory.
type Snapshot struct {
	SubscriptionID string            `json:"subscription_id"`
	Timestamp      string            `json:"timestamp"`
	Resources      map[Type][]Record `json:"resources"`
}

// NewSnapshot returns an empty, normalized snapshot stamped with ts.
func NewSnapshot(subscriptionID string, ts time.Time) *Snapshot {
	s := &Snapshot{
		SubscriptionID: subscriptionID,
		Timestamp:      ts.UTC().Format(time.RFC3339),
	}
	s.Normalize()
	return s
}

// Normalize guarantees every registered key is present with a non-nil slice
// and drops keys outside the registry.
func (s *Snapshot) Normalize() {
	if s.Resources == nil {
		s.Resources = make(map[Type][]Record, len(registry))
	}
	for key := range s.Resources {
		if !Known(key) {
			slog.Debug("Dropping unknown snapshot key", "key", key)
			delete(s.Resources, key)
		}
	}
	for _, t := range Types() {
		if s.Resources[t] == nil {
			s.Resources[t] = []Record{}
		}
	}
}

// Get returns the records for t; a missing key yields an empty slice.
func (s *Snapshot) Get(t Type) []Record {
	if s == nil || s.Resources == nil {
		return []Record{}
	}
	if recs, ok := s.Resources[t]; ok && recs != nil {
		return recs
	}
	return []Record{}
}

// Total returns the number of records across every type.
func (s *Snapshot) Total() int {
	n := 0
	for _, recs := range s.Resources {
		n += len(recs)
	}
	return n
}

// TotalOrphaned returns the number of orphaned records across every type.
func (s *Snapshot) TotalOrphaned() int {
	n := 0
	for _, recs := range s.Resources {
		n += CountOrphans(recs)
	}
	return n
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ScanTime parses the snapshot timestamp. Timestamps without a zone are
// read as UTC.
func (s *Snapshot) ScanTime() (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DecodeSnapshot reads and normalizes a snapshot document.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// Encode writes the snapshot as indented JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

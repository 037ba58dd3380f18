// Package snapshot persists scan snapshots as JSON files and selects them by
// scan mode.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/azspectre/internal/resource"
)

// Mode separates demo snapshots from real ones.
type Mode string

const (
	ModeDemo       Mode = "demo"
	ModeProduction Mode = "production"
)

// File name prefixes. LegacyPrefix files may be deleted but are never listed.
const (
	DemoPrefix       = "azure_scan_demo_"
	ProductionPrefix = "azure_scan_production_"
	LegacyPrefix     = "azure_environment_"

	fileTimeLayout = "20060102_150405"
	modifiedLayout = "2006-01-02 15:04:05"
)

var (
	// ErrNoSnapshot means no snapshot exists for the active mode.
	ErrNoSnapshot = errors.New("no scan snapshot found")
	// ErrNotFound means the named snapshot file does not exist.
	ErrNotFound = errors.New("snapshot file not found")
	// ErrProtected means demo snapshots cannot be deleted.
	ErrProtected = errors.New("demo snapshots cannot be deleted")
	// ErrInvalidName means a file name is not a snapshot name.
	ErrInvalidName = errors.New("invalid snapshot file name")
)

// ParseMode accepts "demo" or "production", case-insensitively. An empty
// string selects production.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeProduction:
		return ModeProduction, nil
	case ModeDemo:
		return ModeDemo, nil
	}
	return "", fmt.Errorf("unknown scan mode %q (want demo or production)", s)
}

// ScanContext is the mode and directory every snapshot lookup runs against.
type ScanContext struct {
	Mode Mode
	Dir  string
}

// Prefix returns the file name prefix of the context's mode.
func (c ScanContext) Prefix() string {
	if c.Mode == ModeDemo {
		return DemoPrefix
	}
	return ProductionPrefix
}

func (c ScanContext) owns(name string) bool {
	return strings.HasPrefix(name, c.Prefix()) && strings.HasSuffix(name, ".json")
}

// FileInfo describes one stored snapshot.
type FileInfo struct {
	Filename      string  `json:"filename"`
	Size          int64   `json:"size"`
	SizeMB        float64 `json:"size_mb"`
	Modified      string  `json:"modified"`
	ResourceCount int     `json:"resource_count"`
	ScanDate      string  `json:"scan_date"`

	modTime time.Time
}

// Listing is the set of snapshots visible in a mode.
type Listing struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	TotalSizeMB float64    `json:"total_size_mb"`
	DemoMode    bool       `json:"demo_mode"`
}

func sizeMB(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}

// files returns the context's snapshot files, newest first.
func (c ScanContext) files() ([]FileInfo, error) {
	entries, err := os.ReadDir(c.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !c.owns(e.Name()) {
			continue
		}
		st, err := e.Info()
		if err != nil {
			slog.Debug("Skipping snapshot", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, FileInfo{
			Filename: e.Name(),
			Size:     st.Size(),
			SizeMB:   sizeMB(st.Size()),
			Modified: st.ModTime().Format(modifiedLayout),
			modTime:  st.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].modTime.Equal(out[j].modTime) {
			return out[i].modTime.After(out[j].modTime)
		}
		return out[i].Filename > out[j].Filename
	})
	return out, nil
}

// List returns the snapshots of the active mode with their resource counts.
// Unreadable files are listed with zero resources and an unknown date.
func (c ScanContext) List() (*Listing, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	l := &Listing{Files: files, TotalCount: len(files), DemoMode: c.Mode == ModeDemo}
	var total int64
	for i := range l.Files {
		f := &l.Files[i]
		total += f.Size
		f.ScanDate = "Unknown"
		snap, err := c.read(f.Filename)
		if err != nil {
			slog.Debug("Unreadable snapshot", "file", f.Filename, "error", err)
			continue
		}
		f.ResourceCount = snap.Total()
		if snap.Timestamp != "" {
			f.ScanDate = snap.Timestamp
		}
	}
	l.TotalSizeMB = sizeMB(total)
	return l, nil
}

// Latest returns the newest snapshot file name of the active mode.
func (c ScanContext) Latest() (string, error) {
	files, err := c.files()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%s mode in %s: %w", c.Mode, c.Dir, ErrNoSnapshot)
	}
	return files[0].Filename, nil
}

// LoadLatest reads the newest snapshot of the active mode.
func (c ScanContext) LoadLatest() (*resource.Snapshot, string, error) {
	name, err := c.Latest()
	if err != nil {
		return nil, "", err
	}
	snap, err := c.read(name)
	if err != nil {
		return nil, "", err
	}
	return snap, name, nil
}

func (c ScanContext) read(name string) (*resource.Snapshot, error) {
	f, err := os.Open(filepath.Join(c.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", name, err)
	}
	defer f.Close()
	return resource.DecodeSnapshot(f)
}

// Save writes snap as a new file named after its scan time and returns the
// file name. Existing files are never overwritten.
func (c ScanContext) Save(snap *resource.Snapshot) (string, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	ts, ok := snap.ScanTime()
	if !ok {
		ts = time.Now()
	}
	base := c.Prefix() + ts.UTC().Format(fileTimeLayout)

	for i := 0; ; i++ {
		name := base + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.json", base, i)
		}
		path := filepath.Join(c.Dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create snapshot file: %w", err)
		}
		if err := snap.Encode(f); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("close snapshot file: %w", err)
		}
		slog.Info("Snapshot saved", "file", name, "resources", snap.Total(), "orphaned", snap.TotalOrphaned())
		return name, nil
	}
}

// Classifier annotates every record of a snapshot with its orphan verdict.
type Classifier interface {
	ClassifySnapshot(snap *resource.Snapshot) *resource.Snapshot
}

// Import decodes a snapshot document, reclassifies it and saves it in the
// active mode.
func (c ScanContext) Import(r io.Reader, cl Classifier) (string, *resource.Snapshot, error) {
	snap, err := resource.DecodeSnapshot(r)
	if err != nil {
		return "", nil, err
	}
	snap = cl.ClassifySnapshot(snap)
	name, err := c.Save(snap)
	if err != nil {
		return "", nil, err
	}
	return name, snap, nil
}

// ValidateName checks that name is a bare snapshot file name.
func ValidateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	for _, p := range []string{ProductionPrefix, DemoPrefix, LegacyPrefix} {
		if strings.HasPrefix(name, p) {
			return nil
		}
	}
	return fmt.Errorf("%q: %w", name, ErrInvalidName)
}

// Delete removes one snapshot file. Demo snapshots are protected.
func (c ScanContext) Delete(name string) error {
	if strings.HasPrefix(name, DemoPrefix) {
		return ErrProtected
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(c.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	slog.Info("Snapshot deleted", "file", name)
	return nil
}

// DeleteAll removes every production snapshot and returns how many were
// deleted. It is refused in demo mode.
func (c ScanContext) DeleteAll() (int, error) {
	if c.Mode == ModeDemo {
		return 0, ErrProtected
	}
	files, err := c.files()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		if err := os.Remove(filepath.Join(c.Dir, f.Filename)); err != nil {
			return n, fmt.Errorf("delete snapshot %s: %w", f.Filename, err)
		}
		n++
	}
	slog.Info("Snapshots deleted", "count", n)
	return n, nil
}

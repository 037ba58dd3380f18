package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ppiankov/azspectre/internal/analyzer"
	"github.com/ppiankov/azspectre/internal/classify"
	"github.com/ppiankov/azspectre/internal/report"
	"github.com/ppiankov/azspectre/internal/resource"
	"github.com/ppiankov/azspectre/internal/snapshot"
)

// maxImportBytes bounds an imported snapshot document.
const maxImportBytes = 64 << 20

var errScanDisabled = errors.New("scanning is not configured on this server")

type errorReply struct {
	Error string `json:"error"`
}

type healthReply struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (healthReply) Render(http.ResponseWriter, *http.Request) error { return nil }

type scanReply struct {
	Filename       string   `json:"filename"`
	SubscriptionID string   `json:"subscription_id"`
	Timestamp      string   `json:"timestamp"`
	TotalResources int      `json:"total_resources"`
	TotalOrphaned  int      `json:"total_orphaned"`
	Errors         []string `json:"errors"`
}

type availabilityReply struct {
	ScanFile       string                      `json:"scan_file"`
	ScanDate       string                      `json:"scan_date"`
	SubscriptionID string                      `json:"subscription_id"`
	DemoMode       bool                        `json:"demo_mode"`
	TotalResources int                         `json:"total_resources"`
	TypesWithData  int                         `json:"types_with_data"`
	Types          []analyzer.TypeAvailability `json:"types"`
}

type orphanedReply struct {
	ScanFile       string         `json:"scan_file"`
	ScanDate       string         `json:"scan_date"`
	TotalOrphaned  int            `json:"total_orphaned"`
	ByResourceType map[string]int `json:"by_resource_type"`
}

type orphanedDetailsReply struct {
	ScanFile      string                              `json:"scan_file"`
	TotalOrphaned int                                 `json:"total_orphaned"`
	Resources     map[resource.Type][]resource.Record `json:"resources"`
}

type completeReply struct {
	ScanFile       string                              `json:"scan_file"`
	SubscriptionID string                              `json:"subscription_id"`
	Timestamp      string                              `json:"timestamp"`
	TotalResources int                                 `json:"total_resources"`
	TotalOrphaned  int                                 `json:"total_orphaned"`
	Resources      map[resource.Type][]resource.Record `json:"resources"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, errorReply{Error: err.Error()})
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot),
		errors.Is(err, snapshot.ErrNotFound),
		errors.Is(err, report.ErrNoAppServiceData):
		return http.StatusNotFound
	case errors.Is(err, snapshot.ErrProtected):
		return http.StatusForbidden
	case errors.Is(err, snapshot.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// scanContext resolves the request's mode from ?mode=, falling back to the
// server default.
func (s *Server) scanContext(r *http.Request) (snapshot.ScanContext, error) {
	mode := s.cfg.DefaultMode
	if q := r.URL.Query().Get("mode"); q != "" {
		m, err := snapshot.ParseMode(q)
		if err != nil {
			return snapshot.ScanContext{}, err
		}
		mode = m
	}
	return snapshot.ScanContext{Mode: mode, Dir: s.cfg.SnapshotDir}, nil
}

// withContext resolves the scan context or writes a 400.
func (s *Server) withContext(w http.ResponseWriter, r *http.Request) (snapshot.ScanContext, bool) {
	sc, err := s.scanContext(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return sc, false
	}
	return sc, true
}

// latest loads the newest snapshot of the request's mode or writes an error.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*resource.Snapshot, string, bool) {
	sc, ok := s.withContext(w, r)
	if !ok {
		return nil, "", false
	}
	snap, name, err := sc.LoadLatest()
	if err != nil {
		respondError(w, r, statusFor(err), err)
		return nil, "", false
	}
	return snap, name, true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, healthReply{Status: "healthy", Version: s.cfg.Version, Timestamp: time.Now().UTC()})
}

func (s *Server) listScanFiles(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.withContext(w, r)
	if !ok {
		return
	}
	listing, err := sc.List()
	if err != nil {
		respondError(w, r, statusFor(err), err)
		return
	}
	respond(w, r, http.StatusOK, listing)
}

func (s *Server) deleteAllScanFiles(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.withContext(w, r)
	if !ok {
		return
	}
	n, err := sc.DeleteAll()
	if err != nil {
		respondError(w, r, statusFor(err), err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{
		"deleted_count": n,
		"message":       fmt.Sprintf("Deleted %d scan files", n),
	})
}

func (s *Server) deleteScanFile(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.withContext(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "filename")
	if err := sc.Delete(name); err != nil {
		respondError(w, r, statusFor(err), err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{
		"deleted": name,
		"message": fmt.Sprintf("Scan file %s deleted", name),
	})
}

func (s *Server) createScan(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Collect == nil {
		respondError(w, r, http.StatusServiceUnavailable, errScanDisabled)
		return
	}
	sc, ok := s.withContext(w, r)
	if !ok {
		return
	}
	snap, errs, err := s.cfg.Collect(r.Context())
	if err != nil {
		respondError(w, r, http.StatusBadGateway, fmt.Errorf("collect resources: %w", err))
		return
	}
	s.saved(w, r, sc, snap, errs)
}

func (s *Server) importScan(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.withContext(w, r)
	if !ok {
		return
	}
	snap, err := resource.DecodeSnapshot(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	s.saved(w, r, sc, classify.Default().ClassifySnapshot(snap), nil)
}

func (s *Server) saved(w http.ResponseWriter, r *http.Request, sc snapshot.ScanContext, snap *resource.Snapshot, errs []string) {
	name, err := sc.Save(snap)
	if err != nil {
		respondError(w, r, statusFor(err), err)
		return
	}
	if errs == nil {
		errs = []string{}
	}
	respond(w, r, http.StatusCreated, scanReply{
		Filename:       name,
		SubscriptionID: snap.SubscriptionID,
		Timestamp:      snap.Timestamp,
		TotalResources: snap.Total(),
		TotalOrphaned:  snap.TotalOrphaned(),
		Errors:         errs,
	})
}

func (s *Server) resourceAvailability(w http.ResponseWriter, r *http.Request) {
	snap, name, ok := s.latest(w, r)
	if !ok {
		return
	}
	ov := analyzer.Analyze(snap)
	sc, _ := s.scanContext(r)
	respond(w, r, http.StatusOK, availabilityReply{
		ScanFile:       name,
		ScanDate:       ov.ScanDate,
		SubscriptionID: ov.SubscriptionID,
		DemoMode:       sc.Mode == snapshot.ModeDemo,
		TotalResources: ov.TotalResources,
		TypesWithData:  ov.TypesWithData,
		Types:          ov.Types,
	})
}

func (s *Server) orphanedResources(w http.ResponseWriter, r *http.Request) {
	snap, name, ok := s.latest(w, r)
	if !ok {
		return
	}
	ov := analyzer.Analyze(snap)
	respond(w, r, http.StatusOK, orphanedReply{
		ScanFile:       name,
		ScanDate:       ov.ScanDate,
		TotalOrphaned:  ov.TotalOrphaned,
		ByResourceType: ov.ByResourceType,
	})
}

func (s *Server) orphanedDetails(w http.ResponseWriter, r *http.Request) {
	snap, name, ok := s.latest(w, r)
	if !ok {
		return
	}
	reply := orphanedDetailsReply{ScanFile: name, Resources: map[resource.Type][]resource.Record{}}
	for _, t := range resource.Types() {
		orphans := resource.Orphans(snap.Get(t))
		if len(orphans) == 0 {
			continue
		}
		reply.Resources[t] = orphans
		reply.TotalOrphaned += len(orphans)
	}
	respond(w, r, http.StatusOK, reply)
}

func (s *Server) completeResources(w http.ResponseWriter, r *http.Request) {
	snap, name, ok := s.latest(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, completeReply{
		ScanFile:       name,
		SubscriptionID: snap.SubscriptionID,
		Timestamp:      snap.Timestamp,
		TotalResources: snap.Total(),
		TotalOrphaned:  snap.TotalOrphaned(),
		Resources:      snap.Resources,
	})
}

// typeInfo resolves the {type} URL parameter or writes a 404.
func typeInfo(w http.ResponseWriter, r *http.Request) (resource.Info, bool) {
	raw := chi.URLParam(r, "type")
	info, ok := resource.Lookup(raw)
	if !ok {
		respondError(w, r, http.StatusNotFound, fmt.Errorf("unknown resource type %q", raw))
	}
	return info, ok
}

func (s *Server) typeReport(w http.ResponseWriter, r *http.Request) {
	info, ok := typeInfo(w, r)
	if !ok {
		return
	}
	snap, name, ok := s.latest(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, report.FromSnapshot(snap, name, info))
}

func (s *Server) exportRecommendations(w http.ResponseWriter, r *http.Request) {
	info, ok := typeInfo(w, r)
	if !ok {
		return
	}
	snap, name, ok := s.latest(w, r)
	if !ok {
		return
	}
	rep := report.FromSnapshot(snap, name, info)

	filename := fmt.Sprintf("%s_recommendations_%s.csv", info.Type, time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.WriteRecommendationsCSV(w, rep.Recommendations); err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
	}
}

func (s *Server) appServiceAnalysis(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.withContext(w, r)
	if !ok {
		return
	}
	analysis, err := report.LoadAppService(s.cfg.DataDir, sc)
	if err != nil {
		respondError(w, r, statusFor(err), err)
		return
	}
	respond(w, r, http.StatusOK, analysis)
}

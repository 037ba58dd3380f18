package report

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ppiankov/azspectre/internal/analyzer"
	"github.com/ppiankov/azspectre/internal/recommend"
	"github.com/ppiankov/azspectre/internal/resource"
	"github.com/ppiankov/azspectre/internal/snapshot"
	"github.com/ppiankov/azspectre/internal/tabular"
)

// Analysis modes of an App Service report.
const (
	AppServicePlansOnly = "plans"
	AppServiceCombined  = "combined"
	AppServiceAppsOnly  = "apps_only"
)

// ErrNoAppServiceData is returned when neither a plans nor an apps table is
// available.
var ErrNoAppServiceData = errors.New("no App Service plans or apps data")

// AppServiceSources names the tables an App Service report was built from.
type AppServiceSources struct {
	PlansFile string `json:"plans_file,omitempty"`
	AppsFile  string `json:"apps_file,omitempty"`
}

// CombinedInsights describes how much app-level data backed the analysis.
type CombinedInsights struct {
	Enabled           bool   `json:"enabled"`
	FilesCount        int    `json:"files_count"`
	PlansFile         string `json:"plans_file,omitempty"`
	AppsFile          string `json:"apps_file,omitempty"`
	TotalAppsDetailed int    `json:"total_apps_detailed,omitempty"`
	RunningApps       int    `json:"running_apps,omitempty"`
	StoppedApps       int    `json:"stopped_apps,omitempty"`
}

// AppServiceReport is the tabular App Service analysis.
type AppServiceReport struct {
	Mode             string                     `json:"mode"`
	Summary          analyzer.PlanSummary       `json:"summary"`
	Plans            *analyzer.PlanAnalysis     `json:"plans,omitempty"`
	Apps             *analyzer.AppAnalysis      `json:"apps,omitempty"`
	DensityMetrics   []analyzer.DensityMetric   `json:"density_metrics"`
	Recommendations  []recommend.Recommendation `json:"recommendations"`
	CombinedInsights CombinedInsights           `json:"combined_insights"`
}

// BuildAppService analyzes plans and apps tables. Plans drive the analysis
// when present; apps refine it. With only apps, an apps-only analysis is
// returned.
func BuildAppService(plans []resource.Plan, apps []resource.App, src AppServiceSources) (*AppServiceReport, error) {
	switch {
	case len(plans) == 0 && len(apps) == 0:
		return nil, ErrNoAppServiceData

	case len(plans) == 0:
		aa := analyzer.AnalyzeApps(apps)
		return &AppServiceReport{
			Mode:            AppServiceAppsOnly,
			Summary:         aa.Summary,
			Apps:            aa,
			DensityMetrics:  []analyzer.DensityMetric{},
			Recommendations: recommend.AppRecommendations(apps),
			CombinedInsights: CombinedInsights{
				FilesCount:        1,
				AppsFile:          src.AppsFile,
				TotalAppsDetailed: len(apps),
				RunningApps:       aa.RunningApps,
				StoppedApps:       aa.StoppedApps,
			},
		}, nil
	}

	pa := analyzer.AnalyzePlans(plans)
	rep := &AppServiceReport{
		Mode:            AppServicePlansOnly,
		Summary:         pa.Summary,
		Plans:           pa,
		DensityMetrics:  analyzer.Density(plans),
		Recommendations: recommend.PlanRecommendations(plans),
		CombinedInsights: CombinedInsights{
			FilesCount: 1,
			PlansFile:  src.PlansFile,
		},
	}
	if len(apps) == 0 {
		return rep, nil
	}

	aa := analyzer.AnalyzeApps(apps)
	rep.Mode = AppServiceCombined
	rep.Apps = aa
	rep.Recommendations = append(rep.Recommendations, recommend.CombinedRecommendations(plans, apps)...)
	rep.CombinedInsights = CombinedInsights{
		Enabled:           true,
		FilesCount:        2,
		PlansFile:         src.PlansFile,
		AppsFile:          src.AppsFile,
		TotalAppsDetailed: len(apps),
		RunningApps:       aa.RunningApps,
		StoppedApps:       aa.StoppedApps,
	}
	return rep, nil
}

// BuildAppServiceFromRecords runs the plans analysis on App Service plan
// records taken from a snapshot.
func BuildAppServiceFromRecords(records []resource.Record, file string) (*AppServiceReport, error) {
	return BuildAppService(resource.PlansFromRecords(records), nil, AppServiceSources{PlansFile: file})
}

// AppServiceAnalysis is an App Service report and the source it was built from.
type AppServiceAnalysis struct {
	DataSource string `json:"data_source"`
	*AppServiceReport
}

// LoadAppService analyzes the newest plans and apps exports found in dataDir.
// When dataDir holds no usable export, the App Service plans of the latest
// snapshot in sc are analyzed instead.
func LoadAppService(dataDir string, sc snapshot.ScanContext) (*AppServiceAnalysis, error) {
	if dataDir != "" {
		rep, err := appServiceFromTables(dataDir)
		switch {
		case err == nil:
			return &AppServiceAnalysis{DataSource: DataSourceTabular, AppServiceReport: rep}, nil
		case !errors.Is(err, ErrNoAppServiceData):
			return nil, err
		}
	}

	snap, name, err := sc.LoadLatest()
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil, fmt.Errorf("%w: %v", ErrNoAppServiceData, err)
	}
	if err != nil {
		return nil, err
	}
	rep, err := BuildAppServiceFromRecords(snap.Get(resource.TypeAppServicePlans), name)
	if err != nil {
		return nil, err
	}
	return &AppServiceAnalysis{DataSource: DataSourceSnapshot, AppServiceReport: rep}, nil
}

func appServiceFromTables(dir string) (*AppServiceReport, error) {
	src, err := tabular.Discover(dir)
	if err != nil {
		slog.Debug("No App Service exports", "dir", dir, "error", err)
		return nil, ErrNoAppServiceData
	}
	if src.PlansFile == "" && src.AppsFile == "" {
		return nil, ErrNoAppServiceData
	}
	plans, apps, err := tabular.LoadSources(src)
	if err != nil {
		return nil, fmt.Errorf("load App Service exports: %w", err)
	}
	return BuildAppService(plans, apps, AppServiceSources{
		PlansFile: baseName(src.PlansFile),
		AppsFile:  baseName(src.AppsFile),
	})
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

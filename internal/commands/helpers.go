package commands

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/ppiankov/azspectre/internal/analyzer"
	"github.com/ppiankov/azspectre/internal/azure"
	"github.com/ppiankov/azspectre/internal/config"
	"github.com/ppiankov/azspectre/internal/report"
	"github.com/ppiankov/azspectre/internal/resource"
	"github.com/ppiankov/azspectre/internal/snapshot"
)

const defaultSnapshotDir = "scans"

// enhanceError wraps an error with context and suggestions for common Azure issues.
func enhanceError(action string, err error) error {
	msg := err.Error()

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode != "" {
		msg += " " + respErr.ErrorCode
	}

	var hint string
	switch {
	case strings.Contains(msg, "DefaultAzureCredential") || strings.Contains(msg, "az login"):
		hint = "Configure Azure credentials: run 'az login', or set AZURE_TENANT_ID/AZURE_CLIENT_ID/AZURE_CLIENT_SECRET"
	case strings.Contains(msg, "AADSTS"):
		hint = "Azure AD rejected the sign-in. Run 'az login' again or check the service principal secret"
	case strings.Contains(msg, "AuthorizationFailed"):
		hint = "Insufficient permissions. Assign the Reader role from 'azspectre init' on the subscription"
	case strings.Contains(msg, "SubscriptionNotFound") || errors.Is(err, azure.ErrNoSubscription):
		hint = "Subscription not visible to this identity. Check --subscription or run 'az account list'"
	case strings.Contains(msg, "TooManyRequests") || strings.Contains(msg, "throttl"):
		hint = "Azure API rate limit hit. Retry later or lower --concurrency"
	}

	if hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// computeTargetHash generates a SHA256 hash for the target URI.
func computeTargetHash(subscriptionID string, types []resource.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	input := fmt.Sprintf("subscription:%s,types:%s", subscriptionID, strings.Join(names, ","))
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("sha256:%x", h)
}

// scanContext resolves the snapshot mode and directory from flags, then config.
func scanContext() (snapshot.ScanContext, error) {
	m := mode
	if m == "" {
		m = cfg.Mode
	}
	parsed, err := snapshot.ParseMode(m)
	if err != nil {
		return snapshot.ScanContext{}, err
	}

	dir := snapshotDir
	if dir == "" {
		dir = cfg.SnapshotDir
	}
	if dir == "" {
		dir = defaultSnapshotDir
	}
	return snapshot.ScanContext{Mode: parsed, Dir: dir}, nil
}

// resolveSubscription prefers the flag, then config. Empty means auto-detect.
func resolveSubscription() string {
	if subscription != "" {
		return subscription
	}
	return cfg.SubscriptionID
}

// resolveTypes prefers the flag value, then config. Empty means every type.
func resolveTypes(flag []string) ([]resource.Type, error) {
	if len(flag) > 0 {
		return config.ParseTypes(flag)
	}
	return cfg.ResourceTypes()
}

// buildData assembles reporter input for the given types of a snapshot. With
// no types, every type holding data is reported.
func buildData(snap *resource.Snapshot, file string, sc snapshot.ScanContext, types []resource.Type) report.Data {
	selected := types
	if len(selected) == 0 {
		for _, t := range resource.Types() {
			if len(snap.Get(t)) > 0 {
				selected = append(selected, t)
			}
		}
	}

	names := make([]string, 0, len(types))
	reports := make([]*report.Report, 0, len(selected))
	for _, t := range types {
		names = append(names, string(t))
	}
	for _, t := range selected {
		info, _ := resource.Lookup(string(t))
		reports = append(reports, report.FromSnapshot(snap, file, info))
	}

	return report.Data{
		Tool:      "azspectre",
		Version:   version,
		Timestamp: time.Now().UTC(),
		Target: report.Target{
			Type:    "azure-subscription",
			URIHash: computeTargetHash(snap.SubscriptionID, types),
		},
		Config: report.ReportConfig{
			Mode:         string(sc.Mode),
			SnapshotFile: file,
			Types:        names,
		},
		Overview: analyzer.Analyze(snap),
		Reports:  reports,
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

func selectReporter(format, query string, w io.Writer) (report.Reporter, error) {
	if query != "" && format != "json" {
		return nil, fmt.Errorf("--jq requires --format json")
	}
	switch format {
	case "json":
		return &report.JSONReporter{Writer: w, Query: query}, nil
	case "text":
		return &report.TextReporter{Writer: w}, nil
	case "sarif":
		return &report.SARIFReporter{Writer: w}, nil
	case "csv":
		return &report.CSVReporter{Writer: w}, nil
	case "pdf":
		return &report.PDFReporter{Writer: w}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use text, json, sarif, csv or pdf)", format)
	}
}

// render writes data to outputFile (stdout when empty) in the given format.
func render(data report.Data, format, query, outputFile string) error {
	out, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	reporter, err := selectReporter(format, query, out)
	if err != nil {
		out.Close()
		return err
	}
	if err := reporter.Generate(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// formatOrConfig returns the flag value unless it still holds the default
// and the config file names a format.
func formatOrConfig(flag string) string {
	if flag == "text" && cfg.Format != "" {
		return cfg.Format
	}
	return flag
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ppiankov/azspectre/internal/azure"
	"github.com/ppiankov/azspectre/internal/resource"
)

var scanFlags struct {
	types       []string
	format      string
	outputFile  string
	jq          string
	concurrency int
	noProgress  bool
	noSave      bool
	save        bool
	timeout     time.Duration
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan an Azure subscription for orphaned resources",
	Long: `Inventory an Azure subscription through Resource Graph and the compute and
App Service APIs, classify every resource as orphaned or active, store the
result as a snapshot and print a report per resource type.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanFlags.types, "types", nil, "Comma-separated resource types to scan (default: all)")
	scanCmd.Flags().StringVar(&scanFlags.format, "format", "text", "Output format: text, json, sarif, csv, pdf")
	scanCmd.Flags().StringVarP(&scanFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().StringVar(&scanFlags.jq, "jq", "", "jq expression applied to JSON output")
	scanCmd.Flags().IntVar(&scanFlags.concurrency, "concurrency", 4, "Collectors run in parallel")
	scanCmd.Flags().BoolVar(&scanFlags.noProgress, "no-progress", false, "Disable progress output")
	scanCmd.Flags().BoolVar(&scanFlags.noSave, "no-save", false, "Do not store the scan as a snapshot")
	scanCmd.Flags().BoolVar(&scanFlags.save, "save", false, "Store a --types scan as a snapshot even though it only covers some types")
	scanCmd.Flags().DurationVar(&scanFlags.timeout, "timeout", 10*time.Minute, "Scan timeout")
}

func runScan(cmd *cobra.Command, _ []string) error {
	applyConfigDefaults()

	ctx := cmd.Context()
	if scanFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scanFlags.timeout)
		defer cancel()
	}

	sc, err := scanContext()
	if err != nil {
		return err
	}
	types, err := resolveTypes(scanFlags.types)
	if err != nil {
		return err
	}

	result, err := collect(ctx, resolveSubscription(), types, scanFlags.concurrency, !scanFlags.noProgress)
	if err != nil {
		return err
	}

	file := ""
	if shouldSave() {
		file, err = sc.Save(result.Snapshot)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	return render(buildData(result.Snapshot, file, sc, types), scanFlags.format, scanFlags.jq, scanFlags.outputFile)
}

// shouldSave reports whether the scan becomes a snapshot. A --types scan would
// otherwise become the latest snapshot and hide every type it skipped, so it
// is only stored on request.
func shouldSave() bool {
	if scanFlags.noSave {
		return false
	}
	if len(scanFlags.types) > 0 && !scanFlags.save {
		slog.Info("Scan covers only some resource types, snapshot not saved (use --save to store it)", "types", scanFlags.types)
		return false
	}
	return true
}

// collect authenticates, runs every collector for types and returns the
// classified snapshot.
func collect(ctx context.Context, subscriptionID string, types []resource.Type, concurrency int, progress bool) (*azure.Result, error) {
	client, err := azure.NewClient(ctx, subscriptionID)
	if err != nil {
		return nil, enhanceError("initialize Azure client", err)
	}
	collectors, err := client.Collectors()
	if err != nil {
		return nil, enhanceError("create Azure clients", err)
	}

	c := azure.NewCollector(client.SubscriptionID(), collectors, azure.Options{
		Concurrency: concurrency,
		Types:       types,
		Exclude: azure.ExcludeConfig{
			ResourceIDs: cfg.Exclude.ResourceIDSet(),
			Tags:        cfg.Exclude.ParseTags(),
		},
	})
	slog.Info("Scanning subscription", "subscription", client.SubscriptionID(), "types", len(c.Types()))

	if progress {
		stop := startProgress(c)
		defer stop()
	}

	result, err := c.CollectAll(ctx)
	if err != nil {
		return nil, enhanceError("collect resources", err)
	}
	return result, nil
}

// startProgress shows a spinner updated as collectors finish.
func startProgress(c *azure.Collector) func() {
	total := len(c.Types())
	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(fmt.Sprintf("Collecting 0/%d resource types", total))
	if err != nil {
		slog.Debug("Progress spinner unavailable", "error", err)
		return func() {}
	}

	var (
		mu   sync.Mutex
		done int
	)
	c.SetProgressFn(func(p azure.Progress) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if p.Err != nil {
			spinner.UpdateText(fmt.Sprintf("Collecting %d/%d resource types (%s failed)", done, total, p.Type))
			return
		}
		spinner.UpdateText(fmt.Sprintf("Collecting %d/%d resource types (%s: %d)", done, total, p.Type, p.Count))
	})
	return func() { _ = spinner.Stop() }
}

// applyConfigDefaults fills scan flags left at their defaults from the config file.
func applyConfigDefaults() {
	scanFlags.format = formatOrConfig(scanFlags.format)
	if scanFlags.concurrency == 4 && cfg.Concurrency > 0 {
		scanFlags.concurrency = cfg.Concurrency
	}
	if scanFlags.timeout == 10*time.Minute && cfg.TimeoutDuration() > 0 {
		scanFlags.timeout = cfg.TimeoutDuration()
	}
}

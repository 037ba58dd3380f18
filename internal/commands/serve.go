package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/azspectre/internal/resource"
	"github.com/ppiankov/azspectre/internal/server"
)

var serveFlags struct {
	listen      string
	dataDir     string
	concurrency int
	timeout     time.Duration
	noScan      bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve snapshots, reports and App Service analysis over HTTP",
	Long: `Start the JSON API. Read endpoints work from stored snapshots; POST
/api/scans collects a fresh snapshot with the ambient Azure credentials
unless --no-scan is set. Prometheus metrics are exposed on /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveFlags.dataDir, "data-dir", "", "Directory with App Service plans/apps exports")
	serveCmd.Flags().IntVar(&serveFlags.concurrency, "concurrency", 4, "Collectors run in parallel per scan")
	serveCmd.Flags().DurationVar(&serveFlags.timeout, "scan-timeout", 10*time.Minute, "Timeout of one scan request")
	serveCmd.Flags().BoolVar(&serveFlags.noScan, "no-scan", false, "Disable POST /api/scans")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveFlags.listen == ":8080" && cfg.Listen != "" {
		serveFlags.listen = cfg.Listen
	}
	if serveFlags.dataDir == "" {
		serveFlags.dataDir = cfg.DataDir
	}
	if serveFlags.concurrency == 4 && cfg.Concurrency > 0 {
		serveFlags.concurrency = cfg.Concurrency
	}

	sc, err := scanContext()
	if err != nil {
		return err
	}
	types, err := cfg.ResourceTypes()
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		SnapshotDir: sc.Dir,
		DataDir:     serveFlags.dataDir,
		DefaultMode: sc.Mode,
		Version:     version,
	}
	if !serveFlags.noScan {
		sub := resolveSubscription()
		srvCfg.Collect = func(ctx context.Context) (*resource.Snapshot, []string, error) {
			ctx, cancel := context.WithTimeout(ctx, serveFlags.timeout)
			defer cancel()
			result, err := collect(ctx, sub, types, serveFlags.concurrency, false)
			if err != nil {
				return nil, nil, err
			}
			return result.Snapshot, result.Errors, nil
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.New(srvCfg).ListenAndServe(ctx, serveFlags.listen)
}

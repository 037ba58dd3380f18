package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ppiankov/azspectre/internal/config"
	"github.com/ppiankov/azspectre/internal/logging"
)

var (
	verbose      bool
	subscription string
	mode         string
	snapshotDir  string
	version      string
	commit       string
	date         string
	cfg          config.Config
)

var rootCmd = &cobra.Command{
	Use:   "azspectre",
	Short: "Audit an Azure subscription for orphaned resources",
	Long: `azspectre inventories an Azure subscription, flags orphaned resources
(unattached disks and public IPs, empty NSGs and route tables, backend-less
gateways, expired certificates and more) and turns each finding into a
prioritized cleanup recommendation.

Scans are stored as JSON snapshots and can be analyzed offline, exported
as text, JSON, SARIF, CSV or PDF, or served over HTTP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with injected build info.
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&subscription, "subscription", "", "Azure subscription ID (default: first enabled subscription)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "Snapshot mode: production or demo")
	rootCmd.PersistentFlags().StringVar(&snapshotDir, "snapshot-dir", "", "Directory holding scan snapshots (default: scans)")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(appServiceCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/azspectre/internal/report"
)

var appServiceFlags struct {
	dataDir    string
	format     string
	outputFile string
	jq         string
}

var appServiceCmd = &cobra.Command{
	Use:   "appservice",
	Short: "Analyze App Service plans and apps for consolidation",
	Long: `Analyze App Service plan density, tiers and hosted apps. Plans and apps
exports (CSV or XLSX, as downloaded from the Azure portal) are read from
--data-dir; when none are found, the plans of the latest snapshot are used.`,
	RunE: runAppService,
}

func init() {
	appServiceCmd.Flags().StringVar(&appServiceFlags.dataDir, "data-dir", "", "Directory with App Service plans/apps exports (default: data_dir from config)")
	appServiceCmd.Flags().StringVar(&appServiceFlags.format, "format", "text", "Output format: text or json")
	appServiceCmd.Flags().StringVarP(&appServiceFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
	appServiceCmd.Flags().StringVar(&appServiceFlags.jq, "jq", "", "jq expression applied to JSON output")
}

func runAppService(_ *cobra.Command, _ []string) error {
	dir := appServiceFlags.dataDir
	if dir == "" {
		dir = cfg.DataDir
	}
	sc, err := scanContext()
	if err != nil {
		return err
	}

	analysis, err := report.LoadAppService(dir, sc)
	if err != nil {
		return fmt.Errorf("analyze App Service: %w", err)
	}

	out, err := openOutput(appServiceFlags.outputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch format := formatOrConfig(appServiceFlags.format); format {
	case "json":
		return (&report.JSONReporter{Writer: out, Query: appServiceFlags.jq}).GenerateAppService(analysis)
	case "text":
		if appServiceFlags.jq != "" {
			return fmt.Errorf("--jq requires --format json")
		}
		return (&report.TextReporter{Writer: out}).GenerateAppService(analysis)
	default:
		return fmt.Errorf("unsupported format: %s (use text or json)", format)
	}
}

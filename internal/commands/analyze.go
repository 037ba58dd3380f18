package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/azspectre/internal/report"
	"github.com/ppiankov/azspectre/internal/resource"
)

var analyzeFlags struct {
	format     string
	outputFile string
	jq         string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <type>",
	Short: "Report one resource type from the latest snapshot",
	Long: `Build the full report for one resource type (summary, cost impact, risk,
benchmarks, recommendations and orphan list) from the newest snapshot of the
active mode. The type is a snapshot key (public_ips) or a slug (public-ips).`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize every resource type in the latest snapshot",
	RunE:  runOverview,
}

func init() {
	for _, c := range []*cobra.Command{analyzeCmd, overviewCmd} {
		c.Flags().StringVar(&analyzeFlags.format, "format", "text", "Output format: text, json, sarif, csv, pdf")
		c.Flags().StringVarP(&analyzeFlags.outputFile, "output", "o", "", "Output file path (default: stdout)")
		c.Flags().StringVar(&analyzeFlags.jq, "jq", "", "jq expression applied to JSON output")
	}
}

func runAnalyze(_ *cobra.Command, args []string) error {
	info, ok := resource.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown resource type %q (see 'azspectre analyze --help')", args[0])
	}

	sc, err := scanContext()
	if err != nil {
		return err
	}
	snap, file, err := sc.LoadLatest()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	data := buildData(snap, file, sc, []resource.Type{info.Type})
	data.Overview = nil
	return render(data, formatOrConfig(analyzeFlags.format), analyzeFlags.jq, analyzeFlags.outputFile)
}

func runOverview(_ *cobra.Command, _ []string) error {
	sc, err := scanContext()
	if err != nil {
		return err
	}
	snap, file, err := sc.LoadLatest()
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	data := buildData(snap, file, sc, nil)
	data.Reports = []*report.Report{}
	return render(data, formatOrConfig(analyzeFlags.format), analyzeFlags.jq, analyzeFlags.outputFile)
}

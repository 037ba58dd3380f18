package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var versionFlags struct {
	json bool
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		if versionFlags.json {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{"version": version, "commit": commit, "date": date})
		}
		_, err := fmt.Fprintf(w, "azspectre %s (commit: %s, built: %s)\n", version, commit, date)
		return err
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionFlags.json, "json", false, "Print as JSON")
}

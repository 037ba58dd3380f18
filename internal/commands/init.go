package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate sample config and a read-only Azure role definition",
	Long:  `Creates a sample .azspectre.yaml config file and a custom role definition JSON granting the read access azspectre needs.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, _ []string) error {
	configPath := ".azspectre.yaml"
	rolePath := "azspectre-role.json"
	w := cmd.OutOrStdout()

	wroteConfig, err := writeIfNotExists(configPath, sampleConfig, initFlags.force)
	if err != nil {
		return err
	}
	wroteRole, err := writeIfNotExists(rolePath, sampleRoleDefinition, initFlags.force)
	if err != nil {
		return err
	}

	for _, f := range []struct {
		path  string
		wrote bool
	}{{configPath, wroteConfig}, {rolePath, wroteRole}} {
		if f.wrote {
			fmt.Fprintf(w, "Created %s\n", f.path)
		} else {
			fmt.Fprintf(w, "Skipping %s (already exists, use --force to overwrite)\n", f.path)
		}
	}
	if !wroteConfig && !wroteRole {
		return nil
	}

	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Edit .azspectre.yaml to customize scan settings")
	fmt.Fprintln(w, "  2. Replace <subscription-id> in azspectre-role.json, then run:")
	fmt.Fprintln(w, "     az role definition create --role-definition azspectre-role.json")
	fmt.Fprintln(w, "     (or assign the built-in Reader role)")
	fmt.Fprintln(w, "  3. Run: az login && azspectre scan")
	return nil
}

// writeIfNotExists writes content to path and reports whether it did.
func writeIfNotExists(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

const sampleConfig = `# azspectre configuration
# Every key can be overridden with an AZSPECTRE_* environment variable,
# e.g. AZSPECTRE_SUBSCRIPTION_ID or AZSPECTRE_EXCLUDE_TAGS.

# Subscription to scan (default: first enabled subscription of the credential)
# subscription_id: 00000000-0000-0000-0000-000000000000

# Snapshot mode: production or demo
mode: production

# Where scan snapshots are stored
snapshot_dir: scans

# Directory with App Service plans/apps exports (CSV or XLSX)
# data_dir: data

# Output format: text, json, sarif, csv or pdf
format: text

# Scan timeout and parallel collectors
timeout: 10m
concurrency: 4

# HTTP listen address for 'azspectre serve'
listen: ":8080"

# Resource types to scan (default: all). Keys or slugs, e.g.:
# types:
#   - disks
#   - public-ips
#   - nsgs

# Resources to exclude from scanning
# exclude:
#   resource_ids:
#     - /subscriptions/.../resourceGroups/rg/providers/Microsoft.Compute/disks/keep-me
#   tags:
#     - "Environment=production"
#     - "azspectre:ignore"
`

const sampleRoleDefinition = `{
  "Name": "azspectre Reader",
  "IsCustom": true,
  "Description": "Read-only access used by azspectre to inventory orphaned resources.",
  "Actions": [
    "Microsoft.Resources/subscriptions/read",
    "Microsoft.Resources/subscriptions/resourceGroups/read",
    "Microsoft.ResourceGraph/resources/read",
    "Microsoft.Compute/disks/read",
    "Microsoft.Compute/availabilitySets/read",
    "Microsoft.Compute/virtualMachines/read",
    "Microsoft.Network/*/read",
    "Microsoft.Web/serverfarms/read",
    "Microsoft.Web/sites/read",
    "Microsoft.Web/certificates/read",
    "Microsoft.Web/connections/read",
    "Microsoft.Logic/workflows/read",
    "Microsoft.Sql/servers/read",
    "Microsoft.Sql/servers/elasticPools/read",
    "Microsoft.Storage/storageAccounts/read"
  ],
  "NotActions": [],
  "AssignableScopes": [
    "/subscriptions/<subscription-id>"
  ]
}
`

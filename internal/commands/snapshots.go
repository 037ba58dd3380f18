package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ppiankov/azspectre/internal/classify"
)

var snapshotsFlags struct {
	all bool
}

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Aliases: []string{"scan-files"},
	Short:   "Manage stored scan snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots of the active mode, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotsList,
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete [filename]",
	Short: "Delete one production snapshot, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshotsDelete,
}

var snapshotsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Reclassify a snapshot document and store it in the active mode",
	Long: `Read a snapshot JSON document (for example one exported from another
machine or hand-built for a demo), classify every record with the current
rules and store it as a new snapshot. Use --mode demo to seed demo data.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotsImport,
}

func init() {
	snapshotsDeleteCmd.Flags().BoolVar(&snapshotsFlags.all, "all", false, "Delete every production snapshot")
	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsDeleteCmd, snapshotsImportCmd)
}

func runSnapshotsList(cmd *cobra.Command, _ []string) error {
	sc, err := scanContext()
	if err != nil {
		return err
	}
	listing, err := sc.List()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if listing.TotalCount == 0 {
		fmt.Fprintf(w, "No %s snapshots in %s\n", sc.Mode, sc.Dir)
		return nil
	}

	td := pterm.TableData{{"File", "Scan date", "Resources", "Size (MB)", "Modified"}}
	for _, f := range listing.Files {
		td = append(td, []string{
			f.Filename,
			f.ScanDate,
			strconv.Itoa(f.ResourceCount),
			strconv.FormatFloat(f.SizeMB, 'f', 2, 64),
			f.Modified,
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(td).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(w, out)
	fmt.Fprintf(w, "%d snapshots, %.2f MB\n", listing.TotalCount, listing.TotalSizeMB)
	return nil
}

func runSnapshotsDelete(cmd *cobra.Command, args []string) error {
	sc, err := scanContext()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	switch {
	case snapshotsFlags.all && len(args) > 0:
		return errors.New("pass either a filename or --all, not both")
	case snapshotsFlags.all:
		n, err := sc.DeleteAll()
		if err != nil {
			return fmt.Errorf("delete snapshots: %w", err)
		}
		fmt.Fprintf(w, "Deleted %d snapshots\n", n)
		return nil
	case len(args) == 0:
		return errors.New("missing filename (or use --all)")
	}

	if err := sc.Delete(args[0]); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	fmt.Fprintf(w, "Deleted %s\n", args[0])
	return nil
}

func runSnapshotsImport(cmd *cobra.Command, args []string) error {
	sc, err := scanContext()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	name, snap, err := sc.Import(f, classify.Default())
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %s (%d resources, %d orphaned)\n",
		args[0], name, snap.Total(), snap.TotalOrphaned())
	return nil
}

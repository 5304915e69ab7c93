package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecspanse-go/ecspanse/pkg/ecssnapshot"
	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import a bbolt snapshot file",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Export an empty store's shape to PATH, or report a restored one's contents",
	Long: `Export writes a bbolt snapshot file. Run with --restore to round-trip
an existing snapshot (restore then re-export, e.g. to migrate a file
after a Kind's registered payload type changed), otherwise it exports
an empty store — useful mainly to verify the snapshot file format
opens cleanly downstream.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotExport,
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import PATH",
	Short: "Restore PATH into a throwaway store and report what it contained",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotImport,
}

func init() {
	snapshotExportCmd.Flags().String("restore", "", "Snapshot file to restore from before exporting")
	snapshotExportCmd.Flags().Bool("prune", false, "Remove dangling Children/Parents references before exporting")

	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
}

func runSnapshotExport(cmd *cobra.Command, args []string) error {
	outPath := args[0]
	restorePath, _ := cmd.Flags().GetString("restore")
	prune, _ := cmd.Flags().GetBool("prune")

	store := ecsstore.New()
	if restorePath != "" {
		if err := ecssnapshot.Restore(restorePath, store); err != nil {
			return fmt.Errorf("restore %s: %w", restorePath, err)
		}
	}

	if prune {
		pruned := ecssnapshot.PruneDanglingReferences(store)
		if len(pruned) > 0 {
			fmt.Printf("Pruned %d dangling reference(s)\n", len(pruned))
		}
	}

	if err := ecssnapshot.Export(outPath, store); err != nil {
		return fmt.Errorf("export %s: %w", outPath, err)
	}
	fmt.Printf("Exported %d component(s) and %d resource(s) to %s\n",
		len(store.AllComponents()), len(store.AllResources()), outPath)
	return nil
}

func runSnapshotImport(_ *cobra.Command, args []string) error {
	path := args[0]

	store := ecsstore.New()
	if err := ecssnapshot.Restore(path, store); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}

	fmt.Printf("%s: %d component(s), %d resource(s)\n",
		path, len(store.AllComponents()), len(store.AllResources()))
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/storage/snapshot"
)

var (
	snapshotFile        string
	snapshotCompression string
)

// snapshotCmd groups the state snapshot commands.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import world state",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured state backend to a snapshot file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(cmd, func(view state.View) error {
			f, err := os.Create(snapshotFile)
			if err != nil {
				return err
			}
			stats, err := snapshot.Export(f, view, snapshotCompression)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries (%d bytes) to %s\n", stats.Entries, stats.Bytes, snapshotFile)
			return nil
		})
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a snapshot file into the configured state backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(cmd, func(view state.View) error {
			f, err := os.Open(snapshotFile)
			if err != nil {
				return err
			}
			defer f.Close()
			stats, err := snapshot.Import(f, view)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries (%d bytes) from %s\n", stats.Entries, stats.Bytes, snapshotFile)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotImportCmd)

	snapshotCmd.PersistentFlags().StringVarP(&snapshotFile, "file", "f", "state.snap", "snapshot file")
	snapshotExportCmd.Flags().StringVar(&snapshotCompression, "compression", "lz4", "none or lz4")
}

// withState opens the configured persistent backend for fn.
func withState(cmd *cobra.Command, fn func(state.View) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.State.Backend == state.BackendMemory {
		return fmt.Errorf("snapshot needs a persistent state backend, got %s", cfg.State.Backend)
	}
	view, closeFn, err := state.OpenBase(cmd.Context(), cfg.State.Backend, cfg.State.Path)
	if err != nil {
		return err
	}
	err = fn(view)
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	return err
}

package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/ppal/snapshot"
)

// NewSnapshotCmd creates the "snapshot" command group.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record and inspect project snapshots",
	}
	cmd.PersistentFlags().String("db", "", "Path to the snapshot database (default: ~/.ppal/snapshots.db)")

	cmd.AddCommand(newSnapshotSaveCmd())
	cmd.AddCommand(newSnapshotListCmd())
	cmd.AddCommand(newSnapshotShowCmd())
	cmd.AddCommand(newSnapshotPruneCmd())
	return cmd
}

func newSnapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Read the project and store it as a snapshot",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runSnapshotSave,
	}
}

func runSnapshotSave(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	store, err := s.openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	snap, err := snapshot.Capture(cmd.Context(), s.client, store, s.client.BaseURL())
	if err != nil {
		return clientError("capturing snapshot", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %s (%d tracks, %s BPM)\n",
		snap.ID, len(snap.Project.Tracks), strconv.FormatFloat(snap.Project.Tempo, 'f', -1, 64))
	return nil
}

func newSnapshotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runSnapshotList,
	}
	cmd.Flags().Int("limit", 20, "Maximum snapshots to list (0 for all)")
	return cmd
}

func runSnapshotList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return exitError(exitUsage, "--limit must not be negative")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	store, err := s.openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	snaps, err := store.List(cmd.Context(), limit)
	if err != nil {
		return exitError(exitFailure, "listing snapshots: %v", err)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshots stored.")
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTAKEN_AT\tTEMPO\tTRACKS\tBASE_URL")
	for _, snap := range snaps {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\n",
			snap.ID,
			snap.TakenAt.Format(time.RFC3339),
			strconv.FormatFloat(snap.Project.Tempo, 'f', -1, 64),
			len(snap.Project.Tracks),
			snap.BaseURL,
		)
	}
	return flushTable(writer)
}

func newSnapshotShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <snapshot-id>",
		Short: "Print one snapshot as JSON",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE:  runSnapshotShow,
	}
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	store, err := s.openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	snap, found, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return exitError(exitFailure, "loading snapshot: %v", err)
	}
	if !found {
		return exitError(exitNotFound, "snapshot %q not found", args[0])
	}
	return writeJSON(cmd.OutOrStdout(), snap)
}

func newSnapshotPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest snapshots",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runSnapshotPrune,
	}
	cmd.Flags().Int("keep", 0, "Number of newest snapshots to keep")
	_ = cmd.MarkFlagRequired("keep")
	return cmd
}

func runSnapshotPrune(cmd *cobra.Command, _ []string) error {
	keep, _ := cmd.Flags().GetInt("keep")
	if keep < 0 {
		return exitError(exitUsage, "--keep must not be negative")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	store, err := s.openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	removed, err := store.Prune(cmd.Context(), keep)
	if err != nil {
		return exitError(exitFailure, "pruning snapshots: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d snapshot(s)\n", removed)
	return nil
}

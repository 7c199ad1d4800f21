package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/ppal/model"
)

// NewProjectCmd creates the "project" subcommand.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show the tempo and tracks of the open Live set",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  runProject,
	}
	cmd.Flags().Bool("json", false, "Print the project as JSON")
	return cmd
}

func runProject(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	info, err := s.client.GetProjectInfo(cmd.Context())
	if err != nil {
		return clientError("reading project", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), info)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Tempo: %s BPM\n", strconv.FormatFloat(info.Tempo, 'f', -1, 64))
	writer := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tTYPE\tCLIPS")
	for _, track := range info.Tracks {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%d\n", track.ID, track.Name, derefOr(track.Type, "-"), clipCount(track))
	}
	return flushTable(writer)
}

// NewTrackCmd creates the "track" subcommand.
func NewTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <track-id>",
		Short: "Show one track and its clips",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE:  runTrack,
	}
	cmd.Flags().Bool("json", false, "Print the track as JSON")
	return cmd
}

func runTrack(cmd *cobra.Command, args []string) error {
	trackID, err := parseID("track id", args[0])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	track, err := s.client.GetTrack(cmd.Context(), trackID)
	if err != nil {
		return clientError(fmt.Sprintf("reading track %d", trackID), err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), track)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Track %d: %s\n", track.ID, track.Name)
	writer := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tLENGTH\tNOTES")
	for _, clip := range track.Clips {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%d\n", clip.ID, clip.Name, clip.Length, len(clip.Notes))
	}
	return flushTable(writer)
}

// NewClipCmd creates the "clip" subcommand.
func NewClipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clip <track-id> <clip-id>",
		Short: "Show one clip and its notes",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE:  runClip,
	}
	cmd.Flags().Bool("json", false, "Print the clip as JSON")
	return cmd
}

func runClip(cmd *cobra.Command, args []string) error {
	trackID, err := parseID("track id", args[0])
	if err != nil {
		return err
	}
	clipID, err := parseID("clip id", args[1])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	clip, err := s.client.GetClip(cmd.Context(), trackID, clipID)
	if err != nil {
		return clientError(fmt.Sprintf("reading clip %d on track %d", clipID, trackID), err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), clip)
	}
	writeClip(cmd.OutOrStdout(), clip)
	return nil
}

func writeClip(out io.Writer, clip model.Clip) {
	fmt.Fprintf(out, "Clip %d: %s (length %s)\n", clip.ID, clip.Name, clip.Length)
	writer := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "PITCH\tSTART\tDURATION\tVELOCITY\tPROBABILITY")
	for _, note := range clip.Notes {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\n",
			note.Pitch,
			note.Start,
			note.Duration,
			note.Velocity,
			strconv.FormatFloat(note.Probability, 'f', -1, 64),
		)
	}
	_ = writer.Flush()
}

func parseID(label, value string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id < 0 {
		return 0, exitError(exitUsage, "invalid %s %q: expected a non-negative integer", label, value)
	}
	return id, nil
}

func flushTable(writer *tabwriter.Writer) error {
	if err := writer.Flush(); err != nil {
		return exitError(exitFailure, "writing output: %v", err)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return exitError(exitFailure, "encoding output: %v", err)
	}
	return nil
}

func derefOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func clipCount(track model.Track) int {
	count := len(track.Clips)
	if track.SessionClipCount != nil || track.ArrangementClipCount != nil {
		count = 0
		if track.SessionClipCount != nil {
			count += *track.SessionClipCount
		}
		if track.ArrangementClipCount != nil {
			count += *track.ArrangementClipCount
		}
	}
	return count
}

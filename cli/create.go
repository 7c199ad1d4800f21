package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/ppal/model"
)

// NewCreateClipCmd creates the "create-clip" subcommand.
func NewCreateClipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-clip <track-id>",
		Short: "Create a MIDI clip from a JSON array of notes",
		Long: `Create a MIDI clip on a track. --notes names a file (or - for stdin)
holding a JSON array of notes:

  [{"pitch": "C3", "start": "1|1", "duration": "1:0", "velocity": 100}]

velocity defaults to 80 and probability to 1.0.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: runCreateClip,
	}
	cmd.Flags().String("notes", "", "Path to a JSON array of notes, or - for stdin")
	cmd.Flags().Bool("json", false, "Print the created clip as JSON")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func runCreateClip(cmd *cobra.Command, args []string) error {
	trackID, err := parseID("track id", args[0])
	if err != nil {
		return err
	}
	notesPath, _ := cmd.Flags().GetString("notes")
	notes, err := readNotes(cmd, notesPath)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	clip, err := s.client.CreateMIDIClip(cmd.Context(), trackID, notes)
	if err != nil {
		return clientError(fmt.Sprintf("creating clip on track %d", trackID), err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), clip)
	}
	writeClip(cmd.OutOrStdout(), clip)
	return nil
}

func readNotes(cmd *cobra.Command, path string) ([]model.Note, error) {
	var (
		data []byte
		err  error
	)
	switch clean := strings.TrimSpace(path); clean {
	case "":
		return nil, exitError(exitUsage, "--notes is required")
	case "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		// #nosec G304 -- path supplied by the operator.
		data, err = os.ReadFile(clean)
	}
	if err != nil {
		return nil, exitError(exitUsage, "reading notes: %v", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, exitError(exitValidation, "notes must be a JSON array: %v", err)
	}
	notes := make([]model.Note, 0, len(items))
	for i, item := range items {
		note, err := model.ParseNote(item)
		if err != nil {
			var verr *model.ValidationError
			if errors.As(err, &verr) {
				verr.Path = fmt.Sprintf("notes[%d]", i)
			}
			return nil, &ExitError{Code: exitValidation, Message: err.Error(), Err: err}
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// Package cli implements the ppal command line: reading and writing a Live
// set through Producer Pal, and recording project snapshots.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the "ppal" command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "ppal",
		Short: "Producer Pal client for Ableton Live",
		Long:  "ppal reads tracks, clips and notes from a Live set through the Producer Pal MCP server and creates MIDI clips.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("base-url", "", "Producer Pal server URL (default http://localhost:3350)")
	flags.Duration("timeout", 0, "Per-request timeout (default 10s)")
	flags.String("config", "", "Path to ppal.yaml (default ./ppal.yaml, then ~/.ppal/config.yaml)")
	flags.Bool("verbose", false, "Enable verbose/debug logging")
	flags.Bool("quiet", false, "Suppress all output except errors")

	root.SetFlagErrorFunc(flagError)

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("ppal version %s\n", version))

	root.AddCommand(NewProjectCmd())
	root.AddCommand(NewTrackCmd())
	root.AddCommand(NewClipCmd())
	root.AddCommand(NewCreateClipCmd())
	root.AddCommand(NewSnapshotCmd())
	root.AddCommand(NewWatchCmd())
	return root
}

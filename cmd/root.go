// Package cmd wires the studio's command line: hosting a session,
// joining one as a guest, and running the peer relay.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vibestudio",
	Short: "Vibe Studio - chat-driven app building with live collaboration",
	Long: `Vibe Studio turns prompts into small self-contained web apps and keeps
every version. Run it plain to host a session, "join <peer-id>" to
collaborate on someone else's, and "relay" to run the peer relay both
sides connect through.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHost(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, injected at build time via ldflags.
var (
	AppVersion = "development"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Vibe Studio %s (%s)\n", AppVersion, GitCommit)
		if os.Getenv("GEMINI_API_KEY") == "" {
			fmt.Println("GEMINI_API_KEY: not set (hosting needs it)")
		} else {
			fmt.Println("GEMINI_API_KEY: configured")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

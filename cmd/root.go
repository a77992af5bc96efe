package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxsync application
var rootCmd = &cobra.Command{
	Use:   "inboxsync",
	Short: "Syncs Substack newsletters from Gmail into Notion",
	Long: `inboxsync fetches Substack newsletter emails from a Gmail inbox, parses
them into structured records, and creates pages in one or two Notion
databases with the newsletter content as page blocks.

It can run as:
  - A one-shot sync job (default)
  - A long-running scheduler with health and metrics endpoints`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxsync version %s\n" .Version}}`)

	// If no subcommand is provided, run the sync command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "sync")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

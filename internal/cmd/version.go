package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set by main.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion records build information for the version command.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "gesture %s\n", version)
		fmt.Fprintf(out, "Commit: %s\n", commit)
		fmt.Fprintf(out, "Built: %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Package cmd implements the gesture command line.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gesture",
	Short: "Pointer gesture arbitration playground",
	Long: `Gesture coordinates drag and swipe recognizers over a single stream of
pointer events. A shared arbiter gives one recognizer exclusive capture of a
pointer and relays the stream to the others.

Run the interactive terminal demo, or replay a YAML pointer script and print
the gesture events it produces.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

var logLevel string

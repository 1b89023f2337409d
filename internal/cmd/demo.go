package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/gesture/internal/app"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the interactive terminal demo",
	Long: `Run a button wrapped by the recognizer tree in the terminal. Drag the
button with the mouse. Press q or Esc to quit and r to abandon every capture.

The drag inside the default tree captures a moving pointer first, so a flick
over the button is reported as a drag. Flick across the pad on the right of
the screen, which holds a swipe recognizer alone, or run with --tree swipe
to see swipes on the button.

Logs go to the file named in the [logging] table; without one they are
discarded so they do not corrupt the screen.

Examples:
  # Default tree: swipe wrapping drag wrapping the button
  gesture demo

  # Live-reload thresholds from a config file
  gesture demo --config gesture.toml --watch

  # Drag only, with Lua hooks
  gesture demo --tree drag --hooks hooks.lua`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

var (
	demoConfig string
	demoHooks  string
	demoWatch  bool
	demoTree   []string
)

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVarP(&demoConfig, "config", "c", "", "TOML configuration file")
	demoCmd.Flags().StringVar(&demoHooks, "hooks", "", "Lua hook script")
	demoCmd.Flags().BoolVarP(&demoWatch, "watch", "w", false, "Reload the configuration file when it changes")
	demoCmd.Flags().StringSliceVar(&demoTree, "tree", nil, "Recognizers wrapping the button, outermost first (default swipe,drag)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	application, err := app.New(app.Options{
		ConfigPath: demoConfig,
		HooksPath:  demoHooks,
		Tree:       demoTree,
		Watch:      demoWatch,
		FlickPad:   true,
		LogLevel:   logLevel,
		LogOutput:  io.Discard,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.RunDemo(ctx, screen)
}

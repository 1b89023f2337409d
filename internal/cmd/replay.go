package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/gesture/internal/logging"
	"github.com/dshills/gesture/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay a pointer script and print the gesture events",
	Long: `Replay a YAML pointer script through a fresh recognizer tree and print one
line per gesture event. Timestamps come from the script, so output is
deterministic.

Script format:
  tree: [swipe, drag]          # optional, outermost first
  config: { drag-threshold: 5, min-swipe-distance: 30, max-swipe-time: 800 }
  steps:
    - { kind: down, pointer: 1, x: 10, y: 10, t: 0 }
    - { kind: move, pointer: 1, x: 40, y: 10, t: 100 }
    - { kind: up,   pointer: 1, x: 60, y: 10, t: 200 }

Config values are integers or strings. With a drag inside the swipe, as in
the default tree, a flick past the drag threshold is reported as a drag;
use tree: [swipe] to replay swipes.

Examples:
  gesture replay flick.yaml
  gesture replay drag.yaml --lua hooks.lua --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var (
	replayHooks   string
	replayVerbose bool
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayHooks, "lua", "", "Lua hook script")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Also print refusals and rejected config values")
}

func runReplay(cmd *cobra.Command, args []string) error {
	script, err := replay.Load(args[0])
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = logging.LevelWarn
	}
	if !logging.ValidLevel(level) {
		return fmt.Errorf("invalid log level %q", level)
	}
	log, err := logging.New(logging.Config{
		Level:  level,
		Format: logging.FormatText,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer log.Close()

	opts := []replay.Option{replay.WithLogger(log)}
	if replayHooks != "" {
		opts = append(opts, replay.WithHooks(replayHooks))
	}
	res, err := replay.Run(cmd.Context(), script, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := res.WriteTo(out); err != nil {
		return err
	}
	if replayVerbose {
		for _, r := range res.Refusals {
			fmt.Fprintf(out, "refused: %s pointer=%d: %v\n", r.Kind, r.Pointer, r.Err)
		}
		for _, err := range res.Rejections {
			fmt.Fprintf(out, "rejected: %v\n", err)
		}
		if replayHooks != "" {
			fmt.Fprintf(out, "hooks: %d calls, %d errors\n", res.Hooks.Calls, res.Hooks.Errors)
		}
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tabula/internal/history"
	"github.com/zjrosen/tabula/internal/log"
	"github.com/zjrosen/tabula/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Run an edit script without the terminal UI",
	Long: `Run a YAML script of inserts, deletes, undos and redos against an in-memory
table and print the table after every step. Steps may assert the error they
expect and the row ids they leave behind; the command fails if any step
misses its expectations.

Example script:
  policy: strict
  rows: [1, 2]
  steps:
    - op: delete
      index: 0
      expect_rows: [2]
    - op: undo
    - op: undo
      expect_error: nothing_to_undo

Example:
  tabula replay script.yaml          # Print the table after every step
  tabula replay script.yaml --diff   # Print a line diff per step
  tabula replay script.yaml --policy lenient`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var (
	replayDiff   bool
	replayPolicy string
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVar(&replayDiff, "diff", false, "print a line diff between consecutive snapshots")
	replayCmd.Flags().StringVar(&replayPolicy, "policy", "", "override the script's history policy (strict or lenient)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	level := log.LevelWarn
	if debugEnabled() {
		level = log.LevelDebug
	}
	log.InitWriter(cmd.ErrOrStderr(), level)

	script, err := replay.Load(args[0])
	if err != nil {
		return err
	}

	// Policy resolution: --policy, then the script, then the config file
	switch {
	case replayPolicy != "":
		if _, err := history.ParsePolicy(replayPolicy); err != nil {
			return fmt.Errorf("--policy: %w", err)
		}
		script.Policy = replayPolicy
	case script.Policy == "":
		script.Policy = cfg.History.Policy
	}

	provider, err := newTracingProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer shutdownTracing(provider)

	report, err := replay.NewRunner(replay.WithTracer(provider.Tracer())).Run(cmd.Context(), script)
	if err != nil {
		return fmt.Errorf("running replay: %w", err)
	}
	if err := replay.Print(cmd.OutOrStdout(), report, replay.PrintOptions{Diff: replayDiff}); err != nil {
		return fmt.Errorf("printing report: %w", err)
	}
	return report.Err()
}

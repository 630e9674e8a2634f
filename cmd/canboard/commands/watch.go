package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/canboard/internal/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live sidebar, history and entity changes",
	Long: `Follow the backend and print every change as it is applied.

Streams sidebar updates (renames, added and deleted subtrees), undo history
changes and pushed entity snapshots until interrupted.

Output Formats:
  default - Human-readable lines with timestamps
  jsonl   - Line-delimited JSON for programmatic processing

Examples:
  # Watch the default instance
  canboard watch

  # Watch a named instance found through Docker
  canboard --discover --instance bench watch

  # Export events as JSON
  canboard watch --output=jsonl > events.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	format, err := watch.ParseOutputFormat(watchOutputFormat)
	if err != nil {
		return p.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl"})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := connect(cmd, p)
	if err != nil {
		return err
	}
	defer a.Close()

	cancel := watch.Attach(watch.NewWriter(cmd.OutOrStdout(), format), a, func(err error) {
		a.Logger.Warn("failed to write event", zap.Error(err))
	})
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return p.Error("subscription failed", err.Error(), nil)
	}
	if format == watch.OutputFormatDefault {
		p.Info("Watching instance '%s' at %s (Ctrl+C to stop)\n", a.Config.Instance, a.RedisURL)
	}
	return a.Run(ctx)
}

package commands

import (
	"context"

	"github.com/dyluth/canboard/internal/app"
	"github.com/dyluth/canboard/internal/render"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the undo history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryOp(cmd, "history", func(a *app.App, ctx context.Context) (canboard.History, error) {
			return a.History.Refresh(ctx)
		})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the last operation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryOp(cmd, "undo", (*app.App).Undo)
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Re-apply the last reverted operation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryOp(cmd, "redo", (*app.App).Redo)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd, undoCmd, redoCmd)
}

func runHistoryOp(cmd *cobra.Command, name string, op func(*app.App, context.Context) (canboard.History, error)) error {
	p := newPrinter(cmd)

	a, err := connect(cmd, p)
	if err != nil {
		return err
	}
	defer a.Close()

	h, err := op(a, cmd.Context())
	if err != nil {
		return p.Error(name+" failed", err.Error(), nil)
	}
	render.History(cmd.OutOrStdout(), h)
	return nil
}

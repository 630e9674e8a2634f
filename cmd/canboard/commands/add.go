package commands

import (
	"errors"
	"fmt"

	"github.com/dyluth/canboard/internal/app"
	"github.com/dyluth/canboard/internal/render"
	"github.com/dyluth/canboard/internal/sidebar"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/spf13/cobra"
)

var addSignalKind string

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a child to a sidebar item",
	Long: `Select a sidebar item and add a child entity next to it, then print the
updated parent as JSON.

Item ids are the ids shown by 'canboard tree'.`,
}

var addMessageCmd = &cobra.Command{
	Use:   "message <item-id>",
	Short: "Add a message sent by a node interface",
	Long: `Add a message sent by the selected node interface, or by the interface
sending the selected message.

Examples:
  canboard add message node-ecu:0
  canboard add message msg-speed`,
	Args: cobra.ExactArgs(1),
	RunE: runAddMessage,
}

var addSignalCmd = &cobra.Command{
	Use:   "signal <signal-item-id>",
	Short: "Add a signal to the message of a signal",
	Long: `Add a signal to the message owning the selected signal.

Examples:
  canboard add signal sig-speed
  canboard add signal sig-gear --kind enum`,
	Args: cobra.ExactArgs(1),
	RunE: runAddSignal,
}

func init() {
	addSignalCmd.Flags().StringVar(&addSignalKind, "kind", string(canboard.SignalKindStandard), "Signal kind (standard, enum or multiplexer)")
	addCmd.AddCommand(addMessageCmd, addSignalCmd)
	rootCmd.AddCommand(addCmd)
}

func runAddMessage(cmd *cobra.Command, args []string) error {
	return runAdd(cmd, "message", func(a *app.App) (any, error) {
		return a.AddMessage(cmd.Context(), args[0])
	})
}

func runAddSignal(cmd *cobra.Command, args []string) error {
	kind := canboard.SignalKind(addSignalKind)
	if err := kind.Validate(); err != nil {
		return newPrinter(cmd).Error("invalid signal kind", err.Error(), []string{"Valid kinds: standard, enum, multiplexer"})
	}
	return runAdd(cmd, "signal", func(a *app.App) (any, error) {
		return a.AddSignal(cmd.Context(), args[0], kind)
	})
}

// runAdd loads the sidebar, runs add and prints the updated parent entity.
func runAdd(cmd *cobra.Command, what string, add func(a *app.App) (any, error)) error {
	p := newPrinter(cmd)

	a, err := connect(cmd, p)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Sidebar.Load(cmd.Context()); err != nil {
		return p.Error("failed to load sidebar", err.Error(), nil)
	}

	parent, err := add(a)
	switch {
	case err == nil:
		return render.JSON(cmd.OutOrStdout(), parent)
	case errors.Is(err, sidebar.ErrWrongSelection):
		return p.Error("invalid selection", err.Error(), []string{addHint(what)})
	case canboard.IsRemote(err):
		return p.Error(fmt.Sprintf("add %s failed", what), err.Error(), nil)
	default:
		return p.Error("invalid selection", err.Error(), []string{"Browse ids with:\n  canboard tree", addHint(what)})
	}
}

func addHint(what string) string {
	if what == "signal" {
		return "Select a signal: canboard tree --kind signal"
	}
	return "Select a node interface or a message: canboard tree --kind node-interface,message"
}

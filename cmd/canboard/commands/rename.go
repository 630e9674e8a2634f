package commands

import (
	"fmt"
	"time"

	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/spf13/cobra"
)

var renameTimeout time.Duration

var renameCmd = &cobra.Command{
	Use:   "rename <kind> [id] <name>",
	Short: "Rename an entity",
	Long: `Rename an entity and wait for the backend to settle it.

The new name is applied optimistically; if the backend rejects it the entity
rolls back to its previous name and the command fails. Ids may be shortened
to a unique prefix, as with get.

Examples:
  canboard rename network Vehicle
  canboard rename bus bus-pt Chassis`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runRename,
}

func init() {
	renameCmd.Flags().DurationVar(&renameTimeout, "timeout", 10*time.Second, "How long to wait for the backend")
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	kind, id, rest, err := parseTarget(args)
	if err == nil && len(rest) != 1 {
		err = fmt.Errorf("expected exactly one new name")
	}
	if err != nil {
		return p.Error("invalid arguments", err.Error(), []string{"Usage: canboard rename <kind> [id] <name>"})
	}
	name := rest[0]

	a, err := connect(cmd, p)
	if err != nil {
		return err
	}
	defer a.Close()

	if id, err = resolveID(cmd, p, a, kind, id); err != nil {
		return err
	}

	ctx := cmd.Context()
	before, err := a.Entities.Load(ctx, kind, id)
	if err != nil {
		return p.Error(fmt.Sprintf("failed to load %s", kind), err.Error(), nil)
	}

	settled, err := a.Entities.Rename(ctx, kind, id, name)
	if err != nil {
		return p.Error("rename failed", err.Error(), nil)
	}
	select {
	case <-settled:
	case <-time.After(renameTimeout):
		return p.Error("rename timed out", fmt.Sprintf("No reply from the backend within %s.", renameTimeout), nil)
	}

	after, err := a.Entities.Current(kind, id)
	if err != nil {
		return p.Error("rename failed", err.Error(), nil)
	}
	if nameOf(after) != name {
		return p.Error(
			"rename rejected",
			fmt.Sprintf("The backend rejected %q; %s is still named %q.", name, kind, nameOf(after)),
			[]string{"Names must be non-empty and unique among siblings"},
		)
	}

	p.Success("Renamed %s %q to %q\n", kind, nameOf(before), name)
	return nil
}

// nameOf returns the display name of any entity snapshot.
func nameOf(e canboard.Entity) string {
	switch v := e.(type) {
	case canboard.Network:
		return v.Name
	case canboard.Bus:
		return v.Name
	case canboard.Node:
		return v.Name
	case canboard.Message:
		return v.Name
	case canboard.Signal:
		return v.Name
	case canboard.SignalType:
		return v.Name
	case canboard.SignalUnit:
		return v.Name
	case canboard.SignalEnum:
		return v.Name
	}
	return e.EntityID()
}

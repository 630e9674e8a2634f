package commands

import (
	"fmt"
	"strings"

	"github.com/dyluth/canboard/internal/render"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <kind> [id]",
	Short: "Print one entity as JSON",
	Long: fmt.Sprintf(`Load one entity from the backend and print it as pretty-printed JSON.

Kinds: %s
The network has no id. Other ids may be shortened to a unique prefix of at
least 4 characters.

Examples:
  canboard get network
  canboard get bus bus-pt
  canboard get node node-e
  canboard get message msg-speed | jq .canId`, kindList()),
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func kindList() string {
	kinds := make([]string, len(canboard.EntityKinds))
	for i, k := range canboard.EntityKinds {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, ", ")
}

// parseTarget reads "<kind> [id]" from the front of args and returns the
// remaining args.
func parseTarget(args []string) (canboard.EntityKind, string, []string, error) {
	kind := canboard.EntityKind(args[0])
	if err := kind.Validate(); err != nil {
		return "", "", nil, err
	}
	if kind == canboard.KindNetwork {
		return kind, "", args[1:], nil
	}
	if len(args) < 2 {
		return "", "", nil, fmt.Errorf("%s requires an id", kind)
	}
	return kind, args[1], args[2:], nil
}

func runGet(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	kind, id, rest, err := parseTarget(args)
	if err == nil && len(rest) > 0 {
		err = fmt.Errorf("unexpected argument %q", rest[0])
	}
	if err != nil {
		return p.Error("invalid arguments", err.Error(), []string{"Kinds: " + kindList()})
	}

	a, err := connect(cmd, p)
	if err != nil {
		return err
	}
	defer a.Close()

	if id, err = resolveID(cmd, p, a, kind, id); err != nil {
		return err
	}

	entity, err := a.Entities.Load(cmd.Context(), kind, id)
	if err != nil {
		if canboard.IsRemote(err) {
			return p.Error(fmt.Sprintf("%s not found", kind), err.Error(), []string{"Browse ids with:\n  canboard tree"})
		}
		return p.Error(fmt.Sprintf("failed to load %s", kind), err.Error(), nil)
	}
	return render.JSON(cmd.OutOrStdout(), entity)
}

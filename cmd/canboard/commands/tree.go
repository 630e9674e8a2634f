package commands

import (
	"strings"

	"github.com/dyluth/canboard/internal/filter"
	"github.com/dyluth/canboard/internal/render"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/spf13/cobra"
)

var (
	treeFilter       string
	treeKinds        string
	treeNameGlob     string
	treeOutputFormat string
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the sidebar tree",
	Long: `Load the sidebar tree from the backend and print it.

Groups come first, then buses; siblings are ordered by name using the
configured sidebar.language.

With --filter, print only the items whose name fuzzily matches the query,
best match first. --kind and --name narrow the listing to items of the
given kinds and names matching a glob pattern; they combine with --filter.

Examples:
  canboard tree
  canboard tree --filter speed
  canboard tree --kind bus,node --name 'P*'
  canboard tree --output=jsonl | jq -r 'select(.kind=="message") | .name'`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVarP(&treeFilter, "filter", "f", "", "Fuzzy filter on item names")
	treeCmd.Flags().StringVar(&treeKinds, "kind", "", "Only items of these kinds (comma-separated)")
	treeCmd.Flags().StringVar(&treeNameGlob, "name", "", "Only items whose name matches this glob pattern")
	treeCmd.Flags().StringVarP(&treeOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	format := render.OutputFormat(treeOutputFormat)
	if format != render.OutputFormatDefault && format != render.OutputFormatJSONL {
		return p.Error("invalid output format", "Unknown format: "+treeOutputFormat, []string{"Valid formats: default, jsonl"})
	}

	criteria := filter.Criteria{NameGlob: treeNameGlob}
	for _, k := range strings.Split(treeKinds, ",") {
		if k = strings.TrimSpace(k); k == "" {
			continue
		}
		criteria.Kinds = append(criteria.Kinds, canboard.SidebarItemKind(k))
	}
	if err := criteria.Validate(); err != nil {
		return p.Error("invalid filter", err.Error(), []string{"Kinds: group, network, bus, node, node-interface, message, signal, signal-type, signal-unit, signal-enum"})
	}

	a, err := connect(cmd, p)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Sidebar.Load(cmd.Context()); err != nil {
		return p.Error("failed to load sidebar", err.Error(), nil)
	}

	out := cmd.OutOrStdout()
	if treeFilter != "" || criteria.HasFilters() {
		var items []canboard.SidebarItem
		if treeFilter != "" {
			items = a.Sidebar.Find(treeFilter)
		} else {
			a.Sidebar.Walk(func(item canboard.SidebarItem, _ int) {
				items = append(items, item)
			})
		}
		matches := criteria.Apply(items)
		if format == render.OutputFormatJSONL {
			return render.JSONL(out, matches)
		}
		render.Items(out, matches, describeQuery(treeFilter, criteria))
		return nil
	}

	if format == render.OutputFormatJSONL {
		var items []canboard.SidebarItem
		a.Sidebar.Walk(func(item canboard.SidebarItem, _ int) {
			items = append(items, item)
		})
		return render.JSONL(out, items)
	}
	render.Tree(out, a.Sidebar)
	return nil
}

// describeQuery names the active filters for the "no match" message.
func describeQuery(fuzzy string, c filter.Criteria) string {
	var parts []string
	if fuzzy != "" {
		parts = append(parts, fuzzy)
	}
	for _, k := range c.Kinds {
		parts = append(parts, "kind="+string(k))
	}
	if c.NameGlob != "" {
		parts = append(parts, "name="+c.NameGlob)
	}
	return strings.Join(parts, " ")
}

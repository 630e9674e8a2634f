package commands

import (
	dockerpkg "github.com/dyluth/canboard/internal/docker"
	"github.com/dyluth/canboard/internal/instance"
	"github.com/dyluth/canboard/internal/render"
	"github.com/spf13/cobra"
)

var instancesOutputFormat string

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List backend instances running in Docker",
	Long: `List backend instances found through Docker container labels.

Each instance shows its status and, when published, the Redis URL that
--discover would connect to.`,
	Args: cobra.NoArgs,
	RunE: runInstances,
}

func init() {
	instancesCmd.Flags().StringVarP(&instancesOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	rootCmd.AddCommand(instancesCmd)
}

func runInstances(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	format := render.OutputFormat(instancesOutputFormat)
	if format != render.OutputFormatDefault && format != render.OutputFormatJSONL {
		return p.Error("invalid output format", "Unknown format: "+instancesOutputFormat, []string{"Valid formats: default, jsonl"})
	}

	ctx := cmd.Context()
	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return p.Error("Docker unavailable", err.Error(), []string{"Start Docker, or connect directly with --redis-url"})
	}
	defer cli.Close()

	infos, err := instance.ListInstances(ctx, cli)
	if err != nil {
		return p.Error("failed to list instances", err.Error(), nil)
	}

	if format == render.OutputFormatJSONL {
		return render.JSONL(cmd.OutOrStdout(), infos)
	}
	render.Instances(cmd.OutOrStdout(), infos)
	return nil
}

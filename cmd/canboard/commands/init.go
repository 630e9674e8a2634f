package commands

import (
	"github.com/dyluth/canboard/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter canboard.yml",
	Long: `Write a commented canboard.yml with the default settings into the current
directory.

The global --instance flag sets the instance name in the new file.

Use --force to replace an existing canboard.yml.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Replace an existing canboard.yml")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to write into")
	_ = initCmd.Flags().MarkHidden("dir")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	if err := scaffold.ValidateInstance(instanceFlag); err != nil {
		return p.Error("invalid instance name", err.Error(), []string{"Use lowercase letters, digits and hyphens, e.g. --instance bench-1"})
	}

	paths, err := scaffold.Initialize(initDir, instanceFlag, forceInit)
	if err != nil {
		return p.Error("initialization failed", err.Error(), nil)
	}

	for _, path := range paths {
		p.Success("Created %s\n", path)
	}
	p.Info("\nNext steps:\n")
	p.Info("  canboard serve-fake    # start a demo backend\n")
	p.Info("  canboard tree          # browse the network\n")
	return nil
}

package commands

import (
	"fmt"

	"github.com/dyluth/canboard/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags, shared by every subcommand.
var (
	configPath   string
	instanceFlag string
	redisURLFlag string
	discoverFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canboard",
	Short: "canboard - client for the CAN network editor backend",
	Long: `canboard talks to a running CAN network editor backend over Redis.

It mirrors the backend's network model (buses, nodes, messages, signals and
their shared definitions), keeps the sidebar tree and the undo history in sync
with pushed events, and lets you inspect and edit entities from the terminal.`,
	// Without a subcommand show help rather than silently succeeding
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Strict flag parsing: unknown flags are an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	// Errors are printed by the printer package, not by Cobra
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = versionString()
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "canboard %s\n", versionString())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to canboard.yml")
	rootCmd.PersistentFlags().StringVarP(&instanceFlag, "instance", "n", "", "Backend instance name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&redisURLFlag, "redis-url", "", "Backend Redis URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&discoverFlag, "discover", false, "Find the backend Redis from its Docker container labels")

	rootCmd.AddCommand(versionCmd)
}

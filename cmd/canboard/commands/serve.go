package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/canboard/internal/devbackend"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveEmpty bool
)

var serveFakeCmd = &cobra.Command{
	Use:   "serve-fake",
	Short: "Run an in-memory demo backend",
	Long: `Serve the backend procedures and push events from an in-memory Redis.

The demo backend holds a small vehicle network (two buses, two nodes, a few
messages and signal definitions), keeps an undo history, and answers every
procedure the client uses. Use it to try the other commands without a real
backend.

Examples:
  # Terminal 1
  canboard serve-fake --addr 127.0.0.1:6390

  # Terminal 2
  canboard --redis-url redis://127.0.0.1:6390 watch`,
	Args: cobra.NoArgs,
	RunE: runServeFake,
}

func init() {
	serveFakeCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:6379", "Address for the in-memory Redis")
	serveFakeCmd.Flags().BoolVar(&serveEmpty, "empty", false, "Start from an empty network instead of the sample")
	rootCmd.AddCommand(serveFakeCmd)
}

func runServeFake(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	cfg, err := loadConfig(p)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	opts := []devbackend.Option{devbackend.WithLogger(logger)}
	if serveEmpty {
		opts = append(opts, devbackend.WithEmptyNetwork())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fake, err := devbackend.Start(ctx, serveAddr, cfg.Instance, opts...)
	if err != nil {
		return p.Error("failed to start demo backend", err.Error(), []string{"Pick a free port with --addr"})
	}

	p.Success("Serving instance '%s' on %s\n", cfg.Instance, fake.URL())
	p.Info("Connect with:\n  canboard --redis-url %s --instance %s watch\n", fake.URL(), cfg.Instance)

	<-ctx.Done()
	return fake.Close()
}

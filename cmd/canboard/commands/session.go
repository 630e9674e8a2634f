package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/dyluth/canboard/internal/app"
	"github.com/dyluth/canboard/internal/config"
	"github.com/dyluth/canboard/internal/logging"
	"github.com/dyluth/canboard/internal/printer"
	"github.com/dyluth/canboard/internal/resolver"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newPrinter writes to the command's streams so tests can capture them.
func newPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// loadConfig reads the config file, then the environment, then the global
// flags, each overriding the last.
func loadConfig(p *printer.Printer) (*config.CanboardConfig, error) {
	if redisURLFlag != "" && discoverFlag {
		return nil, p.Error(
			"conflicting flags",
			"--redis-url and --discover cannot be used together.",
			[]string{"Pass the URL to connect directly, or --discover to find it from Docker."},
		)
	}

	cfg, err := config.LoadOrDefault(configPath, os.Getenv)
	if err != nil {
		return nil, p.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"file": configPath},
			[]string{"Fix the file, or remove it to run with defaults."},
		)
	}

	if instanceFlag != "" {
		cfg.Instance = instanceFlag
	}
	if redisURLFlag != "" {
		cfg.Redis.URL = redisURLFlag
		cfg.Redis.Discover = false
	}
	if discoverFlag {
		cfg.Redis.Discover = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, p.Error("invalid flags", err.Error(), nil)
	}
	return cfg, nil
}

func newLogger(cfg *config.CanboardConfig) (*zap.Logger, error) {
	logger, _, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// connect loads the configuration and connects an app to the backend. The
// printer receives failed-operation notifications. Callers must Close the app.
func connect(cmd *cobra.Command, p *printer.Printer) (*app.App, error) {
	cfg, err := loadConfig(p)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cmd.Context(), cfg, app.WithLogger(logger), app.WithNotifier(p))
	if err != nil {
		suggestions := []string{
			fmt.Sprintf("Check the backend is running for instance '%s'", cfg.Instance),
			"Start a local demo backend:\n  canboard serve-fake",
		}
		if cfg.Redis.Discover {
			suggestions = append(suggestions, "List discovered instances:\n  canboard instances")
		}
		return nil, p.ErrorWithContext(
			"backend connection failed",
			err.Error(),
			map[string]string{"instance": cfg.Instance, "redis": redisTarget(cfg)},
			suggestions,
		)
	}
	return a, nil
}

func redisTarget(cfg *config.CanboardConfig) string {
	if cfg.Redis.Discover {
		return "discovered via Docker"
	}
	return cfg.Redis.URL
}

// resolveID expands a short id prefix against the ids of kind in the sidebar.
// Ids the sidebar does not know are passed through for the backend to reject.
func resolveID(cmd *cobra.Command, p *printer.Printer, a *app.App, kind canboard.EntityKind, id string) (string, error) {
	if kind == canboard.KindNetwork {
		return id, nil
	}
	if err := a.Sidebar.Load(cmd.Context()); err != nil {
		return "", p.Error("failed to load sidebar", err.Error(), nil)
	}

	seen := make(map[string]bool)
	var known []string
	a.Sidebar.Walk(func(item canboard.SidebarItem, _ int) {
		if item.Kind == canboard.SidebarItemKind(kind) && !seen[item.ID] {
			seen[item.ID] = true
			known = append(known, item.ID)
		}
	})

	full, err := resolver.ResolveID(known, id)
	var ambiguous *resolver.AmbiguousError
	switch {
	case err == nil:
		return full, nil
	case errors.As(err, &ambiguous):
		return "", p.Error("ambiguous id", resolver.FormatAmbiguousError(ambiguous), nil)
	default:
		return id, nil
	}
}

// Package app wires the client core: the Redis transport, one cache per
// entity kind, the sidebar tree and the history bridge.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/canboard/internal/config"
	dockerpkg "github.com/dyluth/canboard/internal/docker"
	"github.com/dyluth/canboard/internal/entities"
	"github.com/dyluth/canboard/internal/history"
	"github.com/dyluth/canboard/internal/instance"
	"github.com/dyluth/canboard/internal/logging"
	"github.com/dyluth/canboard/internal/notify"
	"github.com/dyluth/canboard/internal/sidebar"
	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotStarted is returned by Run when Start has not succeeded.
var ErrNotStarted = errors.New("app not started")

// Option configures an App.
type Option func(*App)

// WithLogger sets the root logger. Components log under named children.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.Logger = l }
}

// WithNotifier sets where failed operations are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.Notifier = n }
}

// WithContainerLister replaces the Docker client used when redis.discover is set.
func WithContainerLister(cli instance.ContainerLister) Option {
	return func(a *App) { a.lister = cli }
}

// App owns every long-lived component of one editor session.
type App struct {
	Config   *config.CanboardConfig
	Client   *canboard.Client
	Entities *entities.Registry
	Sidebar  *sidebar.Synchronizer
	History  *history.Bridge
	Notifier notify.Notifier
	Logger   *zap.Logger

	// RedisURL is the address the client connected to.
	RedisURL string

	lister instance.ContainerLister
	loops  []func(context.Context) error
	subs   []func() error
}

// New connects to the backend's Redis and builds every component. The config
// must already be validated.
func New(ctx context.Context, cfg *config.CanboardConfig, opts ...Option) (*App, error) {
	a := &App{Config: cfg, Notifier: notify.Nop{}}
	for _, opt := range opts {
		opt(a)
	}
	a.Logger = logging.OrNop(a.Logger)

	url, err := a.resolveRedisURL(ctx)
	if err != nil {
		return nil, err
	}
	a.RedisURL = url

	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client, err := canboard.NewClient(redisOpts, cfg.Instance, canboard.WithRPCTimeout(cfg.RPCTimeout()))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", url, err)
	}
	a.Client = client

	a.Entities = entities.NewRegistry(client,
		state.WithNotifier(a.Notifier),
		state.WithLogger(a.Logger.Named("state")),
	)
	a.Sidebar = sidebar.New(client,
		sidebar.WithLogger(a.Logger.Named("sidebar")),
		sidebar.WithLanguage(cfg.Language()),
	)
	a.History = history.NewBridge(client, a.Logger.Named("history"))
	return a, nil
}

func (a *App) resolveRedisURL(ctx context.Context) (string, error) {
	if !a.Config.Redis.Discover {
		return a.Config.Redis.URL, nil
	}

	if a.lister == nil {
		cli, err := dockerpkg.NewClient(ctx)
		if err != nil {
			return "", err
		}
		defer cli.Close()
		a.lister = cli
	}

	url, err := instance.DiscoverRedisURL(ctx, a.lister, a.Config.Instance)
	if err != nil {
		return "", fmt.Errorf("failed to discover instance '%s': %w", a.Config.Instance, err)
	}
	a.Logger.Debug("discovered backend Redis", zap.String("instance", a.Config.Instance), zap.String("url", url))
	return url, nil
}

// Start opens every push subscription, so nothing published after it returns
// is missed, then fetches the current history. Call Run to apply events.
func (a *App) Start(ctx context.Context) error {
	sidebarSub, err := a.Client.SubscribeSidebarEvents(ctx)
	if err != nil {
		return err
	}
	a.subs = append(a.subs, sidebarSub.Close)

	historySub, err := a.Client.SubscribeHistory(ctx)
	if err != nil {
		a.closeSubs()
		return err
	}
	a.subs = append(a.subs, historySub.Close)

	runEntities, err := a.Entities.Subscribe(ctx, a.Client)
	if err != nil {
		a.closeSubs()
		return err
	}

	a.loops = []func(context.Context) error{
		func(ctx context.Context) error { return a.Sidebar.Run(ctx, sidebarSub) },
		func(ctx context.Context) error { return a.History.Listen(ctx, historySub) },
		runEntities,
	}

	if _, err := a.History.Refresh(ctx); err != nil {
		a.Logger.Warn("initial history fetch failed", zap.Error(err))
	}
	return nil
}

// Run applies pushed events until ctx is done or one of the loops fails.
// The sidebar tree is loaded first.
func (a *App) Run(ctx context.Context) error {
	if a.loops == nil {
		return ErrNotStarted
	}
	defer a.closeSubs()

	g, gctx := errgroup.WithContext(ctx)
	for _, loop := range a.loops {
		loop := loop
		g.Go(func() error { return loop(gctx) })
	}
	return g.Wait()
}

// Undo reverts the last operation. Failures are reported to the notifier.
func (a *App) Undo(ctx context.Context) (canboard.History, error) {
	h, err := a.History.Undo(ctx)
	if err != nil {
		notify.OperationFailed(a.Notifier)
		return h, fmt.Errorf("undo failed: %w", err)
	}
	return h, nil
}

// Redo re-applies the last reverted operation. Failures are reported to the
// notifier.
func (a *App) Redo(ctx context.Context) (canboard.History, error) {
	h, err := a.History.Redo(ctx)
	if err != nil {
		notify.OperationFailed(a.Notifier)
		return h, fmt.Errorf("redo failed: %w", err)
	}
	return h, nil
}

// AddMessage selects the sidebar item itemID, a node interface or a message,
// and adds a new message sent by that interface. Remote failures are reported
// to the notifier.
func (a *App) AddMessage(ctx context.Context, itemID string) (canboard.Node, error) {
	if err := a.Sidebar.Select(itemID); err != nil {
		return canboard.Node{}, err
	}
	node, err := a.Sidebar.AddMessage(ctx)
	if err != nil {
		a.reportAddFailure(err)
		return node, fmt.Errorf("add message failed: %w", err)
	}
	return node, nil
}

// AddSignal selects the signal itemID and adds a signal of kind to its
// message. Remote failures are reported to the notifier.
func (a *App) AddSignal(ctx context.Context, itemID string, kind canboard.SignalKind) (canboard.Message, error) {
	if err := a.Sidebar.Select(itemID); err != nil {
		return canboard.Message{}, err
	}
	msg, err := a.Sidebar.AddSignal(ctx, kind)
	if err != nil {
		a.reportAddFailure(err)
		return msg, fmt.Errorf("add signal failed: %w", err)
	}
	return msg, nil
}

// reportAddFailure notifies unless err is a selection mistake the caller
// reports itself.
func (a *App) reportAddFailure(err error) {
	if errors.Is(err, sidebar.ErrNothingSelected) || errors.Is(err, sidebar.ErrWrongSelection) {
		return
	}
	notify.OperationFailed(a.Notifier)
}

// OnSidebarChange registers fn on applied sidebar events.
func (a *App) OnSidebarChange(fn func(canboard.SidebarEvent)) (cancel func()) {
	return a.Sidebar.OnChange(fn)
}

// OnHistoryChange registers fn on history updates.
func (a *App) OnHistoryChange(fn func(canboard.History)) (cancel func()) {
	return a.History.OnChange(fn)
}

// OnModify registers fn on pushed entity snapshots of every kind.
func (a *App) OnModify(fn func(entities.Modified)) (cancel func()) {
	return a.Entities.OnModify(fn)
}

func (a *App) closeSubs() {
	for _, c := range a.subs {
		_ = c()
	}
	a.subs = nil
}

// Close releases the subscriptions and the Redis connection.
func (a *App) Close() error {
	a.closeSubs()
	return a.Client.Close()
}

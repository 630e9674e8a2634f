package app

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	dockerpkg "github.com/dyluth/canboard/internal/docker"
	"github.com/dyluth/canboard/internal/entities"
	"github.com/dyluth/canboard/internal/notify"
	"github.com/dyluth/canboard/internal/sidebar"
	"github.com/dyluth/canboard/internal/testutil"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listerFunc serves container lists from a function.
type listerFunc func() ([]types.Container, error)

func (f listerFunc) ContainerList(context.Context, container.ListOptions) ([]types.Container, error) {
	return f()
}

// startApp connects an app to redisURL and runs it until the test ends.
func startApp(t *testing.T, redisURL string, opts ...Option) *App {
	t.Helper()

	a, err := New(context.Background(), testutil.Config(t, redisURL), opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("app did not stop")
		}
		a.Close()
	})
	return a
}

func TestAppFollowsBackend(t *testing.T) {
	fake := testutil.StartFake(t)
	a := startApp(t, fake.URL())

	require.Eventually(t, a.Sidebar.Loaded, 2*time.Second, 10*time.Millisecond)
	item, ok := a.Sidebar.Item("bus-pt")
	require.True(t, ok)
	assert.Equal(t, "Powertrain", item.Name)
	assert.Equal(t, canboard.EmptyHistory, a.History.History())

	ctx := context.Background()
	_, err := a.Entities.Load(ctx, canboard.KindBus, "bus-pt")
	require.NoError(t, err)

	settled, err := a.Entities.Rename(ctx, canboard.KindBus, "bus-pt", "Chassis")
	require.NoError(t, err)
	select {
	case <-settled:
	case <-time.After(3 * time.Second):
		t.Fatal("rename did not settle")
	}

	bus, err := a.Entities.Current(canboard.KindBus, "bus-pt")
	require.NoError(t, err)
	assert.Equal(t, "Chassis", bus.(canboard.Bus).Name)

	require.Eventually(t, func() bool {
		item, ok := a.Sidebar.Item("bus-pt")
		return ok && item.Name == "Chassis"
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return a.History.History().OperationCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	h, err := a.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, h.CurrentIndex)
	assert.True(t, a.History.CanRedo())

	require.Eventually(t, func() bool {
		item, ok := a.Sidebar.Item("bus-pt")
		return ok && item.Name == "Powertrain"
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		bus, err := a.Entities.Current(canboard.KindBus, "bus-pt")
		return err == nil && bus.(canboard.Bus).Name == "Powertrain"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUndoWithNothingToUndoNotifies(t *testing.T) {
	fake := testutil.StartFake(t)
	rec := &notify.Recorder{}
	a := startApp(t, fake.URL(), WithNotifier(rec))

	_, err := a.Undo(context.Background())
	require.Error(t, err)
	assert.True(t, canboard.IsRemote(err))
	assert.Equal(t, 1, rec.Count(notify.KindError))

	_, err = a.Redo(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, rec.Count(notify.KindError))
}

func TestAddChildrenFromSidebarSelection(t *testing.T) {
	fake := testutil.StartFake(t)
	rec := &notify.Recorder{}
	a := startApp(t, fake.URL(), WithNotifier(rec))
	ctx := context.Background()

	require.Eventually(t, a.Sidebar.Loaded, 2*time.Second, 10*time.Millisecond)

	t.Run("message on an interface", func(t *testing.T) {
		node, err := a.AddMessage(ctx, "node-ecu:0")
		require.NoError(t, err)
		require.Len(t, node.Interfaces[0].SentMessages, 3)

		added := node.Interfaces[0].SentMessages[2].ID
		require.Eventually(t, func() bool {
			item, ok := a.Sidebar.Item(added)
			return ok && item.Path == "net/bus-pt/node-ecu:0/"+added
		}, 2*time.Second, 10*time.Millisecond)

		selected, ok := a.Sidebar.Selected()
		require.True(t, ok)
		assert.Equal(t, "node-ecu:0", selected.ID)
	})

	t.Run("signal next to a signal", func(t *testing.T) {
		msg, err := a.AddSignal(ctx, "sig-door-fl", canboard.SignalKindStandard)
		require.NoError(t, err)
		assert.Equal(t, "msg-doors", msg.ID)
		assert.Len(t, msg.Signals, 2)
	})

	t.Run("backend failure notifies", func(t *testing.T) {
		fake.Backend.FailNext(canboard.ProcMessageAddSignal, "message is full")

		_, err := a.AddSignal(ctx, "sig-speed", canboard.SignalKindStandard)
		require.Error(t, err)
		assert.True(t, canboard.IsRemote(err))
		assert.Equal(t, 1, rec.Count(notify.KindError))
	})

	t.Run("selection mistakes do not notify", func(t *testing.T) {
		_, err := a.AddSignal(ctx, "bus-pt", canboard.SignalKindStandard)
		assert.ErrorIs(t, err, sidebar.ErrWrongSelection)

		_, err = a.AddMessage(ctx, "no-such-item")
		assert.Error(t, err)

		assert.Equal(t, 1, rec.Count(notify.KindError))
	})
}

func TestOnModifySeesPushedSnapshots(t *testing.T) {
	fake := testutil.StartFake(t)
	a := startApp(t, fake.URL())

	names := make(chan string, 8)
	stop := a.OnModify(func(m entities.Modified) {
		if m.Kind == canboard.KindNode {
			names <- m.Entity.EntityID()
		}
	})
	defer stop()

	var renamed canboard.Node
	require.NoError(t, fake.Client.Invoke(context.Background(), canboard.Procedure(canboard.KindNode, "UpdateName"), &renamed, "node-ecu", canboard.UpdateNameReq{Name: "Engine"}))
	assert.Equal(t, "Engine", renamed.Name)

	select {
	case id := <-names:
		assert.Equal(t, "node-ecu", id)
	case <-time.After(2 * time.Second):
		t.Fatal("no modify event seen")
	}
}

func TestRunBeforeStart(t *testing.T) {
	fake := testutil.StartFake(t)

	a, err := New(context.Background(), testutil.Config(t, fake.URL()))
	require.NoError(t, err)
	defer a.Close()

	assert.ErrorIs(t, a.Run(context.Background()), ErrNotStarted)
}

func TestNewFailsWhenRedisIsDown(t *testing.T) {
	fake := testutil.StartFake(t)
	url := fake.URL()
	fake.Close()

	_, err := New(context.Background(), testutil.Config(t, url))
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestNewDiscoversRedis(t *testing.T) {
	t.Run("from container labels", func(t *testing.T) {
		if _, err := os.Stat("/.dockerenv"); err == nil {
			t.Skip("discovered URLs point at host.docker.internal inside a container")
		}
		fake := testutil.StartFake(t)
		port, err := strconv.Atoi(fake.Redis.Port())
		require.NoError(t, err)

		cfg := testutil.Config(t, "")
		cfg.Redis.Discover = true
		lister := listerFunc(func() ([]types.Container, error) {
			return []types.Container{{
				State:  "running",
				Labels: dockerpkg.BuildLabels(testutil.Instance, dockerpkg.ComponentRedis, port),
			}}, nil
		})

		a, err := New(context.Background(), cfg, WithContainerLister(lister))
		require.NoError(t, err)
		defer a.Close()
		assert.Equal(t, "redis://localhost:"+fake.Redis.Port(), a.RedisURL)
	})

	t.Run("no container", func(t *testing.T) {
		cfg := testutil.Config(t, "")
		cfg.Redis.Discover = true
		lister := listerFunc(func() ([]types.Container, error) { return nil, nil })

		_, err := New(context.Background(), cfg, WithContainerLister(lister))
		assert.ErrorContains(t, err, "failed to discover instance 'test'")
	})

	t.Run("docker unavailable", func(t *testing.T) {
		cfg := testutil.Config(t, "")
		cfg.Redis.Discover = true
		lister := listerFunc(func() ([]types.Container, error) { return nil, errors.New("daemon not running") })

		_, err := New(context.Background(), cfg, WithContainerLister(lister))
		assert.ErrorContains(t, err, "daemon not running")
	})
}

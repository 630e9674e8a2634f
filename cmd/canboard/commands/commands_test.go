package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/canboard/internal/config"
	"github.com/dyluth/canboard/internal/devbackend"
	"github.com/dyluth/canboard/internal/testutil"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for a writer and a reader goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// resetFlags restores every flag variable, since rootCmd is shared between
// tests.
func resetFlags(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "missing.yml")
	instanceFlag = ""
	redisURLFlag = ""
	discoverFlag = false
	watchOutputFormat = "default"
	treeFilter = ""
	treeKinds = ""
	treeNameGlob = ""
	treeOutputFormat = "default"
	renameTimeout = 10 * time.Second
	serveAddr = "127.0.0.1:6379"
	serveEmpty = false
	instancesOutputFormat = "default"
	forceInit = false
	addSignalKind = "standard"
	initDir = "."

	for _, env := range []string{config.EnvInstance, config.EnvRedisURL, config.EnvLogLevel} {
		t.Setenv(env, "")
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr syncBuffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// against runs a command connected to fake.
func against(t *testing.T, fake *devbackend.Fake, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t)
	base := []string{"--redis-url", fake.URL(), "--instance", testutil.Instance}
	return execute(t, context.Background(), append(base, args...)...)
}

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	resetFlags(t)
	out, _, err := execute(t, context.Background())

	assert.NoError(t, err)
	assert.Contains(t, out, "Usage:", "Help should be displayed")
	assert.Contains(t, out, "canboard", "Help should show command name")
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	resetFlags(t)
	_, _, err := execute(t, context.Background(), "--unknown-flag", "value")

	require.Error(t, err, "Unknown flag should cause an error")
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	SetVersionInfo("1.2.3", "abc123", "2024-03-01")

	out, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "canboard 1.2.3 (commit: abc123, built: 2024-03-01)\n", out)
}

func TestConflictingRedisFlags(t *testing.T) {
	resetFlags(t)
	_, stderr, err := execute(t, context.Background(), "--redis-url", "redis://localhost:1", "--discover", "history")

	require.Error(t, err)
	assert.Equal(t, "conflicting flags", err.Error())
	assert.Contains(t, stderr, "cannot be used together")
}

func TestConnectionFailureSuggestsServeFake(t *testing.T) {
	fake := testutil.StartFake(t)
	url := fake.URL()
	fake.Close()

	resetFlags(t)
	_, stderr, err := execute(t, context.Background(), "--redis-url", url, "history")

	require.Error(t, err)
	assert.Equal(t, "backend connection failed", err.Error())
	assert.Contains(t, stderr, "canboard serve-fake")
	assert.Contains(t, stderr, "redis: "+url)
}

func TestTreeCommand(t *testing.T) {
	fake := testutil.StartFake(t)

	t.Run("full tree", func(t *testing.T) {
		out, _, err := against(t, fake, "tree")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Equal(t, "◆ Vehicle (net)", lines[0])
		assert.Contains(t, out, "  ═ Powertrain (bus-pt)")
		assert.Contains(t, out, "    ● ECU:0 (node-ecu:0)")
	})

	t.Run("filter", func(t *testing.T) {
		out, _, err := against(t, fake, "tree", "--filter", "powertr")
		require.NoError(t, err)
		assert.Contains(t, out, "Powertrain")
		assert.Contains(t, out, "1 item found")
	})

	t.Run("jsonl", func(t *testing.T) {
		out, _, err := against(t, fake, "tree", "--output", "jsonl")
		require.NoError(t, err)

		first := strings.SplitN(out, "\n", 2)[0]
		var root canboard.SidebarItem
		require.NoError(t, json.Unmarshal([]byte(first), &root))
		assert.Equal(t, "net", root.ID)
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := against(t, fake, "tree", "--output", "xml")
		assert.EqualError(t, err, "invalid output format")
	})

	t.Run("kind and name", func(t *testing.T) {
		out, _, err := against(t, fake, "tree", "--kind", "bus,node", "--name", "P*")
		require.NoError(t, err)
		assert.Contains(t, out, "Powertrain")
		assert.NotContains(t, out, "Body")
		assert.Contains(t, out, "1 item found")
	})

	t.Run("kind only", func(t *testing.T) {
		out, _, err := against(t, fake, "tree", "--kind", "signal-unit", "--output", "jsonl")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Len(t, lines, 2)
		for _, line := range lines {
			var item canboard.SidebarItem
			require.NoError(t, json.Unmarshal([]byte(line), &item))
			assert.Equal(t, canboard.SidebarItemKindSignalUnit, item.Kind)
		}
	})

	t.Run("no match names the filters", func(t *testing.T) {
		out, _, err := against(t, fake, "tree", "--kind", "bus", "--name", "Z*")
		require.NoError(t, err)
		assert.Contains(t, out, "No items match 'kind=bus name=Z*'")
	})

	t.Run("bad kind", func(t *testing.T) {
		_, _, err := against(t, fake, "tree", "--kind", "gateway")
		assert.EqualError(t, err, "invalid filter")
	})
}

func TestGetCommand(t *testing.T) {
	fake := testutil.StartFake(t)

	t.Run("bus", func(t *testing.T) {
		out, _, err := against(t, fake, "get", "bus", "bus-pt")
		require.NoError(t, err)

		var bus canboard.Bus
		require.NoError(t, json.Unmarshal([]byte(out), &bus))
		assert.Equal(t, "Powertrain", bus.Name)
		assert.Equal(t, 500000, bus.Baudrate)
	})

	t.Run("network has no id", func(t *testing.T) {
		out, _, err := against(t, fake, "get", "network")
		require.NoError(t, err)

		var network canboard.Network
		require.NoError(t, json.Unmarshal([]byte(out), &network))
		assert.Len(t, network.Buses, 2)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, stderr, err := against(t, fake, "get", "gateway", "g1")
		assert.EqualError(t, err, "invalid arguments")
		assert.Contains(t, stderr, "signal-enum")
	})

	t.Run("missing id", func(t *testing.T) {
		_, stderr, err := against(t, fake, "get", "bus")
		assert.EqualError(t, err, "invalid arguments")
		assert.Contains(t, stderr, "bus requires an id")
	})

	t.Run("short id", func(t *testing.T) {
		out, _, err := against(t, fake, "get", "node", "node-e")
		require.NoError(t, err)

		var node canboard.Node
		require.NoError(t, json.Unmarshal([]byte(out), &node))
		assert.Equal(t, "node-ecu", node.ID)
	})

	t.Run("ambiguous short id", func(t *testing.T) {
		_, stderr, err := against(t, fake, "get", "bus", "bus-")
		assert.EqualError(t, err, "ambiguous id")
		assert.Contains(t, stderr, "bus-body")
		assert.Contains(t, stderr, "bus-pt")
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, stderr, err := against(t, fake, "get", "bus", "bus-nope")
		assert.EqualError(t, err, "bus not found")
		assert.Contains(t, stderr, "canboard tree")
	})
}

func TestRenameAndHistoryCommands(t *testing.T) {
	fake := testutil.StartFake(t)

	out, _, err := against(t, fake, "rename", "bus", "bus-pt", "Chassis")
	require.NoError(t, err)
	assert.Contains(t, out, `Renamed bus "Powertrain" to "Chassis"`)

	out, _, err = against(t, fake, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "operations: 1  position: 0  unsaved changes")

	_, stderr, err := against(t, fake, "rename", "bus", "bus-pt", "Body")
	assert.EqualError(t, err, "rename rejected")
	assert.Contains(t, stderr, "Operation failed")
	assert.Contains(t, stderr, `still named "Chassis"`)

	out, _, err = against(t, fake, "undo")
	require.NoError(t, err)
	assert.Contains(t, out, "position: -1  saved")

	out, _, err = against(t, fake, "get", "bus", "bus-pt")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Powertrain"`)

	out, _, err = against(t, fake, "redo")
	require.NoError(t, err)
	assert.Contains(t, out, "position: 0")

	_, _, err = against(t, fake, "redo")
	assert.EqualError(t, err, "redo failed")
}

func TestRenameNetwork(t *testing.T) {
	fake := testutil.StartFake(t)

	out, _, err := against(t, fake, "rename", "network", "Truck")
	require.NoError(t, err)
	assert.Contains(t, out, `Renamed network "Vehicle" to "Truck"`)

	_, _, err = against(t, fake, "rename", "bus", "Chassis")
	assert.EqualError(t, err, "invalid arguments")
}

func TestAddCommands(t *testing.T) {
	fake := testutil.StartFake(t)

	t.Run("message", func(t *testing.T) {
		out, _, err := against(t, fake, "add", "message", "msg-temp")
		require.NoError(t, err)

		var node canboard.Node
		require.NoError(t, json.Unmarshal([]byte(out), &node))
		assert.Equal(t, "node-ecu", node.ID)
		assert.Len(t, node.Interfaces[0].SentMessages, 3)
	})

	t.Run("signal", func(t *testing.T) {
		out, _, err := against(t, fake, "add", "signal", "sig-coolant")
		require.NoError(t, err)

		var msg canboard.Message
		require.NoError(t, json.Unmarshal([]byte(out), &msg))
		assert.Equal(t, "msg-temp", msg.ID)
		assert.Len(t, msg.Signals, 2)
	})

	t.Run("wrong selection", func(t *testing.T) {
		_, stderr, err := against(t, fake, "add", "signal", "bus-pt")
		assert.EqualError(t, err, "invalid selection")
		assert.Contains(t, stderr, "--kind signal")
		assert.NotContains(t, stderr, "Operation failed")
	})

	t.Run("backend failure", func(t *testing.T) {
		fake.Backend.FailNext(canboard.ProcNodeAddSentMessage, "interface is full")

		_, stderr, err := against(t, fake, "add", "message", "node-bcm:0")
		assert.EqualError(t, err, "add message failed")
		assert.Contains(t, stderr, "Operation failed")
		assert.Contains(t, stderr, "interface is full")
	})

	t.Run("bad kind", func(t *testing.T) {
		_, _, err := against(t, fake, "add", "signal", "sig-coolant", "--kind", "analog")
		assert.EqualError(t, err, "invalid signal kind")
	})
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	resetFlags(t)
	out, _, err := execute(t, context.Background(), "init", "--dir", dir, "--instance", "bench")
	require.NoError(t, err)
	assert.Contains(t, out, "Created "+filepath.Join(dir, config.DefaultPath))

	cfg, err := config.Load(filepath.Join(dir, config.DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, "bench", cfg.Instance)

	resetFlags(t)
	_, stderr, err := execute(t, context.Background(), "init", "--dir", dir)
	assert.EqualError(t, err, "initialization failed")
	assert.Contains(t, stderr, "canboard init --force")

	resetFlags(t)
	_, _, err = execute(t, context.Background(), "init", "--dir", dir, "--force")
	require.NoError(t, err)
	cfg, err = config.Load(filepath.Join(dir, config.DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Instance)

	resetFlags(t)
	_, _, err = execute(t, context.Background(), "init", "--dir", dir, "--force", "--instance", "Bad Name!")
	assert.EqualError(t, err, "invalid instance name")
}

func TestWatchCommand(t *testing.T) {
	fake := testutil.StartFake(t)
	resetFlags(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout syncBuffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&syncBuffer{})
	rootCmd.SetArgs([]string{"--redis-url", fake.URL(), "--instance", testutil.Instance, "watch", "--output", "jsonl"})

	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), string(canboard.EventSidebarLoad))
	}, 3*time.Second, 20*time.Millisecond)

	var renamed canboard.Node
	require.NoError(t, fake.Client.Invoke(ctx, canboard.ProcNodeUpdateName, &renamed, "node-bcm", canboard.UpdateNameReq{Name: "Body"}))

	require.Eventually(t, func() bool {
		out := stdout.String()
		return strings.Contains(out, string(canboard.EventSidebarUpdateName)) &&
			strings.Contains(out, `"source":"history"`) &&
			strings.Contains(out, `"source":"modify"`)
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

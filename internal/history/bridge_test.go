package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func respond(h canboard.History, err error) canboard.InvokerFunc {
	return func(ctx context.Context, procedure string, out any, args ...any) error {
		if err != nil {
			return err
		}
		*out.(*canboard.History) = h
		return nil
	}
}

func TestBridgeStartsEmpty(t *testing.T) {
	b := NewBridge(respond(canboard.History{}, nil), nil)

	assert.Equal(t, canboard.EmptyHistory, b.History())
	assert.False(t, b.CanUndo())
	assert.False(t, b.CanRedo())
}

func TestUndoAdoptsReturnedHistory(t *testing.T) {
	want := canboard.History{OperationCount: 3, CurrentIndex: 1, Saved: false}
	b := NewBridge(respond(want, nil), zaptest.NewLogger(t))

	var seen []canboard.History
	b.OnChange(func(h canboard.History) { seen = append(seen, h) })

	got, err := b.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, b.History())
	assert.True(t, b.CanUndo())
	assert.True(t, b.CanRedo())
	assert.Equal(t, []canboard.History{want}, seen)
}

func TestFailedCallKeepsHistory(t *testing.T) {
	b := NewBridge(respond(canboard.History{}, &canboard.RemoteError{Procedure: canboard.ProcHistoryRedo, Message: "nothing to redo"}), nil)
	b.Set(canboard.History{OperationCount: 1, CurrentIndex: 0, Saved: true})

	_, err := b.Redo(context.Background())
	assert.True(t, canboard.IsRemote(err))
	assert.Equal(t, canboard.History{OperationCount: 1, CurrentIndex: 0, Saved: true}, b.History())
}

func TestInvalidReplyIsRejected(t *testing.T) {
	b := NewBridge(respond(canboard.History{OperationCount: 1, CurrentIndex: 4}, nil), nil)

	_, err := b.Refresh(context.Background())
	assert.ErrorContains(t, err, "invalid history")
	assert.Equal(t, canboard.EmptyHistory, b.History())
}

func TestListenReplacesHistoryWholesale(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := canboard.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	defer client.Close()

	b := NewBridge(client, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := client.SubscribeHistory(ctx)
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan error, 1)
	go func() { done <- b.Listen(ctx, sub) }()

	pushed := canboard.History{OperationCount: 5, CurrentIndex: 4, Saved: false}
	require.NoError(t, client.PublishHistory(ctx, pushed))

	require.Eventually(t, func() bool { return b.History() == pushed }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, b.CanUndo())
	assert.False(t, b.CanRedo())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return")
	}
}

package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/canboard/internal/notify"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func bus(id, name string) canboard.Bus {
	return canboard.Bus{BaseEntity: canboard.BaseEntity{ID: id, Name: name}, Type: canboard.BusTypeCAN2A}
}

func resolve(b canboard.Bus) Call[canboard.Bus] {
	return func(context.Context) (canboard.Bus, error) { return b, nil }
}

func reject(err error) Call[canboard.Bus] {
	return func(context.Context) (canboard.Bus, error) { return canboard.Bus{}, err }
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for update to settle")
	}
}

func TestNewSeedsBothSnapshots(t *testing.T) {
	st := New(bus("b1", "A"))

	assert.Equal(t, "b1", st.ID())
	assert.Equal(t, "A", st.Current().Name)
	assert.Equal(t, "A", st.Fallback().Name)
	assert.Equal(t, 0, st.Pending())
}

func TestUpdateSuccess(t *testing.T) {
	rec := &notify.Recorder{}
	st := New(bus("b1", "A"), WithNotifier(rec))

	var seen []string
	st.OnChange(func(b canboard.Bus) { seen = append(seen, b.Name) })

	wait(t, st.Update(context.Background(), resolve(bus("b1", "B"))))

	assert.Equal(t, "B", st.Current().Name)
	assert.Equal(t, "B", st.Fallback().Name)
	assert.Equal(t, []string{"B"}, seen)
	assert.Empty(t, rec.Notifications())
}

func TestUpdateFailureRollsBack(t *testing.T) {
	rec := &notify.Recorder{}
	core, logs := zapobserver.New(zapcore.ErrorLevel)
	st := New(bus("b1", "A"), WithNotifier(rec), WithLogger(zap.New(core)))

	wait(t, st.UpdateOptimistic(context.Background(), bus("b1", "B"), reject(errors.New("name taken"))))

	assert.Equal(t, "A", st.Current().Name)
	assert.Equal(t, st.Fallback(), st.Current())

	require.Len(t, rec.Notifications(), 1)
	assert.Equal(t, notify.Notification{Kind: notify.KindError, Title: "Error", Message: "Operation failed"}, rec.Notifications()[0])

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "b1", entry.ContextMap()["entity_id"])
	assert.Equal(t, "name taken", entry.ContextMap()["error"])
}

func TestUpdateOptimisticShowsGuessFirst(t *testing.T) {
	st := New(bus("b1", "A"))

	release := make(chan struct{})
	var seen []string
	var mu sync.Mutex
	st.OnChange(func(b canboard.Bus) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, b.Name)
	})

	done := st.UpdateOptimistic(context.Background(), bus("b1", "B?"), func(context.Context) (canboard.Bus, error) {
		<-release
		return bus("b1", "B"), nil
	})

	require.Eventually(t, func() bool { return st.Current().Name == "B?" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "A", st.Fallback().Name)
	assert.Equal(t, 1, st.Pending())

	close(release)
	wait(t, done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"B?", "B"}, seen)
}

func TestFallbackTrailsByOneCommit(t *testing.T) {
	rec := &notify.Recorder{}
	st := New(bus("b1", "A"), WithNotifier(rec))
	ctx := context.Background()

	st.Update(ctx, resolve(bus("b1", "B")))
	st.UpdateOptimistic(ctx, bus("b1", "C"), reject(errors.New("boom")))
	wait(t, st.Idle())

	// Rolled back to B, the last commit, not A.
	assert.Equal(t, "B", st.Current().Name)
	assert.Equal(t, "B", st.Fallback().Name)
	assert.Equal(t, 1, rec.Count(notify.KindError))
}

func TestUpdatesRunOneAtATimeInOrder(t *testing.T) {
	st := New(bus("b1", "A"))
	ctx := context.Background()

	var mu sync.Mutex
	running, maxRunning := 0, 0
	var order []string

	call := func(name string) Call[canboard.Bus] {
		return func(context.Context) (canboard.Bus, error) {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			order = append(order, name)
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return bus("b1", name), nil
		}
	}

	for _, name := range []string{"1", "2", "3", "4"} {
		st.Update(ctx, call(name))
	}
	wait(t, st.Idle())

	assert.Equal(t, 1, maxRunning)
	assert.Equal(t, []string{"1", "2", "3", "4"}, order)
	assert.Equal(t, "4", st.Current().Name)
	assert.Equal(t, 0, st.Pending())
}

func TestModifyIsIdempotent(t *testing.T) {
	st := New(bus("b1", "A"))

	calls := 0
	st.OnChange(func(canboard.Bus) { calls++ })

	pushed := bus("b1", "Z")
	st.Modify(pushed)
	first := st.Current()
	st.Modify(pushed)

	assert.Equal(t, first, st.Current())
	assert.Equal(t, pushed, st.Fallback())
	assert.Equal(t, 2, calls)
}

func TestModifyDuringUpdateBecomesRollbackTarget(t *testing.T) {
	st := New(bus("b1", "A"))
	release := make(chan struct{})

	done := st.UpdateOptimistic(context.Background(), bus("b1", "B"), func(context.Context) (canboard.Bus, error) {
		<-release
		return canboard.Bus{}, errors.New("rejected")
	})

	require.Eventually(t, func() bool { return st.Current().Name == "B" }, time.Second, 5*time.Millisecond)
	st.Modify(bus("b1", "Pushed"))

	close(release)
	wait(t, done)

	assert.Equal(t, "Pushed", st.Current().Name)
}

func TestOnChangeCancel(t *testing.T) {
	st := New(bus("b1", "A"))

	calls := 0
	cancel := st.OnChange(func(canboard.Bus) { calls++ })
	st.Modify(bus("b1", "B"))
	cancel()
	st.Modify(bus("b1", "C"))

	assert.Equal(t, 1, calls)
}

func TestIdleWithoutUpdates(t *testing.T) {
	st := New(bus("b1", "A"))

	select {
	case <-st.Idle():
	default:
		t.Fatal("idle channel should be closed when nothing is pending")
	}
}

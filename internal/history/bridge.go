// Package history mirrors the backend undo stack and exposes undo and redo.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/dyluth/canboard/internal/logging"
	"github.com/dyluth/canboard/internal/state"
	"github.com/dyluth/canboard/pkg/canboard"
	"go.uber.org/zap"
)

// Bridge holds the last known History. Every update replaces it whole.
type Bridge struct {
	inv    canboard.Invoker
	logger *zap.Logger

	mu      sync.RWMutex
	current canboard.History

	// emitMu keeps observer calls in the order values were stored.
	emitMu    sync.Mutex
	observers state.Observers[canboard.History]
}

// NewBridge starts from an empty history.
func NewBridge(inv canboard.Invoker, logger *zap.Logger) *Bridge {
	return &Bridge{
		inv:     inv,
		logger:  logging.OrNop(logger),
		current: canboard.EmptyHistory,
	}
}

// History returns the last known history.
func (b *Bridge) History() canboard.History {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

func (b *Bridge) CanUndo() bool { return b.History().CanUndo() }

func (b *Bridge) CanRedo() bool { return b.History().CanRedo() }

// Set replaces the history and notifies observers.
func (b *Bridge) Set(h canboard.History) {
	b.emitMu.Lock()
	defer b.emitMu.Unlock()

	b.mu.Lock()
	b.current = h
	b.mu.Unlock()

	b.observers.Emit(h)
}

// OnChange registers fn to run with every new history. It returns a function
// that unregisters fn.
func (b *Bridge) OnChange(fn func(canboard.History)) (cancel func()) {
	return b.observers.Add(fn)
}

// Refresh fetches the current history from the backend.
func (b *Bridge) Refresh(ctx context.Context) (canboard.History, error) {
	return b.call(ctx, canboard.ProcHistoryGet)
}

// Undo reverts the last applied operation and adopts the returned history.
func (b *Bridge) Undo(ctx context.Context) (canboard.History, error) {
	return b.call(ctx, canboard.ProcHistoryUndo)
}

// Redo re-applies the last reverted operation and adopts the returned history.
func (b *Bridge) Redo(ctx context.Context) (canboard.History, error) {
	return b.call(ctx, canboard.ProcHistoryRedo)
}

func (b *Bridge) call(ctx context.Context, procedure string) (canboard.History, error) {
	var h canboard.History
	if err := b.inv.Invoke(ctx, procedure, &h); err != nil {
		return canboard.History{}, err
	}
	if err := h.Validate(); err != nil {
		return canboard.History{}, fmt.Errorf("%s returned an invalid history: %w", procedure, err)
	}
	b.Set(h)
	return h, nil
}

// Listen adopts every history from src until ctx is done. Invalid histories
// are logged and skipped. It returns an error if src closes while ctx is
// still live.
func (b *Bridge) Listen(ctx context.Context, src state.Source[canboard.History]) error {
	events, errs := src.Events(), src.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case h, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("history subscription closed")
			}
			if err := h.Validate(); err != nil {
				b.logger.Warn("ignoring invalid history", zap.Error(err))
				continue
			}
			b.Set(h)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			b.logger.Warn("history subscription error", zap.Error(err))
		}
	}
}

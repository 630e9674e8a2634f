package canboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRPCTimeout bounds how long Invoke waits for a reply.
const DefaultRPCTimeout = 5 * time.Second

var (
	// ErrTimeout is returned by Invoke when no reply arrives in time.
	ErrTimeout = errors.New("rpc timeout")

	// ErrRemote matches every *RemoteError.
	ErrRemote = errors.New("remote procedure failed")
)

// RemoteError is a failure reported by the backend in an RPC reply.
type RemoteError struct {
	Procedure string
	Message   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Procedure, e.Message)
}

// Is makes errors.Is(err, ErrRemote) true for every RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// Invoker calls a remote procedure and decodes its result into out.
// out may be nil for procedures without a result.
type Invoker interface {
	Invoke(ctx context.Context, procedure string, out any, args ...any) error
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, procedure string, out any, args ...any) error

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, procedure string, out any, args ...any) error {
	return f(ctx, procedure, out, args...)
}

// Request is the wire form of an RPC call.
type Request struct {
	ID        string            `json:"id"`
	Procedure string            `json:"procedure"`
	Args      []json.RawMessage `json:"args"`
}

// Reply is the wire form of an RPC result. Error is empty on success.
type Reply struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Client provides instance-scoped Redis operations for the canboard transport.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
	rpcTimeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRPCTimeout sets how long Invoke waits for a reply. Redis blocks in whole
// seconds, so values below one second behave as one second.
func WithRPCTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.rpcTimeout = d
		}
	}
}

// NewClient creates a new client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: editor session identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string, opts ...Option) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	c := &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
		rpcTimeout:   DefaultRPCTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// InstanceName returns the namespace this client operates in.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Invoke calls procedure with args and decodes the result into out.
//
// The request is pushed onto the instance request list and the client blocks
// on the per-request reply list until a reply arrives, the RPC timeout elapses
// (ErrTimeout) or ctx is cancelled. A failure reported by the backend is
// returned as a *RemoteError.
func (c *Client) Invoke(ctx context.Context, procedure string, out any, args ...any) error {
	req := Request{
		ID:        uuid.New().String(),
		Procedure: procedure,
		Args:      make([]json.RawMessage, 0, len(args)),
	}
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("failed to marshal argument %d of %s: %w", i, procedure, err)
		}
		req.Args = append(req.Args, raw)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", procedure, err)
	}

	if err := c.rdb.LPush(ctx, RequestQueueKey(c.instanceName), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue %s request: %w", procedure, err)
	}

	timeout := c.rpcTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ctx.Err()
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	result, err := c.rdb.BLPop(ctx, timeout, ReplyKey(c.instanceName, req.ID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("no reply to %s after %s: %w", procedure, timeout, ErrTimeout)
		}
		return fmt.Errorf("failed to wait for %s reply: %w", procedure, err)
	}

	// BLPOP returns [key, value]
	var reply Reply
	if err := json.Unmarshal([]byte(result[1]), &reply); err != nil {
		return fmt.Errorf("failed to unmarshal %s reply: %w", procedure, err)
	}

	if reply.Error != "" {
		return &RemoteError{Procedure: procedure, Message: reply.Error}
	}

	if out != nil && len(reply.Result) > 0 {
		if err := json.Unmarshal(reply.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", procedure, err)
		}
	}

	return nil
}

// PublishSidebarEvent publishes ev on the sidebar channel.
func (c *Client) PublishSidebarEvent(ctx context.Context, ev SidebarEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal sidebar event: %w", err)
	}

	if err := c.rdb.Publish(ctx, SidebarEventsChannel(c.instanceName), data).Err(); err != nil {
		return fmt.Errorf("failed to publish sidebar event: %w", err)
	}
	return nil
}

// PublishHistory stores h as the last known history and publishes it on the
// history-change channel.
func (c *Client) PublishHistory(ctx context.Context, h History) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid history: %w", err)
	}

	if err := c.rdb.HSet(ctx, HistoryKey(c.instanceName), HistoryToHash(h)).Err(); err != nil {
		return fmt.Errorf("failed to write history to Redis: %w", err)
	}

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := c.rdb.Publish(ctx, HistoryChangeChannel(c.instanceName), data).Err(); err != nil {
		return fmt.Errorf("failed to publish history event: %w", err)
	}
	return nil
}

// GetHistory reads the last history stored by PublishHistory.
// Returns redis.Nil if nothing was published yet. Use IsNotFound() to check.
func (c *Client) GetHistory(ctx context.Context) (History, error) {
	hash, err := c.rdb.HGetAll(ctx, HistoryKey(c.instanceName)).Result()
	if err != nil {
		return History{}, fmt.Errorf("failed to read history from Redis: %w", err)
	}
	if len(hash) == 0 {
		return History{}, redis.Nil
	}

	h, err := HashToHistory(hash)
	if err != nil {
		return History{}, fmt.Errorf("failed to deserialize history: %w", err)
	}
	return h, nil
}

// PublishModify publishes a pushed snapshot of entity on the modify channel of kind.
func (c *Client) PublishModify(ctx context.Context, kind EntityKind, entity Entity) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", kind, err)
	}

	if err := c.rdb.Publish(ctx, ModifyChannel(c.instanceName, kind), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s modify event: %w", kind, err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription delivering decoded
// values of type T. Caller must call Close() when done to clean up resources.
type Subscription[T any] struct {
	events <-chan T
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of decoded events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription[T]) Events() <-chan T {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *Subscription[T]) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription[T]) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeSidebarEvents subscribes to the sidebar channel of this instance.
// Each message is decoded once into a SidebarEvent.
func (c *Client) SubscribeSidebarEvents(ctx context.Context) (*Subscription[SidebarEvent], error) {
	return subscribe(ctx, c.rdb, SidebarEventsChannel(c.instanceName), "sidebar event", decodeJSON[SidebarEvent])
}

// SubscribeHistory subscribes to history-change events of this instance.
func (c *Client) SubscribeHistory(ctx context.Context) (*Subscription[History], error) {
	return subscribe(ctx, c.rdb, HistoryChangeChannel(c.instanceName), "history event", decodeJSON[History])
}

// SubscribeModify subscribes to pushed snapshots of one entity kind.
// E must be the Go type matching kind (for example Bus for KindBus).
func SubscribeModify[E Entity](ctx context.Context, c *Client, kind EntityKind) (*Subscription[E], error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return subscribe(ctx, c.rdb, ModifyChannel(c.instanceName, kind), string(kind)+" modify event", decodeJSON[E])
}

func decodeJSON[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// subscribe waits for Redis to confirm the subscription before returning, so
// messages published after it returns are never missed.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub.
func subscribe[T any](ctx context.Context, rdb *redis.Client, channel, what string, decode func([]byte) (T, error)) (*Subscription[T], error) {
	pubsub := rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	eventsChan := make(chan T, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				v, err := decode([]byte(msg.Payload))
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal %s: %w", what, err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- v:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription[T]{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}

// IsRemote returns true if the backend reported the failure.
func IsRemote(err error) bool {
	return errors.Is(err, ErrRemote)
}

// IsTimeout returns true if no reply arrived in time.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

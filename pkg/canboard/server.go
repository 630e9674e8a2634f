package canboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// replyTTL bounds how long an unread reply stays in Redis.
const replyTTL = time.Minute

// pollInterval is how long Serve blocks on the request list before checking ctx.
const pollInterval = time.Second

// HandlerFunc answers one procedure. args holds the raw JSON arguments in call order.
type HandlerFunc func(ctx context.Context, args []json.RawMessage) (any, error)

// Server pops RPC requests for an instance and dispatches them to handlers.
// It is the backend half of Invoke.
type Server struct {
	client   *Client
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewServer creates a server answering requests on client's instance.
func NewServer(client *Client) *Server {
	return &Server{
		client:   client,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers h for procedure, replacing any previous handler.
func (s *Server) Handle(procedure string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[procedure] = h
}

// Serve processes requests in arrival order until ctx is cancelled.
// Requests are handled one at a time.
func (s *Server) Serve(ctx context.Context) error {
	queue := RequestQueueKey(s.client.instanceName)

	for {
		if ctx.Err() != nil {
			return nil
		}

		result, err := s.client.rdb.BRPop(ctx, pollInterval, queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to pop request: %w", err)
		}

		var req Request
		if err := json.Unmarshal([]byte(result[1]), &req); err != nil {
			// No id to reply to. Drop it.
			continue
		}

		if err := s.reply(ctx, s.dispatch(ctx, req)); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Reply {
	reply := Reply{ID: req.ID}

	s.mu.RLock()
	h, ok := s.handlers[req.Procedure]
	s.mu.RUnlock()
	if !ok {
		reply.Error = fmt.Sprintf("unknown procedure %q", req.Procedure)
		return reply
	}

	out, err := h(ctx, req.Args)
	if err != nil {
		reply.Error = err.Error()
		return reply
	}

	if out != nil {
		raw, err := json.Marshal(out)
		if err != nil {
			reply.Error = fmt.Sprintf("failed to marshal result: %v", err)
			return reply
		}
		reply.Result = raw
	}
	return reply
}

func (s *Server) reply(ctx context.Context, reply Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	key := ReplyKey(s.client.instanceName, reply.ID)
	pipe := s.client.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, replyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push reply %s: %w", reply.ID, err)
	}
	return nil
}

// DecodeArgs unmarshals args positionally into dst. It fails if fewer
// arguments than destinations were sent.
func DecodeArgs(args []json.RawMessage, dst ...any) error {
	if len(args) < len(dst) {
		return fmt.Errorf("expected %d arguments, got %d", len(dst), len(args))
	}
	for i, d := range dst {
		if err := json.Unmarshal(args[i], d); err != nil {
			return fmt.Errorf("invalid argument %d: %w", i, err)
		}
	}
	return nil
}

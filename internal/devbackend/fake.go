package devbackend

import (
	"context"
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/canboard/pkg/canboard"
	"github.com/redis/go-redis/v9"
)

// Fake is a Backend served over an in-memory Redis.
type Fake struct {
	Redis   *miniredis.Miniredis
	Client  *canboard.Client
	Backend *Backend

	cancel context.CancelFunc
	done   chan error
}

// Start serves a backend for instance on a fresh miniredis listening on addr.
// An empty addr picks a free local port. The backend stops when ctx is
// cancelled or Close is called.
func Start(ctx context.Context, addr, instance string, opts ...Option) (*Fake, error) {
	mr := miniredis.NewMiniRedis()
	var err error
	if addr == "" {
		err = mr.Start()
	} else {
		err = mr.StartAddr(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start in-memory Redis: %w", err)
	}

	client, err := canboard.NewClient(&redis.Options{Addr: mr.Addr()}, instance)
	if err != nil {
		mr.Close()
		return nil, err
	}

	backend, srv := Attach(client, opts...)

	serveCtx, cancel := context.WithCancel(ctx)
	f := &Fake{
		Redis:   mr,
		Client:  client,
		Backend: backend,
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() {
		f.done <- srv.Serve(serveCtx)
	}()

	if err := client.PublishHistory(ctx, backend.History()); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Attach creates a backend publishing through client and a server answering
// its procedures. Nothing is served until Serve is called on the server.
func Attach(client *canboard.Client, opts ...Option) (*Backend, *canboard.Server) {
	backend := New(client, opts...)
	srv := canboard.NewServer(client)
	backend.Register(srv)
	return backend, srv
}

// Addr returns the host:port of the in-memory Redis.
func (f *Fake) Addr() string {
	return f.Redis.Addr()
}

// URL returns a redis:// URL clients can connect to.
func (f *Fake) URL() string {
	return "redis://" + f.Redis.Addr()
}

// Wait blocks until the server loop exits.
func (f *Fake) Wait() error {
	err := <-f.done
	f.done <- err
	return err
}

// Close stops serving and shuts the in-memory Redis down.
func (f *Fake) Close() error {
	f.cancel()
	err := f.Wait()
	f.Client.Close()
	f.Redis.Close()
	return err
}

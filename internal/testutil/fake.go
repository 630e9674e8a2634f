// Package testutil starts backends for tests that need a live transport.
package testutil

import (
	"context"
	"testing"

	"github.com/dyluth/canboard/internal/config"
	"github.com/dyluth/canboard/internal/devbackend"
	"github.com/stretchr/testify/require"
)

// Instance is the instance name every helper serves.
const Instance = "test"

// StartFake serves the sample network on a fresh in-memory Redis for the
// duration of the test.
func StartFake(t *testing.T, opts ...devbackend.Option) *devbackend.Fake {
	t.Helper()

	fake, err := devbackend.Start(context.Background(), "", Instance, opts...)
	require.NoError(t, err, "Failed to start fake backend")
	t.Cleanup(func() { fake.Close() })
	return fake
}

// Config returns a validated configuration pointing at redisURL.
func Config(t *testing.T, redisURL string) *config.CanboardConfig {
	t.Helper()

	cfg := config.Default()
	cfg.Instance = Instance
	cfg.Redis.URL = redisURL
	cfg.RPC.Timeout = "2s"
	require.NoError(t, cfg.Validate())
	return cfg
}

package instance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	dockerpkg "github.com/dyluth/canboard/internal/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLister struct{}

func (failingLister) ContainerList(context.Context, container.ListOptions) ([]types.Container, error) {
	return nil, errors.New("daemon gone")
}

func redisContainer(instance string, port int, state string) types.Container {
	return types.Container{
		State:  state,
		Labels: dockerpkg.BuildLabels(instance, dockerpkg.ComponentRedis, port),
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"a", "bench", "bench-2", "0x"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "-a", "a-", "Bench", "a_b", strings.Repeat("a", 64)} {
		assert.Error(t, ValidateName(bad), bad)
	}
}

func TestGetInstanceRedisPort(t *testing.T) {
	ctx := context.Background()

	t.Run("port label", func(t *testing.T) {
		cli := staticLister{redisContainer("bench", 6390, "running"), redisContainer("other", 6391, "running")}
		port, err := GetInstanceRedisPort(ctx, cli, "bench")
		require.NoError(t, err)
		assert.Equal(t, 6390, port)
	})

	t.Run("published port", func(t *testing.T) {
		c := redisContainer("bench", 0, "running")
		c.Ports = []types.Port{
			{PrivatePort: 8080, PublicPort: 32000},
			{PrivatePort: 6379, PublicPort: 32001},
		}
		port, err := GetInstanceRedisPort(ctx, staticLister{c}, "bench")
		require.NoError(t, err)
		assert.Equal(t, 32001, port)
	})

	t.Run("not published", func(t *testing.T) {
		_, err := GetInstanceRedisPort(ctx, staticLister{redisContainer("bench", 0, "running")}, "bench")
		assert.ErrorContains(t, err, "not published")
	})

	t.Run("invalid label", func(t *testing.T) {
		c := redisContainer("bench", 0, "running")
		c.Labels[dockerpkg.LabelRedisPort] = "abc"
		_, err := GetInstanceRedisPort(ctx, staticLister{c}, "bench")
		assert.ErrorContains(t, err, "invalid Redis port")
	})

	t.Run("missing instance", func(t *testing.T) {
		_, err := GetInstanceRedisPort(ctx, staticLister{}, "bench")
		assert.ErrorContains(t, err, "Redis container not found")
	})

	t.Run("docker failure", func(t *testing.T) {
		_, err := GetInstanceRedisPort(ctx, failingLister{}, "bench")
		assert.ErrorContains(t, err, "daemon gone")
	})
}

func TestDiscoverRedisURL(t *testing.T) {
	url, err := DiscoverRedisURL(context.Background(), staticLister{redisContainer("bench", 6390, "running")}, "bench")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ":6390"), url)
	assert.True(t, strings.HasPrefix(url, "redis://"), url)
}

func TestListInstances(t *testing.T) {
	backend := types.Container{State: "exited", Labels: dockerpkg.BuildLabels("bench", dockerpkg.ComponentBackend, 0)}
	cli := staticLister{
		redisContainer("zoo", 6391, "running"),
		redisContainer("bench", 6390, "running"),
		backend,
		{State: "running", Labels: map[string]string{"unrelated": "true"}},
	}

	infos, err := ListInstances(context.Background(), cli)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "bench", infos[0].Name)
	assert.Equal(t, StatusDegraded, infos[0].Status)
	assert.True(t, strings.HasSuffix(infos[0].RedisURL, ":6390"))

	assert.Equal(t, "zoo", infos[1].Name)
	assert.Equal(t, StatusRunning, infos[1].Status)
}

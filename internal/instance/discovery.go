// Package instance names backend instances and finds their Redis through the
// labels on the backend's Docker containers.
package instance

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	dockerpkg "github.com/dyluth/canboard/internal/docker"
)

// MaxNameLength is the maximum length for an instance name (DNS-compatible)
const MaxNameLength = 63

// NamePattern matches DNS-compatible names: lowercase alphanumeric, hyphens
// allowed but not at start or end.
var NamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidateName checks if an instance name is valid according to DNS naming rules.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxNameLength)
	}
	if !NamePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}
	return nil
}

// ContainerLister is the part of the Docker client used for discovery.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
}

// GetRedisHost returns the host publishing backend ports. Inside a container
// that is host.docker.internal, otherwise localhost.
func GetRedisHost() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "host.docker.internal"
	}
	return "localhost"
}

// GetRedisURL constructs the full Redis URL for a given port.
func GetRedisURL(port int) string {
	return fmt.Sprintf("redis://%s:%d", GetRedisHost(), port)
}

// GetInstanceRedisPort returns the host port of the instance's Redis
// container. The port label wins; without it the published port of 6379 is
// used.
func GetInstanceRedisPort(ctx context.Context, cli ContainerLister, instanceName string) (int, error) {
	filter := filters.NewArgs()
	filter.Add("label", dockerpkg.LabelFilter(dockerpkg.LabelInstanceName, instanceName))
	filter.Add("label", dockerpkg.LabelFilter(dockerpkg.LabelComponent, dockerpkg.ComponentRedis))

	containers, err := cli.ContainerList(ctx, container.ListOptions{Filters: filter})
	if err != nil {
		return 0, fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return 0, fmt.Errorf("Redis container not found for instance '%s'", instanceName)
	}

	redis := containers[0]
	if portStr, ok := redis.Labels[dockerpkg.LabelRedisPort]; ok {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return 0, fmt.Errorf("invalid Redis port '%s': %w", portStr, err)
		}
		return port, nil
	}

	for _, p := range redis.Ports {
		if p.PrivatePort == dockerpkg.RedisPrivatePort && p.PublicPort != 0 {
			return int(p.PublicPort), nil
		}
	}
	return 0, fmt.Errorf("Redis port not published for instance '%s'", instanceName)
}

// DiscoverRedisURL returns the Redis URL of a running instance.
func DiscoverRedisURL(ctx context.Context, cli ContainerLister, instanceName string) (string, error) {
	port, err := GetInstanceRedisPort(ctx, cli, instanceName)
	if err != nil {
		return "", err
	}
	return GetRedisURL(port), nil
}

// ListInstances summarizes every instance with labelled containers, sorted by name.
func ListInstances(ctx context.Context, cli ContainerLister) ([]InstanceInfo, error) {
	filter := filters.NewArgs()
	filter.Add("label", dockerpkg.LabelFilter(dockerpkg.LabelProject, "true"))

	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: filter})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	byName := make(map[string][]types.Container)
	for _, c := range containers {
		name := c.Labels[dockerpkg.LabelInstanceName]
		if name == "" {
			continue
		}
		byName[name] = append(byName[name], c)
	}

	infos := make([]InstanceInfo, 0, len(byName))
	for name, cs := range byName {
		info := InstanceInfo{Name: name, Status: DetermineStatus(cs)}
		if port, err := GetInstanceRedisPort(ctx, staticLister(cs), name); err == nil {
			info.RedisURL = GetRedisURL(port)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// staticLister answers from an already fetched container list, honouring
// label filters.
type staticLister []types.Container

func (s staticLister) ContainerList(_ context.Context, options container.ListOptions) ([]types.Container, error) {
	var out []types.Container
	for _, c := range s {
		if matchesLabels(c, options.Filters.Get("label")) {
			out = append(out, c)
		}
	}
	return out, nil
}

func matchesLabels(c types.Container, wanted []string) bool {
	for _, w := range wanted {
		matched := false
		for k, v := range c.Labels {
			if dockerpkg.LabelFilter(k, v) == w {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

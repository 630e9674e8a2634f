package instance

import (
	"github.com/docker/docker/api/types"
)

// Status represents the health of a backend instance
type Status string

const (
	// StatusRunning indicates all containers are running
	StatusRunning Status = "Running"

	// StatusDegraded indicates some containers are stopped or missing
	StatusDegraded Status = "Degraded"

	// StatusStopped indicates all containers exist but are stopped
	StatusStopped Status = "Stopped"
)

// DetermineStatus analyzes a set of containers and determines the overall instance status.
func DetermineStatus(containers []types.Container) Status {
	running := 0
	for _, c := range containers {
		if c.State == "running" {
			running++
		}
	}

	switch {
	case len(containers) > 0 && running == len(containers):
		return StatusRunning
	case running > 0:
		return StatusDegraded
	default:
		return StatusStopped
	}
}

// InstanceInfo holds information about a backend instance
type InstanceInfo struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	RedisURL string `json:"redisUrl,omitempty"`
}

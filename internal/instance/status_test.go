package instance

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
)

func containersIn(states ...string) []types.Container {
	out := make([]types.Container, len(states))
	for i, s := range states {
		out[i] = types.Container{State: s}
	}
	return out
}

func TestDetermineStatus(t *testing.T) {
	tests := []struct {
		name   string
		states []string
		want   Status
	}{
		{"all running", []string{"running", "running"}, StatusRunning},
		{"single running", []string{"running"}, StatusRunning},
		{"all stopped", []string{"exited", "exited"}, StatusStopped},
		{"created only", []string{"created"}, StatusStopped},
		{"none", nil, StatusStopped},
		{"redis up backend down", []string{"running", "exited"}, StatusDegraded},
		{"restarting backend", []string{"running", "restarting"}, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineStatus(containersIn(tt.states...)))
		})
	}
}

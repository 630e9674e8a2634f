package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildLabels(t *testing.T) {
	labels := BuildLabels("bench", ComponentRedis, 6380)

	assert.Equal(t, "true", labels[LabelProject])
	assert.Equal(t, "bench", labels[LabelInstanceName])
	assert.Equal(t, ComponentRedis, labels[LabelComponent])
	assert.Equal(t, "6380", labels[LabelRedisPort])
	assert.Len(t, labels, 4)
}

func TestBuildLabels_Minimal(t *testing.T) {
	labels := BuildLabels("dev", "", 0)

	assert.Equal(t, "true", labels[LabelProject])
	assert.Equal(t, "dev", labels[LabelInstanceName])
	assert.NotContains(t, labels, LabelComponent)
	assert.NotContains(t, labels, LabelRedisPort)
	assert.Len(t, labels, 2)
}

func TestLabelFilter(t *testing.T) {
	assert.Equal(t, "canboard.component=redis", LabelFilter(LabelComponent, ComponentRedis))
}

package docker

import (
	"fmt"
	"strconv"
)

// Label keys carried by the containers of a canboard backend.
const (
	LabelProject      = "canboard.project"
	LabelInstanceName = "canboard.instance.name"
	LabelComponent    = "canboard.component"
	LabelRedisPort    = "canboard.redis.port"
)

// Components of a backend instance.
const (
	ComponentRedis   = "redis"
	ComponentBackend = "backend"
)

// RedisPrivatePort is the port Redis listens on inside its container.
const RedisPrivatePort = 6379

// BuildLabels creates the label set identifying a backend container.
// redisPort is only recorded when positive.
func BuildLabels(instanceName, component string, redisPort int) map[string]string {
	labels := map[string]string{
		LabelProject:      "true",
		LabelInstanceName: instanceName,
	}

	if component != "" {
		labels[LabelComponent] = component
	}
	if redisPort > 0 {
		labels[LabelRedisPort] = strconv.Itoa(redisPort)
	}

	return labels
}

// LabelFilter formats a key=value label filter for container listing.
func LabelFilter(key, value string) string {
	return fmt.Sprintf("%s=%s", key, value)
}

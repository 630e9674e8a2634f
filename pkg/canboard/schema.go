package canboard

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name to enable
// multiple editor sessions to safely coexist on a single Redis server.
//
// Key pattern: canboard:{instance_name}:{area}:{name}
// Channel pattern: canboard:{instance_name}:events:{event_name}

// RequestQueueKey returns the Redis list the backend pops RPC requests from.
// Pattern: canboard:{instance_name}:rpc:requests
func RequestQueueKey(instanceName string) string {
	return fmt.Sprintf("canboard:%s:rpc:requests", instanceName)
}

// ReplyKey returns the Redis list a single RPC reply is pushed to.
// Pattern: canboard:{instance_name}:rpc:reply:{request_id}
func ReplyKey(instanceName, requestID string) string {
	return fmt.Sprintf("canboard:%s:rpc:reply:%s", instanceName, requestID)
}

// HistoryKey returns the Redis hash holding the last published history.
// Pattern: canboard:{instance_name}:history
func HistoryKey(instanceName string) string {
	return fmt.Sprintf("canboard:%s:history", instanceName)
}

// SidebarEventsChannel returns the Pub/Sub channel carrying sidebar events.
// Load, update-name, add and delete events share this channel so they are
// delivered in the order the backend emitted them.
// Pattern: canboard:{instance_name}:events:sidebar
func SidebarEventsChannel(instanceName string) string {
	return fmt.Sprintf("canboard:%s:events:sidebar", instanceName)
}

// HistoryChangeChannel returns the Pub/Sub channel carrying full History values.
// Pattern: canboard:{instance_name}:events:history-change
func HistoryChangeChannel(instanceName string) string {
	return fmt.Sprintf("canboard:%s:events:%s", instanceName, EventHistoryChange)
}

// ModifyChannel returns the Pub/Sub channel carrying pushed snapshots of one
// entity kind.
// Pattern: canboard:{instance_name}:events:history-{kind}-modify
func ModifyChannel(instanceName string, kind EntityKind) string {
	return fmt.Sprintf("canboard:%s:events:%s", instanceName, kind.ModifyEvent())
}

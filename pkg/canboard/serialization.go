package canboard

import (
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes.
//
// Only the History is stored as a hash. Entities and sidebar trees travel
// as JSON inside RPC replies and Pub/Sub messages.

// HistoryToHash converts a History to a Redis hash.
func HistoryToHash(h History) map[string]interface{} {
	return map[string]interface{}{
		"operation_count": h.OperationCount,
		"current_index":   h.CurrentIndex,
		"saved":           strconv.FormatBool(h.Saved),
	}
}

// HashToHistory converts a Redis hash to a History.
func HashToHistory(hash map[string]string) (History, error) {
	count, err := strconv.Atoi(hash["operation_count"])
	if err != nil {
		return History{}, fmt.Errorf("invalid operation_count field: %w", err)
	}

	index, err := strconv.Atoi(hash["current_index"])
	if err != nil {
		return History{}, fmt.Errorf("invalid current_index field: %w", err)
	}

	saved, err := strconv.ParseBool(hash["saved"])
	if err != nil {
		return History{}, fmt.Errorf("invalid saved field: %w", err)
	}

	return History{OperationCount: count, CurrentIndex: index, Saved: saved}, nil
}

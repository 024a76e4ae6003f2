package store

import (
	"encoding/json"
	"fmt"

	"github.com/amishk599/jobfeed/internal/model"
)

// Names of the three logical snapshots. Backends that store them separately
// use these as row names, Redis key suffixes or file stems.
const (
	partSubscriptions = "subscriptions"
	partSeen          = "seen"
	partCounters      = "counters"
)

var partNames = []string{partSubscriptions, partSeen, partCounters}

func encodeParts(snap *model.Snapshot) (map[string][]byte, error) {
	parts := make(map[string][]byte, 3)
	for name, v := range map[string]any{
		partSubscriptions: snap.Subscriptions,
		partSeen:          snap.Seen,
		partCounters:      snap.Counters,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s snapshot: %w", name, err)
		}
		parts[name] = data
	}
	return parts, nil
}

// decodeParts rebuilds a snapshot from whichever parts are present and
// repairs cross-map invariants.
func decodeParts(parts map[string][]byte) (*model.Snapshot, error) {
	snap := model.NewSnapshot()
	targets := map[string]any{
		partSubscriptions: &snap.Subscriptions,
		partSeen:          &snap.Seen,
		partCounters:      &snap.Counters,
	}
	for name, data := range parts {
		target, ok := targets[name]
		if !ok || len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, fmt.Errorf("decoding %s snapshot: %w", name, err)
		}
	}
	snap.Normalize()
	return snap, nil
}

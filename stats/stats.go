// Package stats keeps the history of every tick.
package stats

import (
	"gitlab.com/lologarithm/climatesim/climate"
)

// Recorder stores snapshots as a view and reads them back.
type Recorder interface {
	Display(s climate.Snapshot) error
	// History returns up to limit of the most recent snapshots, oldest first.
	// A limit <= 0 returns everything.
	History(limit int) ([]climate.Snapshot, error)
	Close() error
}

func tail(events []climate.Snapshot, limit int) []climate.Snapshot {
	if limit <= 0 || len(events) <= limit {
		return events
	}
	return events[len(events)-limit:]
}

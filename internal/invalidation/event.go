// Package invalidation defines cache invalidation events for upstream data
// changes (e.g. re-imported OSM extracts).
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// Event names one cached upstream call to drop. Method and Args mirror the
// cache key inputs; Version orders events per key so replays and stale
// duplicates can be ignored.
type Event struct {
	Version uint64    `json:"version"`
	Method  string    `json:"method"`
	Args    []string  `json:"args"`
	TS      time.Time `json:"ts"`
	Source  string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Method) == "" {
		return fmt.Errorf("method is required")
	}
	if e.Version == 0 {
		return fmt.Errorf("version must be > 0")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}

// DedupeKey identifies the event stream this event belongs to.
func (e Event) DedupeKey() string {
	return e.Method + "|" + strings.Join(e.Args, "|")
}

package statsview

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/esimov/ascii-video/playback"
)

// Snapshot is the JSON view of Totals.
type Snapshot struct {
	Active   int `json:"active"`
	Finished int `json:"finished"`
	Ticks    int `json:"ticks"`
	Rendered int `json:"rendered"`
	Skipped  int `json:"skipped"`
}

// Totals accumulates the playback stats of finished sessions and counts the
// active ones. It is safe for concurrent use.
type Totals struct {
	mu   sync.Mutex
	snap Snapshot
}

// Connect records a new active session.
func (t *Totals) Connect() {
	t.mu.Lock()
	t.snap.Active++
	t.mu.Unlock()
}

// Disconnect records the end of an active session and adds its stats.
func (t *Totals) Disconnect(s playback.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.Active > 0 {
		t.snap.Active--
	}
	t.snap.Finished++
	t.snap.Ticks += s.Ticks
	t.snap.Rendered += s.Rendered
	t.snap.Skipped += s.Skipped
}

// Snapshot returns the current totals.
func (t *Totals) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

func (t *Totals) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(t.Snapshot())
}

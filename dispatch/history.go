package dispatch

import (
	"sync"
	"time"

	"github.com/hupe1980/supplymesh/core"
)

// TaskRecord is one archived dispatch: the request, its terminal outcome and
// the archival timestamp.
type TaskRecord struct {
	Request    *core.TaskRequest    `json:"request"`
	Outcome    *core.DispatchResult `json:"outcome"`
	ArchivedAt time.Time            `json:"archived_at"`
}

// History archives completed dispatches in arrival order for the process
// lifetime. Both terminal states are archived, succeeded and exhausted alike.
// It is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	records []TaskRecord
}

// NewHistory constructs an empty history.
func NewHistory() *History {
	return &History{}
}

// Append archives a completed dispatch.
func (h *History) Append(req *core.TaskRequest, outcome *core.DispatchResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, TaskRecord{
		Request:    req,
		Outcome:    outcome,
		ArchivedAt: time.Now().UTC(),
	})
}

// Snapshot returns a copy of all archived records in arrival order.
func (h *History) Snapshot() []TaskRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	records := make([]TaskRecord, len(h.records))
	copy(records, h.records)
	return records
}

// Len returns the number of archived records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

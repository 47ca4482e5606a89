package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
	Replays    []string
	Skipped    []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var (
	_ aggregates.Hooks          = (*HooksRecorder)(nil)
	_ aggregates.LedgerSkipHook = (*HooksRecorder)(nil)
)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{
		Name:     name,
		Status:   status,
		Duration: dur,
	})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

func (h *HooksRecorder) IncDedupReplay(action string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Replays = append(h.Replays, action)
}

func (h *HooksRecorder) IncLedgerSkipped(action string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Skipped = append(h.Skipped, action)
}

// ReplayCount returns how many replays were recorded for action.
func (h *HooksRecorder) ReplayCount(action string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, a := range h.Replays {
		if a == action {
			n++
		}
	}
	return n
}

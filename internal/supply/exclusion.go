package supply

import (
	"fmt"
	"sync"

	"github.com/pders01/polarstock/internal/debuglog"
)

// DefaultExclusionCapacity is how many served ids are remembered.
const DefaultExclusionCapacity = 1000

// Persister loads and saves the ordered exclusion list, oldest first.
type Persister interface {
	LoadExclusions() ([]string, error)
	SaveExclusions(ids []string) error
}

// ExclusionTracker remembers photo ids already shown so later fills prefer
// something new. It only biases selection; it never blocks a fill.
type ExclusionTracker struct {
	mu        sync.Mutex
	order     []string
	set       map[string]struct{}
	capacity  int
	persister Persister
	dirty     bool
	log       *debuglog.FieldLogger
}

// NewExclusionTracker builds a tracker and loads any persisted ids. Missing or
// unreadable state starts an empty tracker.
func NewExclusionTracker(capacity int, persister Persister) *ExclusionTracker {
	if capacity < 1 {
		capacity = DefaultExclusionCapacity
	}
	t := &ExclusionTracker{
		set:       make(map[string]struct{}),
		capacity:  capacity,
		persister: persister,
		log:       debuglog.Component("exclusions"),
	}
	if persister == nil {
		return t
	}

	ids, err := persister.LoadExclusions()
	if err != nil {
		t.log.Warnf("discarding stored exclusions: %v", err)
		return t
	}
	for _, id := range ids {
		t.record(id)
	}
	t.dirty = false
	t.log.Debugf("loaded %d exclusions", len(t.order))
	return t
}

// Has reports whether id was served before.
func (t *ExclusionTracker) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.set[id]
	return ok
}

// Record remembers id. Recording a known id changes nothing.
func (t *ExclusionTracker) Record(id string) {
	t.mu.Lock()
	t.record(id)
	t.mu.Unlock()
}

func (t *ExclusionTracker) record(id string) {
	if id == "" {
		return
	}
	if _, ok := t.set[id]; ok {
		return
	}
	t.order = append(t.order, id)
	t.set[id] = struct{}{}
	for len(t.order) > t.capacity {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.set, oldest)
	}
	t.dirty = true
}

// All returns the remembered ids, oldest first.
func (t *ExclusionTracker) All() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *ExclusionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Flush persists the list if it changed since the last flush.
func (t *ExclusionTracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.dirty || t.persister == nil {
		return nil
	}
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	if err := t.persister.SaveExclusions(ids); err != nil {
		return fmt.Errorf("failed to persist exclusions: %w", err)
	}
	t.dirty = false
	return nil
}

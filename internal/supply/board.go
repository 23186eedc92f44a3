package supply

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pders01/polarstock/internal/provider"
)

const (
	MinSlots     = 1
	MaxSlots     = 20
	DefaultSlots = 6

	// DefaultTopic is searched when the user leaves the topic blank.
	DefaultTopic = "business"
)

var ErrUnknownSlot = errors.New("unknown slot")

// Board is the slot set of one session. The UI toggles flags through it
// while the orchestrator writes images; both go through the same lock so a
// render can take a Snapshot in the middle of a batch.
type Board struct {
	mu    sync.RWMutex
	topic string
	slots []*Slot
}

// ClampSlotCount bounds n to the supported range; values below one use the default.
func ClampSlotCount(n int) int {
	if n < MinSlots {
		return DefaultSlots
	}
	if n > MaxSlots {
		return MaxSlots
	}
	return n
}

func NewBoard(n int) *Board {
	b := &Board{}
	b.build(ClampSlotCount(n))
	return b
}

func (b *Board) build(n int) {
	b.slots = make([]*Slot, n)
	for i := range b.slots {
		b.slots[i] = &Slot{ID: i + 1}
	}
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.slots)
}

// Topic returns the raw topic as entered.
func (b *Board) Topic() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.topic
}

// Query returns the search term for the topic, falling back to DefaultTopic.
func (b *Board) Query() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return queryFor(b.topic)
}

func queryFor(topic string) string {
	if q := NormalizeQuery(topic); q != "" {
		return q
	}
	return DefaultTopic
}

func (b *Board) SetTopic(topic string) {
	b.mu.Lock()
	b.topic = strings.TrimSpace(topic)
	b.mu.Unlock()
}

// slot must be called with the lock held.
func (b *Board) slot(id int) (*Slot, error) {
	if id < 1 || id > len(b.slots) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSlot, id)
	}
	return b.slots[id-1], nil
}

// currentID is the id of the photo slot id shows, or "" when it has none.
func (b *Board) currentID(id int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, err := b.slot(id)
	if err != nil || !s.HasImage() {
		return ""
	}
	return s.Current.ID
}

// Slot returns a copy of one slot.
func (b *Board) Slot(id int) (Slot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, err := b.slot(id)
	if err != nil {
		return Slot{}, err
	}
	return s.clone(), nil
}

// Snapshot returns deep copies of every slot in id order.
func (b *Board) Snapshot() []Slot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Slot, len(b.slots))
	for i, s := range b.slots {
		out[i] = s.clone()
	}
	return out
}

// ToggleLock flips the lock on a live slot. Deleted slots stay unlocked.
func (b *Board) ToggleLock(id int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(id)
	if err != nil {
		return false, err
	}
	if s.Deleted {
		return false, nil
	}
	s.Locked = !s.Locked
	return s.Locked, nil
}

// Delete removes a slot from bulk operations and clears its lock and selection.
func (b *Board) Delete(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(id)
	if err != nil {
		return err
	}
	s.markDeleted()
	return nil
}

// RestoreAll brings back every deleted slot and returns how many were restored.
func (b *Board) RestoreAll() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.slots {
		if s.Deleted {
			s.Deleted = false
			n++
		}
	}
	return n
}

// ToggleSelect flips selection on a filled, live slot and reports the new state.
func (b *Board) ToggleSelect(id int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(id)
	if err != nil {
		return false, err
	}
	if !s.Selectable() {
		s.Selected = false
		return false, nil
	}
	s.Selected = !s.Selected
	return s.Selected, nil
}

func (b *Board) SelectAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.slots {
		if s.Selectable() {
			s.Selected = true
		}
	}
}

func (b *Board) UnselectAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.slots {
		s.Selected = false
	}
}

// SelectionCount returns the selected slots and the live (non-deleted) total.
func (b *Board) SelectionCount() (selected, total int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.slots {
		if s.Deleted {
			continue
		}
		total++
		if s.Selected {
			selected++
		}
	}
	return selected, total
}

// Undo restores a slot's previous image. It reports false when the history
// is empty or the slot is mid-fill.
func (b *Board) Undo(id int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(id)
	if err != nil {
		return false, err
	}
	if s.State == SlotLoading {
		return false, nil
	}
	return s.undo(), nil
}

// SetEditedOverlay stores the editor's result for the slot's current photo.
func (b *Board) SetEditedOverlay(id int, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, err := b.slot(id)
	if err != nil {
		return err
	}
	if !s.HasImage() {
		return fmt.Errorf("slot %d has no image to edit", id)
	}
	s.EditedOverlay = ref
	return nil
}

func (b *Board) Reference(id int) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, err := b.slot(id)
	if err != nil {
		return "", err
	}
	return s.Reference(), nil
}

// ExportItems lists the selected, live slots that hold an image.
func (b *Board) ExportItems() []ExportItem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var items []ExportItem
	for _, s := range b.slots {
		if !s.Selected || s.Deleted || !s.HasImage() {
			continue
		}
		items = append(items, ExportItem{
			SlotID:    s.ID,
			Reference: s.Reference(),
			Edited:    s.EditedOverlay != "",
			Photo:     *s.Current,
		})
	}
	return items
}

// Reset rebuilds the board with n empty slots and a new topic.
func (b *Board) Reset(n int, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topic = strings.TrimSpace(topic)
	b.build(ClampSlotCount(n))
}

// beginBatch marks every targetable slot in ids (or all when ids is nil) as
// loading and returns the ids it marked, ascending.
func (b *Board) beginBatch(ids []int) []int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var targets []int
	if ids == nil {
		for _, s := range b.slots {
			if s.Targetable() {
				targets = append(targets, s.ID)
			}
		}
	} else {
		for _, id := range ids {
			s, err := b.slot(id)
			if err != nil || !s.Targetable() {
				continue
			}
			if !slices.Contains(targets, id) {
				targets = append(targets, id)
			}
		}
		slices.Sort(targets)
	}
	for _, id := range targets {
		b.slots[id-1].beginLoading()
	}
	return targets
}

func (b *Board) fillSlot(id int, p provider.Photo) {
	b.mu.Lock()
	b.slots[id-1].fill(p)
	b.mu.Unlock()
}

func (b *Board) abandonSlot(id int) {
	b.mu.Lock()
	b.slots[id-1].abandonLoading()
	b.mu.Unlock()
}

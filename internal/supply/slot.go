package supply

import (
	"fmt"

	"github.com/pders01/polarstock/internal/provider"
)

type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotLoading
	SlotFilled
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotLoading:
		return "loading"
	case SlotFilled:
		return "filled"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// Slot is one image position on the board. Locked, Deleted and Selected are
// independent flags except that a deleted slot is never locked or selected.
type Slot struct {
	ID            int
	State         SlotState
	Current       *provider.Photo
	History       []provider.Photo // most recent first
	Locked        bool
	Deleted       bool
	Selected      bool
	EditedOverlay string
}

func (s *Slot) Label() string {
	return fmt.Sprintf("Image %d", s.ID)
}

// Targetable reports whether bulk and single refreshes may touch the slot.
func (s *Slot) Targetable() bool {
	return !s.Locked && !s.Deleted
}

// Selectable reports whether the slot may join the selection.
func (s *Slot) Selectable() bool {
	return !s.Deleted && s.State == SlotFilled && s.HasImage()
}

// HasImage reports whether the slot holds a photo, even while reloading.
func (s *Slot) HasImage() bool {
	return s.Current != nil
}

// Reference is what downstream consumers should use for this slot: the
// edited overlay when one exists, else the preferred rendition.
func (s *Slot) Reference() string {
	if s.EditedOverlay != "" {
		return s.EditedOverlay
	}
	if s.Current == nil {
		return ""
	}
	return s.Current.Sizes.Preferred()
}

func (s *Slot) beginLoading() {
	s.State = SlotLoading
}

// fill replaces the current photo, pushing the previous one onto history.
func (s *Slot) fill(p provider.Photo) {
	if s.Current != nil {
		s.History = append([]provider.Photo{*s.Current}, s.History...)
	}
	photo := p
	s.Current = &photo
	s.EditedOverlay = ""
	s.State = SlotFilled
}

// abandonLoading settles a slot whose fill found nothing. A slot that had an
// image keeps it.
func (s *Slot) abandonLoading() {
	if s.Current != nil {
		s.State = SlotFilled
		return
	}
	s.State = SlotEmpty
}

// undo restores the most recent history entry. It reports false when there
// is nothing to restore.
func (s *Slot) undo() bool {
	if len(s.History) == 0 {
		return false
	}
	prev := s.History[0]
	s.History = s.History[1:]
	s.Current = &prev
	s.EditedOverlay = ""
	s.State = SlotFilled
	return true
}

func (s *Slot) markDeleted() {
	s.Deleted = true
	s.Selected = false
	s.Locked = false
}

func (s *Slot) clone() Slot {
	c := *s
	if s.Current != nil {
		p := *s.Current
		c.Current = &p
	}
	if s.History != nil {
		c.History = make([]provider.Photo, len(s.History))
		copy(c.History, s.History)
	}
	return c
}

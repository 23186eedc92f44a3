package storage

import (
	"time"
)

// Project is the last topic/slot-count pair the user worked with.
type Project struct {
	Topic     string    `json:"topic"`
	SlotCount int       `json:"slot_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExclusionState is the persisted form of the served-image history.
// IDs are ordered oldest first.
type ExclusionState struct {
	IDs       []string  `json:"ids"`
	UpdatedAt time.Time `json:"updated_at"`
}

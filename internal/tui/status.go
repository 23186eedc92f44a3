package tui

import (
	"fmt"
	"strings"
)

// StatusKind is the severity of the status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// wrapErr prefixes err with what the app was doing. A nil err stays nil.
func wrapErr(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

// Canonical short status messages used across the app.
const (
	MsgLoadingImages    = "Loading images…"
	MsgRefreshingSlot   = "Refreshing image…"
	MsgChangingTopic    = "Switching topic…"
	MsgExporting        = "Exporting…"
	MsgEditing          = "Editing…"
	MsgBusy             = "Please wait for the current refresh to finish"
	MsgNothingSelected  = "Select at least one image to export"
	MsgNothingToUndo    = "Nothing to undo"
	MsgSlotLocked       = "Image is locked"
	MsgSlotDeleted      = "Image is deleted"
	MsgSlotEmpty        = "No image in this slot"
	MsgNoEditor         = "No image editor configured"
	MsgImagesReady      = "Images ready"
	MsgAllDeleted       = "Every slot is deleted. Restore to continue"
	MsgInvalidSlotCount = "Slot count must be a number between 1 and 20"
)

func MsgExported(path string, count int) string {
	noun := "images"
	if count == 1 {
		noun = "image"
	}
	return fmt.Sprintf("Exported %d %s to %s", count, noun, strings.TrimSpace(path))
}

func MsgRestored(n int) string {
	if n == 1 {
		return "Restored 1 image"
	}
	return fmt.Sprintf("Restored %d images", n)
}

func MsgSelection(selected, total int) string {
	return fmt.Sprintf("%d of %d selected", selected, total)
}

func MsgLockToggled(id int, locked bool) string {
	if locked {
		return fmt.Sprintf("Image %d locked", id)
	}
	return fmt.Sprintf("Image %d unlocked", id)
}

func MsgTopicSummary(topic string, slots int) string {
	return fmt.Sprintf("%s • %d slots", strings.TrimSpace(topic), slots)
}

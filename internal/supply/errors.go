package supply

import (
	"errors"
	"fmt"
)

// ErrNoCandidates means the cache returned nothing usable for a slot.
var ErrNoCandidates = errors.New("no candidate images")

// SlotFillError records why one slot of a batch stayed unfilled.
type SlotFillError struct {
	SlotID int
	Err    error
}

func (e *SlotFillError) Error() string {
	return fmt.Sprintf("slot %d: %v", e.SlotID, e.Err)
}

func (e *SlotFillError) Unwrap() error {
	return e.Err
}

type BatchOutcome int

const (
	FullSuccess BatchOutcome = iota
	PartialSuccess
	FullFailure
)

func (o BatchOutcome) String() string {
	switch o {
	case FullSuccess:
		return "full_success"
	case PartialSuccess:
		return "partial_success"
	case FullFailure:
		return "full_failure"
	default:
		return fmt.Sprintf("BatchOutcome(%d)", int(o))
	}
}

const (
	MsgNoImages      = "No images were found for this topic. Try a different search term."
	MsgSomeNotLoaded = "Some images could not be loaded. You can refresh to try again."
)

// BatchResult summarizes one fill batch.
type BatchResult struct {
	Query   string
	Targets []int
	Filled  []int
	Errors  []*SlotFillError
	Outcome BatchOutcome
}

func (r *BatchResult) classify() {
	switch {
	case len(r.Targets) == 0 || len(r.Filled) == len(r.Targets):
		r.Outcome = FullSuccess
	case len(r.Filled) == 0:
		r.Outcome = FullFailure
	default:
		r.Outcome = PartialSuccess
	}
}

// Message is the user-facing banner for the outcome; empty on full success.
func (r *BatchResult) Message() string {
	switch r.Outcome {
	case FullFailure:
		return MsgNoImages
	case PartialSuccess:
		return MsgSomeNotLoaded
	default:
		return ""
	}
}

package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
)

// --- Error Definitions ---
var (
	ErrInvalidWindow        = errors.New("challenge window is invalid")
	ErrNothingToRemove      = errors.New("no entries available to remove")
	ErrNoCallPlanConfigured = errors.New("no call plan configured for this client")
	ErrSlotAlreadyTaken     = errors.New("insertion slot was taken by a concurrent adjustment")
	ErrUnknownRequirement   = errors.New("unknown requirement kind")

	// ErrNoSlotAvailable is the errors.Is target for every NoSlotError.
	ErrNoSlotAvailable = errors.New("no insertion slot available")
)

// NoSlotError reports a failed slot search with a user-facing reason that
// distinguishes "all days already used" from "end of window reached".
type NoSlotError struct {
	Kind   domain.RequirementKind
	Reason string
}

func (e *NoSlotError) Error() string {
	return fmt.Sprintf("no %s slot available: %s", e.Kind, e.Reason)
}

func (e *NoSlotError) Is(target error) bool {
	return target == ErrNoSlotAvailable
}

// ReadError wraps a store read failure for one requirement. The rollup
// recovers from these locally; adjustments surface them to the caller.
type ReadError struct {
	Kind domain.RequirementKind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s entries: %v", e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a store write failure during an adjustment, carrying
// enough context (kind, attempted date) for a user-facing message.
type WriteError struct {
	Kind domain.RequirementKind
	Date time.Time
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s entry for %s: %v", e.Kind, e.Date.Format("2006-01-02"), e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

package models

import (
	"errors"
	"fmt"
)

// ItemStatus is the lifecycle state of a fetched item.
type ItemStatus string

const (
	StatusBuffered ItemStatus = "buffered"
	StatusPending  ItemStatus = "pending"
	StatusScored   ItemStatus = "scored"
	StatusSkipped  ItemStatus = "skipped"
	StatusNotified ItemStatus = "notified"
	StatusDrafted  ItemStatus = "drafted"
)

// ErrInvalidTransition is returned when a status change would move an item backwards
// or sideways through its lifecycle.
var ErrInvalidTransition = errors.New("invalid status transition")

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ItemStatus{
	StatusBuffered,
	StatusPending,
	StatusScored,
	StatusSkipped,
	StatusNotified,
	StatusDrafted,
}

// transitions holds the only edges an item may take.
// notified -> drafted covers an operator approving an item from a notification.
var transitions = map[ItemStatus][]ItemStatus{
	StatusBuffered: {StatusPending, StatusSkipped},
	StatusPending:  {StatusScored, StatusSkipped},
	StatusScored:   {StatusSkipped, StatusNotified, StatusDrafted},
	StatusNotified: {StatusDrafted},
	StatusSkipped:  nil,
	StatusDrafted:  nil,
}

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s ItemStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanAdvanceTo reports whether next is a legal successor of s.
func (s ItemStatus) CanAdvanceTo(next ItemStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Rank orders statuses along the lifecycle. Terminal states share the highest rank
// except drafted, which can follow notified.
func (s ItemStatus) Rank() int {
	switch s {
	case StatusBuffered:
		return 0
	case StatusPending:
		return 1
	case StatusScored:
		return 2
	case StatusSkipped, StatusNotified:
		return 3
	case StatusDrafted:
		return 4
	default:
		return -1
	}
}

// CheckTransition returns ErrInvalidTransition if from -> to is not allowed.
func CheckTransition(from, to ItemStatus) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: unknown status %q -> %q", ErrInvalidTransition, from, to)
	}
	if !from.CanAdvanceTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// PredecessorsOf returns every status that may legally move to target.
func PredecessorsOf(target ItemStatus) []ItemStatus {
	var out []ItemStatus
	for _, from := range AllStatuses {
		if from.CanAdvanceTo(target) {
			out = append(out, from)
		}
	}
	return out
}

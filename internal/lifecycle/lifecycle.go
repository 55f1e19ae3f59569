// Package lifecycle checks status changes against a transition table.
package lifecycle

import "servora-system/internal/apperr"

// Table lists, for every known status, the statuses it may move to.
type Table[S comparable] map[S][]S

func (t Table[S]) Known(s S) bool {
	_, ok := t[s]
	return ok
}

// Allows reports whether from may move to to. Staying put is always allowed.
func (t Table[S]) Allows(from, to S) bool {
	if from == to {
		return true
	}
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Policy validates a requested change. A permissive policy only rejects
// unknown statuses; a strict one also enforces the table.
type Policy[S comparable] struct {
	Table  Table[S]
	Strict bool
}

func (p Policy[S]) Check(from, to S) error {
	if !p.Table.Known(to) {
		return apperr.Invalid("invalid status %v", to)
	}
	if p.Strict && !p.Table.Allows(from, to) {
		return apperr.Invalid("cannot change status from %v to %v", from, to)
	}
	return nil
}

// Package feed keeps a receptor's view of a room queue in sync with the
// room's broadcast channel.
package feed

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"qms/shift-service/internal/events"
	"qms/shift-service/internal/models"
	"qms/shift-service/internal/view"
)

// Kind tags an Event with the broadcast it came from.
type Kind string

const (
	Created     Kind = events.ShiftCreated
	Pending     Kind = events.ShiftPending
	Distracted  Kind = events.ShiftDistracted
	Deleted     Kind = events.ShiftDeleted
	Transferred Kind = events.ShiftTransferred
	Qualified   Kind = events.ShiftQualified
	InProgress  Kind = events.ShiftInProgress
)

// stateOf is the state a state-only event writes into the matching shift.
var stateOf = map[Kind]string{
	Distracted:  models.StateDistracted,
	Transferred: models.StateTransferred,
	Qualified:   models.StateQualified,
	InProgress:  models.StateInProgress,
}

type Event struct {
	Kind  Kind
	Shift view.Shift
}

// Decode turns a broadcast envelope into an Event. Unknown event names are
// reported as errors so callers can log and skip them.
func Decode(envelope events.Envelope) (Event, error) {
	kind := Kind(envelope.Event)
	switch kind {
	case Created, Pending, Distracted, Deleted, Transferred, Qualified, InProgress:
	default:
		return Event{}, fmt.Errorf("unknown event %q", envelope.Event)
	}
	var payload struct {
		Shift view.Shift `json:"shift"`
	}
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return Event{}, fmt.Errorf("decode %s: %w", envelope.Event, err)
	}
	if payload.Shift.ID == "" {
		return Event{}, fmt.Errorf("decode %s: missing shift id", envelope.Event)
	}
	return Event{Kind: kind, Shift: payload.Shift}, nil
}

// Reduce folds one event into a queue and returns the new queue. The input
// is never modified.
//
// A created or pending event for a shift already in the queue only marks
// it pending. A new preferential shift joins the end of the preferential
// block, ahead of every normal shift; a new normal shift goes last.
func Reduce(shifts []view.Shift, ev Event) []view.Shift {
	id := ev.Shift.ID
	switch ev.Kind {
	case Created, Pending:
		if i := indexOf(shifts, id); i >= 0 {
			return withState(shifts, i, models.StatePending)
		}
		if !ev.Shift.IsPreferential() {
			return append(slices.Clone(shifts), ev.Shift)
		}
		out := make([]view.Shift, 0, len(shifts)+1)
		for _, s := range shifts {
			if s.IsPreferential() {
				out = append(out, s)
			}
		}
		out = append(out, ev.Shift)
		for _, s := range shifts {
			if !s.IsPreferential() {
				out = append(out, s)
			}
		}
		return out
	case Deleted:
		return slices.DeleteFunc(slices.Clone(shifts), func(s view.Shift) bool { return s.ID == id })
	default:
		state, ok := stateOf[ev.Kind]
		i := indexOf(shifts, id)
		if !ok || i < 0 {
			return slices.Clone(shifts)
		}
		return withState(shifts, i, state)
	}
}

func indexOf(shifts []view.Shift, id string) int {
	return slices.IndexFunc(shifts, func(s view.Shift) bool { return s.ID == id })
}

func withState(shifts []view.Shift, i int, state string) []view.Shift {
	out := slices.Clone(shifts)
	out[i].State = state
	return out
}

// Replay folds events that arrived while loaded was being fetched. An event
// whose shift the loaded queue already holds at the same or a newer version
// is skipped; deletions always apply.
func Replay(loaded []view.Shift, pending []Event) []view.Shift {
	seen := make(map[string]time.Time, len(loaded))
	for _, s := range loaded {
		seen[s.ID] = s.UpdatedAt
	}
	shifts := slices.Clone(loaded)
	for _, ev := range pending {
		if version, ok := seen[ev.Shift.ID]; ok && ev.Kind != Deleted && !version.Before(ev.Shift.UpdatedAt) {
			continue
		}
		shifts = Reduce(shifts, ev)
	}
	return shifts
}

package feed

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qms/shift-service/internal/events"
	"qms/shift-service/internal/models"
	"qms/shift-service/internal/view"
)

func shift(id, clientType string) view.Shift {
	return view.Shift{ID: id, State: models.StateCreated, Client: view.Client{ID: "c-" + id, ClientType: clientType}}
}

func ids(shifts []view.Shift) []string {
	out := make([]string, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, s.ID)
	}
	return out
}

func TestPreferentialCreatedJumpsAheadOfNormals(t *testing.T) {
	var queue []view.Shift
	queue = Reduce(queue, Event{Kind: Created, Shift: shift("A", models.ClientTypeNormal)})
	queue = Reduce(queue, Event{Kind: Created, Shift: shift("B", models.ClientTypePreferential)})
	queue = Reduce(queue, Event{Kind: Created, Shift: shift("C", models.ClientTypePreferential)})

	assert.Equal(t, []string{"B", "C", "A"}, ids(queue))
}

func TestPendingForKnownShiftUpdatesInPlace(t *testing.T) {
	queue := Reduce(nil, Event{Kind: Created, Shift: shift("A", models.ClientTypeNormal)})
	queue = Reduce(queue, Event{Kind: Pending, Shift: shift("A", models.ClientTypeNormal)})

	require.Len(t, queue, 1)
	assert.Equal(t, "A", queue[0].ID)
	assert.Equal(t, models.StatePending, queue[0].State)
}

func TestStateEvents(t *testing.T) {
	tests := []struct {
		kind  Kind
		state string
	}{
		{Distracted, models.StateDistracted},
		{Transferred, models.StateTransferred},
		{Qualified, models.StateQualified},
		{InProgress, models.StateInProgress},
	}
	base := []view.Shift{shift("A", models.ClientTypePreferential), shift("B", models.ClientTypeNormal)}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			out := Reduce(base, Event{Kind: tt.kind, Shift: view.Shift{ID: "B"}})
			assert.Equal(t, []string{"A", "B"}, ids(out))
			assert.Equal(t, tt.state, out[1].State)
			assert.Equal(t, models.StateCreated, base[1].State, "input must not change")

			unknown := Reduce(base, Event{Kind: tt.kind, Shift: view.Shift{ID: "Z"}})
			assert.Equal(t, base, unknown)
		})
	}
}

func TestDeleted(t *testing.T) {
	base := []view.Shift{shift("A", models.ClientTypeNormal), shift("B", models.ClientTypeNormal)}

	out := Reduce(base, Event{Kind: Deleted, Shift: view.Shift{ID: "A"}})
	assert.Equal(t, []string{"B"}, ids(out))
	assert.Equal(t, []string{"A", "B"}, ids(base))

	assert.Equal(t, base, Reduce(base, Event{Kind: Deleted, Shift: view.Shift{ID: "missing"}}))
}

// A fixed seed keeps failures reproducible.
func TestReduceQueueProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(20241014))
	for run := 0; run < 200; run++ {
		var queue []view.Shift
		var firstSeen []string
		preferential := map[string]bool{}

		for step := 0; step < 40; step++ {
			n := rng.Intn(12)
			id := fmt.Sprintf("s%d", n)
			clientType := models.ClientTypeNormal
			if n%3 == 0 {
				clientType = models.ClientTypePreferential
			}
			kind := []Kind{Created, Pending}[rng.Intn(2)]
			prev := queue
			before := slices.Clone(queue)
			known := slices.Contains(ids(queue), id)

			queue = Reduce(queue, Event{Kind: kind, Shift: shift(id, clientType)})

			require.Equal(t, before, prev, "input must not change")
			if known {
				require.Len(t, queue, len(before))
				i := slices.Index(ids(queue), id)
				require.Equal(t, models.StatePending, queue[i].State)
			} else {
				require.Len(t, queue, len(before)+1)
				firstSeen = append(firstSeen, id)
				preferential[id] = clientType == models.ClientTypePreferential
			}
			assertQueueShape(t, queue, firstSeen, preferential)

			// state-only events never move or drop shifts
			target := fmt.Sprintf("s%d", rng.Intn(14))
			stateKind := []Kind{Distracted, Transferred, Qualified, InProgress}[rng.Intn(4)]
			moved := Reduce(queue, Event{Kind: stateKind, Shift: view.Shift{ID: target}})
			require.Equal(t, ids(queue), ids(moved))
		}
	}
}

func assertQueueShape(t *testing.T, queue []view.Shift, firstSeen []string, preferential map[string]bool) {
	t.Helper()
	seen := map[string]bool{}
	normalSeen := false
	for _, s := range queue {
		require.False(t, seen[s.ID], "duplicate %s", s.ID)
		seen[s.ID] = true
		if s.IsPreferential() {
			require.False(t, normalSeen, "preferential %s after a normal shift in %v", s.ID, ids(queue))
		} else {
			normalSeen = true
		}
	}

	var wantPref, wantNormal []string
	for _, id := range firstSeen {
		if preferential[id] {
			wantPref = append(wantPref, id)
		} else {
			wantNormal = append(wantNormal, id)
		}
	}
	require.Equal(t, append(wantPref, wantNormal...), ids(queue))
}

func TestDecode(t *testing.T) {
	data, err := json.Marshal(map[string]any{"shift": shift("A", models.ClientTypePreferential)})
	require.NoError(t, err)

	ev, err := Decode(events.Envelope{Channel: events.RoomChannel("r1"), Event: events.ShiftInProgress, Data: data})
	require.NoError(t, err)
	assert.Equal(t, InProgress, ev.Kind)
	assert.Equal(t, "A", ev.Shift.ID)
	assert.True(t, ev.Shift.IsPreferential())

	_, err = Decode(events.Envelope{Event: "shift.exploded", Data: data})
	assert.Error(t, err)

	_, err = Decode(events.Envelope{Event: events.ShiftDeleted, Data: json.RawMessage(`{"shift":{}}`)})
	assert.Error(t, err)
}

func TestReplaySkipsEventsTheLoadedQueueReflects(t *testing.T) {
	t1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := shift("A", models.ClientTypeNormal)
	a.UpdatedAt = t1
	loaded := []view.Shift{a}

	qualified := a
	qualified.State = models.StateQualified
	qualified.UpdatedAt = t1.Add(time.Minute)
	b := shift("B", models.ClientTypePreferential)

	got := Replay(loaded, []Event{
		{Kind: Created, Shift: a},
		{Kind: Qualified, Shift: qualified},
		{Kind: Created, Shift: b},
	})
	assert.Equal(t, []string{"B", "A"}, ids(got))
	assert.Equal(t, models.StateQualified, got[1].State)
	assert.Equal(t, models.StateCreated, loaded[0].State, "loaded queue is not modified")
}

func TestReplayAppliesDeletesOfLoadedShifts(t *testing.T) {
	a := shift("A", models.ClientTypeNormal)
	got := Replay([]view.Shift{a, shift("B", models.ClientTypeNormal)}, []Event{{Kind: Deleted, Shift: a}})
	assert.Equal(t, []string{"B"}, ids(got))
}

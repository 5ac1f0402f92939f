package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qms/shift-service/internal/store"
)

type failure struct {
	reason  string
	retryAt time.Time
	dead    bool
}

type fakeJobStore struct {
	claimed   []store.Job
	enqueued  []store.Job
	completed []string
	failed    map[string]failure
}

func (f *fakeJobStore) EnqueueJob(_ context.Context, kind string, payload json.RawMessage) (store.Job, error) {
	job := store.Job{JobID: "job-new", Kind: kind, Payload: payload}
	f.enqueued = append(f.enqueued, job)
	return job, nil
}

func (f *fakeJobStore) ClaimJobs(context.Context, int, time.Duration) ([]store.Job, error) {
	out := f.claimed
	f.claimed = nil
	return out, nil
}

func (f *fakeJobStore) CompleteJob(_ context.Context, jobID string) error {
	f.completed = append(f.completed, jobID)
	return nil
}

func (f *fakeJobStore) FailJob(_ context.Context, jobID, reason string, retryAt time.Time, dead bool) error {
	if f.failed == nil {
		f.failed = map[string]failure{}
	}
	f.failed[jobID] = failure{reason: reason, retryAt: retryAt, dead: dead}
	return nil
}

type fakeDeleter struct {
	deleted map[string]bool
	err     error
	calls   []string
}

func (f *fakeDeleter) DeleteShift(_ context.Context, shiftID string) (bool, error) {
	f.calls = append(f.calls, shiftID)
	if f.err != nil {
		return false, f.err
	}
	return f.deleted[shiftID], nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func payload(t *testing.T, shiftID string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(DeleteShiftPayload{ShiftID: shiftID})
	require.NoError(t, err)
	return raw
}

func newWorker(st *fakeJobStore, deleter *fakeDeleter, now time.Time) *Worker {
	w := New(st, map[string]Handler{KindDeleteShift: DeleteShift(deleter, quietLogger())},
		Config{MaxAttempts: 3, Backoff: 10 * time.Second}, quietLogger())
	w.now = func() time.Time { return now }
	return w
}

func TestEnqueueDeleteShift(t *testing.T) {
	st := &fakeJobStore{}
	_, err := EnqueueDeleteShift(context.Background(), st, "s1")
	require.NoError(t, err)
	require.Len(t, st.enqueued, 1)
	assert.Equal(t, KindDeleteShift, st.enqueued[0].Kind)
	assert.JSONEq(t, `{"shift_id":"s1"}`, string(st.enqueued[0].Payload))
}

func TestWorkerCompletesDeletedAndMissingShifts(t *testing.T) {
	st := &fakeJobStore{claimed: []store.Job{
		{JobID: "j1", Kind: KindDeleteShift, Payload: payload(t, "s1"), Attempts: 1},
		{JobID: "j2", Kind: KindDeleteShift, Payload: payload(t, "gone"), Attempts: 1},
	}}
	deleter := &fakeDeleter{deleted: map[string]bool{"s1": true}}

	require.NoError(t, newWorker(st, deleter, time.Now()).Run(context.Background()))
	assert.Equal(t, []string{"j1", "j2"}, st.completed)
	assert.Equal(t, []string{"s1", "gone"}, deleter.calls)
}

func TestWorkerRetriesWithLinearBackoff(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeJobStore{claimed: []store.Job{{JobID: "j1", Kind: KindDeleteShift, Payload: payload(t, "s1"), Attempts: 2}}}
	deleter := &fakeDeleter{err: errors.New("db unavailable")}

	require.NoError(t, newWorker(st, deleter, now).Run(context.Background()))
	got := st.failed["j1"]
	assert.False(t, got.dead)
	assert.Equal(t, now.Add(20*time.Second), got.retryAt)
	assert.Contains(t, got.reason, "db unavailable")
}

func TestWorkerDeadLettersAfterMaxAttempts(t *testing.T) {
	st := &fakeJobStore{claimed: []store.Job{{JobID: "j1", Kind: KindDeleteShift, Payload: payload(t, "s1"), Attempts: 3}}}
	deleter := &fakeDeleter{err: errors.New("db unavailable")}

	require.NoError(t, newWorker(st, deleter, time.Now()).Run(context.Background()))
	assert.True(t, st.failed["j1"].dead)
}

func TestWorkerDeadLettersMalformedAndUnknown(t *testing.T) {
	st := &fakeJobStore{claimed: []store.Job{
		{JobID: "bad", Kind: KindDeleteShift, Payload: json.RawMessage(`{}`), Attempts: 1},
		{JobID: "odd", Kind: "reindex", Payload: json.RawMessage(`{}`), Attempts: 1},
	}}
	deleter := &fakeDeleter{}

	require.NoError(t, newWorker(st, deleter, time.Now()).Run(context.Background()))
	assert.True(t, st.failed["bad"].dead)
	assert.True(t, st.failed["odd"].dead)
	assert.Empty(t, deleter.calls)
}

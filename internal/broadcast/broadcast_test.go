package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qms/shift-service/internal/events"
	"qms/shift-service/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubDeliversOnlyToSubscribedChannel(t *testing.T) {
	h := NewHub(quietLogger())
	a := &Client{ID: "a", Send: make(chan []byte, 1)}
	b := &Client{ID: "b", Send: make(chan []byte, 1)}
	h.Register(a)
	h.Register(b)
	h.Subscribe(a, events.RoomChannel("r1"))
	h.Subscribe(b, events.RoomChannel("r2"))

	h.Broadcast(events.RoomChannel("r1"), []byte("hello"))

	select {
	case msg := <-a.Send:
		assert.Equal(t, "hello", string(msg))
	default:
		t.Fatalf("expected message for subscribed client")
	}
	select {
	case <-b.Send:
		t.Fatalf("unexpected message for other room")
	default:
	}
}

func TestHubDropsForSlowClient(t *testing.T) {
	h := NewHub(quietLogger())
	c := &Client{ID: "slow", Send: make(chan []byte, 1)}
	h.Register(c)
	h.Subscribe(c, "rooms.r1.shifts")

	h.Broadcast("rooms.r1.shifts", []byte("1"))
	h.Broadcast("rooms.r1.shifts", []byte("2"))

	assert.Equal(t, "1", string(<-c.Send))
	assert.Len(t, c.Send, 0)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(quietLogger())
	c := &Client{ID: "c", Send: make(chan []byte, 1)}
	h.Register(c)
	h.Subscribe(c, "rooms.r1.shifts")
	h.Unsubscribe(c, "rooms.r1.shifts")
	h.Broadcast("rooms.r1.shifts", []byte("x"))
	assert.Len(t, c.Send, 0)

	h.Unregister(c)
	h.Unregister(c)
	_, open := <-c.Send
	assert.False(t, open)
}

type fakeSession struct {
	in   chan string
	mu   sync.Mutex
	sent []string
	got  chan struct{}
}

func (f *fakeSession) Recv() (string, error) {
	msg, ok := <-f.in
	if !ok {
		return "", io.EOF
	}
	return msg, nil
}

func (f *fakeSession) Send(msg string) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	f.got <- struct{}{}
	return nil
}

func waitSent(t *testing.T, sess *fakeSession) {
	t.Helper()
	select {
	case <-sess.got:
	case <-time.After(time.Second):
		t.Fatalf("expected a message on the session")
	}
}

func TestServeSubscribesAndForwards(t *testing.T) {
	h := NewHub(quietLogger())
	sess := &fakeSession{in: make(chan string), got: make(chan struct{}, 1)}
	done := make(chan struct{})
	go func() {
		h.Serve(sess)
		close(done)
	}()

	sess.in <- `{"action":"subscribe","channel":"rooms.r1.shifts"}`
	waitSent(t, sess)

	require.NoError(t, h.Publish(context.Background(), events.Envelope{
		Channel: "rooms.r1.shifts",
		Event:   events.ShiftCreated,
		Data:    json.RawMessage(`{"shift":{"id":"s1"}}`),
	}))
	waitSent(t, sess)

	sess.mu.Lock()
	var ack, env events.Envelope
	require.NoError(t, json.Unmarshal([]byte(sess.sent[0]), &ack))
	require.NoError(t, json.Unmarshal([]byte(sess.sent[1]), &env))
	sess.mu.Unlock()
	assert.Equal(t, events.SubscriptionSucceeded, ack.Event)
	assert.Equal(t, "rooms.r1.shifts", ack.Channel)
	assert.Equal(t, events.ShiftCreated, env.Event)

	close(sess.in)
	<-done
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "qms/rooms/r1/shifts", Topic("rooms.r1.shifts"))
}

func TestPubNubPublishesEventAndData(t *testing.T) {
	var channel string
	var message any
	p := &PubNub{publish: func(ch string, msg any) error {
		channel, message = ch, msg
		return nil
	}}
	err := p.Publish(context.Background(), events.Envelope{Channel: "rooms.r1.shifts", Event: events.ShiftDeleted, Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "rooms.r1.shifts", channel)
	assert.Equal(t, events.ShiftDeleted, message.(map[string]any)["event"])
}

type recordingSink struct {
	name string
	err  error
	got  []events.Envelope
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, envelope events.Envelope) error {
	s.got = append(s.got, envelope)
	return s.err
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recordingSink{name: "ok"}
	bad := &recordingSink{name: "bad", err: errors.New("down")}
	err := Multi{bad, ok}.Publish(context.Background(), events.Envelope{Channel: "c"})
	assert.Error(t, err)
	assert.Len(t, ok.got, 1)
}

type fakeOutbox struct {
	events    []store.OutboxEvent
	deleteErr error
	deleted   [][]string
}

func (f *fakeOutbox) ListOutboxEvents(_ context.Context, limit int) ([]store.OutboxEvent, error) {
	return f.events[:min(limit, len(f.events))], nil
}

func (f *fakeOutbox) DeleteOutboxEvents(_ context.Context, eventIDs []string) error {
	f.deleted = append(f.deleted, eventIDs)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	gone := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		gone[id] = true
	}
	kept := f.events[:0:0]
	for _, event := range f.events {
		if !gone[event.EventID] {
			kept = append(kept, event)
		}
	}
	f.events = kept
	return nil
}

// commit makes a row visible, the way a transaction that inserted it
// earlier becomes visible when it finally commits.
func (f *fakeOutbox) commit(event store.OutboxEvent) {
	f.events = append(f.events, event)
	sort.Slice(f.events, func(i, j int) bool { return f.events[i].CreatedAt.Before(f.events[j].CreatedAt) })
}

func TestRelayDeliversInOrderAndDeletes(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	outbox := &fakeOutbox{events: []store.OutboxEvent{
		{EventID: "e1", Channel: "rooms.r1.shifts", Event: events.ShiftCreated, Payload: json.RawMessage(`{}`), CreatedAt: base.Add(time.Second)},
		{EventID: "e2", Channel: "rooms.r1.shifts", Event: events.ShiftQualified, Payload: json.RawMessage(`{}`), CreatedAt: base.Add(2 * time.Second)},
		{EventID: "e3", Channel: "rooms.r2.shifts", Event: events.ShiftDeleted, Payload: json.RawMessage(`{}`), CreatedAt: base.Add(3 * time.Second)},
	}}

	good := &recordingSink{name: "good"}
	failing := &recordingSink{name: "failing", err: errors.New("unreachable")}
	relay := NewRelay(outbox, []Sink{failing, good}, RelayConfig{BatchSize: 2}, quietLogger())

	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]string{{"e1", "e2"}}, outbox.deleted)

	n, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var names []string
	for _, env := range good.got {
		names = append(names, env.Event)
	}
	assert.Equal(t, []string{events.ShiftCreated, events.ShiftQualified, events.ShiftDeleted}, names)
	assert.Len(t, failing.got, 3)

	n, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayDeliversLateCommittedEvent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	outbox := &fakeOutbox{}
	sink := &recordingSink{name: "hub"}
	relay := NewRelay(outbox, []Sink{sink}, RelayConfig{}, quietLogger())

	// B was inserted after A but commits first.
	outbox.commit(store.OutboxEvent{EventID: "b", Event: events.ShiftQualified, CreatedAt: base.Add(2 * time.Second)})
	_, err := relay.Tick(context.Background())
	require.NoError(t, err)

	outbox.commit(store.OutboxEvent{EventID: "a", Event: events.ShiftCreated, CreatedAt: base.Add(time.Second)})
	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, sink.got, 2)
	assert.Equal(t, events.ShiftCreated, sink.got[1].Event)
	assert.Empty(t, outbox.events)
}

func TestRelayRedeliversWhenDeleteFails(t *testing.T) {
	outbox := &fakeOutbox{
		events:    []store.OutboxEvent{{EventID: "e1", Event: events.ShiftCreated}},
		deleteErr: errors.New("db down"),
	}
	sink := &recordingSink{name: "hub"}
	relay := NewRelay(outbox, []Sink{sink}, RelayConfig{}, quietLogger())

	_, err := relay.Tick(context.Background())
	require.Error(t, err)

	outbox.deleteErr = nil
	_, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Len(t, sink.got, 2)
	assert.Empty(t, outbox.events)
}

func TestHandlerServesSockJSInfo(t *testing.T) {
	var handler http.Handler = NewHub(quietLogger()).Handler("/realtime")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/realtime/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info struct {
		Websocket bool `json:"websocket"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.True(t, info.Websocket)
}

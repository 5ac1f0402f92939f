package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"qms/shift-service/internal/events"
	"qms/shift-service/internal/view"
)

// Subscriber follows one room at a time. The queue is replaced copy-on-write
// on every event and observers are called with the new snapshot outside the
// lock.
type Subscriber struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	mu        sync.Mutex
	shifts    []view.Shift
	channel   string
	conn      *websocket.Conn
	done      chan struct{}
	observers []func([]view.Shift)
	// buffering holds events in pending until Follow has loaded the queue.
	buffering bool
	pending   []Event
}

// RealtimeURL maps the API base URL to the raw websocket endpoint of the
// realtime hub.
func RealtimeURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime/websocket"
	return u.String(), nil
}

func NewSubscriber(realtimeURL string, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{url: realtimeURL, dialer: websocket.DefaultDialer, logger: logger}
}

// Observe registers fn to receive every new queue snapshot.
func (s *Subscriber) Observe(fn func([]view.Shift)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Subscriber) Snapshot() []view.Shift {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.shifts)
}

// Loader fetches a room's current queue.
type Loader func(ctx context.Context) ([]view.Shift, error)

// ackTimeout bounds the wait for the hub to confirm a subscription.
const ackTimeout = 5 * time.Second

// SwitchRoom follows roomID with initial as the starting queue.
func (s *Subscriber) SwitchRoom(ctx context.Context, roomID string, initial []view.Shift) error {
	return s.Follow(ctx, roomID, func(context.Context) ([]view.Shift, error) {
		return initial, nil
	})
}

// Follow drops the current subscription and subscribes to roomID's channel
// on a fresh connection. Once the hub confirms the subscription it loads the
// queue; events received in the meantime are replayed over the loaded
// queue, so nothing published between the two is lost. A load error is
// returned but the subscription stays up over an empty queue. Follow must
// not run concurrently with itself or Close.
func (s *Subscriber) Follow(ctx context.Context, roomID string, load Loader) error {
	s.leave()

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial realtime: %w", err)
	}
	channel := events.RoomChannel(roomID)
	sub, err := json.Marshal(events.SubscribeMessage{Action: events.ActionSubscribe, Channel: channel})
	if err != nil {
		conn.Close()
		return err
	}

	done := make(chan struct{})
	acked := make(chan struct{})
	s.mu.Lock()
	s.conn = conn
	s.channel = channel
	s.done = done
	s.shifts = nil
	s.buffering = true
	s.pending = nil
	s.mu.Unlock()

	go s.read(conn, channel, done, acked)
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		s.leave()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	timer := time.NewTimer(ackTimeout)
	defer timer.Stop()
	select {
	case <-acked:
	case <-done:
		s.leave()
		return fmt.Errorf("subscribe %s: connection closed", channel)
	case <-ctx.Done():
		s.leave()
		return ctx.Err()
	case <-timer.C:
		s.logger.Warn("subscription not confirmed", "channel", channel, "timeout", ackTimeout)
	}

	initial, loadErr := load(ctx)

	s.mu.Lock()
	if s.channel != channel {
		s.mu.Unlock()
		return loadErr
	}
	s.shifts = Replay(initial, s.pending)
	s.buffering = false
	s.pending = nil
	snapshot, observers := s.shifts, slices.Clone(s.observers)
	s.mu.Unlock()

	notify(observers, snapshot)
	if loadErr != nil {
		return fmt.Errorf("load %s: %w", roomID, loadErr)
	}
	return nil
}

// Close ends the subscription. Events still in flight are discarded.
func (s *Subscriber) Close() error {
	s.leave()
	return nil
}

func (s *Subscriber) leave() {
	s.mu.Lock()
	conn, done, channel := s.conn, s.done, s.channel
	s.conn, s.done, s.channel = nil, nil, ""
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if unsub, err := json.Marshal(events.SubscribeMessage{Action: events.ActionUnsubscribe, Channel: channel}); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, unsub)
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	<-done
}

func (s *Subscriber) read(conn *websocket.Conn, channel string, done, acked chan struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("realtime read", "channel", channel, "error", err)
			}
			return
		}
		var envelope events.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.logger.Warn("realtime message", "channel", channel, "error", err)
			continue
		}
		if envelope.Channel != channel {
			continue
		}
		if envelope.Event == events.SubscriptionSucceeded {
			if acked != nil {
				close(acked)
				acked = nil
			}
			continue
		}
		ev, err := Decode(envelope)
		if err != nil {
			s.logger.Warn("realtime event", "channel", channel, "error", err)
			continue
		}
		s.apply(channel, ev)
	}
}

// apply folds ev unless the subscriber has moved to another channel since
// the event was read.
func (s *Subscriber) apply(channel string, ev Event) {
	s.mu.Lock()
	if s.channel != channel {
		s.mu.Unlock()
		return
	}
	if s.buffering {
		s.pending = append(s.pending, ev)
		s.mu.Unlock()
		return
	}
	s.shifts = Reduce(s.shifts, ev)
	snapshot, observers := s.shifts, slices.Clone(s.observers)
	s.mu.Unlock()
	notify(observers, snapshot)
}

func notify(observers []func([]view.Shift), snapshot []view.Shift) {
	for _, fn := range observers {
		fn(slices.Clone(snapshot))
	}
}

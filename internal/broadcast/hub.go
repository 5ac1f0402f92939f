package broadcast

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"

	"qms/shift-service/internal/events"
	"qms/shift-service/internal/metrics"
)

type Client struct {
	ID       string
	Send     chan []byte
	channels map[string]struct{}
}

// Hub fans channel messages out to connected sockjs sessions. Slow clients
// lose messages rather than block the relay.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

func (h *Hub) Name() string { return "sockjs" }

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client.channels == nil {
		client.channels = make(map[string]struct{})
	}
	h.clients[client.ID] = client
	metrics.HubClients.Set(float64(len(h.clients)))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
	metrics.HubClients.Set(float64(len(h.clients)))
}

func (h *Hub) Subscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.channels[channel] = struct{}{}
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.channels, channel)
}

func (h *Hub) Publish(_ context.Context, envelope events.Envelope) error {
	payload, err := encode(envelope)
	if err != nil {
		return err
	}
	h.Broadcast(envelope.Channel, payload)
	return nil
}

func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if _, ok := client.channels[channel]; !ok {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("drop realtime message", "client_id", client.ID, "channel", channel)
		}
	}
}

// session is the part of sockjs.Session the hub needs.
type session interface {
	Recv() (string, error)
	Send(string) error
}

// Serve runs one subscriber connection until it closes.
func (h *Hub) Serve(sess session) {
	client := &Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
	h.Register(client)
	defer h.Unregister(client)

	go func() {
		for msg := range client.Send {
			_ = sess.Send(string(msg))
		}
	}()

	for {
		msg, err := sess.Recv()
		if err != nil {
			return
		}
		parsed, ok := events.ParseSubscribe([]byte(msg))
		if !ok {
			continue
		}
		if parsed.Action == events.ActionUnsubscribe {
			h.Unsubscribe(client, parsed.Channel)
			continue
		}
		h.Subscribe(client, parsed.Channel)
		if ack, err := encode(events.Envelope{Channel: parsed.Channel, Event: events.SubscriptionSucceeded}); err == nil {
			client.Send <- ack
		}
	}
}

// Handler mounts the hub at prefix, accepting both sockjs and raw websocket
// transports.
func (h *Hub) Handler(prefix string) http.Handler {
	opts := sockjs.DefaultOptions
	opts.RawWebsocket = true
	return sockjs.NewHandler(prefix, opts, func(sess sockjs.Session) {
		h.Serve(sess)
	})
}

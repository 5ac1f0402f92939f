// Package events names the broadcast channels and events shared by the
// server and the receptor feed.
package events

import "encoding/json"

const (
	ShiftCreated     = "shift.created"
	ShiftPending     = "shift.pending"
	ShiftQualified   = "shift.qualified"
	ShiftInProgress  = "shift.in-progress"
	ShiftDistracted  = "shift.distracted"
	ShiftTransferred = "shift.transferred"
	ShiftDeleted     = "shift.deleted"

	// SubscriptionSucceeded is sent by the hub on a channel once a
	// subscribe request has taken effect.
	SubscriptionSucceeded = "subscription.succeeded"
)

// RoomChannel is the channel every change to a room's shifts is published on.
func RoomChannel(roomID string) string {
	return "rooms." + roomID + ".shifts"
}

// Envelope is the message delivered to subscribers.
type Envelope struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

// SubscribeMessage is sent by a subscriber over the realtime socket.
type SubscribeMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// ParseSubscribe decodes a subscribe or unsubscribe request.
func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != ActionSubscribe && msg.Action != ActionUnsubscribe {
		return SubscribeMessage{}, false
	}
	if msg.Channel == "" {
		return SubscribeMessage{}, false
	}
	return msg, true
}

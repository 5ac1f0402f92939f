package models

import "time"

const (
	StateCreated     = "created"
	StatePending     = "pending"
	StateQualified   = "qualified"
	StateInProgress  = "in_progress"
	StateDistracted  = "distracted"
	StateTransferred = "transferred"
)

// Shift is a queue ticket with its client, room, optional module and
// requested services already resolved.
type Shift struct {
	ShiftID   string    `json:"shift_id"`
	State     string    `json:"state"`
	ClientID  string    `json:"client_id"`
	RoomID    string    `json:"room_id"`
	ModuleID  *string   `json:"module_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Client    Client    `json:"client"`
	Room      Room      `json:"room"`
	Module    *Module   `json:"module,omitempty"`
	Services  []Service `json:"services"`
}

// ActiveStates are the states shown in a room's live queue.
var ActiveStates = []string{StateCreated, StatePending, StateQualified, StateInProgress}

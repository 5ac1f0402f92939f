package models

import "time"

const (
	ClientTypeNormal       = "normal"
	ClientTypePreferential = "preferential"
)

const (
	ModuleStatusAvailable = "available"
	ModuleStatusBusy      = "busy"
	ModuleStatusOffline   = "offline"
)

const (
	AttendantStatusFree    = "free"
	AttendantStatusBusy    = "busy"
	AttendantStatusOffline = "offline"
)

type Client struct {
	ClientID   string    `json:"client_id"`
	Name       string    `json:"name"`
	DNI        string    `json:"dni"`
	ClientType string    `json:"client_type"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c Client) IsPreferential() bool {
	return c.ClientType == ClientTypePreferential
}

type Room struct {
	RoomID      string `json:"room_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

type ModuleType struct {
	ModuleTypeID string `json:"module_type_id"`
	Name         string `json:"name"`
}

// Module is a service counter. Room and Type are joined on read.
type Module struct {
	ModuleID           string     `json:"module_id"`
	Name               string     `json:"name"`
	IPAddress          string     `json:"ip_address"`
	RoomID             string     `json:"room_id"`
	ModuleTypeID       string     `json:"module_type_id"`
	Status             string     `json:"status"`
	Enabled            bool       `json:"enabled"`
	CurrentAttendantID *string    `json:"current_attendant_id,omitempty"`
	Room               Room       `json:"room"`
	Type               ModuleType `json:"type"`
}

type Attendant struct {
	AttendantID string `json:"attendant_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DNI         string `json:"dni"`
	Enabled     bool   `json:"enabled"`
	Status      string `json:"status"`
}

type Service struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

type Session struct {
	SessionID   string    `json:"session_id"`
	AttendantID string    `json:"attendant_id"`
	ModuleID    string    `json:"module_id"`
	ModuleIP    string    `json:"module_ip"`
	ExpiresAt   time.Time `json:"expires_at"`
}

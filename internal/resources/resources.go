// Package resources renders models into the JSON views returned by the API
// and carried in broadcasts.
package resources

import (
	"encoding/json"
	"time"

	"qms/shift-service/internal/models"
)

type ClientResource struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DNI        string    `json:"dni"`
	ClientType string    `json:"client_type"`
	CreatedAt  time.Time `json:"created_at"`
}

type RoomResource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

type ModuleTypeResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ModuleResource struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	IPAddress string       `json:"ip_address"`
	Room      RoomResource `json:"room"`
	Type      string       `json:"type"`
	Status    string       `json:"status"`
	Enabled   bool         `json:"enabled"`
}

type AttendantResource struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	DNI     string `json:"dni"`
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}

type ServiceResource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type ShiftResponse struct {
	ID        string            `json:"id"`
	State     string            `json:"state"`
	Client    ClientResource    `json:"client"`
	Room      RoomResource      `json:"room"`
	Module    *ModuleResource   `json:"module"`
	Services  []ServiceResource `json:"services"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func Client(c models.Client) ClientResource {
	return ClientResource{ID: c.ClientID, Name: c.Name, DNI: c.DNI, ClientType: c.ClientType, CreatedAt: c.CreatedAt}
}

func Room(r models.Room) RoomResource {
	return RoomResource{ID: r.RoomID, Name: r.Name, Description: r.Description, Enabled: r.Enabled}
}

func ModuleType(m models.ModuleType) ModuleTypeResource {
	return ModuleTypeResource{ID: m.ModuleTypeID, Name: m.Name}
}

func Module(m models.Module) ModuleResource {
	return ModuleResource{
		ID:        m.ModuleID,
		Name:      m.Name,
		IPAddress: m.IPAddress,
		Room:      Room(m.Room),
		Type:      m.Type.Name,
		Status:    m.Status,
		Enabled:   m.Enabled,
	}
}

func Attendant(a models.Attendant) AttendantResource {
	return AttendantResource{ID: a.AttendantID, Name: a.Name, Email: a.Email, DNI: a.DNI, Enabled: a.Enabled, Status: a.Status}
}

func Service(s models.Service) ServiceResource {
	return ServiceResource{ID: s.ServiceID, Name: s.Name, Code: s.Code}
}

func Shift(s models.Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:        s.ShiftID,
		State:     s.State,
		Client:    Client(s.Client),
		Room:      Room(s.Room),
		Services:  make([]ServiceResource, 0, len(s.Services)),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Module != nil {
		module := Module(*s.Module)
		resp.Module = &module
	}
	for _, svc := range s.Services {
		resp.Services = append(resp.Services, Service(svc))
	}
	return resp
}

// Collection maps a slice of models to their views. A nil input renders
// as an empty JSON array.
func Collection[M any, R any](items []M, render func(M) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, render(item))
	}
	return out
}

// ShiftPayload is the data part of every shift broadcast.
type ShiftPayload struct {
	Shift ShiftResponse `json:"shift"`
}

func ShiftPayloadJSON(s models.Shift) (json.RawMessage, error) {
	return json.Marshal(ShiftPayload{Shift: Shift(s)})
}

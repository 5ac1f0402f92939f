// Package view holds the typed read models the receptor console decodes
// from API responses and broadcasts.
package view

import (
	"time"

	"qms/shift-service/internal/models"
)

type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DNI        string    `json:"dni"`
	ClientType string    `json:"client_type"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c Client) IsPreferential() bool {
	return c.ClientType == models.ClientTypePreferential
}

type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

type Module struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	Room      Room   `json:"room"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Enabled   bool   `json:"enabled"`
}

type Attendant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	DNI     string `json:"dni"`
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}

type Service struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Shift struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Client    Client    `json:"client"`
	Room      Room      `json:"room"`
	Module    *Module   `json:"module"`
	Services  []Service `json:"services"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Shift) IsPreferential() bool {
	return s.Client.IsPreferential()
}

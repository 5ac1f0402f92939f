package store

import (
	"context"
	"encoding/json"
	"time"

	"qms/shift-service/internal/models"
)

type ClientUpdate struct {
	Name       *string
	DNI        *string
	ClientType *string
}

type RoomUpdate struct {
	Name        *string
	Description *string
	Enabled     *bool
}

type ModuleInput struct {
	Name         string
	IPAddress    string
	RoomID       string
	ModuleTypeID string
	Enabled      bool
	AttendantIDs []string
}

type ModuleUpdate struct {
	Name         *string
	IPAddress    *string
	RoomID       *string
	ModuleTypeID *string
	Enabled      *bool
	AttendantIDs *[]string
}

type AttendantInput struct {
	Name         string
	Email        string
	DNI          string
	PasswordHash string
	Enabled      bool
}

type AttendantUpdate struct {
	Name         *string
	Email        *string
	DNI          *string
	PasswordHash *string
	Enabled      *bool
}

type ServiceUpdate struct {
	Name *string
	Code *string
}

type ShiftFilter struct {
	RoomID   string
	ModuleID string
	States   []string
}

// CreateShiftInput carries either an existing ClientID or a Client to be
// looked up by DNI and created when missing.
type CreateShiftInput struct {
	ClientID   string
	Client     *models.Client
	RoomID     string
	ModuleID   *string
	ServiceIDs []string
}

type ShiftUpdate struct {
	ModuleID   *string
	ServiceIDs *[]string
}

type ShiftActionInput struct {
	ShiftID string
	Action  string
	// ModuleID is the caller's module; qualify and start bind the shift to it.
	ModuleID   string
	ToRoomID   *string
	ToModuleID *string
}

type LoginInput struct {
	Email     string
	Password  string
	ModuleIP  string
	ExpiresAt time.Time
}

type LoginResult struct {
	Attendant models.Attendant
	Session   models.Session
}

type ClientStore interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	CreateClient(ctx context.Context, client models.Client) (models.Client, error)
	GetClient(ctx context.Context, clientID string) (models.Client, bool, error)
	UpdateClient(ctx context.Context, clientID string, update ClientUpdate) (models.Client, error)
	DeleteClient(ctx context.Context, clientID string) error
}

type RoomStore interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, room models.Room) (models.Room, error)
	GetRoom(ctx context.Context, roomID string) (models.Room, bool, error)
	UpdateRoom(ctx context.Context, roomID string, update RoomUpdate) (models.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

type ModuleTypeStore interface {
	ListModuleTypes(ctx context.Context) ([]models.ModuleType, error)
	CreateModuleType(ctx context.Context, moduleType models.ModuleType) (models.ModuleType, error)
	GetModuleType(ctx context.Context, moduleTypeID string) (models.ModuleType, bool, error)
	UpdateModuleType(ctx context.Context, moduleTypeID, name string) (models.ModuleType, error)
	DeleteModuleType(ctx context.Context, moduleTypeID string) error
}

type ModuleStore interface {
	ListModules(ctx context.Context, roomID string) ([]models.Module, error)
	CreateModule(ctx context.Context, input ModuleInput) (models.Module, error)
	GetModule(ctx context.Context, moduleID string) (models.Module, bool, error)
	GetModuleByIP(ctx context.Context, ipAddress string) (models.Module, bool, error)
	UpdateModule(ctx context.Context, moduleID string, update ModuleUpdate) (models.Module, error)
	DeleteModule(ctx context.Context, moduleID string) error
}

type AttendantStore interface {
	ListAttendants(ctx context.Context) ([]models.Attendant, error)
	CreateAttendant(ctx context.Context, input AttendantInput) (models.Attendant, error)
	GetAttendant(ctx context.Context, attendantID string) (models.Attendant, bool, error)
	UpdateAttendant(ctx context.Context, attendantID string, update AttendantUpdate) (models.Attendant, error)
	DeleteAttendant(ctx context.Context, attendantID string) error
}

type ServiceStore interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	CreateService(ctx context.Context, service models.Service) (models.Service, error)
	GetService(ctx context.Context, serviceID string) (models.Service, bool, error)
	UpdateService(ctx context.Context, serviceID string, update ServiceUpdate) (models.Service, error)
	DeleteService(ctx context.Context, serviceID string) error
}

type ShiftStore interface {
	ListShifts(ctx context.Context, filter ShiftFilter) ([]models.Shift, error)
	CreateShift(ctx context.Context, input CreateShiftInput) (models.Shift, error)
	GetShift(ctx context.Context, shiftID string) (models.Shift, bool, error)
	UpdateShift(ctx context.Context, shiftID string, update ShiftUpdate) (models.Shift, error)
	ApplyShiftAction(ctx context.Context, input ShiftActionInput) (models.Shift, error)
	// DeleteShift releases the shift's module and removes the shift in one
	// transaction. A missing shift reports false with a nil error.
	DeleteShift(ctx context.Context, shiftID string) (bool, error)
}

type SessionStore interface {
	Login(ctx context.Context, input LoginInput) (LoginResult, error)
	GetSession(ctx context.Context, sessionID string) (models.Session, error)
	RefreshSession(ctx context.Context, sessionID string, expiresAt time.Time) (models.Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

type Job struct {
	JobID     string          `json:"job_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error"`
	CreatedAt time.Time       `json:"created_at"`
}

type JobStore interface {
	EnqueueJob(ctx context.Context, kind string, payload json.RawMessage) (Job, error)
	// ClaimJobs leases up to limit due jobs for lease and increments their
	// attempt counters. A job whose lease expires is claimable again.
	ClaimJobs(ctx context.Context, limit int, lease time.Duration) ([]Job, error)
	CompleteJob(ctx context.Context, jobID string) error
	FailJob(ctx context.Context, jobID, reason string, retryAt time.Time, dead bool) error
}

type OutboxEvent struct {
	EventID   string
	Channel   string
	Event     string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// OutboxStore hands undelivered broadcasts to the relay. A row stays
// pending until its id is deleted, so rows that commit out of insertion
// order are still picked up on a later read.
type OutboxStore interface {
	ListOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	DeleteOutboxEvents(ctx context.Context, eventIDs []string) error
}

// Store is everything the HTTP API needs.
type Store interface {
	ClientStore
	RoomStore
	ModuleTypeStore
	ModuleStore
	AttendantStore
	ServiceStore
	ShiftStore
	SessionStore
	EnqueueJob(ctx context.Context, kind string, payload json.RawMessage) (Job, error)
}

package httpapi

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/store"
)

// fakeStore answers with zero values unless the matching func is set.
type fakeStore struct {
	listClients  func(ctx context.Context) ([]models.Client, error)
	createClient func(ctx context.Context, client models.Client) (models.Client, error)
	getClient    func(ctx context.Context, clientID string) (models.Client, bool, error)

	listRooms  func(ctx context.Context) ([]models.Room, error)
	createRoom func(ctx context.Context, room models.Room) (models.Room, error)
	getRoom    func(ctx context.Context, roomID string) (models.Room, bool, error)

	getModule     func(ctx context.Context, moduleID string) (models.Module, bool, error)
	getModuleByIP func(ctx context.Context, ip string) (models.Module, bool, error)
	createModule  func(ctx context.Context, input store.ModuleInput) (models.Module, error)

	getModuleType   func(ctx context.Context, moduleTypeID string) (models.ModuleType, bool, error)
	getAttendant    func(ctx context.Context, attendantID string) (models.Attendant, bool, error)
	createAttendant func(ctx context.Context, input store.AttendantInput) (models.Attendant, error)
	getService      func(ctx context.Context, serviceID string) (models.Service, bool, error)

	listShifts       func(ctx context.Context, filter store.ShiftFilter) ([]models.Shift, error)
	createShift      func(ctx context.Context, input store.CreateShiftInput) (models.Shift, error)
	getShift         func(ctx context.Context, shiftID string) (models.Shift, bool, error)
	applyShiftAction func(ctx context.Context, input store.ShiftActionInput) (models.Shift, error)

	login          func(ctx context.Context, input store.LoginInput) (store.LoginResult, error)
	getSession     func(ctx context.Context, sessionID string) (models.Session, error)
	refreshSession func(ctx context.Context, sessionID string, expiresAt time.Time) (models.Session, error)
	revokeSession  func(ctx context.Context, sessionID string) error

	enqueueJob func(ctx context.Context, kind string, payload json.RawMessage) (store.Job, error)
}

func (f *fakeStore) ListClients(ctx context.Context) ([]models.Client, error) {
	if f.listClients == nil {
		return nil, nil
	}
	return f.listClients(ctx)
}

func (f *fakeStore) CreateClient(ctx context.Context, client models.Client) (models.Client, error) {
	if f.createClient == nil {
		return client, nil
	}
	return f.createClient(ctx, client)
}

func (f *fakeStore) GetClient(ctx context.Context, clientID string) (models.Client, bool, error) {
	if f.getClient == nil {
		return models.Client{}, false, nil
	}
	return f.getClient(ctx, clientID)
}

func (f *fakeStore) UpdateClient(context.Context, string, store.ClientUpdate) (models.Client, error) {
	return models.Client{}, nil
}

func (f *fakeStore) DeleteClient(context.Context, string) error { return nil }

func (f *fakeStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	if f.listRooms == nil {
		return nil, nil
	}
	return f.listRooms(ctx)
}

func (f *fakeStore) CreateRoom(ctx context.Context, room models.Room) (models.Room, error) {
	if f.createRoom == nil {
		return room, nil
	}
	return f.createRoom(ctx, room)
}

func (f *fakeStore) GetRoom(ctx context.Context, roomID string) (models.Room, bool, error) {
	if f.getRoom == nil {
		return models.Room{}, false, nil
	}
	return f.getRoom(ctx, roomID)
}

func (f *fakeStore) UpdateRoom(context.Context, string, store.RoomUpdate) (models.Room, error) {
	return models.Room{}, nil
}

func (f *fakeStore) DeleteRoom(context.Context, string) error { return nil }

func (f *fakeStore) ListModuleTypes(context.Context) ([]models.ModuleType, error) { return nil, nil }

func (f *fakeStore) CreateModuleType(_ context.Context, moduleType models.ModuleType) (models.ModuleType, error) {
	return moduleType, nil
}

func (f *fakeStore) GetModuleType(ctx context.Context, moduleTypeID string) (models.ModuleType, bool, error) {
	if f.getModuleType == nil {
		return models.ModuleType{}, false, nil
	}
	return f.getModuleType(ctx, moduleTypeID)
}

func (f *fakeStore) UpdateModuleType(context.Context, string, string) (models.ModuleType, error) {
	return models.ModuleType{}, nil
}

func (f *fakeStore) DeleteModuleType(context.Context, string) error { return nil }

func (f *fakeStore) ListModules(context.Context, string) ([]models.Module, error) { return nil, nil }

func (f *fakeStore) CreateModule(ctx context.Context, input store.ModuleInput) (models.Module, error) {
	if f.createModule == nil {
		return models.Module{}, nil
	}
	return f.createModule(ctx, input)
}

func (f *fakeStore) GetModule(ctx context.Context, moduleID string) (models.Module, bool, error) {
	if f.getModule == nil {
		return models.Module{}, false, nil
	}
	return f.getModule(ctx, moduleID)
}

func (f *fakeStore) GetModuleByIP(ctx context.Context, ip string) (models.Module, bool, error) {
	if f.getModuleByIP == nil {
		return models.Module{}, false, nil
	}
	return f.getModuleByIP(ctx, ip)
}

func (f *fakeStore) UpdateModule(context.Context, string, store.ModuleUpdate) (models.Module, error) {
	return models.Module{}, nil
}

func (f *fakeStore) DeleteModule(context.Context, string) error { return nil }

func (f *fakeStore) ListAttendants(context.Context) ([]models.Attendant, error) { return nil, nil }

func (f *fakeStore) CreateAttendant(ctx context.Context, input store.AttendantInput) (models.Attendant, error) {
	if f.createAttendant == nil {
		return models.Attendant{Name: input.Name, Email: input.Email, DNI: input.DNI, Enabled: input.Enabled}, nil
	}
	return f.createAttendant(ctx, input)
}

func (f *fakeStore) GetAttendant(ctx context.Context, attendantID string) (models.Attendant, bool, error) {
	if f.getAttendant == nil {
		return models.Attendant{}, false, nil
	}
	return f.getAttendant(ctx, attendantID)
}

func (f *fakeStore) UpdateAttendant(context.Context, string, store.AttendantUpdate) (models.Attendant, error) {
	return models.Attendant{}, nil
}

func (f *fakeStore) DeleteAttendant(context.Context, string) error { return nil }

func (f *fakeStore) ListServices(context.Context) ([]models.Service, error) { return nil, nil }

func (f *fakeStore) CreateService(_ context.Context, service models.Service) (models.Service, error) {
	return service, nil
}

func (f *fakeStore) GetService(ctx context.Context, serviceID string) (models.Service, bool, error) {
	if f.getService == nil {
		return models.Service{}, false, nil
	}
	return f.getService(ctx, serviceID)
}

func (f *fakeStore) UpdateService(context.Context, string, store.ServiceUpdate) (models.Service, error) {
	return models.Service{}, nil
}

func (f *fakeStore) DeleteService(context.Context, string) error { return nil }

func (f *fakeStore) ListShifts(ctx context.Context, filter store.ShiftFilter) ([]models.Shift, error) {
	if f.listShifts == nil {
		return nil, nil
	}
	return f.listShifts(ctx, filter)
}

func (f *fakeStore) CreateShift(ctx context.Context, input store.CreateShiftInput) (models.Shift, error) {
	if f.createShift == nil {
		return models.Shift{}, nil
	}
	return f.createShift(ctx, input)
}

func (f *fakeStore) GetShift(ctx context.Context, shiftID string) (models.Shift, bool, error) {
	if f.getShift == nil {
		return models.Shift{}, false, nil
	}
	return f.getShift(ctx, shiftID)
}

func (f *fakeStore) UpdateShift(context.Context, string, store.ShiftUpdate) (models.Shift, error) {
	return models.Shift{}, nil
}

func (f *fakeStore) ApplyShiftAction(ctx context.Context, input store.ShiftActionInput) (models.Shift, error) {
	if f.applyShiftAction == nil {
		return models.Shift{}, nil
	}
	return f.applyShiftAction(ctx, input)
}

func (f *fakeStore) DeleteShift(context.Context, string) (bool, error) { return false, nil }

func (f *fakeStore) Login(ctx context.Context, input store.LoginInput) (store.LoginResult, error) {
	if f.login == nil {
		return store.LoginResult{}, store.ErrInvalidCredentials
	}
	return f.login(ctx, input)
}

func (f *fakeStore) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	if f.getSession == nil {
		return models.Session{}, store.ErrSessionNotFound
	}
	return f.getSession(ctx, sessionID)
}

func (f *fakeStore) RefreshSession(ctx context.Context, sessionID string, expiresAt time.Time) (models.Session, error) {
	if f.refreshSession == nil {
		return models.Session{}, store.ErrSessionNotFound
	}
	return f.refreshSession(ctx, sessionID, expiresAt)
}

func (f *fakeStore) RevokeSession(ctx context.Context, sessionID string) error {
	if f.revokeSession == nil {
		return nil
	}
	return f.revokeSession(ctx, sessionID)
}

func (f *fakeStore) EnqueueJob(ctx context.Context, kind string, payload json.RawMessage) (store.Job, error) {
	if f.enqueueJob == nil {
		return store.Job{Kind: kind, Payload: payload}, nil
	}
	return f.enqueueJob(ctx, kind, payload)
}

// memoryCache is an in-process stand-in for the Redis list cache.
type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

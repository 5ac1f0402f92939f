package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"qms/shift-service/internal/cache"
	"qms/shift-service/internal/jobs"
	"qms/shift-service/internal/models"
	"qms/shift-service/internal/resources"
	"qms/shift-service/internal/store"
)

var shiftActions = []interface{}{
	store.ActionRequeue,
	store.ActionQualify,
	store.ActionStart,
	store.ActionDistract,
	store.ActionTransfer,
}

var shiftStates = []interface{}{
	models.StateCreated,
	models.StatePending,
	models.StateQualified,
	models.StateInProgress,
	models.StateDistracted,
	models.StateTransferred,
}

// shiftRequest is the kiosk ticket: an existing client_id or a client to
// register on the fly.
type shiftRequest struct {
	RoomID     string         `json:"room_id"`
	ClientID   string         `json:"client_id"`
	Client     *clientRequest `json:"client"`
	ModuleID   *string        `json:"module_id"`
	ServiceIDs []string       `json:"service_ids"`

	rooms, clients, modules, services lookupFunc
}

func (req *shiftRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.RoomID, validation.Required, is.UUID, exists(req.rooms, "room does not exist")),
		validation.Field(&req.ClientID,
			validation.When(req.Client == nil, validation.Required.Error("client_id or client is required")),
			is.UUID, exists(req.clients, "client does not exist")),
		validation.Field(&req.Client),
		validation.Field(&req.ModuleID, validation.NilOrNotEmpty, is.UUID, exists(req.modules, "module does not exist")),
		validation.Field(&req.ServiceIDs, validation.Each(is.UUID), eachExists(req.services, "service does not exist")),
	)
}

type shiftUpdateRequest struct {
	ModuleID   *string   `json:"module_id"`
	ServiceIDs *[]string `json:"service_ids"`

	modules, services lookupFunc
}

func (req *shiftUpdateRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.ModuleID, validation.NilOrNotEmpty, is.UUID, exists(req.modules, "module does not exist")),
		validation.Field(&req.ServiceIDs, eachExists(req.services, "service does not exist")),
	)
}

type transferRequest struct {
	RoomID   *string `json:"room_id"`
	ModuleID *string `json:"module_id"`

	rooms, modules lookupFunc
}

func (req *transferRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.RoomID, validation.NilOrNotEmpty, is.UUID, exists(req.rooms, "room does not exist")),
		validation.Field(&req.ModuleID, validation.NilOrNotEmpty, is.UUID, exists(req.modules, "module does not exist")),
	)
}

func (h *Handler) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	req := shiftRequest{
		rooms:    found(h.store.GetRoom),
		clients:  found(h.store.GetClient),
		modules:  found(h.store.GetModule),
		services: found(h.store.GetService),
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	input := store.CreateShiftInput{
		ClientID:   req.ClientID,
		RoomID:     req.RoomID,
		ModuleID:   req.ModuleID,
		ServiceIDs: req.ServiceIDs,
	}
	if req.ClientID == "" && req.Client != nil {
		client := req.Client.model()
		input.Client = &client
	}
	shift, err := h.store.CreateShift(r.Context(), input)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if input.Client != nil {
		cache.Forget(r.Context(), h.cache, cacheKeyClients)
	}
	writeData(w, http.StatusCreated, resources.Shift(shift))
}

func (h *Handler) handleListShifts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.ShiftFilter{
		RoomID:   strings.TrimSpace(query.Get("room_id")),
		ModuleID: strings.TrimSpace(query.Get("module_id")),
	}
	for _, value := range query["state"] {
		for _, state := range strings.Split(value, ",") {
			if state = strings.TrimSpace(state); state != "" {
				filter.States = append(filter.States, state)
			}
		}
	}
	err := validation.Errors{
		"room_id":   validation.Validate(filter.RoomID, is.UUID),
		"module_id": validation.Validate(filter.ModuleID, is.UUID),
		"state":     validation.Validate(filter.States, validation.Each(validation.In(shiftStates...))),
	}.Filter()
	if !h.checkValid(w, r, err) {
		return
	}
	h.writeShifts(w, r, filter)
}

// handleRoomQueue lists the live queue of a room, preferential clients first.
func (h *Handler) handleRoomQueue(w http.ResponseWriter, r *http.Request) {
	roomID := pathID(r)
	if !h.requireRoom(w, r, roomID) {
		return
	}
	h.writeShifts(w, r, store.ShiftFilter{RoomID: roomID, States: models.ActiveStates})
}

// handleRoomDistracted lists the calling module's distracted shifts so the
// attendant can call them back.
func (h *Handler) handleRoomDistracted(w http.ResponseWriter, r *http.Request) {
	roomID := pathID(r)
	if !h.requireRoom(w, r, roomID) {
		return
	}
	session, _ := sessionFromContext(r.Context())
	h.writeShifts(w, r, store.ShiftFilter{
		RoomID:   roomID,
		ModuleID: session.ModuleID,
		States:   []string{models.StateDistracted},
	})
}

func (h *Handler) requireRoom(w http.ResponseWriter, r *http.Request, roomID string) bool {
	_, ok, err := h.store.GetRoom(r.Context(), roomID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return false
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrRoomNotFound)
		return false
	}
	return true
}

func (h *Handler) writeShifts(w http.ResponseWriter, r *http.Request, filter store.ShiftFilter) {
	shifts, err := h.store.ListShifts(r.Context(), filter)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Collection(shifts, resources.Shift))
}

func (h *Handler) handleGetShift(w http.ResponseWriter, r *http.Request) {
	shift, ok, err := h.store.GetShift(r.Context(), pathID(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrShiftNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.Shift(shift))
}

func (h *Handler) handleUpdateShift(w http.ResponseWriter, r *http.Request) {
	req := shiftUpdateRequest{
		modules:  found(h.store.GetModule),
		services: found(h.store.GetService),
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	shift, err := h.store.UpdateShift(r.Context(), pathID(r), store.ShiftUpdate{
		ModuleID:   req.ModuleID,
		ServiceIDs: req.ServiceIDs,
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Shift(shift))
}

// handleDeleteShift hands the removal to the worker, which releases the
// module and deletes the shift in one transaction.
func (h *Handler) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	shiftID := pathID(r)
	_, ok, err := h.store.GetShift(r.Context(), shiftID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrShiftNotFound)
		return
	}
	if _, err := jobs.EnqueueDeleteShift(r.Context(), h.store, shiftID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleShiftAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if err := validation.Validate(action, validation.In(shiftActions...)); err != nil {
		writeError(w, r, http.StatusNotFound, "not_found", "unknown shift action")
		return
	}
	session, _ := sessionFromContext(r.Context())
	input := store.ShiftActionInput{
		ShiftID:  pathID(r),
		Action:   action,
		ModuleID: session.ModuleID,
	}
	if action == store.ActionTransfer {
		req := transferRequest{
			rooms:   found(h.store.GetRoom),
			modules: found(h.store.GetModule),
		}
		if !h.decodeOptional(w, r, &req) {
			return
		}
		input.ToRoomID = req.RoomID
		input.ToModuleID = req.ModuleID
	}
	shift, err := h.store.ApplyShiftAction(r.Context(), input)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Shift(shift))
}

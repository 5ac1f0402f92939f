package httpapi

import (
	"context"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"qms/shift-service/internal/resources"
	"qms/shift-service/internal/store"
)

type moduleRequest struct {
	Name         string   `json:"name"`
	IPAddress    string   `json:"ip_address"`
	RoomID       string   `json:"room_id"`
	ModuleTypeID string   `json:"module_type_id"`
	Enabled      *bool    `json:"enabled"`
	AttendantIDs []string `json:"attendant_ids"`

	rooms, moduleTypes, attendants lookupFunc
}

func (req *moduleRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.IPAddress, validation.Required, is.IPv4),
		validation.Field(&req.RoomID, validation.Required, is.UUID, exists(req.rooms, "room does not exist")),
		validation.Field(&req.ModuleTypeID, validation.Required, is.UUID, exists(req.moduleTypes, "module type does not exist")),
		validation.Field(&req.AttendantIDs, validation.Each(is.UUID), eachExists(req.attendants, "attendant does not exist")),
	)
}

type moduleUpdateRequest struct {
	Name         *string   `json:"name"`
	IPAddress    *string   `json:"ip_address"`
	RoomID       *string   `json:"room_id"`
	ModuleTypeID *string   `json:"module_type_id"`
	Enabled      *bool     `json:"enabled"`
	AttendantIDs *[]string `json:"attendant_ids"`

	rooms, moduleTypes, attendants lookupFunc
}

func (req *moduleUpdateRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&req.IPAddress, validation.NilOrNotEmpty, is.IPv4),
		validation.Field(&req.RoomID, validation.NilOrNotEmpty, is.UUID, exists(req.rooms, "room does not exist")),
		validation.Field(&req.ModuleTypeID, validation.NilOrNotEmpty, is.UUID, exists(req.moduleTypes, "module type does not exist")),
		validation.Field(&req.AttendantIDs, eachExists(req.attendants, "attendant does not exist")),
	)
}

func (h *Handler) handleListModules(w http.ResponseWriter, r *http.Request) {
	roomID := strings.TrimSpace(r.URL.Query().Get("room_id"))
	if roomID != "" && !h.checkValid(w, r, validation.Errors{"room_id": validation.Validate(roomID, is.UUID)}.Filter()) {
		return
	}
	modules, err := h.store.ListModules(r.Context(), roomID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Collection(modules, resources.Module))
}

func (h *Handler) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	req := moduleRequest{
		rooms:       found(h.store.GetRoom),
		moduleTypes: found(h.store.GetModuleType),
		attendants:  found(h.store.GetAttendant),
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	input := store.ModuleInput{
		Name:         req.Name,
		IPAddress:    req.IPAddress,
		RoomID:       req.RoomID,
		ModuleTypeID: req.ModuleTypeID,
		Enabled:      true,
		AttendantIDs: req.AttendantIDs,
	}
	if req.Enabled != nil {
		input.Enabled = *req.Enabled
	}
	module, err := h.store.CreateModule(r.Context(), input)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, resources.Module(module))
}

func (h *Handler) handleGetModule(w http.ResponseWriter, r *http.Request) {
	module, ok, err := h.store.GetModule(r.Context(), pathID(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrModuleNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.Module(module))
}

// handleMyModule resolves the calling workstation by its X-Module-Ip header.
func (h *Handler) handleMyModule(w http.ResponseWriter, r *http.Request) {
	ip := moduleIPFromRequest(r)
	if ip == "" {
		writeValidationError(w, r, map[string]string{moduleIPHeader: "cannot be blank"})
		return
	}
	module, ok, err := h.store.GetModuleByIP(r.Context(), ip)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrModuleNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.Module(module))
}

func (h *Handler) handleUpdateModule(w http.ResponseWriter, r *http.Request) {
	req := moduleUpdateRequest{
		rooms:       found(h.store.GetRoom),
		moduleTypes: found(h.store.GetModuleType),
		attendants:  found(h.store.GetAttendant),
	}
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	module, err := h.store.UpdateModule(r.Context(), pathID(r), store.ModuleUpdate{
		Name:         req.Name,
		IPAddress:    req.IPAddress,
		RoomID:       req.RoomID,
		ModuleTypeID: req.ModuleTypeID,
		Enabled:      req.Enabled,
		AttendantIDs: req.AttendantIDs,
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Module(module))
}

func (h *Handler) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteModule(r.Context(), pathID(r)); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

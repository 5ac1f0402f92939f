package httpapi

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"qms/shift-service/internal/cache"
	"qms/shift-service/internal/models"
	"qms/shift-service/internal/resources"
	"qms/shift-service/internal/store"
)

type roomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     *bool  `json:"enabled"`
}

func (req *roomRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
	)
}

type roomUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Enabled     *bool   `json:"enabled"`
}

func (req *roomUpdateRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	views, err := cache.Remember(r.Context(), h.cache, cacheKeyRooms, h.cacheTTL,
		func(ctx context.Context) ([]resources.RoomResource, error) {
			rooms, err := h.store.ListRooms(ctx)
			if err != nil {
				return nil, err
			}
			return resources.Collection(rooms, resources.Room), nil
		})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, views)
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	room := models.Room{Name: req.Name, Description: req.Description, Enabled: true}
	if req.Enabled != nil {
		room.Enabled = *req.Enabled
	}
	room, err := h.store.CreateRoom(r.Context(), room)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyRooms)
	writeData(w, http.StatusCreated, resources.Room(room))
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, ok, err := h.store.GetRoom(r.Context(), pathID(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrRoomNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.Room(room))
}

func (h *Handler) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	room, err := h.store.UpdateRoom(r.Context(), pathID(r), store.RoomUpdate{
		Name:        req.Name,
		Description: req.Description,
		Enabled:     req.Enabled,
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyRooms)
	writeData(w, http.StatusOK, resources.Room(room))
}

func (h *Handler) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRoom(r.Context(), pathID(r)); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyRooms)
	w.WriteHeader(http.StatusNoContent)
}

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

type moduleTypeRequest struct {
	Name string `json:"name"`
}

func (req *moduleTypeRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 50)),
	)
}

func (h *Handler) handleListModuleTypes(w http.ResponseWriter, r *http.Request) {
	views, err := cache.Remember(r.Context(), h.cache, cacheKeyModuleTypes, h.cacheTTL,
		func(ctx context.Context) ([]resources.ModuleTypeResource, error) {
			types, err := h.store.ListModuleTypes(ctx)
			if err != nil {
				return nil, err
			}
			return resources.Collection(types, resources.ModuleType), nil
		})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, views)
}

func (h *Handler) handleCreateModuleType(w http.ResponseWriter, r *http.Request) {
	var req moduleTypeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	moduleType, err := h.store.CreateModuleType(r.Context(), models.ModuleType{Name: req.Name})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyModuleTypes)
	writeData(w, http.StatusCreated, resources.ModuleType(moduleType))
}

func (h *Handler) handleGetModuleType(w http.ResponseWriter, r *http.Request) {
	moduleType, ok, err := h.store.GetModuleType(r.Context(), pathID(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrModuleTypeNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.ModuleType(moduleType))
}

// The name is the only field, so an update carries the full value.
func (h *Handler) handleUpdateModuleType(w http.ResponseWriter, r *http.Request) {
	var req moduleTypeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	moduleType, err := h.store.UpdateModuleType(r.Context(), pathID(r), req.Name)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyModuleTypes)
	writeData(w, http.StatusOK, resources.ModuleType(moduleType))
}

func (h *Handler) handleDeleteModuleType(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteModuleType(r.Context(), pathID(r)); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyModuleTypes)
	w.WriteHeader(http.StatusNoContent)
}

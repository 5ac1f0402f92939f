package httpapi

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/resources"
	"qms/shift-service/internal/store"
)

type serviceRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (req *serviceRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 150)),
		validation.Field(&req.Code, validation.Required, validation.Length(1, 10)),
	)
}

type serviceUpdateRequest struct {
	Name *string `json:"name"`
	Code *string `json:"code"`
}

func (req *serviceUpdateRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 150)),
		validation.Field(&req.Code, validation.NilOrNotEmpty, validation.Length(1, 10)),
	)
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Collection(services, resources.Service))
}

func (h *Handler) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	service, err := h.store.CreateService(r.Context(), models.Service{Name: req.Name, Code: req.Code})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, resources.Service(service))
}

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	service, ok, err := h.store.GetService(r.Context(), pathID(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrServiceNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.Service(service))
}

func (h *Handler) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var req serviceUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	service, err := h.store.UpdateService(r.Context(), pathID(r), store.ServiceUpdate{Name: req.Name, Code: req.Code})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Service(service))
}

func (h *Handler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteService(r.Context(), pathID(r)); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

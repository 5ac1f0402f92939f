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

type clientRequest struct {
	Name       string `json:"name"`
	DNI        string `json:"dni"`
	ClientType string `json:"client_type"`
}

func (req *clientRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 150)),
		validation.Field(&req.DNI, validation.Required, validation.Length(1, 20)),
		validation.Field(&req.ClientType, validation.In(models.ClientTypeNormal, models.ClientTypePreferential)),
	)
}

func (req *clientRequest) model() models.Client {
	clientType := req.ClientType
	if clientType == "" {
		clientType = models.ClientTypeNormal
	}
	return models.Client{Name: req.Name, DNI: req.DNI, ClientType: clientType}
}

type clientUpdateRequest struct {
	Name       *string `json:"name"`
	DNI        *string `json:"dni"`
	ClientType *string `json:"client_type"`
}

func (req *clientUpdateRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 150)),
		validation.Field(&req.DNI, validation.NilOrNotEmpty, validation.Length(1, 20)),
		validation.Field(&req.ClientType, validation.NilOrNotEmpty, validation.In(models.ClientTypeNormal, models.ClientTypePreferential)),
	)
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	views, err := cache.Remember(r.Context(), h.cache, cacheKeyClients, h.cacheTTL,
		func(ctx context.Context) ([]resources.ClientResource, error) {
			clients, err := h.store.ListClients(ctx)
			if err != nil {
				return nil, err
			}
			return resources.Collection(clients, resources.Client), nil
		})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, views)
}

func (h *Handler) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	client, err := h.store.CreateClient(r.Context(), req.model())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyClients)
	writeData(w, http.StatusCreated, resources.Client(client))
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	client, ok, err := h.store.GetClient(r.Context(), pathID(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrClientNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.Client(client))
}

func (h *Handler) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var req clientUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	client, err := h.store.UpdateClient(r.Context(), pathID(r), store.ClientUpdate{
		Name:       req.Name,
		DNI:        req.DNI,
		ClientType: req.ClientType,
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyClients)
	writeData(w, http.StatusOK, resources.Client(client))
}

func (h *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteClient(r.Context(), pathID(r)); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	cache.Forget(r.Context(), h.cache, cacheKeyClients)
	w.WriteHeader(http.StatusNoContent)
}

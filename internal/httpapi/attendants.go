package httpapi

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"qms/shift-service/internal/auth"
	"qms/shift-service/internal/resources"
	"qms/shift-service/internal/store"
)

type attendantRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	DNI      string `json:"dni"`
	Password string `json:"password"`
	Enabled  *bool  `json:"enabled"`
}

func (req *attendantRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 150)),
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.DNI, validation.Required, validation.Length(1, 20)),
		// bcrypt ignores anything past 72 bytes.
		validation.Field(&req.Password, validation.Required, validation.Length(8, 72)),
	)
}

type attendantUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	DNI      *string `json:"dni"`
	Password *string `json:"password"`
	Enabled  *bool   `json:"enabled"`
}

func (req *attendantUpdateRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 150)),
		validation.Field(&req.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&req.DNI, validation.NilOrNotEmpty, validation.Length(1, 20)),
		validation.Field(&req.Password, validation.NilOrNotEmpty, validation.Length(8, 72)),
	)
}

func (h *Handler) handleListAttendants(w http.ResponseWriter, r *http.Request) {
	attendants, err := h.store.ListAttendants(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Collection(attendants, resources.Attendant))
}

func (h *Handler) handleCreateAttendant(w http.ResponseWriter, r *http.Request) {
	var req attendantRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	input := store.AttendantInput{
		Name:         req.Name,
		Email:        req.Email,
		DNI:          req.DNI,
		PasswordHash: hash,
		Enabled:      true,
	}
	if req.Enabled != nil {
		input.Enabled = *req.Enabled
	}
	attendant, err := h.store.CreateAttendant(r.Context(), input)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, resources.Attendant(attendant))
}

func (h *Handler) handleGetAttendant(w http.ResponseWriter, r *http.Request) {
	attendant, ok, err := h.store.GetAttendant(r.Context(), pathID(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if !ok {
		h.writeStoreError(w, r, store.ErrAttendantNotFound)
		return
	}
	writeData(w, http.StatusOK, resources.Attendant(attendant))
}

func (h *Handler) handleUpdateAttendant(w http.ResponseWriter, r *http.Request) {
	var req attendantUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	update := store.AttendantUpdate{
		Name:    req.Name,
		Email:   req.Email,
		DNI:     req.DNI,
		Enabled: req.Enabled,
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.writeStoreError(w, r, err)
			return
		}
		update.PasswordHash = &hash
	}
	attendant, err := h.store.UpdateAttendant(r.Context(), pathID(r), update)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, resources.Attendant(attendant))
}

func (h *Handler) handleDeleteAttendant(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAttendant(r.Context(), pathID(r)); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

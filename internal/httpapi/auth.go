package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"qms/shift-service/internal/models"
	"qms/shift-service/internal/resources"
	"qms/shift-service/internal/store"
)

type authContextKey struct{}

// requireSession admits requests carrying a bearer token for a live session
// whose module matches the X-Module-Ip header.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" || h.tokens == nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := h.tokens.Parse(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		session, err := h.store.GetSession(r.Context(), claims.SessionID)
		if err != nil {
			h.writeStoreError(w, r, err)
			return
		}
		if session.AttendantID != claims.Subject {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		if moduleIPFromRequest(r) != session.ModuleIP {
			writeError(w, r, http.StatusForbidden, "access_denied", "module does not match session")
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) (models.Session, bool) {
	session, ok := ctx.Value(authContextKey{}).(models.Session)
	return session, ok
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *loginRequest) ValidateWithContext(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required),
	)
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	moduleIP := moduleIPFromRequest(r)
	if moduleIP == "" {
		writeValidationError(w, r, map[string]string{moduleIPHeader: "cannot be blank"})
		return
	}
	if h.tokens == nil {
		h.writeStoreError(w, r, errors.New("token manager not configured"))
		return
	}
	result, err := h.store.Login(r.Context(), store.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		ModuleIP:  moduleIP,
		ExpiresAt: h.now().Add(h.tokenTTL),
	})
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.writeToken(w, r, result.Session)
}

func (h *Handler) writeToken(w http.ResponseWriter, r *http.Request, session models.Session) {
	token, err := h.tokens.Generate(session.AttendantID, session.SessionID, session.ModuleID, session.ExpiresAt)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: session.ExpiresAt})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	if err := h.store.RevokeSession(r.Context(), session.SessionID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	attendant, ok, err := h.store.GetAttendant(r.Context(), session.AttendantID)
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

// handleRefresh rotates the session: the presented token stops working.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	refreshed, err := h.store.RefreshSession(r.Context(), session.SessionID, h.now().Add(h.tokenTTL))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.writeToken(w, r, refreshed)
}

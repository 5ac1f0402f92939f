package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"qms/shift-service/internal/auth"
	"qms/shift-service/internal/cache"
	"qms/shift-service/internal/metrics"
	"qms/shift-service/internal/store"
)

const moduleIPHeader = "X-Module-Ip"

// byID only matches UUIDs so malformed ids 404 before reaching the store.
const byID = "/{id:[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}}"

// Cache keys of the read-through list endpoints.
const (
	cacheKeyClients     = "clients"
	cacheKeyRooms       = "rooms"
	cacheKeyModuleTypes = "module-types"
)

type Handler struct {
	store    store.Store
	cache    cache.Cache
	cacheTTL time.Duration
	tokens   *auth.TokenManager
	tokenTTL time.Duration
	logger   *slog.Logger
	realtime http.Handler
	now      func() time.Time
}

type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Tokens   *auth.TokenManager
	TokenTTL time.Duration
	Logger   *slog.Logger
	// Realtime, when set, is mounted under /realtime.
	Realtime http.Handler
}

func NewHandler(st store.Store, opts Options) *Handler {
	h := &Handler{
		store:    st,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		tokens:   opts.Tokens,
		tokenTTL: opts.TokenTTL,
		logger:   opts.Logger,
		realtime: opts.Realtime,
		now:      time.Now,
	}
	if h.cache == nil {
		h.cache = cache.Nop{}
	}
	if h.cacheTTL <= 0 {
		h.cacheTTL = time.Minute
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = 8 * time.Hour
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(h.logger))
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	if h.realtime != nil {
		r.Handle("/realtime", h.realtime)
		r.Handle("/realtime/*", h.realtime)
	}

	// Kiosk and display endpoints.
	r.Post("/attendants/login", h.handleLogin)
	r.Get("/modules/me", h.handleMyModule)
	r.Get("/rooms", h.handleListRooms)
	r.Get("/services", h.handleListServices)
	r.Post("/shifts", h.handleCreateShift)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Post("/attendants/logout", h.handleLogout)
		r.Get("/attendants/profile", h.handleProfile)
		r.Post("/attendants/refresh", h.handleRefresh)

		r.Get("/clients", h.handleListClients)
		r.Post("/clients", h.handleCreateClient)
		r.Get("/clients"+byID, h.handleGetClient)
		r.Put("/clients"+byID, h.handleUpdateClient)
		r.Delete("/clients"+byID, h.handleDeleteClient)

		r.Post("/rooms", h.handleCreateRoom)
		r.Get("/rooms"+byID, h.handleGetRoom)
		r.Put("/rooms"+byID, h.handleUpdateRoom)
		r.Delete("/rooms"+byID, h.handleDeleteRoom)
		r.Get("/rooms"+byID+"/shifts", h.handleRoomQueue)
		r.Get("/rooms"+byID+"/shifts/distracted", h.handleRoomDistracted)

		r.Get("/module-types", h.handleListModuleTypes)
		r.Post("/module-types", h.handleCreateModuleType)
		r.Get("/module-types"+byID, h.handleGetModuleType)
		r.Put("/module-types"+byID, h.handleUpdateModuleType)
		r.Delete("/module-types"+byID, h.handleDeleteModuleType)

		r.Get("/modules", h.handleListModules)
		r.Post("/modules", h.handleCreateModule)
		r.Get("/modules"+byID, h.handleGetModule)
		r.Put("/modules"+byID, h.handleUpdateModule)
		r.Delete("/modules"+byID, h.handleDeleteModule)

		r.Get("/attendants", h.handleListAttendants)
		r.Post("/attendants", h.handleCreateAttendant)
		r.Get("/attendants"+byID, h.handleGetAttendant)
		r.Put("/attendants"+byID, h.handleUpdateAttendant)
		r.Delete("/attendants"+byID, h.handleDeleteAttendant)

		r.Post("/services", h.handleCreateService)
		r.Get("/services"+byID, h.handleGetService)
		r.Put("/services"+byID, h.handleUpdateService)
		r.Delete("/services"+byID, h.handleDeleteService)

		r.Get("/shifts", h.handleListShifts)
		r.Get("/shifts"+byID, h.handleGetShift)
		r.Put("/shifts"+byID, h.handleUpdateShift)
		r.Delete("/shifts"+byID, h.handleDeleteShift)
		r.Post("/shifts"+byID+"/{action}", h.handleShiftAction)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type dataResponse struct {
	Data any `json:"data"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Data: data})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON rejects unknown fields so typos in partial updates are not
// silently ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

// decodeOptional treats an empty body as an empty object.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, req validation.ValidatableWithContext) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return h.checkValid(w, r, req.ValidateWithContext(r.Context()))
}

func moduleIPFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(moduleIPHeader))
}

func pathID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

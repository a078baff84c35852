package activitieshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nomina/internal/domain/activities"
	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/platform/pagination"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, req pagination.Request) (pagination.Page[activities.Activity], error)
	Get(ctx context.Context, id int64) (activities.Activity, error)
	Create(ctx context.Context, in activities.Input) (activities.Activity, error)
	Update(ctx context.Context, id int64, in activities.Input) (activities.Activity, error)
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Perms   middleware.PermissionStore
	Log     *zap.Logger
}

func NewHandler(svc Service, rec audit.Recorder, perms middleware.PermissionStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Audit: rec, Perms: perms, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermActivitiesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermActivitiesWrite, h.Perms)

	r.Route("/actividades", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{id}", h.handleGet)
		r.With(write).Put("/{id}", h.handleUpdate)
	})
}

type activityRequest struct {
	Clave  string `json:"clave"`
	Nombre string `json:"nombre"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (activities.Input, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload activityRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return activities.Input{}, false
	}
	v := shared.NewValidator()
	v.Required("nombre", payload.Nombre, "es requerido")
	if v.Reject(w, reqID) {
		return activities.Input{}, false
	}
	return activities.Input{Clave: payload.Clave, Nombre: payload.Nombre}, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.List(r.Context(), shared.ParsePage(r))
	if err != nil {
		h.fail(w, r, err, "activity_list_failed", "Error al cargar actividades")
		return
	}
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	act, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "activity_get_failed", "Error al cargar la actividad")
		return
	}
	api.Success(w, act, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	act, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "activity_create_failed", "Error al crear la actividad")
		return
	}
	if h.Audit != nil {
		h.Audit.Log(r.Context(), shared.AuditEntry(r, "actividad.create", "actividad", act.ID, nil, act))
	}
	api.Created(w, act, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	act, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, "activity_update_failed", "Error al actualizar la actividad")
		return
	}
	if h.Audit != nil {
		h.Audit.Log(r.Context(), shared.AuditEntry(r, "actividad.update", "actividad", id, nil, act))
	}
	api.Success(w, act, reqID)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, activities.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Actividad no encontrada", reqID)
	case errors.Is(err, activities.ErrDuplicateClave):
		api.Fail(w, http.StatusConflict, "duplicate_clave", "Ya existe una actividad con esa clave", reqID)
	case errors.Is(err, activities.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_input", shared.Reason(err, activities.ErrInvalidInput), reqID)
	default:
		shared.ServerError(w, r, h.Log, code, message, err)
	}
}

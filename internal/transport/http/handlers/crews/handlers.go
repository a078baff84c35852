package crewshandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/crews"
	"nomina/internal/platform/pagination"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, req pagination.Request) (pagination.Page[crews.Crew], error)
	ListActive(ctx context.Context) ([]crews.Crew, error)
	Get(ctx context.Context, id int64) (crews.Crew, error)
	Create(ctx context.Context, in crews.Input) (crews.Crew, error)
	Update(ctx context.Context, id int64, in crews.Input) (crews.Crew, error)
	Toggle(ctx context.Context, id int64) (crews.Crew, error)
	Roster(ctx context.Context, crewID int64) (crews.Roster, error)
	Assign(ctx context.Context, crewID, employeeID int64) error
	Remove(ctx context.Context, crewID, employeeID int64) error
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
	Perms   middleware.PermissionStore
	Log     *zap.Logger
	Now     func() time.Time
}

func NewHandler(svc Service, rec audit.Recorder, perms middleware.PermissionStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Audit: rec, Perms: perms, Log: log, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCrewsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCrewsWrite, h.Perms)

	r.Route("/cuadrillas", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/activas", h.handleListActive)
		r.With(write).Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(write).Put("/", h.handleUpdate)
			r.With(write).Post("/toggle", h.handleToggle)
			r.With(read).Get("/organizador", h.handleRoster)
			r.With(read).Get("/lista.pdf", h.handleRosterPDF)
			r.With(write).Put("/empleados/{empleadoID}", h.handleAssign)
			r.With(write).Delete("/empleados/{empleadoID}", h.handleRemove)
		})
	})
}

type crewRequest struct {
	Clave     string `json:"clave"`
	Nombre    string `json:"nombre"`
	Grupo     string `json:"grupo"`
	Actividad string `json:"actividad"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (crews.Input, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload crewRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return crews.Input{}, false
	}
	v := shared.NewValidator()
	v.Required("nombre", payload.Nombre, "es requerido")
	if v.Reject(w, reqID) {
		return crews.Input{}, false
	}
	return crews.Input{
		Clave:     payload.Clave,
		Nombre:    payload.Nombre,
		Grupo:     payload.Grupo,
		Actividad: payload.Actividad,
	}, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.List(r.Context(), shared.ParsePage(r))
	if err != nil {
		h.fail(w, r, err, "crew_list_failed", "Error al cargar cuadrillas")
		return
	}
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, err, "crew_list_failed", "Error al cargar cuadrillas")
		return
	}
	if items == nil {
		items = []crews.Crew{}
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	crew, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "crew_get_failed", "Error al cargar la cuadrilla")
		return
	}
	api.Success(w, crew, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	crew, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "crew_create_failed", "Error al crear la cuadrilla")
		return
	}
	h.record(r, "cuadrilla.create", crew.ID, nil, crew)
	api.Created(w, crew, middleware.GetRequestID(r.Context()))
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
	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "crew_update_failed", "Error al actualizar la cuadrilla")
		return
	}
	crew, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, "crew_update_failed", "Error al actualizar la cuadrilla")
		return
	}
	h.record(r, "cuadrilla.update", id, before, crew)
	api.Success(w, crew, reqID)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	crew, err := h.Service.Toggle(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "crew_toggle_failed", "Error al cambiar el estado de la cuadrilla")
		return
	}
	h.record(r, "cuadrilla.toggle", id, nil, map[string]bool{"activo": crew.Activo})
	api.Success(w, crew, reqID)
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	roster, err := h.Service.Roster(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "crew_roster_failed", "Error al cargar el organizador de la cuadrilla")
		return
	}
	api.Success(w, roster, reqID)
}

func (h *Handler) handleRosterPDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	roster, err := h.Service.Roster(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "crew_pdf_failed", "Error al generar la lista de la cuadrilla")
		return
	}
	doc, err := crews.RosterPDF(roster, h.Now())
	if err != nil {
		h.fail(w, r, err, "crew_pdf_failed", "Error al generar la lista de la cuadrilla")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=cuadrilla-%s.pdf", roster.Crew.Clave))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) membership(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	reqID := middleware.GetRequestID(r.Context())
	crewID, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return 0, 0, false
	}
	employeeID, ok := shared.RequireID(w, r, "empleadoID", reqID)
	if !ok {
		return 0, 0, false
	}
	return crewID, employeeID, true
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	crewID, employeeID, ok := h.membership(w, r)
	if !ok {
		return
	}
	if err := h.Service.Assign(r.Context(), crewID, employeeID); err != nil {
		h.fail(w, r, err, "crew_assign_failed", "Error al asignar el empleado a la cuadrilla")
		return
	}
	h.record(r, "cuadrilla.assign", crewID, nil, map[string]int64{"empleadoId": employeeID})
	api.Success(w, map[string]any{"cuadrillaId": crewID, "empleadoId": employeeID, "asignado": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	crewID, employeeID, ok := h.membership(w, r)
	if !ok {
		return
	}
	if err := h.Service.Remove(r.Context(), crewID, employeeID); err != nil {
		h.fail(w, r, err, "crew_remove_failed", "Error al quitar el empleado de la cuadrilla")
		return
	}
	h.record(r, "cuadrilla.remove", crewID, map[string]int64{"empleadoId": employeeID}, nil)
	api.Success(w, map[string]any{"cuadrillaId": crewID, "empleadoId": employeeID, "asignado": false}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, action string, id int64, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, action, "cuadrilla", id, before, after))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, crews.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Cuadrilla no encontrada", reqID)
	case errors.Is(err, crews.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "Empleado no encontrado", reqID)
	case errors.Is(err, crews.ErrDuplicateClave):
		api.Fail(w, http.StatusConflict, "duplicate_clave", "Ya existe una cuadrilla con esa clave", reqID)
	case errors.Is(err, crews.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_input", shared.Reason(err, crews.ErrInvalidInput), reqID)
	default:
		shared.ServerError(w, r, h.Log, code, message, err)
	}
}

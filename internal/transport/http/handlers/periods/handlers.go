package periodshandler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/periods"
	"nomina/internal/platform/pagination"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

var tipoNames = []string{"semanal", "quincenal", "catorcenal", "custom", "especial"}

type Service interface {
	List(ctx context.Context, req pagination.Request, filter periods.ListFilter) (pagination.Page[periods.Period], error)
	Get(ctx context.Context, id int64) (periods.Period, error)
	Create(ctx context.Context, in periods.Input) (periods.Period, error)
	Active(ctx context.Context) (periods.Period, error)
	HasActive(ctx context.Context) (periods.ActiveState, error)
	Activate(ctx context.Context, id int64) (periods.Period, error)
	Deactivate(ctx context.Context, id int64) (periods.Period, error)
	Toggle(ctx context.Context, id int64) (periods.Period, error)
	Preview(start *time.Time, rawTipo string) (periods.Preview, error)
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
	read := middleware.RequirePermission(auth.PermPeriodsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermPeriodsWrite, h.Perms)

	r.Route("/periodos", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/preview", h.handlePreview)
		r.With(read).Get("/activo", h.handleActive)
		r.With(read).Get("/activo/estado", h.handleActiveState)
		r.Route("/{id}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(write).Post("/activar", h.transition("periodo.activate", h.Service.Activate))
			r.With(write).Post("/desactivar", h.transition("periodo.deactivate", h.Service.Deactivate))
			r.With(write).Post("/toggle", h.transition("periodo.toggle", h.Service.Toggle))
		})
	})
}

type periodRequest struct {
	FechaInicio *string `json:"fechaInicio"`
	FechaFin    *string `json:"fechaFin"`
	FechaPago   *string `json:"fechaPago"`
	TipoPeriodo string  `json:"tipoPeriodo"`
	Activar     bool    `json:"activar"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var filter periods.ListFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("anio")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 1900 || year > 9999 {
			v := shared.NewValidator()
			v.Add("anio", "debe ser un año válido")
			v.Reject(w, reqID)
			return
		}
		filter.Anio = &year
	}
	page, err := h.Service.List(r.Context(), shared.ParsePage(r), filter)
	if err != nil {
		h.fail(w, r, err, "period_list_failed", "Error al cargar periodos")
		return
	}
	api.Success(w, page, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "period_get_failed", "Error al cargar el periodo")
		return
	}
	api.Success(w, p, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload periodRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	v := shared.NewValidator()
	if payload.FechaInicio == nil || strings.TrimSpace(*payload.FechaInicio) == "" {
		v.Add("fechaInicio", "es requerida")
	}
	v.Required("tipoPeriodo", payload.TipoPeriodo, "es requerido")
	v.Enum("tipoPeriodo", payload.TipoPeriodo, tipoNames, "debe ser semanal, quincenal, catorcenal o especial")
	in := periods.Input{
		FechaInicio: v.OptionalDate("fechaInicio", payload.FechaInicio),
		FechaFin:    v.OptionalDate("fechaFin", payload.FechaFin),
		FechaPago:   v.OptionalDate("fechaPago", payload.FechaPago),
		Tipo:        payload.TipoPeriodo,
		Activar:     payload.Activar,
	}
	if in.FechaInicio != nil && in.FechaFin != nil {
		v.DateOrder("fechaInicio", *in.FechaInicio, "fechaFin", *in.FechaFin)
	}
	if v.Reject(w, reqID) {
		return
	}

	p, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "period_create_failed", "Error al crear el periodo")
		return
	}
	h.record(r, "periodo.create", p.ID, nil, p)
	api.Created(w, p, reqID)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	var start *time.Time
	if raw := strings.TrimSpace(q.Get("fechaInicio")); raw == "" {
		v.Add("fechaInicio", "es requerida")
	} else if d, ok := v.Date("fechaInicio", raw); ok {
		start = &d
	}
	v.Required("tipo", q.Get("tipo"), "es requerido")
	v.Enum("tipo", q.Get("tipo"), tipoNames, "debe ser semanal, quincenal, catorcenal o especial")
	if v.Reject(w, reqID) {
		return
	}
	preview, err := h.Service.Preview(start, q.Get("tipo"))
	if err != nil {
		h.fail(w, r, err, "period_preview_failed", "Error al calcular el periodo")
		return
	}
	api.Success(w, preview, reqID)
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Active(r.Context())
	if err != nil {
		h.fail(w, r, err, "period_active_failed", "Error al cargar el periodo activo")
		return
	}
	api.Success(w, p, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActiveState(w http.ResponseWriter, r *http.Request) {
	state, err := h.Service.HasActive(r.Context())
	if err != nil {
		h.fail(w, r, err, "period_active_failed", "Error al verificar el periodo activo")
		return
	}
	api.Success(w, state, middleware.GetRequestID(r.Context()))
}

func (h *Handler) transition(action string, op func(context.Context, int64) (periods.Period, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		id, ok := shared.RequireID(w, r, "id", reqID)
		if !ok {
			return
		}
		p, err := op(r.Context(), id)
		if err != nil {
			h.fail(w, r, err, "period_update_failed", "Error al actualizar el periodo")
			return
		}
		h.record(r, action, id, nil, map[string]bool{"activo": p.Activo})
		api.Success(w, p, reqID)
	}
}

func (h *Handler) record(r *http.Request, action string, id int64, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, action, "periodo", id, before, after))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, periods.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Periodo no encontrado", reqID)
	case errors.Is(err, periods.ErrNoActive):
		api.Fail(w, http.StatusNotFound, "no_active_period", "No hay un periodo activo", reqID)
	case errors.Is(err, periods.ErrDuplicateClave):
		api.Fail(w, http.StatusConflict, "duplicate_clave", "Ya existe un periodo con esa clave", reqID)
	case errors.Is(err, periods.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_input", shared.Reason(err, periods.ErrInvalidInput), reqID)
	default:
		shared.ServerError(w, r, h.Log, code, message, err)
	}
}

package employeeshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/domain/employees"
	"nomina/internal/platform/pagination"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, req pagination.Request) (pagination.Page[employees.Employee], error)
	Get(ctx context.Context, id int64) (employees.Employee, error)
	Create(ctx context.Context, in employees.Input) (employees.Employee, error)
	Update(ctx context.Context, id int64, in employees.Input) (employees.Employee, error)
	Toggle(ctx context.Context, id int64) (employees.Employee, error)
	Crews(ctx context.Context, id int64) ([]employees.CrewMembership, error)
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
	read := middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)

	r.Route("/empleados", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(write).Put("/", h.handleUpdate)
			r.With(write).Post("/toggle", h.handleToggle)
			r.With(read).Get("/cuadrillas", h.handleCrews)
		})
	})
}

type employeeRequest struct {
	Clave              string           `json:"clave"`
	Nombre             string           `json:"nombre"`
	ApellidoPaterno    string           `json:"apellidoPaterno"`
	ApellidoMaterno    string           `json:"apellidoMaterno"`
	EstadoOrigen       string           `json:"estadoOrigen"`
	CURP               string           `json:"curp"`
	RFC                string           `json:"rfc"`
	NSS                string           `json:"nss"`
	FechaIngreso       *string          `json:"fechaIngreso"`
	RegistroPatronal   string           `json:"registroPatronal"`
	SueldoDiario       *decimal.Decimal `json:"sueldoDiario"`
	DescuentoInfonavit *decimal.Decimal `json:"descuentoInfonavit"`
}

func (p employeeRequest) input(v *shared.Validator) employees.Input {
	v.Required("nombre", p.Nombre, "es requerido")
	return employees.Input{
		Clave:              p.Clave,
		Nombre:             p.Nombre,
		ApellidoPaterno:    p.ApellidoPaterno,
		ApellidoMaterno:    p.ApellidoMaterno,
		EstadoOrigen:       p.EstadoOrigen,
		CURP:               p.CURP,
		RFC:                p.RFC,
		NSS:                p.NSS,
		FechaIngreso:       v.OptionalDate("fechaIngreso", p.FechaIngreso),
		RegistroPatronal:   p.RegistroPatronal,
		SueldoDiario:       v.Money("sueldoDiario", p.SueldoDiario),
		DescuentoInfonavit: v.Money("descuentoInfonavit", p.DescuentoInfonavit),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (employees.Input, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employeeRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return employees.Input{}, false
	}
	v := shared.NewValidator()
	in := payload.input(v)
	if v.Reject(w, reqID) {
		return employees.Input{}, false
	}
	return in, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.List(r.Context(), shared.ParsePage(r))
	if err != nil {
		h.fail(w, r, err, "employee_list_failed", "Error al cargar empleados")
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
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_get_failed", "Error al cargar el empleado")
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "employee_create_failed", "Error al crear el empleado")
		return
	}
	h.record(r, "empleado.create", emp.ID, nil, emp)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
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
		h.fail(w, r, err, "employee_update_failed", "Error al actualizar el empleado")
		return
	}
	emp, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err, "employee_update_failed", "Error al actualizar el empleado")
		return
	}
	h.record(r, "empleado.update", id, before, emp)
	api.Success(w, emp, reqID)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	emp, err := h.Service.Toggle(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_toggle_failed", "Error al cambiar el estado del empleado")
		return
	}
	h.record(r, "empleado.toggle", id, nil, map[string]bool{"activo": emp.Activo})
	api.Success(w, emp, reqID)
}

func (h *Handler) handleCrews(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := shared.RequireID(w, r, "id", reqID)
	if !ok {
		return
	}
	crews, err := h.Service.Crews(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "employee_crews_failed", "Error al cargar las cuadrillas del empleado")
		return
	}
	if crews == nil {
		crews = []employees.CrewMembership{}
	}
	api.Success(w, crews, reqID)
}

func (h *Handler) record(r *http.Request, action string, id int64, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, action, "empleado", id, before, after))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Empleado no encontrado", reqID)
	case errors.Is(err, employees.ErrDuplicateClave):
		api.Fail(w, http.StatusConflict, "duplicate_clave", "Ya existe un empleado con esa clave", reqID)
	case errors.Is(err, employees.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_input", shared.Reason(err, employees.ErrInvalidInput), reqID)
	default:
		shared.ServerError(w, r, h.Log, code, message, err)
	}
}

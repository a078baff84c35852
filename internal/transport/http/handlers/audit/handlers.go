package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/auth"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

const exportLimit = 5000

type Lister interface {
	List(ctx context.Context, filter audit.Filter, limit, offset int) ([]audit.Event, int, error)
}

type Handler struct {
	Service Lister
	Perms   middleware.PermissionStore
	Log     *zap.Logger
}

func NewHandler(service Lister, perms middleware.PermissionStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: service, Perms: perms, Log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auditoria", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAuditRead, h.Perms))
		r.Get("/", h.handleListEvents)
		r.Get("/export", h.handleExportEvents)
	})
}

func parseFilter(r *http.Request) audit.Filter {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
	}
	if actor, err := strconv.ParseInt(q.Get("actorUserId"), 10, 64); err == nil && actor > 0 {
		filter.ActorID = actor
	}
	return filter
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	events, total, err := h.Service.List(r.Context(), parseFilter(r), page.Limit, page.Offset)
	if err != nil {
		shared.ServerError(w, r, h.Log, "audit_list_failed", "Error al cargar la auditoría", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	events, _, err := h.Service.List(r.Context(), parseFilter(r), exportLimit, 0)
	if err != nil {
		shared.ServerError(w, r, h.Log, "audit_export_failed", "Error al exportar la auditoría", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=auditoria.csv")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"})
	for _, evt := range events {
		actor := ""
		if evt.ActorID != nil {
			actor = strconv.FormatInt(*evt.ActorID, 10)
		}
		_ = writer.Write([]string{
			strconv.FormatInt(evt.ID, 10), actor, evt.Action, evt.EntityType, evt.EntityID,
			evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.Log.Warn("audit export flush failed", zap.Error(err))
	}
}

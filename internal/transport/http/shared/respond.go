package shared

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"nomina/internal/domain/audit"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
)

// ServerError logs err with the request id and answers 500 with a message
// safe to show to users.
func ServerError(w http.ResponseWriter, r *http.Request, log *zap.Logger, code, message string, err error) {
	reqID := middleware.GetRequestID(r.Context())
	log.Error(message,
		zap.Error(err),
		zap.String("code", code),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("requestId", reqID),
	)
	api.Fail(w, http.StatusInternalServerError, code, message, reqID)
}

// AuditEntry describes a mutation performed by the current caller.
func AuditEntry(r *http.Request, action, entityType string, entityID int64, before, after any) audit.Entry {
	e := audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   strconv.FormatInt(entityID, 10),
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}
	if user, ok := middleware.GetUser(r.Context()); ok {
		e.ActorID = user.UserID
	}
	return e
}

// Reason strips the sentinel prefix from a wrapped validation error so only the
// user-facing part remains.
func Reason(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

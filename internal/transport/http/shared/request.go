package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nomina/internal/transport/http/api"
)

// DecodeJSON reads the request body into dst, writing a 400 (or 413 when the
// body limit is exceeded) and returning false on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "El cuerpo de la solicitud es demasiado grande", requestID)
		case errors.Is(err, io.EOF):
			api.Fail(w, http.StatusBadRequest, "invalid_json", "El cuerpo de la solicitud está vacío", requestID)
		default:
			api.Fail(w, http.StatusBadRequest, "invalid_json", "JSON inválido", requestID)
		}
		return false
	}
	return true
}

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// RequireID is PathID writing a 400 when the parameter is not a valid id.
func RequireID(w http.ResponseWriter, r *http.Request, name, requestID string) (int64, bool) {
	id, ok := PathID(r, name)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "Identificador inválido", requestID)
	}
	return id, ok
}

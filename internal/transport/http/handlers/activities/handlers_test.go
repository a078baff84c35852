package activitieshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nomina/internal/domain/activities"
	"nomina/internal/domain/auth"
	"nomina/internal/platform/pagination"
	"nomina/internal/transport/http/middleware"
)

type stubService struct {
	listErr error
	created activities.Input
	getErr  error
}

func (s *stubService) List(context.Context, pagination.Request) (pagination.Page[activities.Activity], error) {
	return pagination.Page[activities.Activity]{}, s.listErr
}

func (s *stubService) Get(_ context.Context, id int64) (activities.Activity, error) {
	return activities.Activity{ID: id, Clave: "1", Nombre: "Cosecha"}, s.getErr
}

func (s *stubService) Create(_ context.Context, in activities.Input) (activities.Activity, error) {
	s.created = in
	if in.Clave == "DUP" {
		return activities.Activity{}, activities.ErrDuplicateClave
	}
	return activities.Activity{ID: 3, Clave: "3", Nombre: in.Nombre}, nil
}

func (s *stubService) Update(_ context.Context, id int64, in activities.Input) (activities.Activity, error) {
	return activities.Activity{ID: id, Clave: in.Clave, Nombre: in.Nombre}, s.getErr
}

func request(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: 1, Role: auth.RoleCapturista}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func TestActivityRoutes(t *testing.T) {
	svc := &stubService{}
	r := chi.NewRouter()
	NewHandler(svc, nil, auth.RolePermissions, nil).RegisterRoutes(r)

	w := request(r, http.MethodPost, "/actividades", `{"nombre":"Poda"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Poda", svc.created.Nombre)

	w = request(r, http.MethodPost, "/actividades", `{"clave":"DUP","nombre":"Poda"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_clave", errorCode(t, w))

	w = request(r, http.MethodPost, "/actividades", `{"clave":"X"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPut, "/actividades/3", `{"nombre":"Riego"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.getErr = activities.ErrNotFound
	w = request(r, http.MethodGet, "/actividades/3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivityListFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	svc := &stubService{listErr: errors.New("connection refused")}
	r := chi.NewRouter()
	NewHandler(svc, nil, auth.RolePermissions, zap.New(core)).RegisterRoutes(r)

	w := request(r, http.MethodGet, "/actividades", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "activity_list_failed", errorCode(t, w))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Error al cargar actividades", logs.All()[0].Message)
}

package periodshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomina/internal/domain/auth"
	"nomina/internal/domain/periods"
	"nomina/internal/platform/pagination"
	"nomina/internal/transport/http/middleware"
)

type fakeService struct {
	items  map[int64]periods.Period
	filter periods.ListFilter
}

func (f *fakeService) List(_ context.Context, req pagination.Request, filter periods.ListFilter) (pagination.Page[periods.Period], error) {
	f.filter = filter
	return pagination.Page[periods.Period]{Items: []periods.Period{}, Meta: pagination.NewMeta(req.Normalize(), 0)}, nil
}

func (f *fakeService) Get(_ context.Context, id int64) (periods.Period, error) {
	p, ok := f.items[id]
	if !ok {
		return periods.Period{}, periods.ErrNotFound
	}
	return p, nil
}

func (f *fakeService) Create(_ context.Context, in periods.Input) (periods.Period, error) {
	d, err := periods.Plan(in)
	if err != nil {
		return periods.Period{}, err
	}
	id := int64(len(f.items) + 1)
	p := periods.Period{ID: id, Clave: periods.Code(d.Anio, 0), FechaInicio: d.FechaInicio, FechaFin: d.FechaFin,
		FechaPago: d.FechaPago, TotalDias: d.TotalDias, Anio: d.Anio, TipoPeriodo: d.Tipo, Activo: in.Activar}
	f.items[id] = p
	return p, nil
}

func (f *fakeService) Active(context.Context) (periods.Period, error) {
	for _, p := range f.items {
		if p.Activo {
			return p, nil
		}
	}
	return periods.Period{}, periods.ErrNoActive
}

func (f *fakeService) HasActive(ctx context.Context) (periods.ActiveState, error) {
	_, err := f.Active(ctx)
	if err != nil {
		return periods.ActiveState{}, nil
	}
	return periods.ActiveState{Active: true, Count: 1}, nil
}

func (f *fakeService) Activate(ctx context.Context, id int64) (periods.Period, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return periods.Period{}, err
	}
	for k, p := range f.items {
		p.Activo = k == id
		f.items[k] = p
	}
	return f.items[id], nil
}

func (f *fakeService) Deactivate(ctx context.Context, id int64) (periods.Period, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return p, err
	}
	p.Activo = false
	f.items[id] = p
	return p, nil
}

func (f *fakeService) Toggle(ctx context.Context, id int64) (periods.Period, error) {
	p, err := f.Get(ctx, id)
	if err != nil {
		return p, err
	}
	if p.Activo {
		return f.Deactivate(ctx, id)
	}
	return f.Activate(ctx, id)
}

func (f *fakeService) Preview(start *time.Time, rawTipo string) (periods.Preview, error) {
	return periods.NewService(nil).Preview(start, rawTipo)
}

type result struct {
	status int
	code   string
	data   json.RawMessage
}

func send(t *testing.T, h http.Handler, method, path, body string) result {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: 1, Role: auth.RoleAdmin}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	res := result{status: w.Code, data: env.Data}
	if env.Error != nil {
		res.code = env.Error.Code
	}
	return res
}

func setup() (*fakeService, chi.Router) {
	svc := &fakeService{items: map[int64]periods.Period{}}
	r := chi.NewRouter()
	NewHandler(svc, nil, auth.RolePermissions, nil).RegisterRoutes(r)
	return svc, r
}

func TestCreatePeriod(t *testing.T) {
	_, router := setup()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "weekly", body: `{"fechaInicio":"2026-01-05","tipoPeriodo":"semanal"}`, status: http.StatusCreated},
		{name: "custom", body: `{"fechaInicio":"2026-01-05","fechaFin":"2026-01-20","tipoPeriodo":"custom"}`, status: http.StatusCreated},
		{name: "missing start", body: `{"tipoPeriodo":"semanal"}`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "unknown type", body: `{"fechaInicio":"2026-01-05","tipoPeriodo":"mensual"}`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "reversed dates", body: `{"fechaInicio":"2026-01-05","fechaFin":"2026-01-01","tipoPeriodo":"especial"}`, status: http.StatusBadRequest, code: "validation_error"},
		{name: "custom without end", body: `{"fechaInicio":"2026-01-05","tipoPeriodo":"especial"}`, status: http.StatusBadRequest, code: "invalid_input"},
		{name: "payment outside window", body: `{"fechaInicio":"2026-01-05","tipoPeriodo":"semanal","fechaPago":"2026-01-20"}`, status: http.StatusBadRequest, code: "invalid_input"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := send(t, router, http.MethodPost, "/periodos", tc.body)
			assert.Equal(t, tc.status, res.status)
			assert.Equal(t, tc.code, res.code)
		})
	}
}

func TestActivationRoutes(t *testing.T) {
	svc, router := setup()

	res := send(t, router, http.MethodGet, "/periodos/activo", "")
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "no_active_period", res.code)

	send(t, router, http.MethodPost, "/periodos", `{"fechaInicio":"2026-01-05","tipoPeriodo":"semanal","activar":true}`)
	send(t, router, http.MethodPost, "/periodos", `{"fechaInicio":"2026-01-12","tipoPeriodo":"semanal"}`)

	res = send(t, router, http.MethodPost, "/periodos/2/activar", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.False(t, svc.items[1].Activo)
	assert.True(t, svc.items[2].Activo)

	res = send(t, router, http.MethodPost, "/periodos/2/toggle", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.False(t, svc.items[2].Activo)

	res = send(t, router, http.MethodGet, "/periodos/activo/estado", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"activo":false,"total":0}`, string(res.data))

	res = send(t, router, http.MethodPost, "/periodos/9/desactivar", "")
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestPreview(t *testing.T) {
	_, router := setup()

	res := send(t, router, http.MethodGet, "/periodos/preview?fechaInicio=2026-01-01&tipo=QUINCENAL", "")
	require.Equal(t, http.StatusOK, res.status)
	var p periods.Preview
	require.NoError(t, json.Unmarshal(res.data, &p))
	require.NotNil(t, p.FechaFin)
	assert.Equal(t, "2026-01-15", p.FechaFin.Format(time.DateOnly))
	assert.Equal(t, 15, p.TotalDias)

	res = send(t, router, http.MethodGet, "/periodos/preview?tipo=semanal", "")
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = send(t, router, http.MethodGet, "/periodos/preview?fechaInicio=2026-02-30&tipo=semanal", "")
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestListYearFilter(t *testing.T) {
	svc, router := setup()

	res := send(t, router, http.MethodGet, "/periodos?anio=2026", "")
	require.Equal(t, http.StatusOK, res.status)
	require.NotNil(t, svc.filter.Anio)
	assert.Equal(t, 2026, *svc.filter.Anio)

	res = send(t, router, http.MethodGet, "/periodos?anio=abc", "")
	assert.Equal(t, http.StatusBadRequest, res.status)
}

package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nomina/internal/domain/auth"
	"nomina/internal/platform/pagination"
	"nomina/internal/transport/http/middleware"
)

func TestParsePage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&pageSize=500&search=%20ana%20", nil)
	req := ParsePage(r)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, pagination.MaxPageSize, req.PageSize)
	assert.Equal(t, "ana", req.Search)

	req = ParsePage(httptest.NewRequest(http.MethodGet, "/?page=x&pageSize=-2", nil))
	assert.Equal(t, pagination.DefaultPage, req.Page)
	assert.Equal(t, pagination.DefaultPageSize, req.PageSize)

	req = ParsePage(httptest.NewRequest(http.MethodGet, "/?page=9223372036854775807&pageSize=10", nil))
	assert.Equal(t, pagination.MaxPage, req.Page)
	assert.Positive(t, req.Offset())
}

func TestParsePagination(t *testing.T) {
	p := ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil), 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 20}, p)
}

func TestValidatorIssuesSorted(t *testing.T) {
	v := NewValidator()
	v.Required("nombre", " ", "es requerido")
	neg := decimal.RequireFromString("-1")
	v.Money("sueldoDiario", &neg)
	blank := ""
	assert.Nil(t, v.OptionalDate("fechaIngreso", &blank))
	bad := "31/01/2025"
	v.OptionalDate("fechaIngreso", &bad)

	issues := v.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "fechaIngreso", issues[0].Field)
	assert.Equal(t, "nombre", issues[1].Field)
	assert.Equal(t, "sueldoDiario", issues[2].Field)
}

func TestMoneyRounds(t *testing.T) {
	v := NewValidator()
	amount := decimal.RequireFromString("278.805")
	assert.Equal(t, "278.81", v.Money("sueldoDiario", &amount).StringFixed(2))
	assert.True(t, v.Money("descuentoInfonavit", nil).IsZero())
	assert.False(t, v.HasIssues())
}

func TestRejectWritesValidationError(t *testing.T) {
	v := NewValidator()
	v.Add("tipo", "no válido")
	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, []ValidationIssue{{Field: "tipo", Reason: "no válido"}}, body.Error.Details.Fields)
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any
	rec := httptest.NewRecorder()
	ok := DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &dst, "r")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	long := `{"nombre":"` + strings.Repeat("a", 64) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(long))
	r.Body = http.MaxBytesReader(rec, r.Body, 8)
	assert.False(t, DecodeJSON(rec, r, &dst, "r"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	assert.True(t, DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)), &dst, "r"))
}

func TestPathID(t *testing.T) {
	withParam := func(v string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", v)
		return httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.WithValue(context.Background(), chi.RouteCtxKey, rctx))
	}
	id, ok := PathID(withParam("42"), "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	_, ok = PathID(withParam("0"), "id")
	assert.False(t, ok)
	_, ok = PathID(withParam("abc"), "id")
	assert.False(t, ok)
}

func TestAuditEntry(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "192.0.2.10:5000"
	entry := AuditEntry(r, "empleado.create", "empleado", 12, nil, map[string]int{"a": 1})
	assert.Equal(t, int64(0), entry.ActorID)
	assert.Equal(t, "12", entry.EntityID)
	assert.Equal(t, "192.0.2.10", entry.IP)

	r = r.WithContext(middleware.WithUser(r.Context(), auth.UserContext{UserID: 8, Role: auth.RoleAdmin}))
	assert.Equal(t, int64(8), AuditEntry(r, "x", "y", 1, nil, nil).ActorID)
}

func TestReason(t *testing.T) {
	sentinel := errors.New("invalid crew input")
	err := fmt.Errorf("%w: nombre es requerido", sentinel)
	assert.Equal(t, "nombre es requerido", Reason(err, sentinel))
	assert.Equal(t, "otro", Reason(errors.New("otro"), sentinel))
}

func TestServerErrorLogsAndHidesCause(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rec := httptest.NewRecorder()
	ServerError(rec, httptest.NewRequest(http.MethodGet, "/api/v1/empleados", nil), zap.New(core),
		"employee_list_failed", "Error al cargar empleados", errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/api/v1/empleados", logs.All()[0].ContextMap()["path"])
}

package authhandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nomina/internal/domain/auth"
	"nomina/internal/transport/http/api"
	"nomina/internal/transport/http/middleware"
	"nomina/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Me(ctx context.Context, id int64) (auth.User, error)
}

type Handler struct {
	Service Service
	Log     *zap.Logger
	// LoginLimit wraps the login route; nil disables it.
	LoginLimit func(http.Handler) http.Handler
}

func NewHandler(svc Service, log *zap.Logger, loginLimit func(http.Handler) http.Handler) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Log: log, LoginLimit: loginLimit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	login := http.Handler(http.HandlerFunc(h.HandleLogin))
	if h.LoginLimit != nil {
		login = h.LoginLimit(login)
	}
	r.Method(http.MethodPost, "/auth/login", login)
	r.With(middleware.RequireAuth).Get("/me", h.HandleMe)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "es requerido")
	v.Required("password", payload.Password, "es requerido")
	if v.Reject(w, reqID) {
		return
	}

	result, err := h.Service.Login(r.Context(), strings.TrimSpace(payload.Email), payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "Correo o contraseña incorrectos", reqID)
			return
		}
		shared.ServerError(w, r, h.Log, "login_failed", "Error al iniciar sesión", err)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "Se requiere autenticación", reqID)
		return
	}
	profile, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "La sesión ya no es válida", reqID)
			return
		}
		shared.ServerError(w, r, h.Log, "profile_failed", "Error al cargar el usuario", err)
		return
	}
	api.Success(w, map[string]any{
		"usuario":  profile,
		"permisos": auth.RolePermissions[profile.Rol],
	}, reqID)
}

package authhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/auth"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type identity struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func identityOf(user auth.UserContext) identity {
	return identity{ID: user.EmployeeID, Role: user.Role, Name: user.Name, Email: user.Email}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		shared.WriteError(w, r, err, "login")
		return
	}

	api.Success(w, map[string]any{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      identityOf(result.User),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Logout(r.Context(), user.SessionID); err != nil {
		shared.WriteError(w, r, err, "logout")
		return
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	api.Success(w, identityOf(user), middleware.GetRequestID(r.Context()))
}

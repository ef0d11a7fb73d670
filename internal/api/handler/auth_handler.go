package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kids_math/internal/app/service"
	"kids_math/internal/common"
)

// AuthHandler serves account creation and token issue. Usernames are matched
// case-insensitively: they are trimmed and lower-cased before reaching the service.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup) // POST /api/v1/auth/signup {"username","password"}
	r.Post("/login", h.login)   // POST /api/v1/auth/login  {"username","password"}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func normalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeJSON[credentials](w, r)
	if !ok {
		return
	}
	resp, err := h.authService.Signup(r.Context(), service.SignupRequest{
		Username: normalizeUsername(creds.Username),
		Password: creds.Password,
	})
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeJSON[credentials](w, r)
	if !ok {
		return
	}
	resp, err := h.authService.Login(r.Context(), service.LoginRequest{
		Username: normalizeUsername(creds.Username),
		Password: creds.Password,
	})
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

package handlers

import (
	"net/http"

	"github.com/ecostore/apiserver/internal/services"
	"github.com/ecostore/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// AuthHandler provides the registration, login and identity endpoints.
type AuthHandler struct {
	authService *services.AuthService
	logger      logrus.FieldLogger
}

func NewAuthHandler(authService *services.AuthService, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// AuthRouter registers auth routes on the given router. Logout is only
// mounted when tokens can actually be revoked.
func AuthRouter(r chi.Router, authService *services.AuthService, mw *AuthMiddleware, logger logrus.FieldLogger, withLogout bool) {
	handler := NewAuthHandler(authService, logger)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(mw.RequireAuth).Get("/me", handler.Me)
	if withLogout {
		r.With(mw.RequireAuth).Post("/logout", handler.Logout)
	}
}

// Register creates a user account and returns a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    res.User,
	})
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User,
	})
}

// Me returns the stored user behind the current token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	user, err := h.authService.Me(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// Logout revokes the current token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	if err := h.authService.Logout(r.Context(), identity); err != nil {
		writeServiceError(w, r, h.logger, err, "Logout failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AuthResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    types.User `json:"user"`
}

type UserResponse struct {
	User types.User `json:"user"`
}

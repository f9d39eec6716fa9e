package handlers

import (
	"net/http"

	"github.com/ecostore/apiserver/internal/auth"
	"github.com/go-chi/chi/v5"
)

// UserRouter registers the routes available to any signed-in shopper.
// Orders and cart are placeholders until those features exist.
func UserRouter(r chi.Router, mw *AuthMiddleware) {
	r.Use(mw.RequireAuth, mw.RequireUser)

	r.Get("/profile", Profile)
	r.Get("/orders", UserOrders)
	r.Get("/cart", UserCart)
}

func Profile(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, ProfileResponse{
		Message: "User profile route",
		User:    identity.TokenPayload,
	})
}

func UserOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User orders route",
		"userId":  identity.UserID,
		"orders":  []any{},
	})
}

func UserCart(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User cart route",
		"userId":  identity.UserID,
		"cart":    []any{},
	})
}

type ProfileResponse struct {
	Message string            `json:"message"`
	User    auth.TokenPayload `json:"user"`
}

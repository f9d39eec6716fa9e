package handlers

import (
	"net/http"

	"github.com/ecostore/apiserver/internal/auth"
	"github.com/ecostore/apiserver/internal/services"
	"github.com/ecostore/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves the back-office routes.
type AdminHandler struct {
	userService   *services.UserService
	exportService *services.ExportService
	products      *ProductHandler
	logger        logrus.FieldLogger
}

// AdminDeps groups the services behind the admin routes. ExportService may
// be nil, in which case the export route is not mounted.
type AdminDeps struct {
	UserService    *services.UserService
	ExportService  *services.ExportService
	ProductService *services.ProductService
	Logger         logrus.FieldLogger
}

// AdminRouter registers admin routes; every one requires the admin role.
func AdminRouter(r chi.Router, deps AdminDeps, mw *AuthMiddleware) {
	handler := &AdminHandler{
		userService:   deps.UserService,
		exportService: deps.ExportService,
		products:      NewProductHandler(deps.ProductService, deps.Logger),
		logger:        deps.Logger,
	}

	r.Use(mw.RequireAuth, mw.RequireAdmin)

	r.Get("/dashboard", handler.Dashboard)
	r.Get("/users", handler.ListUsers)
	if deps.ExportService != nil {
		r.Post("/users/export", handler.ExportUsers)
	}
	r.Route("/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
		r.Post("/", handler.products.CreateProduct)
		r.Put("/{productID}", handler.products.UpdateProduct)
		r.Delete("/{productID}", handler.products.DeleteProduct)
	})
	r.Get("/orders", handler.Orders)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, DashboardResponse{
		Message: "Admin dashboard route",
		Admin:   identity.TokenPayload,
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to get users")
		return
	}
	if users == nil {
		users = []types.User{}
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Message: "All users",
		Count:   len(users),
		Users:   users,
	})
}

func (h *AdminHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	key, err := h.exportService.ExportUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to export users")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User export written",
		"key":     key,
	})
}

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.products.listProducts(w, r, "Admin products management route")
}

func (h *AdminHandler) Orders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Admin orders management route",
		"orders":  []any{},
	})
}

type DashboardResponse struct {
	Message string            `json:"message"`
	Admin   auth.TokenPayload `json:"admin"`
}

type UserListResponse struct {
	Message string       `json:"message"`
	Count   int          `json:"count"`
	Users   []types.User `json:"users"`
}

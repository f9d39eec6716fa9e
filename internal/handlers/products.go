package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ecostore/apiserver/internal/services"
	"github.com/ecostore/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ProductHandler serves the catalog, publicly for reads and behind the admin
// gate for writes.
type ProductHandler struct {
	productService *services.ProductService
	logger         logrus.FieldLogger
}

func NewProductHandler(productService *services.ProductService, logger logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// ProductRouter registers the public catalog routes.
func ProductRouter(r chi.Router, productService *services.ProductService, logger logrus.FieldLogger) {
	handler := NewProductHandler(productService, logger)

	r.Get("/", handler.ListProducts)
	r.Get("/{productID}", handler.GetProduct)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, "Products")
}

func (h *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request, message string) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.productService.List(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to get products")
		return
	}
	if items == nil {
		items = []types.Product{}
	}

	writeJSON(w, http.StatusOK, ProductListResponse{
		Message:  message,
		Products: items,
		Page:     page,
		Limit:    limit,
		Total:    total,
	})
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req services.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.productService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to create product")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.ProductInput
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.productService.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ProductListResponse is the paginated list response payload.
type ProductListResponse struct {
	Message  string          `json:"message"`
	Products []types.Product `json:"products"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	Total    int             `json:"total"`
}

func parseProductID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil || id < 1 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

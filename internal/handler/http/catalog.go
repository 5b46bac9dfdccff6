package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodtuck/storefront/internal/service"
	"github.com/foodtuck/storefront/pkg/httputil"
	"github.com/foodtuck/storefront/pkg/pagination"
)

// CatalogHandler serves catalog browsing endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// SearchFoods handles GET /api/v1/foods?search=&page=&per_page=
func (h *CatalogHandler) SearchFoods(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SearchFoods(r.Context(), r.URL.Query().Get("search"), pagination.FromRequest(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetFood handles GET /api/v1/foods/{id}
func (h *CatalogHandler) GetFood(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetFoodDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// SimilarFoods handles GET /api/v1/foods/{id}/similar
func (h *CatalogHandler) SimilarFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.service.SimilarFoods(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: foods})
}

// Menu handles GET /api/v1/menu
func (h *CatalogHandler) Menu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.service.Menu(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: menu})
}

// Chefs handles GET /api/v1/chefs
func (h *CatalogHandler) Chefs(w http.ResponseWriter, r *http.Request) {
	chefs, err := h.service.Chefs(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: chefs})
}

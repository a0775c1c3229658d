package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Handler exposes product and category endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.With(h.mw.Require(authz.ResourceProduct, authz.ActionRead)).Get("/", h.listProducts)
		r.With(h.mw.Require(authz.ResourceProduct, authz.ActionRead)).Get("/{id}", h.getProduct)
		r.With(h.mw.Require(authz.ResourceProduct, authz.ActionCreate)).Post("/", h.createProduct)
		r.With(h.mw.Require(authz.ResourceProduct, authz.ActionUpdate)).Put("/{id}", h.updateProduct)
		r.With(h.mw.Require(authz.ResourceProduct, authz.ActionDelete)).Delete("/{id}", h.deleteProduct)
		r.With(h.mw.Require(authz.ResourceProduct, authz.ActionArchive)).Post("/{id}/archive", h.archiveProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.With(h.mw.Require(authz.ResourceCategory, authz.ActionRead)).Get("/", h.listCategories)
		r.With(h.mw.Require(authz.ResourceCategory, authz.ActionCreate)).Post("/", h.createCategory)
		r.With(h.mw.Require(authz.ResourceCategory, authz.ActionUpdate)).Put("/{id}", h.updateCategory)
		r.With(h.mw.Require(authz.ResourceCategory, authz.ActionDelete)).Delete("/{id}", h.deleteCategory)
	})
}

type productRequest struct {
	CategoryID   *int64 `json:"category_id,omitempty"`
	SKU          string `json:"sku" validate:"required"`
	Name         string `json:"name" validate:"required"`
	PriceCents   int64  `json:"price_cents" validate:"gte=0"`
	CostCents    int64  `json:"cost_cents" validate:"gte=0"`
	ReorderPoint int64  `json:"reorder_point" validate:"gte=0"`
}

type productListResponse struct {
	Products   []Product         `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	products, pagination, err := h.service.ListProducts(r.Context(), principal.OrgID, page, perPage, r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, productListResponse{Products: products, Pagination: pagination})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(r.Context(), principal.OrgID, id)
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product, err := h.service.CreateProduct(r.Context(), principal.OrgID, principal.ID, productInput(req))
	if err != nil {
		if errors.Is(err, ErrDuplicateSKU) {
			httpx.Fail(w, http.StatusConflict, "SKU already in use")
			return
		}
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), principal.OrgID, id, productInput(req))
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateSKU):
			httpx.Fail(w, http.StatusConflict, "SKU already in use")
		case errors.Is(err, ErrArchived):
			httpx.Fail(w, http.StatusConflict, "Product is archived")
		default:
			h.fail(w, "update product", err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), principal.OrgID, id); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *Handler) archiveProduct(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.ArchiveProduct(r.Context(), principal.OrgID, id); err != nil {
		h.fail(w, "archive product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "archived": true})
}

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	categories, err := h.service.ListCategories(r.Context(), principal.OrgID)
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	if categories == nil {
		categories = []Category{}
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Category name is required")
		return
	}
	category, err := h.service.CreateCategory(r.Context(), principal.OrgID, req.Name)
	if err != nil {
		h.fail(w, "create category", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Category name is required")
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), principal.OrgID, id, req.Name)
	if err != nil {
		h.fail(w, "update category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, category)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), principal.OrgID, id); err != nil {
		h.fail(w, "delete category", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid product payload")
		return req, false
	}
	return req, true
}

func productInput(req productRequest) ProductInput {
	return ProductInput{
		CategoryID:   req.CategoryID,
		SKU:          req.SKU,
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		CostCents:    req.CostCents,
		ReorderPoint: req.ReorderPoint,
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.Fail(w, http.StatusNotFound, "Not found")
		return
	}
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.Fail(w, http.StatusInternalServerError, "Internal error")
}

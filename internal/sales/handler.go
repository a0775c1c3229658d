package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/inventory"
	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Handler exposes customer and sale endpoints.
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

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.With(h.mw.Require(authz.ResourceCustomer, authz.ActionRead)).Get("/", h.listCustomers)
		r.With(h.mw.Require(authz.ResourceCustomer, authz.ActionRead)).Get("/{id}", h.getCustomer)
		r.With(h.mw.Require(authz.ResourceCustomer, authz.ActionCreate)).Post("/", h.createCustomer)
		r.With(h.mw.Require(authz.ResourceCustomer, authz.ActionUpdate)).Put("/{id}", h.updateCustomer)
		r.With(h.mw.Require(authz.ResourceCustomer, authz.ActionDelete)).Delete("/{id}", h.deleteCustomer)
	})
	r.Route("/sales", func(r chi.Router) {
		r.With(h.mw.Require(authz.ResourceSale, authz.ActionRead)).Get("/", h.listSales)
		r.With(h.mw.Require(authz.ResourceSale, authz.ActionRead)).Get("/{id}", h.getSale)
		r.With(h.mw.Require(authz.ResourceSale, authz.ActionCreate)).Post("/", h.createSale)
		r.With(h.mw.Require(authz.ResourceSale, authz.ActionRefund)).Post("/{id}/refund", h.refundSale)
	})
}

type customerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	customers, err := h.service.ListCustomers(r.Context(), principal.OrgID)
	if err != nil {
		h.fail(w, "list customers", err)
		return
	}
	if customers == nil {
		customers = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, customers)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	customer, err := h.service.GetCustomer(r.Context(), principal.OrgID, id)
	if err != nil {
		h.fail(w, "get customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), principal.OrgID, CustomerInput{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		h.fail(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req customerRequest
	if !h.decode(w, r, &req) {
		return
	}
	customer, err := h.service.UpdateCustomer(r.Context(), principal.OrgID, id, CustomerInput{Name: req.Name, Email: req.Email, Phone: req.Phone})
	if err != nil {
		h.fail(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCustomer(r.Context(), principal.OrgID, id); err != nil {
		h.fail(w, "delete customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

type saleLineRequest struct {
	ProductID      int64 `json:"product_id" validate:"required"`
	Qty            int64 `json:"qty" validate:"required,gt=0"`
	UnitPriceCents int64 `json:"unit_price_cents" validate:"gte=0"`
}

type saleRequest struct {
	LocationID    int64             `json:"location_id" validate:"required"`
	CustomerID    *int64            `json:"customer_id,omitempty"`
	Number        string            `json:"number,omitempty"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer"`
	Note          string            `json:"note,omitempty"`
	Lines         []saleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	status := SaleStatus(r.URL.Query().Get("status"))
	sales, err := h.service.ListSales(r.Context(), principal.OrgID, status)
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	if sales == nil {
		sales = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.service.GetSale(r.Context(), principal.OrgID, id)
	if err != nil {
		h.fail(w, "get sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req saleRequest
	if !h.decode(w, r, &req) {
		return
	}
	input := SaleInput{
		LocationID:    req.LocationID,
		CustomerID:    req.CustomerID,
		Number:        req.Number,
		PaymentMethod: req.PaymentMethod,
		Note:          req.Note,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, SaleLineInput{
			ProductID:      line.ProductID,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
		})
	}
	sale, err := h.service.CreateSale(r.Context(), principal.OrgID, principal.ID, input, r.Header.Get(shared.IdempotencyHeader))
	if err != nil {
		h.fail(w, "create sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) refundSale(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.service.RefundSale(r.Context(), principal.OrgID, id, principal.ID)
	if err != nil {
		h.fail(w, "refund sale", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid payload")
		return false
	}
	return true
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
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, inventory.ErrNegativeStock):
		httpx.Fail(w, http.StatusConflict, "Insufficient stock")
	case errors.Is(err, ErrEmptyLines), errors.Is(err, ErrInvalidLine):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyRefunded):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Fail(w, http.StatusConflict, "Duplicate request")
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.Fail(w, http.StatusInternalServerError, "Internal error")
	}
}

package procurement

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

// Handler exposes supplier and purchase endpoints.
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

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/suppliers", func(r chi.Router) {
		r.With(h.mw.Require(authz.ResourceSupplier, authz.ActionRead)).Get("/", h.listSuppliers)
		r.With(h.mw.Require(authz.ResourceSupplier, authz.ActionRead)).Get("/{id}", h.getSupplier)
		r.With(h.mw.Require(authz.ResourceSupplier, authz.ActionCreate)).Post("/", h.createSupplier)
		r.With(h.mw.Require(authz.ResourceSupplier, authz.ActionUpdate)).Put("/{id}", h.updateSupplier)
		r.With(h.mw.Require(authz.ResourceSupplier, authz.ActionDelete)).Delete("/{id}", h.deleteSupplier)
	})
	r.Route("/purchases", func(r chi.Router) {
		r.With(h.mw.Require(authz.ResourcePurchase, authz.ActionRead)).Get("/", h.listPurchases)
		r.With(h.mw.Require(authz.ResourcePurchase, authz.ActionRead)).Get("/{id}", h.getPurchase)
		r.With(h.mw.Require(authz.ResourcePurchase, authz.ActionCreate)).Post("/", h.createPurchase)
		r.With(h.mw.Require(authz.ResourcePurchase, authz.ActionUpdate)).Put("/{id}", h.updatePurchase)
		r.With(h.mw.Require(authz.ResourcePurchase, authz.ActionUpdate)).Post("/{id}/cancel", h.cancelPurchase)
		r.With(h.mw.Require(authz.ResourcePurchase, authz.ActionReceive)).Post("/{id}/receive", h.receivePurchase)
	})
}

type supplierRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	suppliers, err := h.service.ListSuppliers(r.Context(), principal.OrgID)
	if err != nil {
		h.fail(w, "list suppliers", err)
		return
	}
	if suppliers == nil {
		suppliers = []Supplier{}
	}
	httpx.JSON(w, http.StatusOK, suppliers)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	supplier, err := h.service.GetSupplier(r.Context(), principal.OrgID, id)
	if err != nil {
		h.fail(w, "get supplier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req supplierRequest
	if !h.decode(w, r, &req) {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), principal.OrgID, supplierInput(req))
	if err != nil {
		h.fail(w, "create supplier", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req supplierRequest
	if !h.decode(w, r, &req) {
		return
	}
	supplier, err := h.service.UpdateSupplier(r.Context(), principal.OrgID, id, supplierInput(req))
	if err != nil {
		h.fail(w, "update supplier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSupplier(r.Context(), principal.OrgID, id); err != nil {
		h.fail(w, "delete supplier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

type purchaseLineRequest struct {
	ProductID     int64 `json:"product_id" validate:"required"`
	Qty           int64 `json:"qty" validate:"required,gt=0"`
	UnitCostCents int64 `json:"unit_cost_cents" validate:"gte=0"`
}

type purchaseRequest struct {
	SupplierID int64                 `json:"supplier_id" validate:"required"`
	LocationID int64                 `json:"location_id" validate:"required"`
	Number     string                `json:"number,omitempty"`
	Note       string                `json:"note,omitempty"`
	Lines      []purchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	status := PurchaseStatus(r.URL.Query().Get("status"))
	purchases, err := h.service.ListPurchases(r.Context(), principal.OrgID, status)
	if err != nil {
		h.fail(w, "list purchases", err)
		return
	}
	if purchases == nil {
		purchases = []Purchase{}
	}
	httpx.JSON(w, http.StatusOK, purchases)
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	purchase, err := h.service.GetPurchase(r.Context(), principal.OrgID, id)
	if err != nil {
		h.fail(w, "get purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req purchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	input := PurchaseInput{
		SupplierID: req.SupplierID,
		LocationID: req.LocationID,
		Number:     req.Number,
		Note:       req.Note,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, PurchaseLineInput{
			ProductID:     line.ProductID,
			Qty:           line.Qty,
			UnitCostCents: line.UnitCostCents,
		})
	}
	purchase, err := h.service.CreatePurchase(r.Context(), principal.OrgID, principal.ID, input, r.Header.Get(shared.IdempotencyHeader))
	if err != nil {
		h.fail(w, "create purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

type purchaseUpdateRequest struct {
	Note string `json:"note"`
}

func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req purchaseUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	purchase, err := h.service.UpdatePurchase(r.Context(), principal.OrgID, id, req.Note)
	if err != nil {
		h.fail(w, "update purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) cancelPurchase(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.CancelPurchase(r.Context(), principal.OrgID, id, principal.ID); err != nil {
		h.fail(w, "cancel purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "status": StatusCancelled})
}

func (h *Handler) receivePurchase(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	purchase, err := h.service.ReceivePurchase(r.Context(), principal.OrgID, id, principal.ID)
	if err != nil {
		h.fail(w, "receive purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func supplierInput(req supplierRequest) SupplierInput {
	return SupplierInput{Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address}
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
	case errors.Is(err, ErrEmptyLines), errors.Is(err, ErrInvalidLine):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotOrdered):
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

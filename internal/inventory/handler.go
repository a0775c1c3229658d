package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian/internal/authz"
	"github.com/meridian-pos/meridian/internal/platform/httpx"
)

// Handler exposes stock endpoints.
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

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.Require(authz.ResourceStock, authz.ActionRead)).Get("/", h.levels)
	r.With(h.mw.Require(authz.ResourceStock, authz.ActionRead)).Get("/movements", h.movements)
	r.With(h.mw.Require(authz.ResourceStock, authz.ActionRead)).Get("/low", h.lowStock)
	r.With(h.mw.Require(authz.ResourceStock, authz.ActionReceive)).Post("/receive", h.receive)
	r.With(h.mw.Require(authz.ResourceStock, authz.ActionAdjust)).Post("/adjust", h.adjust)
	r.With(h.mw.Require(authz.ResourceStock, authz.ActionMove)).Post("/move", h.move)
}

func (h *Handler) levels(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	locationID, _ := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)

	levels, err := h.service.Levels(r.Context(), principal.OrgID, locationID)
	if err != nil {
		h.fail(w, "list stock levels", err)
		return
	}
	if levels == nil {
		levels = []StockLevel{}
	}
	httpx.JSON(w, http.StatusOK, levels)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	filter := MovementFilter{}
	filter.LocationID, _ = strconv.ParseInt(q.Get("location_id"), 10, 64)
	filter.ProductID, _ = strconv.ParseInt(q.Get("product_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	movements, err := h.service.Movements(r.Context(), principal.OrgID, filter)
	if err != nil {
		h.fail(w, "list stock movements", err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	items, err := h.service.LowStock(r.Context(), principal.OrgID)
	if err != nil {
		h.fail(w, "list low stock", err)
		return
	}
	if items == nil {
		items = []LowStockItem{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

type receiveRequest struct {
	LocationID    int64  `json:"location_id" validate:"required"`
	ProductID     int64  `json:"product_id" validate:"required"`
	Qty           int64  `json:"qty" validate:"required,gt=0"`
	UnitCostCents int64  `json:"unit_cost_cents" validate:"gte=0"`
	Reference     string `json:"reference,omitempty"`
	Note          string `json:"note,omitempty"`
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req receiveRequest
	if !h.decode(w, r, &req) {
		return
	}
	movement, err := h.service.Receive(r.Context(), principal.OrgID, ReceiveInput{
		LocationID:    req.LocationID,
		ProductID:     req.ProductID,
		Qty:           req.Qty,
		UnitCostCents: req.UnitCostCents,
		Reference:     req.Reference,
		Note:          req.Note,
		ActorID:       principal.ID,
	})
	if err != nil {
		h.fail(w, "receive stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

type adjustRequest struct {
	LocationID int64  `json:"location_id" validate:"required"`
	ProductID  int64  `json:"product_id" validate:"required"`
	QtyChange  int64  `json:"qty_change" validate:"required"`
	Note       string `json:"note" validate:"required"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req adjustRequest
	if !h.decode(w, r, &req) {
		return
	}
	movement, err := h.service.Adjust(r.Context(), principal.OrgID, AdjustInput{
		LocationID: req.LocationID,
		ProductID:  req.ProductID,
		QtyChange:  req.QtyChange,
		Note:       req.Note,
		ActorID:    principal.ID,
	})
	if err != nil {
		h.fail(w, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

type moveRequest struct {
	SrcLocationID int64  `json:"src_location_id" validate:"required"`
	DstLocationID int64  `json:"dst_location_id" validate:"required"`
	ProductID     int64  `json:"product_id" validate:"required"`
	Qty           int64  `json:"qty" validate:"required,gt=0"`
	Note          string `json:"note,omitempty"`
}

type moveResponse struct {
	Out Movement `json:"out"`
	In  Movement `json:"in"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	var req moveRequest
	if !h.decode(w, r, &req) {
		return
	}
	out, in, err := h.service.Move(r.Context(), principal.OrgID, MoveInput{
		SrcLocationID: req.SrcLocationID,
		DstLocationID: req.DstLocationID,
		ProductID:     req.ProductID,
		Qty:           req.Qty,
		Note:          req.Note,
		ActorID:       principal.ID,
	})
	if err != nil {
		h.fail(w, "move stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, moveResponse{Out: out, In: in})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid stock payload")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNegativeStock):
		httpx.Fail(w, http.StatusConflict, "Insufficient stock")
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost), errors.Is(err, ErrSameLocation):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.Fail(w, http.StatusInternalServerError, "Internal error")
	}
}

package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sokoflow/marketplace/internal/domain"
)

// CatalogBrowser serves the read-only catalog surface exposed to the public
// gateway.
type CatalogBrowser interface {
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
}

type Handler struct {
	svc     *Service
	catalog CatalogBrowser
	logger  *slog.Logger
}

func NewHandler(svc *Service, catalog CatalogBrowser, logger *slog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		catalog: catalog,
		logger:  logger,
	}
}

type submitRequest struct {
	BuyerID       string                `json:"buyer_id"`
	Lines         []domain.CheckoutLine `json:"lines"`
	Delivery      domain.DeliveryInfo   `json:"delivery"`
	PaymentMethod domain.PaymentMethod  `json:"payment_method"`
	Phone         string                `json:"phone,omitempty"`
}

type submitResponse struct {
	OrderIDs    []string `json:"order_ids"`
	TotalAmount int64    `json:"total_amount"`
	ReferenceID string   `json:"reference_id,omitempty"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", false)
		return
	}
	if req.BuyerID == "" || len(req.Lines) == 0 {
		h.writeError(w, http.StatusBadRequest, "buyer_id and lines are required", false)
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodMobileMoney
	}
	if req.PaymentMethod == domain.PaymentMethodMobileMoney && req.Phone == "" {
		h.writeError(w, http.StatusBadRequest, "phone is required for mobile money", false)
		return
	}

	result, err := h.svc.Submit(r.Context(), SubmitRequest{
		BuyerID:       req.BuyerID,
		Lines:         req.Lines,
		Delivery:      req.Delivery,
		PaymentMethod: req.PaymentMethod,
		Phone:         req.Phone,
	})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, submitResponse{
		OrderIDs:    result.OrderIDs,
		TotalAmount: result.TotalAmount,
		ReferenceID: result.ReferenceID,
	})
}

type statusResponse struct {
	Status domain.AttemptStatus `json:"status"`
}

func (h *Handler) HandlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("referenceId")
	if reference == "" {
		h.writeError(w, http.StatusBadRequest, "missing payment reference", false)
		return
	}

	status, err := h.svc.PaymentStatus(r.Context(), reference)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, statusResponse{Status: status})
}

func (h *Handler) HandleCancelPayment(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("referenceId")
	if reference == "" {
		h.writeError(w, http.StatusBadRequest, "missing payment reference", false)
		return
	}

	if err := h.svc.CancelPayment(r.Context(), reference); err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id", false)
		return
	}

	order, err := h.svc.Order(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error", false)
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found", false)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListSellerOrders(w http.ResponseWriter, r *http.Request) {
	sellerID := r.PathValue("sellerId")
	if sellerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing seller id", false)
		return
	}

	orders, err := h.svc.SellerOrders(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("failed to list seller orders", "error", err, "seller_id", sellerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error", false)
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListItems(r.Context())
	if err != nil {
		h.logger.Error("failed to list items", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error", false)
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("itemId")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id", false)
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get item", "error", err, "item_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error", false)
		return
	}
	if item == nil {
		h.writeError(w, http.StatusNotFound, "item not found", false)
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// writePipelineError maps the checkout error taxonomy to a buyer-visible
// message plus a retry hint. Nothing propagates as an unhandled fault.
func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemsNotFound):
		h.writeError(w, http.StatusNotFound, err.Error(), false)
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrItemUnavailable),
		errors.Is(err, ErrSelfPurchaseForbidden):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), false)
	case errors.Is(err, ErrInsufficientStock):
		h.writeError(w, http.StatusConflict, err.Error(), false)
	case errors.Is(err, ErrStockConflict):
		h.writeError(w, http.StatusConflict, err.Error(), true)
	case errors.Is(err, ErrPaymentInitiation):
		h.writeError(w, http.StatusBadGateway, err.Error(), true)
	case errors.Is(err, ErrAttemptNotFound):
		h.writeError(w, http.StatusNotFound, err.Error(), false)
	case errors.Is(err, ErrAttemptSettled):
		h.writeError(w, http.StatusConflict, err.Error(), false)
	default:
		h.logger.Error("checkout pipeline failure", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error", true)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, retryable bool) {
	h.writeJSON(w, status, map[string]any{"error": message, "retryable": retryable})
}

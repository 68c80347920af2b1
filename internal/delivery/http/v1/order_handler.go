package v1

import (
	"glowmart-backend/internal/domain"
	"glowmart-backend/internal/usecase"
	"glowmart-backend/pkg/utils"
	"net/http"
)

// OrderHandler serves the customer's own orders.
type OrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{orderUC: uc}
}

// POST /api/v1/checkout/quote
func (h *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req usecase.QuoteReq
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.orderUC.Quote(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, quote)
}

// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req usecase.CreateOrderReq
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderUC.CreateOrder(r.Context(), actor, req)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
}

// GET /api/v1/orders
func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	orders, err := h.orderUC.ListMyOrders(r.Context(), actor)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	order, err := h.orderUC.GetOrder(r.Context(), actor, r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

type reasonReq struct {
	Reason string `json:"reason"`
}

// PUT /api/v1/orders/{orderID}/cancel
func (h *OrderHandler) RequestCancellation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req reasonReq
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderUC.RequestCancellation(r.Context(), actor, r.PathValue("orderID"), req.Reason)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// PUT /api/v1/orders/{orderID}/return
func (h *OrderHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req reasonReq
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderUC.RequestReturn(r.Context(), actor, r.PathValue("orderID"), req.Reason)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

type addressReq struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// PUT /api/v1/orders/{orderID}/address
func (h *OrderHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req addressReq
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderUC.UpdateShippingContact(r.Context(), actor, r.PathValue("orderID"), req.Address, req.Phone)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

type feedbackReq struct {
	Message string `json:"message"`
}

// POST /api/v1/orders/{orderID}/feedback, also mounted for staff.
func (h *OrderHandler) AddFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req feedbackReq
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderUC.AppendFeedback(r.Context(), actor, r.PathValue("orderID"), req.Message)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
}

package v1

import (
	"glowmart-backend/internal/domain"
	"glowmart-backend/internal/usecase"
	"glowmart-backend/pkg/utils"
	"net/http"
)

// AdminOrderHandler serves the staff order desk.
type AdminOrderHandler struct {
	orderUC *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

// GET /api/v1/admin/orders
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	q := r.URL.Query()
	page := utils.ParseInt(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := utils.ParseInt(q.Get("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := domain.OrderFilter{
		Page:               page,
		Limit:              limit,
		Status:             q.Get("status"),
		PaymentStatus:      q.Get("payment_status"),
		CancellationStatus: q.Get("cancellation_status"),
		ReturnStatus:       q.Get("return_status"),
		Search:             q.Get("search"),
	}

	if field, ok := checkFilter(filter); !ok {
		utils.WriteJSON(w, http.StatusBadRequest, errorBody{Error: "unknown " + field + " filter", Field: field})
		return
	}

	orders, total, err := h.orderUC.ListOrders(r.Context(), actor, filter)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders":     orders,
		"pagination": domain.NewPagination(filter.Page, filter.Limit, total),
	})
}

// checkFilter reports the first status filter set to an unknown value.
func checkFilter(f domain.OrderFilter) (string, bool) {
	switch {
	case f.Status != "" && !domain.IsValidOrderStatus(f.Status):
		return "status", false
	case f.PaymentStatus != "" && !domain.IsValidPaymentStatus(f.PaymentStatus):
		return "payment_status", false
	case f.CancellationStatus != "" && !domain.IsValidRequestStatus(f.CancellationStatus):
		return "cancellation_status", false
	case f.ReturnStatus != "" && !domain.IsValidRequestStatus(f.ReturnStatus):
		return "return_status", false
	}
	return "", true
}

// GET /api/v1/admin/orders/{orderID}
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
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

// GET /api/v1/admin/orders/{orderID}/history
func (h *AdminOrderHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	history, err := h.orderUC.GetOrderHistory(r.Context(), actor, r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	if history == nil {
		history = []domain.OrderHistory{}
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

type statusReq struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// PUT /api/v1/admin/orders/{orderID}/status
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req statusReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		utils.WriteError(w, http.StatusBadRequest, "status is required")
		return
	}

	order, err := h.orderUC.AdvanceStatus(r.Context(), actor, r.PathValue("orderID"), req.Status, req.Note)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

type paymentStatusReq struct {
	PaymentStatus string `json:"paymentStatus"`
}

// PUT /api/v1/admin/orders/{orderID}/payment-status
func (h *AdminOrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req paymentStatusReq
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderUC.SetPaymentStatus(r.Context(), actor, r.PathValue("orderID"), req.PaymentStatus)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

type resolutionReq struct {
	Approve *bool `json:"approve"`
}

func (h *AdminOrderHandler) decodeResolution(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req resolutionReq
	if !decodeJSON(w, r, &req) {
		return false, false
	}
	if req.Approve == nil {
		utils.WriteError(w, http.StatusBadRequest, "approve is required")
		return false, false
	}
	return *req.Approve, true
}

// PUT /api/v1/admin/orders/{orderID}/cancellation
func (h *AdminOrderHandler) ResolveCancellation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	approve, ok := h.decodeResolution(w, r)
	if !ok {
		return
	}
	order, err := h.orderUC.ResolveCancellation(r.Context(), actor, r.PathValue("orderID"), approve)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// PUT /api/v1/admin/orders/{orderID}/return
func (h *AdminOrderHandler) ResolveReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	approve, ok := h.decodeResolution(w, r)
	if !ok {
		return
	}
	order, err := h.orderUC.ResolveReturn(r.Context(), actor, r.PathValue("orderID"), approve)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// PUT /api/v1/admin/orders/{orderID}/address
func (h *AdminOrderHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
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

// PUT /api/v1/admin/orders/{orderID}/tracking
func (h *AdminOrderHandler) SetTracking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req usecase.TrackingInfoReq
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderUC.SetTrackingInfo(r.Context(), actor, r.PathValue("orderID"), req)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// POST /api/v1/admin/orders/{orderID}/tracking/updates
func (h *AdminOrderHandler) AddTrackingUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req usecase.TrackingUpdateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderUC.AppendTrackingUpdate(r.Context(), actor, r.PathValue("orderID"), req)
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
}

// POST /api/v1/admin/orders/{orderID}/rewards
func (h *AdminOrderHandler) RetryRewards(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	order, err := h.orderUC.RetryRewards(r.Context(), actor, r.PathValue("orderID"))
	if err != nil {
		writeError(w, r, err, order)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

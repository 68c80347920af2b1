package v1

import (
	"glowmart-backend/internal/delivery/http/middleware"
	"net/http"
)

type Handlers struct {
	Order      *OrderHandler
	AdminOrder *AdminOrderHandler
	Membership *MembershipHandler
	Upload     *UploadHandler
	Config     *ConfigHandler
}

// RegisterRoutes mounts the v1 API on mux. Staff routes live under
// /api/v1/admin so they never overlap the customer patterns.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	auth := func(fn http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(fn))
	}

	// Public
	mux.HandleFunc("GET /api/v1/config/enums", h.Config.GetEnums)

	// Customer
	mux.Handle("POST /api/v1/checkout/quote", auth(h.Order.Quote))
	mux.Handle("POST /api/v1/orders", auth(h.Order.CreateOrder))
	mux.Handle("GET /api/v1/orders", auth(h.Order.GetMyOrders))
	mux.Handle("GET /api/v1/orders/{orderID}", auth(h.Order.GetOrder))
	mux.Handle("PUT /api/v1/orders/{orderID}/cancel", auth(h.Order.RequestCancellation))
	mux.Handle("PUT /api/v1/orders/{orderID}/return", auth(h.Order.RequestReturn))
	mux.Handle("PUT /api/v1/orders/{orderID}/address", auth(h.Order.UpdateAddress))
	mux.Handle("POST /api/v1/orders/{orderID}/feedback", auth(h.Order.AddFeedback))
	mux.Handle("GET /api/v1/users/membership", auth(h.Membership.GetMembership))
	mux.Handle("POST /api/v1/upload/payment-proof", auth(h.Upload.UploadPaymentProof))

	// Staff
	mux.Handle("GET /api/v1/admin/orders", admin(h.AdminOrder.ListOrders))
	mux.Handle("GET /api/v1/admin/orders/{orderID}", admin(h.AdminOrder.GetOrder))
	mux.Handle("GET /api/v1/admin/orders/{orderID}/history", admin(h.AdminOrder.GetOrderHistory))
	mux.Handle("PUT /api/v1/admin/orders/{orderID}/status", admin(h.AdminOrder.UpdateStatus))
	mux.Handle("PUT /api/v1/admin/orders/{orderID}/payment-status", admin(h.AdminOrder.UpdatePaymentStatus))
	mux.Handle("PUT /api/v1/admin/orders/{orderID}/cancellation", admin(h.AdminOrder.ResolveCancellation))
	mux.Handle("PUT /api/v1/admin/orders/{orderID}/return", admin(h.AdminOrder.ResolveReturn))
	mux.Handle("PUT /api/v1/admin/orders/{orderID}/address", admin(h.AdminOrder.UpdateAddress))
	mux.Handle("PUT /api/v1/admin/orders/{orderID}/tracking", admin(h.AdminOrder.SetTracking))
	mux.Handle("POST /api/v1/admin/orders/{orderID}/tracking/updates", admin(h.AdminOrder.AddTrackingUpdate))
	mux.Handle("POST /api/v1/admin/orders/{orderID}/feedback", admin(h.Order.AddFeedback))
	mux.Handle("POST /api/v1/admin/orders/{orderID}/rewards", admin(h.AdminOrder.RetryRewards))
}

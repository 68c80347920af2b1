package usecase

import (
	"context"
	"errors"
	"fmt"
	"glowmart-backend/internal/domain"
	"glowmart-backend/pkg/logger"
	"glowmart-backend/pkg/utils"
	"strings"
	"sync"
	"time"
)

// DefaultReturnWindow is how long after delivery a return may be requested.
const DefaultReturnWindow = 14 * 24 * time.Hour

// autoCompleteBatch bounds one scheduler run.
const autoCompleteBatch = 100

// notifyTimeout bounds one background notification run.
const notifyTimeout = 30 * time.Second

type OrderUsecase struct {
	orderRepo    domain.OrderRepository
	userRepo     domain.UserRepository
	catalog      domain.ProductCatalog
	txManager    domain.TransactionManager
	rewards      *RewardsUsecase
	membership   *MembershipUsecase
	notifier     domain.Notifier
	returnWindow time.Duration
	now          func() time.Time

	pending sync.WaitGroup
}

func NewOrderUsecase(
	repo domain.OrderRepository,
	userRepo domain.UserRepository,
	catalog domain.ProductCatalog,
	txManager domain.TransactionManager,
	rewards *RewardsUsecase,
	membership *MembershipUsecase,
	notifier domain.Notifier,
	returnWindow time.Duration,
) *OrderUsecase {
	if returnWindow <= 0 {
		returnWindow = DefaultReturnWindow
	}
	return &OrderUsecase{
		orderRepo:    repo,
		userRepo:     userRepo,
		catalog:      catalog,
		txManager:    txManager,
		rewards:      rewards,
		membership:   membership,
		notifier:     notifier,
		returnWindow: returnWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// --- Checkout ---

// priceItems snapshots catalog prices for the requested lines.
func (u *OrderUsecase) priceItems(ctx context.Context, reqs []CartItemReq) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	products, err := u.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(reqs))
	for i, r := range reqs {
		p, ok := products[r.ProductID]
		if !ok || !p.IsActive {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].productId", i), "product is not available")
		}
		items = append(items, domain.OrderItem{
			ProductID:         p.ID,
			ProductName:       p.Name,
			Quantity:          r.Quantity,
			UnitPrice:         p.EffectivePrice(),
			UnitLabelledPrice: p.BasePrice,
		})
	}
	return items, nil
}

// Quote prices a cart for the customer without placing an order.
func (u *OrderUsecase) Quote(ctx context.Context, actor domain.Actor, req QuoteReq) (*QuoteResp, error) {
	if actor.ID == "" {
		return nil, domain.ErrNotPermitted()
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	items, err := u.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	m, err := u.membership.Current(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, len(items))
	for i, it := range items {
		lines[i] = domain.CartLine{ProductID: it.ProductID, UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	q, err := domain.Quote(lines, m.DiscountRate)
	if err != nil {
		return nil, err
	}
	return &QuoteResp{
		Items:            items,
		Subtotal:         q.Subtotal,
		DiscountRate:     q.DiscountRate,
		Discount:         q.Discount,
		Total:            q.Total,
		MembershipTier:   m.Tier,
		PointsToBeEarned: domain.PointsFor(q.Total, u.rewards.currencyPerPoint),
	}, nil
}

// CreateOrder places an order for the acting customer at today's catalog
// prices and the customer's current membership discount.
func (u *OrderUsecase) CreateOrder(ctx context.Context, actor domain.Actor, req CreateOrderReq) (*domain.Order, error) {
	if actor.ID == "" {
		return nil, domain.ErrNotPermitted()
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	items, err := u.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	m, err := u.membership.Current(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	name, phone := strings.TrimSpace(req.CustomerName), strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		if user, err := u.userRepo.GetByID(ctx, actor.ID); err == nil {
			if name == "" {
				name = user.FullName()
			}
			if phone == "" {
				phone = user.Phone
			}
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
	}

	var details *domain.PaymentDetails
	if d := req.PaymentDetails; d != nil {
		details = &domain.PaymentDetails{
			TransactionID:   d.TransactionID,
			BankName:        d.BankName,
			AccountLast4:    d.AccountNumber,
			PaymentProofURL: d.PaymentProofRef,
			PaidAmount:      d.PaidAmount,
			PaymentDate:     d.PaymentDate,
		}
	}

	now := u.now()
	order, err := domain.NewOrder(domain.NewOrderParams{
		ID:             utils.GenerateUUID(),
		OrderNumber:    utils.GenerateOrderNumber(now),
		UserID:         actor.ID,
		CustomerName:   name,
		Address:        req.Address,
		Phone:          phone,
		Items:          items,
		DiscountRate:   m.DiscountRate,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: details,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.CreateOrder(txCtx, order); err != nil {
			return err
		}
		reason := "Order placed"
		history := newHistory(order.ID, actor, domain.AxisFulfillment, "", domain.OrderStatusPending, reason)
		if err := u.orderRepo.CreateOrderHistory(txCtx, &history); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int64("total", order.Total).
		Int("discount_rate", order.DiscountRate).
		Msg("Order placed")

	u.notify(ctx, order, []change{{axis: domain.AxisFulfillment, to: domain.OrderStatusPending}})
	return order, nil
}

// --- Reads ---

// GetOrder returns an order to its owner or to staff. Customers never learn
// whether an order they cannot see exists.
func (u *OrderUsecase) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, u.hideMissing(actor, err)
	}
	if !actor.IsStaff() && !order.OwnedBy(actor.ID) {
		return nil, domain.ErrNotPermitted()
	}
	return order, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, actor domain.Actor) ([]domain.Order, error) {
	if actor.ID == "" {
		return nil, domain.ErrNotPermitted()
	}
	return u.orderRepo.GetByUserID(ctx, actor.ID)
}

func (u *OrderUsecase) ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, domain.ErrNotPermitted()
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return u.orderRepo.GetAll(ctx, filter)
}

// GetOrderHistory retrieves the history logs for an order
func (u *OrderUsecase) GetOrderHistory(ctx context.Context, actor domain.Actor, orderID string) ([]domain.OrderHistory, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrNotPermitted()
	}
	if _, err := u.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	history, err := u.orderRepo.GetOrderHistory(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Enrich with actor names for the admin timeline.
	names := map[string]string{}
	for i := range history {
		by := history[i].CreatedBy
		if by == nil || *by == "" {
			continue
		}
		name, ok := names[*by]
		if !ok {
			if user, err := u.userRepo.GetByID(ctx, *by); err == nil {
				name = user.FullName()
			}
			names[*by] = name
		}
		if name != "" {
			n := name
			history[i].CreatedName = &n
		}
	}
	return history, nil
}

func (u *OrderUsecase) hideMissing(actor domain.Actor, err error) error {
	if errors.Is(err, domain.ErrOrderNotFound) && !actor.IsStaff() {
		return domain.ErrNotPermitted()
	}
	return err
}

func newHistory(orderID string, actor domain.Actor, axis, from, to, reason string) domain.OrderHistory {
	h := domain.OrderHistory{
		ID:        utils.GenerateUUID(),
		OrderID:   orderID,
		Axis:      axis,
		NewStatus: to,
	}
	if from != "" {
		h.PreviousStatus = &from
	}
	if reason != "" {
		h.Reason = &reason
	}
	if actor.ID != "" {
		id := actor.ID
		h.CreatedBy = &id
	}
	return h
}

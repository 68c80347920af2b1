package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"glowmart-backend/internal/domain"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id::text, order_number, user_id, items, subtotal, discount_rate, discount_applied, total,
	payment_method, payment_details, status, cancellation_status, cancellation_reason, return_status,
	return_reason, payment_status, customer_name, address, phone, tracking_info, rewards_credited,
	points_earned, delivered_at, version, created_at, updated_at`

// trackingSummary is what lives in orders.tracking_info; the updates are
// child rows.
type trackingSummary struct {
	TrackingNumber    string     `json:"trackingNumber"`
	CourierService    string     `json:"courierService"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	TrackingURL       string     `json:"trackingUrl,omitempty"`
}

// orderRow is an order as read from the orders table, before its child rows
// are attached.
type orderRow struct {
	base  domain.Order
	state domain.OrderState
}

// --- Mappers ---

func scanOrder(row pgx.Row) (*orderRow, error) {
	var (
		r                        orderRow
		items, details, tracking []byte
	)
	err := row.Scan(
		&r.base.ID, &r.base.OrderNumber, &r.base.UserID, &items, &r.base.Subtotal, &r.base.DiscountRate,
		&r.base.DiscountApplied, &r.base.Total, &r.base.PaymentMethod, &details, &r.state.Status,
		&r.state.CancellationStatus, &r.state.CancellationReason, &r.state.ReturnStatus, &r.state.ReturnReason,
		&r.state.PaymentStatus, &r.state.CustomerName, &r.state.Address, &r.state.Phone, &tracking,
		&r.state.RewardsCredited, &r.state.PointsEarned, &r.state.DeliveredAt, &r.state.Version,
		&r.base.CreatedAt, &r.state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &r.base.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", r.base.ID, err)
	}
	if len(details) > 0 {
		var d domain.PaymentDetails
		if err := json.Unmarshal(details, &d); err != nil {
			return nil, fmt.Errorf("decode payment details of order %s: %w", r.base.ID, err)
		}
		r.base.PaymentDetails = &d
	}
	if len(tracking) > 0 {
		var t trackingSummary
		if err := json.Unmarshal(tracking, &t); err != nil {
			return nil, fmt.Errorf("decode tracking of order %s: %w", r.base.ID, err)
		}
		r.state.Tracking = &domain.TrackingInfo{
			TrackingNumber:    t.TrackingNumber,
			CourierService:    t.CourierService,
			EstimatedDelivery: t.EstimatedDelivery,
			TrackingURL:       t.TrackingURL,
		}
	}
	return &r, nil
}

// hydrate attaches tracking updates and feedback to the rows and restores
// them into domain orders.
func (r *orderRepository) hydrate(ctx context.Context, q DBTX, rows []*orderRow) ([]domain.Order, error) {
	if len(rows) == 0 {
		return []domain.Order{}, nil
	}
	ids := make([]string, len(rows))
	byID := make(map[string]*orderRow, len(rows))
	for i, row := range rows {
		ids[i] = row.base.ID
		byID[row.base.ID] = row
	}

	updates, err := q.Query(ctx, `
		SELECT order_id::text, status, location, description, created_at
		FROM order_tracking_updates WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, seq`, ids)
	if err != nil {
		return nil, err
	}
	for updates.Next() {
		var id string
		var u domain.TrackingUpdate
		if err := updates.Scan(&id, &u.Status, &u.Location, &u.Description, &u.Timestamp); err != nil {
			updates.Close()
			return nil, err
		}
		row := byID[id]
		if row.state.Tracking == nil {
			row.state.Tracking = &domain.TrackingInfo{}
		}
		row.state.Tracking.Updates = append(row.state.Tracking.Updates, u)
	}
	updates.Close()
	if err := updates.Err(); err != nil {
		return nil, err
	}

	feedback, err := q.Query(ctx, `
		SELECT order_id::text, message, is_admin_authored, author_id, created_at
		FROM order_feedback WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, seq`, ids)
	if err != nil {
		return nil, err
	}
	for feedback.Next() {
		var id string
		var f domain.FeedbackEntry
		if err := feedback.Scan(&id, &f.Message, &f.IsAdmin, &f.AuthorID, &f.Date); err != nil {
			feedback.Close()
			return nil, err
		}
		byID[id].state.Feedback = append(byID[id].state.Feedback, f)
	}
	feedback.Close()
	if err := feedback.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Order, len(rows))
	for i, row := range rows {
		o, err := domain.RestoreOrder(row.base, row.state)
		if err != nil {
			return nil, err
		}
		out[i] = *o
	}
	return out, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	q := conn(ctx, r.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var scanned []*orderRow
	for rows.Next() {
		row, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		scanned = append(scanned, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.hydrate(ctx, q, scanned)
}

func (r *orderRepository) getOne(ctx context.Context, sql, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrOrderNotFound
	}
	orders, err := r.queryOrders(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return &orders[0], nil
}

// --- Order Management ---

func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	details, err := marshalNullable(order.PaymentDetails)
	if err != nil {
		return err
	}
	s := order.Snapshot()
	tracking, err := marshalTracking(s.Tracking)
	if err != nil {
		return err
	}

	return inTx(ctx, r.db, func(q DBTX) error {
		_, err := q.Exec(ctx, `
			INSERT INTO orders (id, order_number, user_id, items, subtotal, discount_rate, discount_applied, total,
				payment_method, payment_details, status, cancellation_status, cancellation_reason, return_status,
				return_reason, payment_status, customer_name, address, phone, tracking_info, rewards_credited,
				points_earned, delivered_at, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
				$21, $22, $23, $24, $25, $26)`,
			order.ID, order.OrderNumber, order.UserID, items, order.Subtotal, order.DiscountRate,
			order.DiscountApplied, order.Total, order.PaymentMethod, details, s.Status, s.CancellationStatus,
			s.CancellationReason, s.ReturnStatus, s.ReturnReason, s.PaymentStatus, s.CustomerName, s.Address,
			s.Phone, tracking, s.RewardsCredited, s.PointsEarned, s.DeliveredAt, s.Version, order.CreatedAt,
			s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		return appendChildren(ctx, q, order.ID, s, 0, 0)
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid`, id)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	if _, ok := txFromContext(ctx); !ok {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid FOR UPDATE`, id)
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *orderRepository) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.PaymentStatus != "" {
		add("payment_status = $%d", filter.PaymentStatus)
	}
	if filter.CancellationStatus != "" {
		add("cancellation_status = $%d", filter.CancellationStatus)
	}
	if filter.ReturnStatus != "" {
		add("return_status = $%d", filter.ReturnStatus)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(order_number ILIKE $%d OR customer_name ILIKE $%d OR phone ILIKE $%d)", n, n, n))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM orders`+cond, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	sql := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, cond, len(args)+1, len(args)+2)
	orders, err := r.queryOrders(ctx, sql, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

// Save writes the mutable columns guarded by the version the order was
// loaded with, then appends any new tracking updates and feedback. order's
// version is bumped once the statements succeed, before the caller commits.
func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	s := order.Snapshot()
	tracking, err := marshalTracking(s.Tracking)
	if err != nil {
		return err
	}

	err = inTx(ctx, r.db, func(q DBTX) error {
		tag, err := q.Exec(ctx, `
			UPDATE orders SET
				status = $2, cancellation_status = $3, cancellation_reason = $4, return_status = $5,
				return_reason = $6, payment_status = $7, customer_name = $8, address = $9, phone = $10,
				tracking_info = $11, rewards_credited = $12, points_earned = $13, delivered_at = $14,
				updated_at = $15, version = version + 1
			WHERE id = $1::uuid AND version = $16`,
			order.ID, s.Status, s.CancellationStatus, s.CancellationReason, s.ReturnStatus, s.ReturnReason,
			s.PaymentStatus, s.CustomerName, s.Address, s.Phone, tracking, s.RewardsCredited, s.PointsEarned,
			s.DeliveredAt, s.UpdatedAt, s.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1::uuid)`, order.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrOrderNotFound
			}
			return domain.ErrConcurrentUpdate
		}

		var updates, feedback int
		err = q.QueryRow(ctx, `
			SELECT (SELECT count(*) FROM order_tracking_updates WHERE order_id = $1::uuid),
			       (SELECT count(*) FROM order_feedback WHERE order_id = $1::uuid)`, order.ID).Scan(&updates, &feedback)
		if err != nil {
			return err
		}
		return appendChildren(ctx, q, order.ID, s, updates, feedback)
	})
	if err != nil {
		return err
	}
	order.BumpVersion()
	return nil
}

// appendChildren inserts the entries past the counts already stored. Stored
// entries are never rewritten.
func appendChildren(ctx context.Context, q DBTX, orderID string, s domain.OrderState, storedUpdates, storedFeedback int) error {
	if s.Tracking != nil {
		if len(s.Tracking.Updates) < storedUpdates {
			return fmt.Errorf("order %s: tracking updates cannot be removed", orderID)
		}
		for i := storedUpdates; i < len(s.Tracking.Updates); i++ {
			u := s.Tracking.Updates[i]
			_, err := q.Exec(ctx, `
				INSERT INTO order_tracking_updates (order_id, seq, status, location, description, created_at)
				VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
				orderID, i, u.Status, u.Location, u.Description, u.Timestamp)
			if err != nil {
				return fmt.Errorf("failed to append tracking update: %w", err)
			}
		}
	}
	if len(s.Feedback) < storedFeedback {
		return fmt.Errorf("order %s: feedback cannot be removed", orderID)
	}
	for i := storedFeedback; i < len(s.Feedback); i++ {
		f := s.Feedback[i]
		_, err := q.Exec(ctx, `
			INSERT INTO order_feedback (order_id, seq, message, is_admin_authored, author_id, created_at)
			VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
			orderID, i, f.Message, f.IsAdmin, f.AuthorID, f.Date)
		if err != nil {
			return fmt.Errorf("failed to append feedback: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) ListDeliveredBefore(ctx context.Context, deliveredBefore time.Time, limit int) ([]string, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id::text FROM orders
		WHERE status = 'delivered' AND delivered_at < $1
		ORDER BY delivered_at LIMIT $2`, deliveredBefore, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// --- History ---

func (r *orderRepository) CreateOrderHistory(ctx context.Context, history *domain.OrderHistory) error {
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO order_history (id, order_id, axis, previous_status, new_status, reason, created_by, created_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)`,
		history.ID, history.OrderID, history.Axis, history.PreviousStatus, history.NewStatus, history.Reason,
		history.CreatedBy, history.CreatedAt,
	)
	return err
}

func (r *orderRepository) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT id::text, order_id::text, axis, previous_status, new_status, reason, created_by, created_at
		FROM order_history WHERE order_id = $1::uuid ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderHistory, error) {
		var h domain.OrderHistory
		err := row.Scan(&h.ID, &h.OrderID, &h.Axis, &h.PreviousStatus, &h.NewStatus, &h.Reason, &h.CreatedBy, &h.CreatedAt)
		return h, err
	})
}

// --- Helpers ---

func marshalNullable(v *domain.PaymentDetails) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func marshalTracking(t *domain.TrackingInfo) ([]byte, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(trackingSummary{
		TrackingNumber:    t.TrackingNumber,
		CourierService:    t.CourierService,
		EstimatedDelivery: t.EstimatedDelivery,
		TrackingURL:       t.TrackingURL,
	})
}

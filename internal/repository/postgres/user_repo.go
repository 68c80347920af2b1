package pgrepo

import (
	"context"
	"errors"
	"glowmart-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository reads the identity service's users table and owns the
// loyalty balance stored on it.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, role, first_name, last_name, phone, points, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Role, &u.FirstName, &u.LastName, &u.Phone, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO users (id, email, role, first_name, last_name, phone, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		user.ID, user.Email, user.Role, user.FirstName, user.LastName, user.Phone, user.Points,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetPoints returns 0 for users without a row.
func (r *UserRepository) GetPoints(ctx context.Context, userID string) (int64, error) {
	var points int64
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return points, err
}

// CreditPoints inserts the ledger row first; the unique order id makes a
// repeated credit a no-op. A missing users row is created with the points.
func (r *UserRepository) CreditPoints(ctx context.Context, userID, orderID string, points int64) (bool, error) {
	var inserted bool
	err := inTx(ctx, r.db, func(q DBTX) error {
		tag, err := q.Exec(ctx, `
			INSERT INTO loyalty_credits (order_id, user_id, points, created_at)
			VALUES ($1::uuid, $2, $3, now())
			ON CONFLICT (order_id) DO NOTHING`, orderID, userID, points)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		// Identity lives elsewhere, so a customer may have no row yet.
		_, err = q.Exec(ctx, `
			INSERT INTO users (id, points, created_at, updated_at)
			VALUES ($1, $2, now(), now())
			ON CONFLICT (id) DO UPDATE
			SET points = users.points + EXCLUDED.points, updated_at = now()`, userID, points)
		if err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *UserRepository) GetCredits(ctx context.Context, userID string) ([]domain.LoyaltyCredit, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT user_id, order_id::text, points, created_at
		FROM loyalty_credits WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LoyaltyCredit, error) {
		var c domain.LoyaltyCredit
		err := row.Scan(&c.UserID, &c.OrderID, &c.Points, &c.CreatedAt)
		return c, err
	})
}

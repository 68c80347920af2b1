package domain

import (
	"context"
	"time"
)

type ContextKey string

const UserContextKey ContextKey = "user"

type User struct {
	ID        string    `json:"id"` // UUID
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor is whoever is performing an operation: the authenticated user, or the
// scheduler acting as RoleSystem.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// SystemActor is used for unattended jobs.
var SystemActor = Actor{ID: "", Role: RoleSystem}

// LoyaltyCredit is one row of the loyalty ledger. OrderID is unique, which is
// what makes crediting an order idempotent.
type LoyaltyCredit struct {
	UserID    string    `json:"userId"`
	OrderID   string    `json:"orderId"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
}

type LoyaltyRepository interface {
	GetPoints(ctx context.Context, userID string) (int64, error)
	// CreditPoints records points for an order and adds them to the user's
	// balance, opening the balance when the user has none yet. It returns
	// false, and changes nothing, when the order was already credited.
	CreditPoints(ctx context.Context, userID, orderID string, points int64) (bool, error)
	GetCredits(ctx context.Context, userID string) ([]LoyaltyCredit, error)
}

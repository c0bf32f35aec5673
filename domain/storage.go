// Package domain defines the entities and storage contracts of storecore.
//
// The storage interfaces are the Datastore boundary: the credential and
// checkout flows are written against them, and the persistence package
// provides the GORM-backed implementation. Anything beyond these contracts
// (catalog CRUD, reviews, rendering) lives outside the core.
//
// # Interfaces
//
//   - Storage: Composite interface combining all storage operations
//   - UserStorage: Account lookup and password updates
//   - CodeStorage: One-time login code records (issuance, consumption, latest-per-email)
//   - ResetTokenStorage: Password-reset token lifecycle
//   - CatalogStorage: Live product price reads
//   - CartStorage: Cart line reads and clearing
//   - OrderStorage: Atomic order + line persistence and history
//   - DebtStorage: Compensating-action log for owed cart clears
package domain

import (
	"context"

	"github.com/oakmart/storecore/audit"
)

// Storage defines the interface for all persistence operations.
type Storage interface {
	UserStorage
	CodeStorage
	ResetTokenStorage
	CatalogStorage
	CartStorage
	OrderStorage
	DebtStorage
	SessionStorage
	audit.Store
}

type UserStorage interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

type CodeStorage interface {
	SaveCode(ctx context.Context, c *OneTimeCode) error
	// LatestCode returns the most recent issuance for the email, or nil
	// when none exists.
	LatestCode(ctx context.Context, email string) (*OneTimeCode, error)
	// ConsumeCode marks the record consumed. It fails if the record is
	// already consumed, which is what makes a code single-use.
	ConsumeCode(ctx context.Context, id string) error
	GetCode(ctx context.Context, id string) (*OneTimeCode, error)
}

type ResetTokenStorage interface {
	SaveResetToken(ctx context.Context, t *PasswordResetToken) error
	GetResetToken(ctx context.Context, token string) (*PasswordResetToken, error)
	DeleteResetToken(ctx context.Context, token string) error
	// DeleteResetTokensForEmail enforces the single-active-token rule
	// before a new issuance.
	DeleteResetTokensForEmail(ctx context.Context, email string) error
}

type CatalogStorage interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

type CartStorage interface {
	ListCartLines(ctx context.Context, userID string) ([]CartLine, error)
	ClearCart(ctx context.Context, userID string) error
}

type OrderStorage interface {
	// CreateOrderWithLines persists the order and all of its lines in one
	// atomic write. Either everything is visible afterwards or nothing is.
	CreateOrderWithLines(ctx context.Context, o *Order, lines []OrderLine) error
	GetOrderByPaymentRef(ctx context.Context, userID, paymentRef string) (*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, userID string) ([]Order, error)
	ListOrderLines(ctx context.Context, orderID string) ([]OrderLine, error)
}

type DebtStorage interface {
	SaveCartClearDebt(ctx context.Context, d *CartClearDebt) error
	ListCartClearDebts(ctx context.Context) ([]CartClearDebt, error)
	DeleteCartClearDebt(ctx context.Context, orderID string) error
}

type SessionStorage interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}

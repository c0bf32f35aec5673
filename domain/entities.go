package domain

import "time"

// User is the account record an email identity resolves to.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OneTimeCode records a login-code issuance for an email identity.
// It doubles as the rate-limit marker: the most recent record's IssuedAt
// drives the resend cool-down. Consumed flips exactly once, on successful
// verification.
type OneTimeCode struct {
	ID        string
	Email     string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// PasswordResetToken binds a single-use reset secret to an email identity.
// At most one unexpired token exists per email; issuing a new one deletes
// the previous one first.
type PasswordResetToken struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// Product is the catalog boundary as seen by checkout: the only field the
// core reads is the live unit price.
type Product struct {
	ID        string
	Name      string
	UnitPrice float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine carries no price. The unit price is re-read from the catalog at
// commit time.
type CartLine struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	Size      string
	Color     string
	Material  string
	CreatedAt time.Time
}

type ShippingInfo struct {
	Name       string
	Address    string
	City       string
	PostalCode string
}

const OrderStatusProcessing = "Processing"

// Order is created exactly once per successful checkout. The pair
// (UserID, PaymentRef) is unique, so replaying a gateway callback resolves
// to the already-committed order instead of a duplicate.
type Order struct {
	ID            string
	UserID        string
	Total         float64
	Status        string
	Shipping      ShippingInfo
	PaymentMethod string
	OrderRef      string
	PaymentRef    string
	CreatedAt     time.Time
}

// OrderLine captures the unit price at commit time, decoupled from the live
// catalog.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice float64
	Size      string
	Color     string
	Material  string
}

// CartClearDebt marks a cart clear still owed after a committed order. The
// order is authoritative once written; a straggling cart is reconciled by a
// later sweep, never by rolling the order back.
type CartClearDebt struct {
	OrderID   string
	UserID    string
	CreatedAt time.Time
}

// Session is a server-side authenticated session row, used by the
// database session strategy.
type Session struct {
	ID        string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Package audit provides structured security-event records for storecore.
//
// Events cover the credential lifecycle (code issuance, verification,
// rate-limit denials, password resets) and the checkout pipeline (order
// commits, owed cart clears). Persistence is behind the Store interface;
// the GORM repository implements it.
package audit

import (
	"context"
	"time"
)

// Event represents a structured security event record.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`       // e.g., "auth.code.issued"
	ActorID   string    `json:"actor_id"`   // The identity performing the action
	SubjectID string    `json:"subject_id"` // The affected identity or resource
	Status    string    `json:"status"`     // "success", "failure", "blocked"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the interface for persisting audit events.
type Store interface {
	SaveEvent(ctx context.Context, event *Event) error
}

const (
	EventLoginSuccess  = "auth.login.success"
	EventLoginFailure  = "auth.login.failure"
	EventCodeIssued    = "auth.code.issued"
	EventCodeResent    = "auth.code.resent"
	EventCodeVerified  = "auth.code.verified"
	EventCodeRejected  = "auth.code.rejected"
	EventRateLimited   = "security.rate_limited"
	EventResetIssued   = "auth.reset.issued"
	EventPasswordReset = "auth.password.reset"
	EventLogout        = "auth.logout"

	EventOrderCommitted  = "order.committed"
	EventOrderDuplicate  = "order.duplicate_payment"
	EventCommitFailed    = "order.commit_failed"
	EventCartClearOwed   = "order.cart_clear_owed"
	EventCartDebtSettled = "order.cart_debt_settled"
)

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType, subjectID, status string) *Event {
	return &Event{
		Type:      eventType,
		SubjectID: subjectID,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

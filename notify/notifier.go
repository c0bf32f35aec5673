// Package notify delivers one-time codes and reset links to an email
// address. Delivery is fire-and-forget from the core's perspective: a
// failed send is logged by the caller, never fatal to issuance.
package notify

import "context"

// Template names understood by all notifiers.
const (
	TemplateLoginCode = "login_code"
	TemplateResetLink = "reset_link"
)

// Notifier delivers a templated message to an email address.
type Notifier interface {
	Send(ctx context.Context, to, template string, data map[string]string) error
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/oakmart/storecore/audit"
	"github.com/oakmart/storecore/domain"
	"github.com/oakmart/storecore/notify"
	"go.uber.org/zap"
)

// Expiries for the credential lifecycle. An initially issued code lives two
// minutes; an explicitly resent one lives five. The asymmetry is inherited
// behavior and kept on purpose.
const (
	InitialCodeTTL = 2 * time.Minute
	ResendCodeTTL  = 5 * time.Minute
	ResetTokenTTL  = 1 * time.Hour
)

// CredentialStore is the slice of the Datastore the credential lifecycle
// needs: user lookup, code records, reset tokens.
type CredentialStore interface {
	domain.UserStorage
	domain.CodeStorage
	domain.ResetTokenStorage
}

// Issuer creates time-bounded single-use secrets bound to an email
// identity: one-time login codes and password-reset tokens. Delivery goes
// through the Notifier and is fire-and-forget; a failed send is logged and
// issuance still succeeds, so deliverability is never leaked to the caller.
type Issuer struct {
	store      CredentialStore
	limiter    RateLimiter
	notifier   notify.Notifier
	auditStore audit.Store
	baseURL    string
	log        *zap.Logger
	now        func() time.Time
}

func NewIssuer(store CredentialStore, limiter RateLimiter, notifier notify.Notifier, baseURL string, log *zap.Logger) *Issuer {
	auditStore, _ := store.(audit.Store)
	return &Issuer{
		store:      store,
		limiter:    limiter,
		notifier:   notifier,
		auditStore: auditStore,
		baseURL:    baseURL,
		log:        log,
		now:        time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (i *Issuer) SetClock(now func() time.Time) { i.now = now }

// IssueLoginCode generates a fresh six-digit code for the email, records
// the issuance, attempts delivery, and returns the opaque login token the
// caller holds until verification.
func (i *Issuer) IssueLoginCode(ctx context.Context, email string) (string, error) {
	return i.issue(ctx, email, InitialCodeTTL, audit.EventCodeIssued)
}

// ResendLoginCode consults the rate limiter before behaving as a fresh
// issuance with the longer resend expiry. Inside the cool-down window it
// returns a *RateLimitError carrying the remaining wait.
func (i *Issuer) ResendLoginCode(ctx context.Context, email string) (string, error) {
	allowed, retryAfter, err := i.limiter.MayIssue(ctx, email)
	if err != nil {
		return "", fmt.Errorf("issuer: rate limit check failed: %w", err)
	}
	if !allowed {
		i.record(ctx, audit.NewEvent(audit.EventRateLimited, email, "blocked"))
		return "", &RateLimitError{RetryAfter: retryAfter}
	}
	return i.issue(ctx, email, ResendCodeTTL, audit.EventCodeResent)
}

func (i *Issuer) issue(ctx context.Context, email string, ttl time.Duration, eventType string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("issuer: code generation failed: %w", err)
	}

	now := i.now()
	record := &domain.OneTimeCode{
		ID:        uuid.New().String(),
		Email:     email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := i.store.SaveCode(ctx, record); err != nil {
		return "", fmt.Errorf("issuer: save code failed: %w", err)
	}
	if err := i.limiter.MarkIssued(ctx, email); err != nil {
		return "", fmt.Errorf("issuer: mark issued failed: %w", err)
	}

	if err := i.notifier.Send(ctx, email, notify.TemplateLoginCode, map[string]string{"code": code}); err != nil {
		i.log.Warn("login code delivery failed",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	i.record(ctx, audit.NewEvent(eventType, email, "success"))

	return EncodeLoginToken(LoginToken{
		Email:     email,
		Code:      code,
		ExpiresAt: record.ExpiresAt,
	}), nil
}

// IssueResetToken creates a password-reset token for the email and mails a
// reset link. A previously issued token for the same email is deleted
// first, so at most one is active. Unknown emails do nothing observable:
// the caller-visible result is identical whether or not the account
// exists.
func (i *Issuer) IssueResetToken(ctx context.Context, email string) error {
	if _, err := i.store.GetUserByEmail(ctx, email); err != nil {
		i.log.Debug("reset requested for unknown email", zap.String("email", email))
		return nil
	}

	if err := i.store.DeleteResetTokensForEmail(ctx, email); err != nil {
		return fmt.Errorf("issuer: delete prior reset tokens failed: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("issuer: token generation failed: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := i.store.SaveResetToken(ctx, &domain.PasswordResetToken{
		Token:     token,
		Email:     email,
		ExpiresAt: i.now().Add(ResetTokenTTL),
	}); err != nil {
		return fmt.Errorf("issuer: save reset token failed: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", i.baseURL, token)
	if err := i.notifier.Send(ctx, email, notify.TemplateResetLink, map[string]string{"link": link}); err != nil {
		i.log.Warn("reset link delivery failed",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	i.record(ctx, audit.NewEvent(audit.EventResetIssued, email, "success"))
	return nil
}

func (i *Issuer) record(ctx context.Context, e *audit.Event) {
	if i.auditStore == nil {
		return
	}
	e.ID = uuid.New().String()
	if err := i.auditStore.SaveEvent(ctx, e); err != nil {
		i.log.Warn("audit write failed", zap.String("type", e.Type), zap.Error(err))
	}
}

// generateCode draws a six-digit code uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oakmart/storecore/audit"
	"go.uber.org/zap"
)

// Verifier validates presented secrets against the issued ones, enforcing
// expiry and single use. Consumption state lives server-side in the code
// store, so replaying a login token after a successful verification fails
// even though the token itself still decodes.
type Verifier struct {
	store      CredentialStore
	auditStore audit.Store
	log        *zap.Logger
	now        func() time.Time
}

func NewVerifier(store CredentialStore, log *zap.Logger) *Verifier {
	auditStore, _ := store.(audit.Store)
	return &Verifier{
		store:      store,
		auditStore: auditStore,
		log:        log,
		now:        time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (v *Verifier) SetClock(now func() time.Time) { v.now = now }

// VerifyLoginCode checks the submitted code against the opaque login
// token. The expiry check precedes the equality check, so an expired but
// correct code is still rejected. On success the issuance record is
// consumed and the resolved user's ID is returned.
func (v *Verifier) VerifyLoginCode(ctx context.Context, token, submitted string) (string, error) {
	decoded, err := DecodeLoginToken(token)
	if err != nil {
		return "", ErrNoSession
	}

	if v.now().After(decoded.ExpiresAt) {
		v.record(ctx, audit.NewEvent(audit.EventCodeRejected, decoded.Email, "failure"))
		return "", ErrExpiredCode
	}

	if submitted != decoded.Code {
		v.record(ctx, audit.NewEvent(audit.EventCodeRejected, decoded.Email, "failure"))
		return "", ErrCodeMismatch
	}

	// Single use: the issuance record must still be unconsumed. A missing
	// or already-consumed record means this token was spent.
	latest, err := v.store.LatestCode(ctx, decoded.Email)
	if err != nil {
		return "", fmt.Errorf("verifier: code lookup failed: %w", err)
	}
	if latest == nil || latest.Code != decoded.Code || latest.Consumed {
		return "", ErrNoSession
	}

	// The identity may have been removed between issuance and
	// verification; a matching code alone is not enough.
	user, err := v.store.GetUserByEmail(ctx, decoded.Email)
	if err != nil {
		return "", ErrNoSession
	}

	if err := v.store.ConsumeCode(ctx, latest.ID); err != nil {
		return "", fmt.Errorf("verifier: consume code failed: %w", err)
	}

	v.record(ctx, audit.NewEvent(audit.EventCodeVerified, user.ID, "success"))
	return user.ID, nil
}

// VerifyResetToken resolves a reset token to the email it is bound to. An
// expired token is deleted before the failure is reported, so it cannot
// resurrect.
func (v *Verifier) VerifyResetToken(ctx context.Context, token string) (string, error) {
	t, err := v.store.GetResetToken(ctx, token)
	if err != nil || t == nil {
		return "", ErrTokenNotFound
	}

	if v.now().After(t.ExpiresAt) {
		if err := v.store.DeleteResetToken(ctx, token); err != nil {
			v.log.Warn("expired reset token cleanup failed", zap.Error(err))
		}
		return "", ErrExpiredToken
	}

	return t.Email, nil
}

// ConsumeResetToken deletes the token. Callers treat password mutation and
// consumption as a unit; the token is single-purpose, so it is consumed
// regardless of the mutation outcome.
func (v *Verifier) ConsumeResetToken(ctx context.Context, token string) error {
	return v.store.DeleteResetToken(ctx, token)
}

func (v *Verifier) record(ctx context.Context, e *audit.Event) {
	if v.auditStore == nil {
		return
	}
	e.ID = uuid.New().String()
	if err := v.auditStore.SaveEvent(ctx, e); err != nil {
		v.log.Warn("audit write failed", zap.String("type", e.Type), zap.Error(err))
	}
}

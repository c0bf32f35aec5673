package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/oakmart/storecore/domain"
	"go.uber.org/zap"
)

type mockStore struct {
	users  map[string]*domain.User
	codes  map[string]*domain.OneTimeCode
	resets map[string]*domain.PasswordResetToken
}

func newMockStore() *mockStore {
	return &mockStore{
		users:  make(map[string]*domain.User),
		codes:  make(map[string]*domain.OneTimeCode),
		resets: make(map[string]*domain.PasswordResetToken),
	}
}

func (m *mockStore) CreateUser(ctx context.Context, u *domain.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockStore) UpdateUserPassword(ctx context.Context, id, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockStore) SaveCode(ctx context.Context, c *domain.OneTimeCode) error {
	cp := *c
	m.codes[c.ID] = &cp
	return nil
}

func (m *mockStore) LatestCode(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	var all []*domain.OneTimeCode
	for _, c := range m.codes {
		if c.Email == email {
			all = append(all, c)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	sort.Slice(all, func(i, j int) bool { return all[i].IssuedAt.After(all[j].IssuedAt) })
	cp := *all[0]
	return &cp, nil
}

func (m *mockStore) GetCode(ctx context.Context, id string) (*domain.OneTimeCode, error) {
	c, ok := m.codes[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) ConsumeCode(ctx context.Context, id string) error {
	c, ok := m.codes[id]
	if !ok || c.Consumed {
		return fmt.Errorf("already consumed or missing")
	}
	c.Consumed = true
	return nil
}

func (m *mockStore) SaveResetToken(ctx context.Context, t *domain.PasswordResetToken) error {
	m.resets[t.Token] = t
	return nil
}

func (m *mockStore) GetResetToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	t, ok := m.resets[token]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}

func (m *mockStore) DeleteResetToken(ctx context.Context, token string) error {
	delete(m.resets, token)
	return nil
}

func (m *mockStore) DeleteResetTokensForEmail(ctx context.Context, email string) error {
	for k, t := range m.resets {
		if t.Email == email {
			delete(m.resets, k)
		}
	}
	return nil
}

type mockNotifier struct {
	sent []string
	fail bool
}

func (n *mockNotifier) Send(ctx context.Context, to, template string, data map[string]string) error {
	if n.fail {
		return fmt.Errorf("delivery down")
	}
	n.sent = append(n.sent, template)
	return nil
}

func TestIssueLoginCode(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	issuer := NewIssuer(store, NewStoreRateLimiter(store), notifier, "http://shop.test", zap.NewNop())

	start := time.Now()
	issuer.SetClock(func() time.Time { return start })

	token, err := issuer.IssueLoginCode(context.Background(), "user@x.com")
	if err != nil {
		t.Fatalf("failed to issue code: %v", err)
	}

	decoded, err := DecodeLoginToken(token)
	if err != nil {
		t.Fatalf("issued token does not decode: %v", err)
	}
	if decoded.Email != "user@x.com" {
		t.Errorf("expected email user@x.com, got %q", decoded.Email)
	}
	if !regexp.MustCompile(`^[1-9]\d{5}$`).MatchString(decoded.Code) {
		t.Errorf("expected a six digit code, got %q", decoded.Code)
	}
	if want := start.Add(InitialCodeTTL).UnixMilli(); decoded.ExpiresAt.UnixMilli() != want {
		t.Errorf("expected initial expiry %d, got %d", want, decoded.ExpiresAt.UnixMilli())
	}

	record, err := store.LatestCode(context.Background(), "user@x.com")
	if err != nil || record == nil {
		t.Fatalf("expected an issuance record, got %v, %v", record, err)
	}
	if record.Consumed {
		t.Error("expected issuance record to be unconsumed")
	}
	if record.Code != decoded.Code {
		t.Errorf("stored code %q does not match token code %q", record.Code, decoded.Code)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected one delivery, got %d", len(notifier.sent))
	}
}

func TestIssueLoginCodeDeliveryFailureIsSwallowed(t *testing.T) {
	store := newMockStore()
	issuer := NewIssuer(store, NewStoreRateLimiter(store), &mockNotifier{fail: true}, "http://shop.test", zap.NewNop())

	if _, err := issuer.IssueLoginCode(context.Background(), "user@x.com"); err != nil {
		t.Fatalf("issuance must succeed despite delivery failure, got %v", err)
	}
	record, _ := store.LatestCode(context.Background(), "user@x.com")
	if record == nil {
		t.Fatal("expected issuance record despite delivery failure")
	}
}

func TestResendRateLimited(t *testing.T) {
	store := newMockStore()
	limiter := NewStoreRateLimiter(store)
	issuer := NewIssuer(store, limiter, &mockNotifier{}, "http://shop.test", zap.NewNop())

	start := time.Now()
	issuer.SetClock(func() time.Time { return start })
	limiter.SetClock(func() time.Time { return start })

	if _, err := issuer.IssueLoginCode(context.Background(), "user@x.com"); err != nil {
		t.Fatalf("failed to issue: %v", err)
	}

	// Resend at t=10s must be refused with 20 seconds remaining.
	at10 := start.Add(10 * time.Second)
	limiter.SetClock(func() time.Time { return at10 })

	_, err := issuer.ResendLoginCode(context.Background(), "user@x.com")
	rle, ok := AsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.RetryAfterSeconds() != 20 {
		t.Errorf("expected retry after 20s, got %d", rle.RetryAfterSeconds())
	}

	// After the window the resend goes through with the longer expiry.
	at31 := start.Add(31 * time.Second)
	limiter.SetClock(func() time.Time { return at31 })
	issuer.SetClock(func() time.Time { return at31 })

	token, err := issuer.ResendLoginCode(context.Background(), "user@x.com")
	if err != nil {
		t.Fatalf("expected resend to succeed, got %v", err)
	}
	decoded, _ := DecodeLoginToken(token)
	if want := at31.Add(ResendCodeTTL).UnixMilli(); decoded.ExpiresAt.UnixMilli() != want {
		t.Errorf("expected resend expiry %d, got %d", want, decoded.ExpiresAt.UnixMilli())
	}
}

func TestIssueResetToken(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	issuer := NewIssuer(store, NewStoreRateLimiter(store), notifier, "http://shop.test", zap.NewNop())
	store.CreateUser(context.Background(), &domain.User{ID: "u1", Email: "user@x.com"})

	if err := issuer.IssueResetToken(context.Background(), "user@x.com"); err != nil {
		t.Fatalf("failed to issue reset token: %v", err)
	}

	if len(store.resets) != 1 {
		t.Fatalf("expected one reset token, got %d", len(store.resets))
	}
	var first string
	for token := range store.resets {
		first = token
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(first) {
		t.Errorf("expected 64 char lowercase hex token, got %q", first)
	}

	// A second issuance replaces the first.
	if err := issuer.IssueResetToken(context.Background(), "user@x.com"); err != nil {
		t.Fatalf("failed to reissue: %v", err)
	}
	if len(store.resets) != 1 {
		t.Fatalf("expected single active token, got %d", len(store.resets))
	}
	if _, ok := store.resets[first]; ok {
		t.Error("expected first token to be invalidated by reissue")
	}
}

func TestIssueResetTokenUnknownEmail(t *testing.T) {
	store := newMockStore()
	notifier := &mockNotifier{}
	issuer := NewIssuer(store, NewStoreRateLimiter(store), notifier, "http://shop.test", zap.NewNop())

	if err := issuer.IssueResetToken(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("unknown email must not surface an error, got %v", err)
	}
	if len(store.resets) != 0 {
		t.Error("expected no token for unknown email")
	}
	if len(notifier.sent) != 0 {
		t.Error("expected no delivery for unknown email")
	}
}

func TestRateLimiterWindow(t *testing.T) {
	store := newMockStore()
	limiter := NewStoreRateLimiter(store)

	start := time.Now()
	limiter.SetClock(func() time.Time { return start })

	allowed, _, err := limiter.MayIssue(context.Background(), "user@x.com")
	if err != nil || !allowed {
		t.Fatalf("expected first issuance to be allowed, got %v, %v", allowed, err)
	}

	store.SaveCode(context.Background(), &domain.OneTimeCode{
		ID: "c1", Email: "user@x.com", Code: "111111", IssuedAt: start, ExpiresAt: start.Add(InitialCodeTTL),
	})

	allowed, retryAfter, _ := limiter.MayIssue(context.Background(), "user@x.com")
	if allowed {
		t.Error("expected cool-down to refuse a second issuance")
	}
	if retryAfter != CooldownWindow {
		t.Errorf("expected full window remaining, got %v", retryAfter)
	}

	limiter.SetClock(func() time.Time { return start.Add(CooldownWindow) })
	allowed, _, _ = limiter.MayIssue(context.Background(), "user@x.com")
	if !allowed {
		t.Error("expected issuance to be allowed once the window elapsed")
	}
}

func TestRateLimitErrorHelpers(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &RateLimitError{RetryAfter: 1500 * time.Millisecond})
	if !IsRateLimitError(err) {
		t.Error("expected IsRateLimitError to see through wrapping")
	}
	rle, ok := AsRateLimitError(err)
	if !ok {
		t.Fatal("expected AsRateLimitError to unwrap")
	}
	if rle.RetryAfterSeconds() != 2 {
		t.Errorf("expected wait rounded up to 2s, got %d", rle.RetryAfterSeconds())
	}
	if IsRateLimitError(errors.New("plain")) {
		t.Error("plain errors must not match")
	}
}

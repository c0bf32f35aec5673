package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LoginToken is the opaque client-held state between code issuance and
// verification. The wire format is `email|code|expiresAtEpochMillis` and
// must round-trip the three fields verbatim. The token is capability
// bearing: it is never logged and never displayed back to the identity
// owner.
type LoginToken struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// EncodeLoginToken renders the token in its wire format.
func EncodeLoginToken(t LoginToken) string {
	return fmt.Sprintf("%s|%s|%d", t.Email, t.Code, t.ExpiresAt.UnixMilli())
}

// DecodeLoginToken parses the wire format. Anything with fewer than three
// delimited fields, or a non-numeric expiry, reports ErrNoSession.
func DecodeLoginToken(s string) (LoginToken, error) {
	parts := strings.SplitN(s, "|", 3)
	if len(parts) < 3 {
		return LoginToken{}, ErrNoSession
	}
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return LoginToken{}, ErrNoSession
	}
	return LoginToken{
		Email:     parts[0],
		Code:      parts[1],
		ExpiresAt: time.UnixMilli(millis),
	}, nil
}

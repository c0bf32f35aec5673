// Package payment verifies gateway callback signatures. The gateway signs
// its transaction identifiers with a shared HMAC secret; anything the
// client could have forged fails verification. A mismatch is an expected,
// non-exceptional outcome and is never retried here.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier recomputes the gateway signature over the provider-supplied
// transaction identifiers. The secret is deployment configuration shared
// with the gateway and never transmitted to the caller.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether signature equals the hex digest of
// HMAC-SHA256(secret, orderRef + "|" + paymentRef). The comparison is
// constant time.
func (v *Verifier) Verify(orderRef, paymentRef, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

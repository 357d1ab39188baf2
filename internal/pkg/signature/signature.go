package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// HeaderName carries the hex HMAC-SHA256 of the raw request body.
const HeaderName = "X-Hook-Signature"

var (
	ErrMissingSignature = errors.New("signature header is missing")
	ErrInvalidSignature = errors.New("signature does not match payload")
)

// Verifier signs and checks webhook payloads with a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier. An empty secret disables verification.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret))}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Sign returns the lowercase hex signature of body.
func (v *Verifier) Sign(body []byte) string {
	return hex.EncodeToString(v.mac(body))
}

// Verify compares header against the signature of body in constant time.
// Hex digits are accepted in either case.
func (v *Verifier) Verify(body []byte, header string) error {
	if !v.Enabled() {
		return nil
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	provided, err := hex.DecodeString(header)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(provided, v.mac(body)) {
		return ErrInvalidSignature
	}
	return nil
}

func (v *Verifier) mac(body []byte) []byte {
	m := hmac.New(sha256.New, v.secret)
	m.Write(body)
	return m.Sum(nil)
}

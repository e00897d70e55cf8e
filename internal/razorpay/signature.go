package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the request header carrying the hex-encoded
// HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Signature"

// Signature computes the hex-encoded HMAC-SHA256 of body under secret.
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature against the expected one
// computed over the exact raw body bytes. The comparison is an exact
// string compare, matching upstream behavior; hmac.Equal would close
// the timing side channel if that behavior is ever allowed to change.
func VerifySignature(secret string, body []byte, signature string) bool {
	return signature == Signature(secret, body)
}

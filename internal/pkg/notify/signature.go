package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign computes the hex-encoded HMAC-SHA256 signature over
// "<timestamp>.<payload>" with the webhook secret. Receivers recompute the
// same digest to authenticate deliveries.
func Sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the expected digest for
// the given secret, timestamp and payload. Comparison is constant time.
func VerifySignature(secret string, timestamp int64, payload []byte, signature string) bool {
	expected := Sign(secret, timestamp, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DailySalt derives the day-scoped salt: an HMAC of the UTC calendar date
// keyed with the secret base value. The same secret and date always yield
// the same salt; a new date yields a new one, which bounds how long a
// hashed identity stays correlatable.
func DailySalt(secret string, now time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(now.UTC().Format("2006-01-02")))
	return hex.EncodeToString(mac.Sum(nil))
}

// IdentityHash hashes a requester's network identity with the daily salt.
// The clock is an explicit input so behavior is testable without the wall
// clock.
func IdentityHash(secret, identity string, now time.Time) string {
	sum := sha256.Sum256([]byte(identity + DailySalt(secret, now)))
	return hex.EncodeToString(sum[:])
}

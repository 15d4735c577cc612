package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ActionTimeLayout is how a submission's creation time enters the action token MAC.
const ActionTimeLayout = "2006-01-02 15:04:05"

// ActionToken returns hex(HMAC-SHA256(secret, id || createdAt)). The token has no
// expiry and no store; it is valid for as long as the record and secret exist.
func ActionToken(secret, id string, createdAt time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id + createdAt.UTC().Format(ActionTimeLayout)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyActionToken recomputes the token and compares in constant time.
func VerifyActionToken(secret, id string, createdAt time.Time, token string) bool {
	if token == "" {
		return false
	}
	want := ActionToken(secret, id, createdAt)
	return hmac.Equal([]byte(want), []byte(token))
}

package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionTokenMatchesHMACOfIDAndDate(t *testing.T) {
	created := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte("10" + "2024-03-09 14:05:07"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, ActionToken("s3cret", "10", created))
}

func TestVerifyActionToken(t *testing.T) {
	created := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	tok := ActionToken("s3cret", "10", created)

	require.True(t, VerifyActionToken("s3cret", "10", created, tok))
	require.False(t, VerifyActionToken("s3cret", "11", created, tok))
	require.False(t, VerifyActionToken("s3cret", "10", created.Add(time.Second), tok))
	require.False(t, VerifyActionToken("other", "10", created, tok))
	require.False(t, VerifyActionToken("s3cret", "10", created, ""))
	require.False(t, VerifyActionToken("s3cret", "10", created, "deadbeef"))
}

func TestActionTokenIgnoresZone(t *testing.T) {
	utc := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	local := utc.In(time.FixedZone("X", 3*3600))
	assert.Equal(t, ActionToken("k", "1", utc), ActionToken("k", "1", local))
}

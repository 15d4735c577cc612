package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Nonce purposes. A nonce minted for one purpose never verifies for another.
const (
	PurposeSubmit     = "submit_guest_post"
	PurposePostAction = "post_action"
)

var ErrInvalidNonce = errors.New("invalid nonce")

type nonceClaims struct {
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}

// NonceIssuer mints and checks purpose-bound anti-forgery nonces.
type NonceIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewNonceIssuer(secret string, ttl time.Duration) *NonceIssuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &NonceIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a nonce for purpose, bound to subject ("" for anonymous visitors).
func (n *NonceIssuer) Generate(purpose, subject string) (string, error) {
	now := n.now()
	claims := nonceClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(n.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
}

// Verify reports ErrInvalidNonce unless raw was minted for purpose and subject and has not expired.
func (n *NonceIssuer) Verify(raw, purpose, subject string) error {
	if raw == "" {
		return ErrInvalidNonce
	}
	var claims nonceClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return n.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(n.now))
	if err != nil {
		return ErrInvalidNonce
	}
	if claims.Purpose != purpose || claims.Subject != subject {
		return ErrInvalidNonce
	}
	return nil
}

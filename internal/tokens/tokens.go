package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/guestpost/guestpost/backend/go-services/internal/config"
	"github.com/guestpost/guestpost/backend/go-services/internal/models"
	"github.com/guestpost/guestpost/backend/go-services/pkg/middleware"
)

// GenerateAccessToken creates a signed JWT access token for the administrator
func GenerateAccessToken(cfg *config.Config, u *models.User, ttl time.Duration) (string, error) {
	roles := make([]interface{}, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r)
	}
	claims := jwt.MapClaims{
		"sub":   u.Sub,
		"name":  u.Name,
		"email": u.Email,
		"roles": roles,
		"typ":   "access",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// accessToken satisfies middleware.Token for a parsed access JWT.
type accessToken struct {
	claims jwt.MapClaims
}

func (t *accessToken) Claims(v interface{}) error {
	mm, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims type %T", v)
	}
	*mm = map[string]interface{}(t.claims)
	return nil
}

// AccessVerifier validates access tokens issued by GenerateAccessToken.
type AccessVerifier struct {
	secret []byte
}

func NewAccessVerifier(secret string) *AccessVerifier {
	return &AccessVerifier{secret: []byte(secret)}
}

func (v *AccessVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ != "access" {
		return nil, errors.New("not an access token")
	}
	return &accessToken{claims: claims}, nil
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guestpost/guestpost/backend/go-services/internal/models"
)

// AccessCookie carries the access token for browser requests such as the
// dashboard's moderation links.
const AccessCookie = "guestpost_access"

const (
	claimsKey    = "claims"
	principalKey = "principal"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Revocations reports access tokens revoked at logout.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// BearerToken returns the token from "Authorization: Bearer" or the access cookie.
func BearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if tok, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if v, err := c.Cookie(AccessCookie); err == nil {
		return v
	}
	return ""
}

func authenticate(c *gin.Context, ver Verifier, rev Revocations) (int, string) {
	raw := BearerToken(c)
	if raw == "" {
		if c.GetHeader("Authorization") != "" {
			return http.StatusUnauthorized, "invalid Authorization header"
		}
		return http.StatusUnauthorized, "missing Authorization header"
	}
	if rev != nil {
		revoked, err := rev.IsRevoked(c.Request.Context(), raw)
		if err != nil {
			return http.StatusInternalServerError, "token revocation check failed"
		}
		if revoked {
			return http.StatusUnauthorized, "token revoked"
		}
	}
	tok, err := ver.Verify(c.Request.Context(), raw)
	if err != nil {
		return http.StatusUnauthorized, "invalid token"
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return http.StatusUnauthorized, "failed to parse claims"
	}
	c.Set(claimsKey, claims)
	if p := models.PrincipalFromClaims(claims); p != nil {
		c.Set(principalKey, p)
	}
	return 0, ""
}

// AuthMiddleware rejects requests without a valid, unrevoked access token.
func AuthMiddleware(ver Verifier, rev Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status, msg := authenticate(c, ver, rev); status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the principal when a token is present and lets
// anonymous requests through.
func OptionalAuth(ver Verifier, rev Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		if BearerToken(c) != "" {
			_, _ = authenticate(c, ver, rev)
		}
		c.Next()
	}
}

// RequireCapability must run after AuthMiddleware.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentPrincipal(c).Can(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the authenticated principal or nil.
func CurrentPrincipal(c *gin.Context) *models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}

package users

import (
	"context"

	"github.com/guestpost/guestpost/backend/go-services/internal/models"
)

// Service encapsulates administrator lookup and claim mapping
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates an administrator from OIDC claims.
// Returns (nil, nil) when the claims carry no subject.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	u := &models.User{
		Sub:   sub,
		Email: email,
		Name:  name,
		Roles: RolesFromClaims(claims),
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// RolesFromClaims reads a flat "roles" claim or Keycloak's realm_access.roles.
func RolesFromClaims(claims map[string]interface{}) []string {
	if rs := stringSlice(claims["roles"]); len(rs) > 0 {
		return rs
	}
	if ra, ok := claims["realm_access"].(map[string]interface{}); ok {
		return stringSlice(ra["roles"])
	}
	return nil
}

func stringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

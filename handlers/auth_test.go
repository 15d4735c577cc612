package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/guestpost/guestpost/backend/go-services/internal/config"
	"github.com/guestpost/guestpost/backend/go-services/internal/models"
	"github.com/guestpost/guestpost/backend/go-services/internal/oidc"
	"github.com/guestpost/guestpost/backend/go-services/internal/sessions"
	"github.com/guestpost/guestpost/backend/go-services/internal/tokens"
	"github.com/guestpost/guestpost/backend/go-services/internal/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExchanger hands out an unsigned ID token for the configured claims.
type fakeExchanger struct {
	claims   map[string]interface{}
	err      error
	lastCode string
}

func (f *fakeExchanger) idToken() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := json.Marshal(f.claims)
	if err != nil {
		return "", err
	}
	return "hdr." + base64.RawURLEncoding.EncodeToString(b) + ".sig", nil
}

func (f *fakeExchanger) PasswordLogin(ctx context.Context, username, password string) (string, error) {
	return f.idToken()
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	f.lastCode = code
	return f.idToken()
}

type authFixture struct {
	cfg       *config.Config
	engine    *gin.Engine
	exchanger *fakeExchanger
	sessions  *sessions.Service
	blacklist *sessions.Blacklist
}

func newAuthFixture(t *testing.T, roles ...interface{}) *authFixture {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenTTL = 10 * time.Minute

	ex := &fakeExchanger{claims: map[string]interface{}{
		"sub": "kc-1", "email": "ed@example.com", "name": "Ed", "roles": roles,
	}}
	sSvc := sessions.NewService(sessions.NewMemoryRepository(), time.Hour)
	bl := sessions.NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}), "")

	h := NewAuthHandler(cfg, users.NewService(users.NewMemoryUserRepository()), sSvc, ex, oidc.NewInsecureVerifier(), bl)
	g := gin.New()
	h.Register(g)
	return &authFixture{cfg: cfg, engine: g, exchanger: ex, sessions: sSvc, blacklist: bl}
}

func (f *authFixture) post(t *testing.T, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type loginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         *models.User `json:"user"`
}

func (f *authFixture) login(t *testing.T) loginResponse {
	t.Helper()
	w := f.post(t, "/auth/login", map[string]string{"mode": "password", "username": "ed", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLoginPasswordIssuesTokens(t *testing.T) {
	f := newAuthFixture(t, models.RoleEditor)
	resp := f.login(t)

	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, 600, resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "kc-1", resp.User.Sub)

	tok, err := tokens.NewAccessVerifier("test-secret").Verify(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	p := models.PrincipalFromClaims(claims)
	assert.True(t, p.Can(models.CapEditPosts))
	assert.False(t, p.Can(models.CapManageOptions))
}

func TestLoginAuthCode(t *testing.T) {
	f := newAuthFixture(t, models.RoleAdministrator)

	w := f.post(t, "/auth/login", map[string]string{"mode": "auth_code", "code": "abc"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(t, "/auth/login", map[string]string{"mode": "auth_code", "code": "abc", "redirect_uri": "http://localhost/cb"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", f.exchanger.lastCode)
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestLoginRejections(t *testing.T) {
	f := newAuthFixture(t, "subscriber")
	w := f.post(t, "/auth/login", map[string]string{"mode": "password"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.post(t, "/auth/login", map[string]string{"mode": "magic"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.exchanger.err = errors.New("invalid_grant")
	w = f.post(t, "/auth/login", map[string]string{"mode": "password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotates(t *testing.T) {
	f := newAuthFixture(t, models.RoleEditor)
	first := f.login(t)

	w := f.post(t, "/auth/refresh", map[string]string{"refresh_token": first.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var next loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &next))
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEqual(t, first.RefreshToken, next.RefreshToken)

	// the old refresh token is spent
	w = f.post(t, "/auth/refresh", map[string]string{"refresh_token": first.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	f := newAuthFixture(t, models.RoleEditor)
	resp := f.login(t)

	w := f.post(t, "/auth/logout", map[string]string{"refresh_token": resp.RefreshToken}, resp.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	revoked, err := f.blacklist.IsRevoked(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, revoked)

	sess, err := f.sessions.ValidateRefresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestExpiryOf(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "s"
	raw, err := tokens.GenerateAccessToken(cfg, &models.User{Sub: "x"}, time.Hour)
	require.NoError(t, err)

	exp, err := expiryOf(raw)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	_, err = expiryOf("not-a-jwt")
	assert.Error(t, err)
}

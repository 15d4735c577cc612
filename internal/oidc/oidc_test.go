package oidc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeIDToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	b, err := json.Marshal(claims)
	require.NoError(t, err)
	return "hdr." + base64.RawURLEncoding.EncodeToString(b) + ".sig"
}

func TestInsecureVerifierDecodesClaims(t *testing.T) {
	raw := fakeIDToken(t, map[string]interface{}{"sub": "s-1", "email": "a@b.c"})
	claims, err := VerifyClaims(context.Background(), NewInsecureVerifier(), raw)
	require.NoError(t, err)
	require.Equal(t, "s-1", claims["sub"])

	_, err = NewInsecureVerifier().Verify(context.Background(), "nodots")
	require.Error(t, err)
}

func TestKeycloakClient_PasswordAndCode(t *testing.T) {
	idt := fakeIDToken(t, map[string]interface{}{"sub": "s-2"})
	var grants []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realms/blog/protocol/openid-connect/token" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		grants = append(grants, r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "at", "token_type": "Bearer", "expires_in": 300, "id_token": idt,
		})
	}))
	defer srv.Close()

	kc := NewKeycloakClient(srv.URL+"/", "blog", "cid", "csecret")

	got, err := kc.PasswordLogin(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, idt, got)

	got, err = kc.ExchangeCode(context.Background(), "abc", "http://localhost/cb")
	require.NoError(t, err)
	require.Equal(t, idt, got)

	require.Equal(t, []string{"password", "authorization_code"}, grants)
}

func TestKeycloakClient_MissingIDToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer"}`))
	}))
	defer srv.Close()

	_, err := NewKeycloakClient(srv.URL, "blog", "cid", "").PasswordLogin(context.Background(), "a", "b")
	require.Error(t, err)
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chefai/internal/cache"
	"chefai/internal/config"
	"chefai/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredentialsServer(t *testing.T) (*Credentials, http.Handler) {
	t.Helper()
	c := cache.NewInMemoryCache()
	creds := NewCredentials(config.AuthConfig{Secret: "test-secret", SessionDays: 30}, users.NewStorage(c), NewRevocations(c))

	mux := http.NewServeMux()
	creds.Register(mux)
	mux.HandleFunc("GET /whoami", func(w http.ResponseWriter, r *http.Request) {
		u := users.FromContext(r.Context())
		if u == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(u.PrimaryEmail()))
	})
	return creds, creds.WithAuthHTTP(mux)
}

func login(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func whoami(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLoginIssuesSession(t *testing.T) {
	_, h := newCredentialsServer(t)

	rr := login(t, h, `{"email":" Cook@Example.com ","password":"anything"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "cook@example.com", resp.User.Email)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)

	me := whoami(h, resp.Token)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "cook@example.com", me.Body.String())

	// cookie works as well as the header
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookies[0])
	viaCookie := httptest.NewRecorder()
	h.ServeHTTP(viaCookie, req)
	assert.Equal(t, http.StatusOK, viaCookie.Code)
}

func TestLoginRejectsMissingFields(t *testing.T) {
	_, h := newCredentialsServer(t)

	for _, body := range []string{
		`{"email":"","password":"x"}`,
		`{"email":"a@example.com","password":""}`,
		`{"email":"not an email","password":"x"}`,
		`not json`,
	} {
		rr := login(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestLoginRejectsEmailsThatEscapeStorage(t *testing.T) {
	root := t.TempDir()
	c := cache.NewFileCache(filepath.Join(root, "data"))
	creds := NewCredentials(config.AuthConfig{Secret: "test-secret", SessionDays: 30}, users.NewStorage(c), NewRevocations(c))
	mux := http.NewServeMux()
	creds.Register(mux)
	h := creds.WithAuthHTTP(mux)

	for _, email := range []string{
		`"../../../../escaped"@x.y`,
		`"a/b"@example.com`,
		`"..\\x"@example.com`,
		`a..b@example.com`,
	} {
		body, err := json.Marshal(map[string]string{"email": email, "password": "x"})
		require.NoError(t, err)
		rr := login(t, h, string(body))
		assert.Equal(t, http.StatusBadRequest, rr.Code, email)
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected logins must not touch storage")

	// display-name forms are keyed on the bare address
	rr := login(t, h, `{"email":"Cook <Cook@Example.com>","password":"x"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "cook@example.com", resp.User.Email)
}

func TestInvalidTokensAreAnonymous(t *testing.T) {
	creds, h := newCredentialsServer(t)

	assert.Equal(t, http.StatusUnauthorized, whoami(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, whoami(h, "garbage").Code)

	other := NewCredentials(config.AuthConfig{Secret: "other-secret"}, creds.storage, creds.revocations)
	u, err := creds.storage.FindOrCreateByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	forged, _, err := other.Issue(u)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, whoami(h, forged).Code)

	creds.now = func() time.Time { return time.Now().Add(-60 * 24 * time.Hour) }
	expired, _, err := creds.Issue(u)
	require.NoError(t, err)
	creds.now = time.Now
	assert.Equal(t, http.StatusUnauthorized, whoami(h, expired).Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	_, h := newCredentialsServer(t)

	rr := login(t, h, `{"email":"cook@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.JSONEq(t, `{"success":true}`, out.Body.String())

	assert.Equal(t, http.StatusUnauthorized, whoami(h, resp.Token).Code)
}

func TestSessionEndpoint(t *testing.T) {
	_, h := newCredentialsServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	lr := login(t, h, `{"email":"cook@example.com","password":"pw"}`)
	var resp sessionResponse
	require.NoError(t, json.NewDecoder(lr.Body).Decode(&resp))

	req = httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cook@example.com")
}

func TestRevocationsExpire(t *testing.T) {
	ctx := context.Background()
	r := NewRevocations(cache.NewInMemoryCache())
	require.NoError(t, r.Revoke(ctx, "jti", time.Now().Add(time.Hour)))

	revoked, err := r.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)

	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	revoked, err = r.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

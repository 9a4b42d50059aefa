package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patientlink/web/internal/model"
	"github.com/patientlink/web/internal/session"
	"github.com/patientlink/web/internal/sessionstore"
)

type fakeStore struct {
	records map[string]*sessionstore.Record
	err     error
}

func (f *fakeStore) Get(_ context.Context, id string) (*sessionstore.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[id], nil
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func resolveEngine(store SessionSource) (*gin.Engine, *model.RoleContext) {
	gin.SetMode(gin.TestMode)
	resolver := session.NewResolver("https://patientlink.example.com/", time.Minute)
	mw := NewAuthMiddleware(store, resolver, "pl_session")

	captured := &model.RoleContext{}
	r := gin.New()
	r.Use(mw.Resolve())
	r.GET("/probe", func(c *gin.Context) {
		*captured = RoleContextFrom(c)
		c.String(http.StatusOK, TokenFrom(c))
	})
	return r, captured
}

func TestResolveCookieSession(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "auth0|doc1",
		"https://patientlink.example.com/roles": []string{"doctor"},
	})
	store := &fakeStore{records: map[string]*sessionstore.Record{
		"sess-1": {Token: token, Subject: "auth0|doc1"},
	}}
	r, rc := resolveEngine(store)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: "pl_session", Value: "sess-1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, token, w.Body.String())
	assert.True(t, rc.Authenticated)
	assert.True(t, rc.IsDoctor)
}

func TestResolveBearerHeader(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub": "auth0|pat1",
		"https://patientlink.example.com/roles": []string{"patient"},
	})
	r, rc := resolveEngine(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, rc.Authenticated)
	assert.True(t, rc.IsPatient)
}

func TestResolveMissingCredentials(t *testing.T) {
	r, rc := resolveEngine(&fakeStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.False(t, rc.Authenticated)
}

func TestResolveUnknownCookieStaysUnauthenticated(t *testing.T) {
	r, rc := resolveEngine(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: "pl_session", Value: "expired"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, rc.Authenticated)
}

func TestResolveStoreFailureStaysUnauthenticated(t *testing.T) {
	r, rc := resolveEngine(&fakeStore{err: errors.New("redis down")})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: "pl_session", Value: "sess-1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, rc.Authenticated)
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/auth"
	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *auth.TokenIssuer) {
	repo := user.NewStubUserRepository()
	_, err := repo.CreateUser(context.Background(), user.User{Uid: "uid-1", Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour, &utils.SystemClock{})
	deps := &Dependencies{
		Tokens:      tokens,
		UserService: user.NewUserService(repo, tokens, nil, "http://localhost"),
	}

	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(requireUser)
	protected.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		id, err := user.CurrentId(req.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, id)
		w.WriteHeader(http.StatusOK)
	})
	return r, tokens
}

func TestMiddleware_RejectsAnonymousRequests(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_AcceptsBearerToken(t *testing.T) {
	r, tokens := newTestRouter(t)
	token, _, err := tokens.Issue("uid-1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_AcceptsSessionCookie(t *testing.T) {
	r, tokens := newTestRouter(t)
	token, _, err := tokens.Issue("uid-1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.AddCookie(&http.Cookie{Name: user.SessionCookieName, Value: token})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_InvalidTokenIsAnonymous(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_UnknownUserIsAnonymous(t *testing.T) {
	r, tokens := newTestRouter(t)
	token, _, err := tokens.Issue("someone-else")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

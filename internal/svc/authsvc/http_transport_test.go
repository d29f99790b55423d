package authsvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bestiary/internal/domain"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
	"github.com/mkrupp/bestiary/internal/svc/authsvc"
)

func setupTestRouter(t *testing.T) http.Handler {
	t.Helper()

	svc, _, _ := setupTestService(t)

	//nolint:exhaustruct
	return http_.NewRouter(http_.HTTPTransportConfig{CORSOrigins: []string{"*"}},
		[]http_.Middleware{http_.AuthenticatingMiddleware(svc)},
		authsvc.NewHTTPTransport(svc),
	)
}

func doJSON(t *testing.T, h http.Handler, method, path, body, authorization string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHTTPTransport_RegisterLoginMe(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"Secret123!"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t,
		`{"user":{"id":1,"username":"alice","email":"alice@example.com","created_at":"2024-05-01 12:00:00"}}`,
		rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"other@example.com","password":"x"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/register",
		`{"username":"bob","email":"bob","password":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"invalid email"}}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"invalid credentials"}}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/auth/login", `{"password":"nope"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"Secret123!"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login domain.AuthTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, "bearer", login.TokenType)
	assert.Equal(t, int64(3600), login.ExpiresIn)
	assert.Equal(t, "alice", login.User.Username)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", "Bearer "+login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/validate", "", "bearer "+login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sub":1`)

	rec = doJSON(t, router, http.MethodPost, "/auth/validate", "", "Bearer "+login.AccessToken+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPTransport_InvalidJSON(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, setupTestRouter(t), http.MethodPost, "/auth/login", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"invalid JSON body"}}`, rec.Body.String())
}

package apitest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"product-console/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, srv *Server, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAddUserStoresHashedPassword(t *testing.T) {
	srv := New()
	defer srv.Close()

	srv.AddUser("Ada", "ada@example.com", "secret")

	srv.mu.Lock()
	u := srv.users["ada@example.com"]
	srv.mu.Unlock()
	assert.Equal(t, "Ada", u.name)
	assert.NotEmpty(t, u.passwordHash)
	assert.NotContains(t, string(u.passwordHash), "secret")
}

func TestLoginChecksPassword(t *testing.T) {
	srv := New()
	defer srv.Close()
	srv.AddUser("Ada", "ada@example.com", "secret")

	resp := post(t, srv, "/api/user/login", models.LoginRequest{Email: "ada@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var auth models.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	assert.NotEmpty(t, auth.Token)

	resp = post(t, srv, "/api/user/login", models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, srv, "/api/user/login", models.LoginRequest{Email: "nobody@example.com", Password: "secret"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupThenLogin(t *testing.T) {
	srv := New()
	defer srv.Close()

	resp := post(t, srv, "/api/user/signup", models.SignupRequest{Name: "Grace", Email: "grace@example.com", Password: "hopper"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	srv.mu.Lock()
	hash := string(srv.users["grace@example.com"].passwordHash)
	srv.mu.Unlock()
	assert.NotEqual(t, "hopper", hash)

	resp = post(t, srv, "/api/user/signup", models.SignupRequest{Name: "Grace", Email: "grace@example.com", Password: "hopper"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post(t, srv, "/api/user/login", models.LoginRequest{Email: "grace@example.com", Password: "hopper"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

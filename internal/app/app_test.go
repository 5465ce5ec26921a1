package app_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insightpro/internal/app"
	"insightpro/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:  ":0",
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:  "test_jwt_secret",
			TokenTTL:   time.Hour,
			Issuer:     "insightpro",
			BcryptCost: bcrypt.MinCost,
		},
		CORS: config.CORSConfig{AllowOrigins: "*"},
	}
}

func TestHealth(t *testing.T) {
	application := app.New(app.Options{Config: testConfig()})

	resp, err := application.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["time"])
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	reg := prometheus.NewRegistry()
	application := app.New(app.Options{Config: testConfig(), Registry: reg})

	post := func(path, token string, body interface{}) *http.Response {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := application.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := post("/registro", "", map[string]string{"email": "test@example.com", "password": "password123", "company": "Acme"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post("/login", "", map[string]string{"email": "test@example.com", "password": "password123"})
	var login map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post("/products", login["token"], map[string]interface{}{
		"name": "Phone", "company": "Acme", "average_rating": 4.5, "comments": []string{"ok"},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := application.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "insightpro_accounts_registered_total 1")
	assert.Contains(t, string(text), "insightpro_tokens_issued_total 1")
}

func TestCORS(t *testing.T) {
	application := app.New(app.Options{Config: testConfig()})

	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := application.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	application := app.New(app.Options{Config: testConfig()})

	resp, err := application.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["message"])
}

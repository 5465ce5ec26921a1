package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"insightpro/internal/auth"
	"insightpro/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test_jwt_secret"

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"Bearer abc.def":  "abc.def",
		"bearer abc.def":  "abc.def",
		"BEARER  abc.def": "abc.def",
		"abc.def":         "abc.def",
		" abc.def ":       "abc.def",
		"Bearer":          "",
		"Bearer   ":       "",
	}
	for header, want := range tests {
		assert.Equal(t, want, bearerToken(header), "header %q", header)
	}
}

func newGatedApp(tokens *auth.TokenManager, m *metrics.Metrics) *fiber.App {
	app := fiber.New()
	app.Get("/private", AuthRequired(tokens, nil, m), func(c *fiber.Ctx) error {
		claims, ok := c.Locals(ClaimsKey).(*auth.Claims)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		fromCtx, ok := auth.ClaimsFromContext(c.UserContext())
		if !ok || fromCtx.Email != claims.Email {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.Email)
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenManager(testJWTSecret, time.Hour, "insightpro")
	reg := prometheus.NewRegistry()
	app := newGatedApp(tokens, metrics.New(reg))

	valid, err := tokens.Issue(auth.Claims{AccountID: 1, Email: "test@example.com", Company: "Acme"})
	require.NoError(t, err)
	expired, err := auth.NewTokenManager(testJWTSecret, -time.Minute, "insightpro").Issue(auth.Claims{Email: "test@example.com"})
	require.NoError(t, err)
	foreign, err := auth.NewTokenManager("another_secret", time.Hour, "insightpro").Issue(auth.Claims{Email: "test@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"valid bearer", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"raw token", valid, http.StatusOK},
		{"garbage", "Bearer invalid.token.string", http.StatusForbidden},
		{"expired", "Bearer " + expired, http.StatusForbidden},
		{"wrong secret", "Bearer " + foreign, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	n, err := testutil.GatherAndCount(reg, "insightpro_token_rejections_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

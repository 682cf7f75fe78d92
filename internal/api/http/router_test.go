package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

func forgeExpired(t *testing.T, userID string) string {
	t.Helper()
	issued := time.Now().Add(-48 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		User: auth.ClaimUser{ID: userID, Role: domain.RoleStudent},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(24 * time.Hour)),
		},
	})
	raw, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	root := s.do(t, fiber.MethodGet, "/", "", nil)
	require.Equal(t, fiber.StatusOK, root.status)
	assert.Equal(t, "Student Help Desk API Operational", root.object(t)["message"])

	live := s.do(t, fiber.MethodGet, "/health/live", "", nil)
	require.Equal(t, fiber.StatusOK, live.status)
	assert.Equal(t, "alive", live.object(t)["status"])

	ready := s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	require.Equal(t, fiber.StatusOK, ready.status)
	assert.Equal(t, "ready", ready.object(t)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	student, _ := s.register(t, "a@x.com", "")
	s.do(t, fiber.MethodGet, "/tickets", student, nil)
	s.do(t, fiber.MethodDelete, "/tickets/"+domain.NewID(), "", nil)

	resp := s.do(t, fiber.MethodGet, "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, resp.status)
	text := string(resp.body)
	assert.Contains(t, text, "helpdesk_http_requests_total")
	assert.Contains(t, text, `helpdesk_policy_decisions_total{decision="allow",operation="list"} 1`)
	assert.Contains(t, text, `code="UNAUTHORIZED"`)
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, id := s.register(t, "a@x.com", "")

	dup := s.do(t, fiber.MethodPost, "/auth/register", "", map[string]string{"email": "A@x.com", "password": "password123"})
	assert.Equal(t, fiber.StatusBadRequest, dup.status)
	assert.Equal(t, "User already exists", dup.object(t)["msg"])

	bad := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "wrong-password"})
	assert.Equal(t, fiber.StatusBadRequest, bad.status)
	assert.Equal(t, "Invalid Credentials", bad.object(t)["msg"])

	me := s.do(t, fiber.MethodGet, "/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, me.status)
	assert.Equal(t, id, me.object(t)["id"])
	assert.Equal(t, "student", me.object(t)["role"])

	assert.Equal(t, fiber.StatusUnauthorized, s.do(t, fiber.MethodGet, "/auth/me", "", nil).status)
}

func TestRegisterResponseShape(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, fiber.MethodPost, "/auth/register", "", map[string]string{"email": "a@x.com", "password": "password123"})
	require.Equal(t, fiber.StatusOK, resp.status)
	body := resp.object(t)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["expires_at"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, string(resp.body), "password")
}

func TestMalformedJSONIsValidationFailure(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "a@x.com", "")

	req := httptest.NewRequest(fiber.MethodPost, "/createTicket", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUnknownRouteRendersErrorBody(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, fiber.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	body := resp.object(t)
	assert.NotEmpty(t, body["msg"])
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(fiber.MethodOptions, "/tickets", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodGet)
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, withRateLimit(1, 2))
	body := map[string]string{"email": "nobody@x.com", "password": "whatever1"}

	assert.Equal(t, fiber.StatusBadRequest, s.do(t, fiber.MethodPost, "/auth/login", "", body).status)
	assert.Equal(t, fiber.StatusBadRequest, s.do(t, fiber.MethodPost, "/auth/login", "", body).status)

	limited := s.do(t, fiber.MethodPost, "/auth/login", "", body)
	assert.Equal(t, fiber.StatusTooManyRequests, limited.status)
	assert.Equal(t, "RATE_LIMITED", limited.object(t)["error"].(map[string]any)["code"])

	// Ticket routes are not throttled.
	assert.Equal(t, fiber.StatusUnauthorized, s.do(t, fiber.MethodGet, "/tickets", "", nil).status)
}

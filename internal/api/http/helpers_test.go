package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

// countingStore records every ticket store call.
type countingStore struct {
	repository.TicketRepository
	mu    sync.Mutex
	calls int
}

func (s *countingStore) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingStore) Reset() {
	s.mu.Lock()
	s.calls = 0
	s.mu.Unlock()
}

func (s *countingStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	s.hit()
	return s.TicketRepository.Create(ctx, ticket)
}

func (s *countingStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	s.hit()
	return s.TicketRepository.GetByID(ctx, id)
}

func (s *countingStore) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s.hit()
	return s.TicketRepository.List(ctx, filter)
}

func (s *countingStore) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	s.hit()
	return s.TicketRepository.UpdateStatus(ctx, id, status)
}

func (s *countingStore) Delete(ctx context.Context, id string) error {
	s.hit()
	return s.TicketRepository.Delete(ctx, id)
}

type testServer struct {
	app     *fiber.App
	store   *countingStore
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

type serverOption func(*serverOptions)

type serverOptions struct {
	policy    string
	rateLimit int
	burst     int
}

func withPolicy(version string) serverOption {
	return func(o *serverOptions) { o.policy = version }
}

func withRateLimit(perSecond, burst int) serverOption {
	return func(o *serverOptions) {
		o.rateLimit = perSecond
		o.burst = burst
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	options := serverOptions{policy: policy.VersionOwner}
	for _, opt := range opts {
		opt(&options)
	}

	accessPolicy, err := policy.ForVersion(options.policy)
	require.NoError(t, err)

	mem := repository.NewMemoryStore()
	store := &countingStore{TicketRepository: mem.Tickets()}
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)
	metrics := observability.NewMetrics()
	authCfg := config.AuthConfig{BcryptCost: 4, AllowAdminSignup: true, MinPasswordLength: 6}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: store,
		Policy:     accessPolicy,
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
	})

	app := NewApp("student-help-desk-test", zap.NewNop(), metrics,
		MiddlewareConfig{Timeout: 5 * time.Second, AllowOrigins: "*"},
		RouteConfig{
			Health:      handlers.NewHealthHandler("student-help-desk-test", "test", nil),
			Users:       handlers.NewUsersHandler(service.NewAuthService(authCfg, mem.Users(), tokens)),
			Tickets:     handlers.NewTicketsHandler(ticketService),
			Guard:       auth.NewIdentityGuard(tokens),
			Policy:      accessPolicy,
			Metrics:     metrics,
			RateLimiter: NewRateLimiter(options.rateLimit, options.burst),
		},
	)
	return &testServer{app: app, store: store, tokens: tokens, metrics: metrics}
}

type response struct {
	status int
	body   []byte
}

func (r response) object(t *testing.T) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r response) list(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: raw}
}

// register creates an account and returns its token and user id.
func (s *testServer) register(t *testing.T, email, role string) (string, string) {
	t.Helper()
	body := map[string]string{"email": email, "password": "password123"}
	if role != "" {
		body["role"] = role
	}
	resp := s.do(t, fiber.MethodPost, "/auth/register", "", body)
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	out := resp.object(t)
	user := out["user"].(map[string]any)
	return out["token"].(string), user["id"].(string)
}

func (s *testServer) createTicket(t *testing.T, token, studentName, issue string) map[string]any {
	t.Helper()
	resp := s.do(t, fiber.MethodPost, "/createTicket", token, map[string]string{"studentName": studentName, "issue": issue})
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	return resp.object(t)
}

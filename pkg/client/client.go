// Package client is a Go SDK for the help desk HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// ErrNoSession is returned when an authenticated call receives no session.
var ErrNoSession = errors.New("client: session required")

// Client talks to one help desk server.
type Client struct {
	baseURL string
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request. Context deadlines still apply when shorter.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New returns a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account. An empty role lets the server default to student.
func (c *Client) Register(ctx context.Context, email, password, role string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	if role != "" {
		body["role"] = role
	}
	var session Session
	if err := c.do(ctx, fiber.MethodPost, "/auth/register", nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, fiber.MethodPost, "/auth/login", nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Me returns the identity the server reads from the session.
func (c *Client) Me(ctx context.Context, session *Session) (*Identity, error) {
	if session == nil {
		return nil, ErrNoSession
	}
	var identity Identity
	if err := c.do(ctx, fiber.MethodGet, "/auth/me", session, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// ListTickets lists the tickets visible to the session. A nil session makes an
// anonymous request, which only a public policy accepts. status may be empty.
func (c *Client) ListTickets(ctx context.Context, session *Session, status string) ([]Ticket, error) {
	path := "/tickets"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	tickets := []Ticket{}
	if err := c.do(ctx, fiber.MethodGet, path, session, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CreateTicket submits a ticket owned by the session's user.
func (c *Client) CreateTicket(ctx context.Context, session *Session, studentName, issue string) (*Ticket, error) {
	if session == nil {
		return nil, ErrNoSession
	}
	var ticket Ticket
	body := map[string]string{"studentName": studentName, "issue": issue}
	if err := c.do(ctx, fiber.MethodPost, "/createTicket", session, body, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ResolveTicket marks a ticket resolved. Requires an admin session.
func (c *Client) ResolveTicket(ctx context.Context, session *Session, id string) (*Ticket, error) {
	if session == nil {
		return nil, ErrNoSession
	}
	var ticket Ticket
	if err := c.do(ctx, fiber.MethodPut, "/tickets/"+url.PathEscape(id)+"/resolve", session, nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// DeleteTicket removes a ticket owned by the session's user, or any ticket for an admin.
func (c *Client) DeleteTicket(ctx context.Context, session *Session, id string) error {
	if session == nil {
		return ErrNoSession
	}
	var resp struct {
		Msg string `json:"msg"`
		ID  string `json:"id"`
	}
	return c.do(ctx, fiber.MethodDelete, "/tickets/"+url.PathEscape(id), session, nil, &resp)
}

func (c *Client) do(ctx context.Context, method, path string, session *Session, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("client: build request: %w", err)
	}
	if session != nil {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+session.Token)
	}
	if body != nil {
		agent.JSON(body)
	}
	if timeout := c.requestTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	status, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("client: %s %s: %w", method, path, errors.Join(errs...))
	}
	if status < 200 || status > 299 {
		return decodeAPIError(status, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var payload struct {
		Msg   string `json:"msg"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Msg
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

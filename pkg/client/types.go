package client

import "time"

// User is the account returned by register and login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Identity is what the server resolved from a session's credential.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Ticket mirrors the server's ticket representation.
type Ticket struct {
	ID          string    `json:"id"`
	User        string    `json:"user"`
	StudentName string    `json:"studentName"`
	Issue       string    `json:"issue"`
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
}

// Session is an authenticated conversation with the server. It is returned by
// Register and Login and handed explicitly to every call that needs it; the
// client keeps no session of its own.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Expired reports whether the credential has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "Open"
	TicketStatusResolved TicketStatus = "Resolved"
)

// ParseTicketStatus accepts the wire form of a status, case-insensitively.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch {
	case strings.EqualFold(raw, string(TicketStatusOpen)):
		return TicketStatusOpen, nil
	case strings.EqualFold(raw, string(TicketStatusResolved)):
		return TicketStatusResolved, nil
	default:
		return "", fmt.Errorf("unknown ticket status %q", raw)
	}
}

// CanTransition reports whether a ticket may move from one status to another.
// Resolved is terminal; re-resolving is allowed as a no-op.
func CanTransition(from, to TicketStatus) bool {
	switch from {
	case TicketStatusOpen:
		return to == TicketStatusOpen || to == TicketStatusResolved
	case TicketStatusResolved:
		return to == TicketStatusResolved
	default:
		return false
	}
}

// Ticket is a support request owned by the user that submitted it.
type Ticket struct {
	ID          string
	Owner       string
	StudentName string
	Issue       string
	Status      TicketStatus
	CreatedAt   time.Time
}

// OwnedBy reports whether userID is the ticket owner.
func (t *Ticket) OwnedBy(userID string) bool {
	return t != nil && userID != "" && t.Owner == userID
}

// ParseID normalizes a resource identifier, rejecting anything that is not a UUID.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewID returns a fresh resource identifier.
func NewID() string {
	return uuid.NewString()
}

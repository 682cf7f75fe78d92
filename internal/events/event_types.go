package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket.created"
	EventTicketResolved EventType = "ticket.resolved"
	EventTicketDeleted  EventType = "ticket.deleted"
)

// Actor is the identity that caused the event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	OwnerID   string    `json:"owner_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	StudentName  string `json:"student_name"`
	IssuePreview string `json:"issue_preview"`
}

// TicketResolvedPayload payload. AlreadyResolved marks a repeated resolve.
type TicketResolvedPayload struct {
	OldStatus       domain.TicketStatus `json:"old_status"`
	NewStatus       domain.TicketStatus `json:"new_status"`
	AlreadyResolved bool                `json:"already_resolved"`
}

package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload. Ownership is stamped from the credential, so
// any owner field a client sends is not even decoded.
type CreateTicketRequest struct {
	StudentName string `json:"studentName"`
	Issue       string `json:"issue"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	User        string              `json:"user"`
	StudentName string              `json:"studentName"`
	Issue       string              `json:"issue"`
	Status      domain.TicketStatus `json:"status"`
	Date        time.Time           `json:"date"`
}

// DeleteTicketResponse confirms a deletion.
type DeleteTicketResponse struct {
	Msg string `json:"msg"`
	ID  string `json:"id"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		User:        ticket.Owner,
		StudentName: ticket.StudentName,
		Issue:       ticket.Issue,
		Status:      ticket.Status,
		Date:        ticket.CreatedAt,
	}
}

// NewTicketList maps a slice, never returning nil so the body is always an array.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketsHandler exposes ticket endpoints. Every access decision is made by
// the service; the handler only shapes requests and responses.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /createTicket.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), callerIdentity(c), service.TicketCreateInput{
		StudentName: req.StudentName,
		Issue:       req.Issue,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	input := service.TicketListInput{}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && !strings.EqualFold(raw, "all") {
		status, err := domain.ParseTicketStatus(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		input.Status = &status
	}
	tickets, err := h.service.ListTickets(c.UserContext(), callerIdentity(c), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets))
}

// ResolveTicket PUT /tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	ticket, err := h.service.ResolveTicket(c.UserContext(), callerIdentity(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := h.service.DeleteTicket(c.UserContext(), callerIdentity(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.DeleteTicketResponse{Msg: "Ticket deleted", ID: id})
}

// callerIdentity returns nil for anonymous requests.
func callerIdentity(c *fiber.Ctx) *domain.Identity {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil
	}
	return &identity
}

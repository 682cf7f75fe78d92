package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	msgNotOwner   = "Access denied: not the ticket owner"
	msgAdminsOnly = "Access denied: Admins only"
	msgNoCreate   = "Access denied: cannot create tickets"
	msgNoList     = "Access denied: cannot list tickets"
)

// TicketService applies the access policy to every ticket operation. The
// policy decision is always taken before the store is written.
type TicketService struct {
	tickets    repository.TicketRepository
	policy     *policy.Policy
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Policy     *policy.Policy
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
}

// TicketCreateInput describes ticket creation payload. The owner is never
// part of it.
type TicketCreateInput struct {
	StudentName string
	Issue       string
}

// TicketListInput holds optional list filters.
type TicketListInput struct {
	Status *domain.TicketStatus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
	}
}

// Policy returns the policy the service enforces.
func (s *TicketService) Policy() *policy.Policy {
	return s.policy
}

// CreateTicket stores a new Open ticket owned by the caller.
func (s *TicketService) CreateTicket(ctx context.Context, identity *domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.policy.AuthorizeCreate(identity); err != nil {
		s.decision(policy.OpCreate, err)
		return nil, policyError(err, msgNoCreate)
	}
	s.decision(policy.OpCreate, nil)

	issue := strings.TrimSpace(input.Issue)
	if issue == "" {
		return nil, apperrors.NewValidationError("issue is required", map[string]any{"field": "issue"})
	}

	ticket := &domain.Ticket{
		Owner:       identity.UserID,
		StudentName: strings.TrimSpace(input.StudentName),
		Issue:       issue,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		OwnerID:  ticket.Owner,
		Actor:    actorOf(identity),
		Payload: events.TicketCreatedPayload{
			StudentName:  ticket.StudentName,
			IssuePreview: stringPreview(ticket.Issue, 120),
		},
	})
	return ticket, nil
}

// ListTickets returns the tickets visible to the caller, newest first. The
// policy decides between the caller's own tickets and the whole collection.
func (s *TicketService) ListTickets(ctx context.Context, identity *domain.Identity, input TicketListInput) ([]domain.Ticket, error) {
	owner, err := s.policy.ListFilter(identity)
	s.decision(policy.OpList, err)
	if err != nil {
		return nil, policyError(err, msgNoList)
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{Owner: owner, Status: input.Status})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// ResolveTicket marks a ticket Resolved. Resolving a resolved ticket succeeds
// without change.
func (s *TicketService) ResolveTicket(ctx context.Context, identity *domain.Identity, rawID string) (*domain.Ticket, error) {
	if err := s.policy.CanAttempt(policy.OpResolve, identity); err != nil {
		s.decision(policy.OpResolve, err)
		return nil, policyError(err, msgAdminsOnly)
	}
	ticket, err := s.loadTicket(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(policy.OpResolve, identity, ticket); err != nil {
		s.decision(policy.OpResolve, err)
		return nil, policyError(err, msgAdminsOnly)
	}
	s.decision(policy.OpResolve, nil)

	if !domain.CanTransition(ticket.Status, domain.TicketStatusResolved) {
		return nil, apperrors.NewValidationError("ticket cannot be resolved in current status", map[string]any{"status": ticket.Status})
	}
	oldStatus := ticket.Status
	updated, err := s.tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusResolved)
	if err != nil {
		return nil, storeError(err, "ticket", map[string]any{"id": ticket.ID})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: updated.ID,
		OwnerID:  updated.Owner,
		Actor:    actorOf(identity),
		Payload: events.TicketResolvedPayload{
			OldStatus:       oldStatus,
			NewStatus:       updated.Status,
			AlreadyResolved: oldStatus == domain.TicketStatusResolved,
		},
	})
	return updated, nil
}

// DeleteTicket removes a ticket. The ticket must exist before ownership is
// checked, so an unknown id is NotFound for every caller.
func (s *TicketService) DeleteTicket(ctx context.Context, identity *domain.Identity, rawID string) (string, error) {
	if err := s.policy.CanAttempt(policy.OpDelete, identity); err != nil {
		s.decision(policy.OpDelete, err)
		return "", policyError(err, msgNotOwner)
	}
	ticket, err := s.loadTicket(ctx, rawID)
	if err != nil {
		return "", err
	}
	if err := s.policy.Authorize(policy.OpDelete, identity, ticket); err != nil {
		s.decision(policy.OpDelete, err)
		return "", policyError(err, msgNotOwner)
	}
	s.decision(policy.OpDelete, nil)

	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return "", storeError(err, "ticket", map[string]any{"id": ticket.ID})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		OwnerID:  ticket.Owner,
		Actor:    actorOf(identity),
	})
	return ticket.ID, nil
}

func (s *TicketService) loadTicket(ctx context.Context, rawID string) (*domain.Ticket, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return nil, apperrors.NewInvalidIdentifier(rawID)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "ticket", map[string]any{"id": id})
	}
	return ticket, nil
}

func (s *TicketService) decision(op policy.Operation, err error) {
	outcome := "allow"
	switch {
	case err == nil:
	case errors.Is(err, policy.ErrAuthenticationRequired):
		outcome = "unauthenticated"
	default:
		outcome = "forbidden"
	}
	s.metrics.RecordDecision(string(op), outcome)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(identity *domain.Identity) events.Actor {
	if identity == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: identity.UserID, Role: identity.Role}
}

func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

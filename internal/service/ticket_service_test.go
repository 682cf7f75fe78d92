package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var (
	alice = &domain.Identity{UserID: "11111111-1111-4111-8111-111111111111", Role: domain.RoleStudent}
	bob   = &domain.Identity{UserID: "22222222-2222-4222-8222-222222222222", Role: domain.RoleStudent}
	root  = &domain.Identity{UserID: "33333333-3333-4333-8333-333333333333", Role: domain.RoleAdmin}
)

// countingTickets records every call that reaches the store.
type countingTickets struct {
	repository.TicketRepository
	mu    sync.Mutex
	calls []string
	fail  error
}

func (c *countingTickets) record(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
	return c.fail
}

func (c *countingTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := c.record("Create"); err != nil {
		return err
	}
	return c.TicketRepository.Create(ctx, ticket)
}

func (c *countingTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if err := c.record("GetByID"); err != nil {
		return nil, err
	}
	return c.TicketRepository.GetByID(ctx, id)
}

func (c *countingTickets) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := c.record("List"); err != nil {
		return nil, err
	}
	return c.TicketRepository.List(ctx, filter)
}

func (c *countingTickets) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	if err := c.record("UpdateStatus"); err != nil {
		return nil, err
	}
	return c.TicketRepository.UpdateStatus(ctx, id, status)
}

func (c *countingTickets) Delete(ctx context.Context, id string) error {
	if err := c.record("Delete"); err != nil {
		return err
	}
	return c.TicketRepository.Delete(ctx, id)
}

func (c *countingTickets) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *countingTickets) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

type ticketFixture struct {
	svc    *TicketService
	store  *countingTickets
	events *[]events.Event
}

func newTicketFixture(t *testing.T, version string) ticketFixture {
	t.Helper()
	p, err := policy.ForVersion(version)
	require.NoError(t, err)

	store := &countingTickets{TicketRepository: repository.NewMemoryStore().Tickets()}
	dispatcher := events.NewInMemoryDispatcher()
	published := []events.Event{}
	record := func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	}
	dispatcher.Subscribe(events.EventTicketCreated, record)
	dispatcher.Subscribe(events.EventTicketResolved, record)
	dispatcher.Subscribe(events.EventTicketDeleted, record)

	svc := NewTicketService(TicketDependencies{
		TicketRepo: store,
		Policy:     p,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
	})
	return ticketFixture{svc: svc, store: store, events: &published}
}

func (f ticketFixture) create(t *testing.T, who *domain.Identity, issue string) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), who, TicketCreateInput{StudentName: "Student", Issue: issue})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketStampsOwner(t *testing.T) {
	f := newTicketFixture(t, policy.VersionOwner)
	ticket := f.create(t, alice, "  projector broken  ")

	assert.Equal(t, alice.UserID, ticket.Owner)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "projector broken", ticket.Issue)
	assert.False(t, ticket.CreatedAt.IsZero())

	require.Len(t, *f.events, 1)
	created := (*f.events)[0]
	assert.Equal(t, events.EventTicketCreated, created.Type)
	assert.Equal(t, ticket.ID, created.TicketID)
	assert.Equal(t, alice.UserID, created.Actor.UserID)
	assert.NotEmpty(t, created.ID)
}

func TestCreateTicketRejections(t *testing.T) {
	f := newTicketFixture(t, policy.VersionOwner)

	_, err := f.svc.CreateTicket(context.Background(), nil, TicketCreateInput{Issue: "x"})
	requireDomainError(t, err, apperrors.CodeUnauthorized, 401)

	_, err = f.svc.CreateTicket(context.Background(), alice, TicketCreateInput{Issue: "   "})
	requireDomainError(t, err, apperrors.CodeValidationFailed, 400)

	assert.Empty(t, f.store.Calls())
	assert.Empty(t, *f.events)
}

func TestListTicketsScope(t *testing.T) {
	f := newTicketFixture(t, policy.VersionOwner)
	a1 := f.create(t, alice, "a1")
	b1 := f.create(t, bob, "b1")
	a2 := f.create(t, alice, "a2")

	mine, err := f.svc.ListTickets(context.Background(), alice, TicketListInput{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a1.ID, a2.ID}, ticketIDs(mine))
	for _, ticket := range mine {
		assert.Equal(t, alice.UserID, ticket.Owner)
	}

	everything, err := f.svc.ListTickets(context.Background(), root, TicketListInput{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a1.ID, a2.ID, b1.ID}, ticketIDs(everything))

	f.store.Reset()
	_, err = f.svc.ListTickets(context.Background(), nil, TicketListInput{})
	requireDomainError(t, err, apperrors.CodeUnauthorized, 401)
	assert.Empty(t, f.store.Calls())
}

func TestListTicketsStatusFilter(t *testing.T) {
	f := newTicketFixture(t, policy.VersionOwner)
	open := f.create(t, alice, "open")
	done := f.create(t, alice, "done")
	_, err := f.svc.ResolveTicket(context.Background(), root, done.ID)
	require.NoError(t, err)

	status := domain.TicketStatusOpen
	got, err := f.svc.ListTickets(context.Background(), alice, TicketListInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, []string{open.ID}, ticketIDs(got))
}

func TestListTicketsPublicPolicy(t *testing.T) {
	f := newTicketFixture(t, policy.VersionPublic)
	f.create(t, alice, "a1")
	f.create(t, bob, "b1")

	anonymous, err := f.svc.ListTickets(context.Background(), nil, TicketListInput{})
	require.NoError(t, err)
	assert.Len(t, anonymous, 2)

	student, err := f.svc.ListTickets(context.Background(), bob, TicketListInput{})
	require.NoError(t, err)
	assert.Len(t, student, 2)
}

func TestDeleteTicketOrdering(t *testing.T) {
	f := newTicketFixture(t, policy.VersionOwner)
	ticket := f.create(t, alice, "to delete")
	ctx := context.Background()

	t.Run("anonymous never reaches the store", func(t *testing.T) {
		f.store.Reset()
		_, err := f.svc.DeleteTicket(ctx, nil, ticket.ID)
		requireDomainError(t, err, apperrors.CodeUnauthorized, 401)
		assert.Empty(t, f.store.Calls())
	})

	t.Run("malformed id", func(t *testing.T) {
		f.store.Reset()
		_, err := f.svc.DeleteTicket(ctx, alice, "abc")
		requireDomainError(t, err, apperrors.CodeInvalidIdentifier, 400)
		assert.Empty(t, f.store.Calls())
	})

	t.Run("missing ticket is not found for non-owner", func(t *testing.T) {
		_, err := f.svc.DeleteTicket(ctx, bob, domain.NewID())
		requireDomainError(t, err, apperrors.CodeNotFound, 404)
	})

	t.Run("non owner is forbidden and nothing is deleted", func(t *testing.T) {
		f.store.Reset()
		_, err := f.svc.DeleteTicket(ctx, bob, ticket.ID)
		domainErr := requireDomainError(t, err, apperrors.CodeForbidden, 403)
		assert.Equal(t, "Access denied: not the ticket owner", domainErr.Message)
		assert.Equal(t, []string{"GetByID"}, f.store.Calls())
	})

	t.Run("owner deletes", func(t *testing.T) {
		id, err := f.svc.DeleteTicket(ctx, alice, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, id)

		_, err = f.svc.DeleteTicket(ctx, alice, ticket.ID)
		requireDomainError(t, err, apperrors.CodeNotFound, 404)
	})

	t.Run("admin deletes any ticket", func(t *testing.T) {
		other := f.create(t, bob, "bob's")
		_, err := f.svc.DeleteTicket(ctx, root, other.ID)
		require.NoError(t, err)
	})
}

func TestResolveTicket(t *testing.T) {
	f := newTicketFixture(t, policy.VersionOwner)
	ticket := f.create(t, alice, "needs fixing")
	ctx := context.Background()

	_, err := f.svc.ResolveTicket(ctx, alice, ticket.ID)
	domainErr := requireDomainError(t, err, apperrors.CodeForbidden, 403)
	assert.Equal(t, "Access denied: Admins only", domainErr.Message)

	_, err = f.svc.ResolveTicket(ctx, nil, ticket.ID)
	requireDomainError(t, err, apperrors.CodeUnauthorized, 401)

	_, err = f.svc.ResolveTicket(ctx, root, "abc")
	requireDomainError(t, err, apperrors.CodeInvalidIdentifier, 400)

	_, err = f.svc.ResolveTicket(ctx, root, domain.NewID())
	requireDomainError(t, err, apperrors.CodeNotFound, 404)

	resolved, err := f.svc.ResolveTicket(ctx, root, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
	assert.Equal(t, alice.UserID, resolved.Owner)
	assert.Equal(t, ticket.Issue, resolved.Issue)

	again, err := f.svc.ResolveTicket(ctx, root, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, again.Status)

	last := (*f.events)[len(*f.events)-1]
	assert.Equal(t, events.EventTicketResolved, last.Type)
	payload, ok := last.Payload.(events.TicketResolvedPayload)
	require.True(t, ok)
	assert.True(t, payload.AlreadyResolved)
}

func TestStoreFailuresAreInternal(t *testing.T) {
	f := newTicketFixture(t, policy.VersionOwner)
	f.store.fail = errors.New("connection refused")

	_, err := f.svc.ListTickets(context.Background(), root, TicketListInput{})
	domainErr := requireDomainError(t, err, apperrors.CodeInternal, 500)
	assert.Equal(t, "internal server error", domainErr.Message)

	_, err = f.svc.CreateTicket(context.Background(), alice, TicketCreateInput{Issue: "x"})
	requireDomainError(t, err, apperrors.CodeInternal, 500)

	_, err = f.svc.DeleteTicket(context.Background(), alice, domain.NewID())
	requireDomainError(t, err, apperrors.CodeInternal, 500)
}

func TestStringPreview(t *testing.T) {
	assert.Equal(t, "short", stringPreview("  short ", 10))
	assert.Equal(t, "abcd...", stringPreview("abcdefghij", 7))
	assert.Equal(t, "ééé...", stringPreview("éééééééé", 6))
}

func ticketIDs(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.ID)
	}
	return out
}

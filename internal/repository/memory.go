package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// MemoryStore keeps users and tickets in process. It backs the service when no
// Postgres DSN is configured and is the store used by tests. Every method takes
// the lock once, matching the one-statement-per-call contract of the Postgres
// repositories.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	emails  map[string]string
	tickets map[string]domain.Ticket
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.User),
		emails:  make(map[string]string),
		tickets: make(map[string]domain.Ticket),
		now:     time.Now,
	}
}

// Tickets exposes the store as a TicketRepository.
func (m *MemoryStore) Tickets() TicketRepository {
	return memoryTickets{m}
}

// Users exposes the store as a UserRepository.
func (m *MemoryStore) Users() UserRepository {
	return memoryUsers{m}
}

type memoryTickets struct{ m *MemoryStore }

func (r memoryTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = domain.NewID()
	}
	if _, exists := r.m.tickets[ticket.ID]; exists {
		return ErrDuplicate
	}
	ticket.CreatedAt = r.m.now()
	r.m.tickets[ticket.ID] = *ticket
	return nil
}

func (r memoryTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	ticket, ok := r.m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (r memoryTickets) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	result := make([]domain.Ticket, 0, len(r.m.tickets))
	for _, ticket := range r.m.tickets {
		if filter.Owner != nil && ticket.Owner != *filter.Owner {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		result = append(result, ticket)
	}
	r.m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r memoryTickets) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ticket, ok := r.m.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket.Status = status
	r.m.tickets[id] = ticket
	return &ticket, nil
}

func (r memoryTickets) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.tickets, id)
	return nil
}

type memoryUsers struct{ m *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, exists := r.m.emails[key]; exists {
		return ErrDuplicate
	}
	if user.ID == "" {
		user.ID = domain.NewID()
	}
	user.CreatedAt = r.m.now()
	r.m.users[user.ID] = *user
	r.m.emails[key] = user.ID
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	user, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	id, ok := r.m.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := r.m.users[id]
	return &user, nil
}

// Package policy decides who may do what to a ticket. A Policy is a table of
// operation x subject -> scope; services consult it before every side effect.
package policy

import (
	"errors"
	"fmt"

	"github.com/spec-kit/helpdesk/internal/domain"
)

var (
	// ErrAuthenticationRequired is returned when an anonymous caller reaches an
	// operation the policy does not open to anonymous access.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAccessForbidden is returned when the caller is known but not permitted.
	ErrAccessForbidden = errors.New("access forbidden")
)

// Operation names an action on tickets.
type Operation string

const (
	OpCreate  Operation = "create"
	OpList    Operation = "list"
	OpDelete  Operation = "delete"
	OpResolve Operation = "resolve"
)

// Operations lists every operation a table must cover.
var Operations = []Operation{OpCreate, OpList, OpDelete, OpResolve}

// Scope is how far a permission reaches.
type Scope int

const (
	ScopeDeny Scope = iota
	ScopeOwn
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeDeny:
		return "deny"
	case ScopeOwn:
		return "own"
	case ScopeAll:
		return "all"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Version identifiers.
const (
	VersionOwner  = "owner"
	VersionPublic = "public"
)

// Rules maps each operation to a scope.
type Rules map[Operation]Scope

// Table is the full permission table for one policy version.
type Table struct {
	Roles     map[domain.Role]Rules
	Anonymous Rules
}

// Policy evaluates a Table. It holds no per-request state.
type Policy struct {
	version string
	table   Table
}

// OwnerScoped is the current table: students see and delete their own
// tickets, admins see and delete everything, only admins resolve.
func OwnerScoped() Table {
	return Table{
		Roles: map[domain.Role]Rules{
			domain.RoleStudent: {OpCreate: ScopeOwn, OpList: ScopeOwn, OpDelete: ScopeOwn, OpResolve: ScopeDeny},
			domain.RoleAdmin:   {OpCreate: ScopeOwn, OpList: ScopeAll, OpDelete: ScopeAll, OpResolve: ScopeAll},
		},
		Anonymous: Rules{OpCreate: ScopeDeny, OpList: ScopeDeny, OpDelete: ScopeDeny, OpResolve: ScopeDeny},
	}
}

// Public reproduces the earlier open board: anyone may read every ticket and
// any signed-in caller may delete any ticket.
func Public() Table {
	return Table{
		Roles: map[domain.Role]Rules{
			domain.RoleStudent: {OpCreate: ScopeOwn, OpList: ScopeAll, OpDelete: ScopeAll, OpResolve: ScopeDeny},
			domain.RoleAdmin:   {OpCreate: ScopeOwn, OpList: ScopeAll, OpDelete: ScopeAll, OpResolve: ScopeAll},
		},
		Anonymous: Rules{OpCreate: ScopeDeny, OpList: ScopeAll, OpDelete: ScopeDeny, OpResolve: ScopeDeny},
	}
}

// ForVersion returns the policy registered under version.
func ForVersion(version string) (*Policy, error) {
	switch version {
	case VersionOwner, "":
		return New(VersionOwner, OwnerScoped())
	case VersionPublic:
		return New(VersionPublic, Public())
	default:
		return nil, fmt.Errorf("unknown policy version %q", version)
	}
}

// New validates table and wraps it. Every role must have a rule for every
// operation, creation is never granted beyond the caller's own scope, and
// anonymous callers may never create or resolve.
func New(version string, table Table) (*Policy, error) {
	for _, role := range domain.Roles {
		rules, ok := table.Roles[role]
		if !ok {
			return nil, fmt.Errorf("policy %s: no rules for role %s", version, role)
		}
		for _, op := range Operations {
			if _, ok := rules[op]; !ok {
				return nil, fmt.Errorf("policy %s: role %s has no rule for %s", version, role, op)
			}
		}
		if rules[OpCreate] == ScopeAll {
			return nil, fmt.Errorf("policy %s: create cannot be granted for other owners", version)
		}
	}
	for role := range table.Roles {
		if !role.Valid() {
			return nil, fmt.Errorf("policy %s: unknown role %q", version, role)
		}
	}
	if table.Anonymous[OpCreate] != ScopeDeny || table.Anonymous[OpResolve] != ScopeDeny {
		return nil, fmt.Errorf("policy %s: anonymous callers cannot create or resolve", version)
	}
	return &Policy{version: version, table: table}, nil
}

// Version returns the policy version name.
func (p *Policy) Version() string {
	return p.version
}

// AllowsAnonymous reports whether op is reachable without a credential.
func (p *Policy) AllowsAnonymous(op Operation) bool {
	return p.table.Anonymous[op] != ScopeDeny
}

// ScopeFor returns the scope granted to the caller; a nil identity is anonymous.
func (p *Policy) ScopeFor(op Operation, identity *domain.Identity) Scope {
	if identity == nil {
		return p.table.Anonymous[op]
	}
	return p.table.Roles[identity.Role][op]
}

// ListFilter returns the owner every listed ticket must belong to, or nil when
// the caller may see the whole collection.
func (p *Policy) ListFilter(identity *domain.Identity) (*string, error) {
	switch scope := p.ScopeFor(OpList, identity); scope {
	case ScopeAll:
		return nil, nil
	case ScopeOwn:
		owner := identity.UserID
		return &owner, nil
	default:
		return nil, denial(identity)
	}
}

// AuthorizeCreate checks that the caller may create a ticket. The owner of the
// new ticket is always the caller.
func (p *Policy) AuthorizeCreate(identity *domain.Identity) error {
	if identity == nil {
		return ErrAuthenticationRequired
	}
	if p.ScopeFor(OpCreate, identity) == ScopeDeny {
		return ErrAccessForbidden
	}
	return nil
}

// CanAttempt reports whether the caller has any grant for op. Callers use it to
// fail before touching the store.
func (p *Policy) CanAttempt(op Operation, identity *domain.Identity) error {
	if p.ScopeFor(op, identity) == ScopeDeny {
		return denial(identity)
	}
	return nil
}

// Authorize decides whether the caller may apply op to an existing ticket.
func (p *Policy) Authorize(op Operation, identity *domain.Identity, ticket *domain.Ticket) error {
	switch scope := p.ScopeFor(op, identity); scope {
	case ScopeAll:
		return nil
	case ScopeOwn:
		if identity != nil && ticket.OwnedBy(identity.UserID) {
			return nil
		}
		return ErrAccessForbidden
	default:
		return denial(identity)
	}
}

func denial(identity *domain.Identity) error {
	if identity == nil {
		return ErrAuthenticationRequired
	}
	return ErrAccessForbidden
}

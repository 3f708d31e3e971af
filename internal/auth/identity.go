package auth

import (
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/issue-tracker/internal/user"
)

// IdentityProvider turns a login request into a user. It never fails: an
// unknown email yields a synthesized user.
type IdentityProvider interface {
	Resolve(email string, role user.Role, nameHint string) user.User
}

func avatar(s string) *string {
	return &s
}

// KnownUsers is the fixed registry consulted before synthesizing a user.
func KnownUsers() []user.User {
	return []user.User{
		{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: user.RoleAdmin, Avatar: avatar("https://picsum.photos/id/64/100/100")},
		{ID: "2", Name: "John Doe", Email: "user@example.com", Role: user.RoleUser, Avatar: avatar("https://picsum.photos/id/65/100/100")},
		{ID: "3", Name: "Jane Smith", Email: "jane@example.com", Role: user.RoleDepartmentHead, Avatar: avatar("https://picsum.photos/id/66/100/100")},
	}
}

type RegistryProvider struct {
	byEmail map[string]user.User
	newID   func() string
}

type RegistryOption func(*RegistryProvider)

// WithUserIDGenerator replaces the uuid source used for synthesized users.
func WithUserIDGenerator(fn func() string) RegistryOption {
	return func(p *RegistryProvider) {
		p.newID = fn
	}
}

func NewRegistryProvider(known []user.User, opts ...RegistryOption) *RegistryProvider {
	p := &RegistryProvider{
		byEmail: make(map[string]user.User, len(known)),
		newID:   uuid.NewString,
	}
	for _, u := range known {
		p.byEmail[normalizeEmail(u.Email)] = u
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the registry entry for email, which keeps its own name and
// role. Otherwise it synthesizes a user with the requested role.
func (p *RegistryProvider) Resolve(email string, role user.Role, nameHint string) user.User {
	email = normalizeEmail(email)
	if known, ok := p.byEmail[email]; ok {
		return *known.Clone()
	}

	if !role.Valid() {
		role = user.RoleUser
	}
	name := strings.TrimSpace(nameHint)
	if name == "" {
		name = localPart(email)
	}
	return user.User{
		ID:     p.newID(),
		Name:   name,
		Email:  email,
		Role:   role,
		Avatar: avatar("https://picsum.photos/seed/" + email + "/100/100"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

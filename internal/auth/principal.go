// Package auth models the authenticated actor of a request and the capability
// predicates evaluated against it.
package auth

import (
	"context"
	"strings"

	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

// Known roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Principal is the authenticated actor performing an operation.
type Principal struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.ID) != ""
}

// HasRole compares roles case-insensitively.
func (p Principal) HasRole(role string) bool {
	return NormalizeRole(p.Role) == NormalizeRole(role)
}

// NormalizeRole lowercases and trims a role name.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

type principalKey struct{}

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, principal)
}

// FromContext returns the principal attached to ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalKey{}).(Principal)
	return principal, ok
}

// Capability is an authorization predicate over a principal.
type Capability interface {
	Name() string
	Allows(principal Principal) bool
}

// CapabilityFunc adapts a function into a Capability.
type CapabilityFunc struct {
	Label string
	Fn    func(Principal) bool
}

// Name returns the capability label.
func (c CapabilityFunc) Name() string { return c.Label }

// Allows evaluates the wrapped predicate.
func (c CapabilityFunc) Allows(principal Principal) bool {
	if c.Fn == nil {
		return false
	}
	return c.Fn(principal)
}

// RoleCapability grants access to principals holding one of the roles.
type RoleCapability struct {
	Label string
	Roles []string
}

// Name returns the capability label.
func (c RoleCapability) Name() string { return c.Label }

// Allows reports whether the principal holds one of the configured roles.
func (c RoleCapability) Allows(principal Principal) bool {
	if !principal.Authenticated() {
		return false
	}
	for _, role := range c.Roles {
		if principal.HasRole(role) {
			return true
		}
	}
	return false
}

// Capabilities used by the submission workflow.
var (
	AnyPrincipal = CapabilityFunc{Label: "authenticated", Fn: Principal.Authenticated}

	SubmitWork        = CapabilityFunc{Label: "submissions:create", Fn: Principal.Authenticated}
	ReviewSubmissions = RoleCapability{Label: "submissions:review", Roles: []string{RoleTeacher}}
	ListSubmissions   = RoleCapability{Label: "submissions:list", Roles: []string{RoleTeacher}}
	ManageRankings    = RoleCapability{Label: "rankings:manage", Roles: []string{RoleTeacher}}
)

// OwnerOrCapability allows the owner of a resource, or anyone holding fallback.
func OwnerOrCapability(ownerID string, fallback Capability) Capability {
	return CapabilityFunc{
		Label: "owner-or-" + fallback.Name(),
		Fn: func(p Principal) bool {
			if !p.Authenticated() {
				return false
			}
			if strings.TrimSpace(ownerID) != "" && p.ID == ownerID {
				return true
			}
			return fallback.Allows(p)
		},
	}
}

// Require returns ErrUnauthorized for anonymous principals and ErrForbidden
// when the capability denies access.
func Require(principal Principal, capability Capability) error {
	if !principal.Authenticated() {
		return appErrors.ErrUnauthorized
	}
	if capability == nil || !capability.Allows(principal) {
		return appErrors.ErrForbidden
	}
	return nil
}

package gate

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned by Gate.Authorize on any denial.
var ErrUnauthorized = errors.New("unauthorized")

// Policy defines resource-specific authorization rules (e.g., ownership or
// assignment scoping). U is the user/subject type.
type Policy[U any] interface {
	// Can returns true if user is authorized to perform action on resource.
	// For list/create, resource may be nil (context-only check).
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// Gate combines profile-based global permissions with resource-specific
// policies. Authorization flow:
//  1. Check if user is valid (non-zero)
//  2. Check if user's profile has the required permission (resource:action)
//  3. If a resource policy exists and resource is provided, check it
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

// New creates a gate backed by the given profile resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{
		resolver: resolver,
		policies: make(map[string]Policy[U]),
	}
}

// Register adds a resource-specific policy (e.g., assignment scoping).
// Overwrites any existing policy for that resource type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns nil when the user may perform action on the resource and
// ErrUnauthorized otherwise. An absent profile means zero permissions.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}

	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return ErrUnauthorized
	}

	perm := NewPermission(resourceType, action)
	if !profile.HasPermission(perm) {
		return ErrUnauthorized
	}

	if resource != nil {
		if policy, ok := g.policies[resourceType]; ok {
			if !policy.Can(ctx, user, action, resource) {
				return ErrUnauthorized
			}
		}
	}

	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, without the resource policy.
// Useful before a specific resource is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}

// CanAll reports whether the user holds every one of the given permissions;
// CanAny reports whether at least one is held. Both fail closed when the user
// has no profile.
func (g *Gate[U]) CanAll(ctx context.Context, user U, perms ...Permission) bool {
	return g.canMulti(ctx, user, perms, true)
}

func (g *Gate[U]) CanAny(ctx context.Context, user U, perms ...Permission) bool {
	return g.canMulti(ctx, user, perms, false)
}

func (g *Gate[U]) canMulti(ctx context.Context, user U, perms []Permission, requireAll bool) bool {
	var zero U
	if user == zero || len(perms) == 0 {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	for _, p := range perms {
		has := profile.HasPermission(p)
		if requireAll && !has {
			return false
		}
		if !requireAll && has {
			return true
		}
	}
	return requireAll
}

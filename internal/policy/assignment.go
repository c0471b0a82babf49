package policy

import (
	"context"

	"github.com/Hall-IA/crm-template-sub001/internal/gate"
)

// Assignable is implemented by resources scoped to their assigned users.
type Assignable interface {
	AssignedUserIDs() []uint
}

// AssignmentPolicy restricts view/update of a resource to the users it is
// assigned to (commercial, telepro, creator). List and create have no
// concrete resource and pass; profile permissions already gate them.
type AssignmentPolicy struct{}

// NewAssignmentPolicy creates the assignment-scoping policy.
func NewAssignmentPolicy() *AssignmentPolicy {
	return &AssignmentPolicy{}
}

// Can reports whether the user is among the resource's assignees.
// Resources that do not implement Assignable are denied.
func (p *AssignmentPolicy) Can(_ context.Context, userID uint, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	assignable, ok := resource.(Assignable)
	if !ok {
		return false
	}
	for _, id := range assignable.AssignedUserIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

// AdminBypassPolicy wraps another policy and always allows access for admins.
type AdminBypassPolicy struct {
	inner       gate.Policy[uint]
	isAdminFunc func(ctx context.Context, userID uint) bool
}

// NewAdminBypassPolicy creates a policy that bypasses resource scoping for admins.
func NewAdminBypassPolicy(inner gate.Policy[uint], isAdminFunc func(ctx context.Context, userID uint) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{
		inner:       inner,
		isAdminFunc: isAdminFunc,
	}
}

// Can checks if user is admin (bypass) or falls back to the inner policy.
func (p *AdminBypassPolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	if p.isAdminFunc(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}

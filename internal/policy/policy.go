// Package policy decides whether an actor may view or mutate an order.
// It is a pure decision layer: no storage access, no side effects.
package policy

import "orda-market/internal/model"

// Capabilities evaluated by the policy. Capabilities are granted through
// roles rather than a staff flag on the user row, so finer-grained
// permissions can be introduced without touching the order service.
const (
	// CapOrderAdmin allows viewing every order, editing any mutable
	// order, and driving status transitions.
	CapOrderAdmin = "orders:admin"
)

// IsStaff reports whether the actor holds administrative capability over
// orders.
func IsStaff(actor *model.User) bool {
	return actor != nil && actor.HasCapability(CapOrderAdmin)
}

// CanView reports whether the actor may read the order, its items and
// its change history.
func CanView(actor *model.User, order *model.Order) bool {
	if actor == nil || order == nil {
		return false
	}
	return IsStaff(actor) || order.UserID == actor.ID
}

// CanMutate reports whether the actor may edit the order's mutable
// fields. Status transitions use the stricter CanChangeStatus rule.
func CanMutate(actor *model.User, order *model.Order) bool {
	return CanView(actor, order)
}

// CanChangeStatus reports whether the actor may move orders between
// lifecycle states. Only staff may do so, for any order.
func CanChangeStatus(actor *model.User) bool {
	return IsStaff(actor)
}

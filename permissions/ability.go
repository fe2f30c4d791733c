package permissions

import "tourbook/shared/constant"

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionCancel Action = "cancel"
	ActionVerify Action = "verify"
)

type Resource string

const (
	ResourceTour      Resource = "tour"
	ResourceBooking   Resource = "booking"
	ResourcePromotion Resource = "promotion"
	ResourceReview    Resource = "review"
)

// Actor is the authenticated principal an ability check runs against.
type Actor struct {
	ID   string
	Role string
}

type rule struct {
	action    Action
	resource  Resource
	ownedOnly bool
}

// Role rule tables. Admin is handled as a blanket allow in Can, so only
// non-admin roles need entries here.
var roleRules = map[string][]rule{
	constant.RoleUser: {
		{action: ActionRead, resource: ResourceTour},
		{action: ActionCreate, resource: ResourceBooking},
		{action: ActionRead, resource: ResourceBooking, ownedOnly: true},
		{action: ActionCancel, resource: ResourceBooking, ownedOnly: true},
		{action: ActionRead, resource: ResourceReview},
		{action: ActionCreate, resource: ResourceReview},
		{action: ActionDelete, resource: ResourceReview, ownedOnly: true},
	},
}

// Can reports whether the actor may perform action on a resource instance.
// ownerID is the owning user of the instance; pass an empty string for
// resources without ownership semantics.
func Can(actor Actor, action Action, resource Resource, ownerID string) bool {
	if actor.Role == constant.RoleAdmin {
		return true
	}

	for _, r := range roleRules[actor.Role] {
		if r.action != action || r.resource != resource {
			continue
		}

		if r.ownedOnly {
			return ownerID != "" && ownerID == actor.ID
		}

		return true
	}

	return false
}

package service

import "drawroom/internal/domain"

// Effect is the outcome class of a permission check.
type Effect int

const (
	EffectAllowed Effect = iota
	EffectForbidden
	EffectNotFound
)

// Reason narrows a Forbidden decision to a machine-readable cause.
type Reason string

const (
	ReasonNotAMember            Reason = "not-a-member"
	ReasonAdminRequired         Reason = "admin-required"
	ReasonOwnerRequired         Reason = "owner-required"
	ReasonCannotModifyOwner     Reason = "cannot-modify-owner"
	ReasonCannotDemoteLastAdmin Reason = "cannot-demote-last-admin"
	ReasonCannotKickSelf        Reason = "cannot-kick-self"
)

// Decision is the closed result of a permission check. Policy violations are
// not errors: the evaluator always returns a tagged result and the caller
// decides how to surface it. Go errors are reserved for datastore failures.
type Decision struct {
	Effect Effect
	Reason Reason
}

func Allowed() Decision           { return Decision{Effect: EffectAllowed} }
func Forbidden(r Reason) Decision { return Decision{Effect: EffectForbidden, Reason: r} }
func NotFoundDecision() Decision  { return Decision{Effect: EffectNotFound} }

func (d Decision) IsAllowed() bool { return d.Effect == EffectAllowed }

// PermissionEvaluator answers "can user X perform action Y on room R" from
// already-loaded membership state. Every method is pure and side-effect free;
// callers load state first and mutate only after an Allowed decision.
type PermissionEvaluator struct{}

func NewPermissionEvaluator() *PermissionEvaluator { return &PermissionEvaluator{} }

// CanPostContent gates chat messages, shapes and content reads: any member.
func (e *PermissionEvaluator) CanPostContent(room *domain.Room, actor *domain.Membership) Decision {
	if room == nil {
		return NotFoundDecision()
	}
	if actor == nil {
		return Forbidden(ReasonNotAMember)
	}
	return Allowed()
}

// CanModerate gates clear-shapes and share-toggle: admin or owner.
func (e *PermissionEvaluator) CanModerate(room *domain.Room, actor *domain.Membership) Decision {
	if room == nil {
		return NotFoundDecision()
	}
	if actor == nil {
		return Forbidden(ReasonNotAMember)
	}
	if actor.IsAdmin() || actor.UserID == room.OwnerID {
		return Allowed()
	}
	return Forbidden(ReasonAdminRequired)
}

// CanDeleteRoom gates room deletion: owner only.
func (e *PermissionEvaluator) CanDeleteRoom(room *domain.Room, actorID uint) Decision {
	if room == nil {
		return NotFoundDecision()
	}
	if room.OwnerID != actorID {
		return Forbidden(ReasonOwnerRequired)
	}
	return Allowed()
}

// CanKick gates removing another member. The owner can never be kicked, and
// kicking yourself is the leave path, not a kick.
func (e *PermissionEvaluator) CanKick(room *domain.Room, actor, target *domain.Membership) Decision {
	if d := e.CanModerate(room, actor); !d.IsAllowed() {
		return d
	}
	if target == nil {
		return NotFoundDecision()
	}
	if target.UserID == actor.UserID {
		return Forbidden(ReasonCannotKickSelf)
	}
	if target.UserID == room.OwnerID {
		return Forbidden(ReasonCannotModifyOwner)
	}
	return Allowed()
}

// CanSetRole gates promote/demote. adminCount is the room's current number of
// ADMIN members; demoting the last one would break the ">= 1 admin"
// invariant, so it is never permitted regardless of the caller's role. The
// owner's role likewise cannot be changed by anyone.
func (e *PermissionEvaluator) CanSetRole(room *domain.Room, actor, target *domain.Membership, newRole domain.Role, adminCount int) Decision {
	if d := e.CanModerate(room, actor); !d.IsAllowed() {
		return d
	}
	if target == nil {
		return NotFoundDecision()
	}
	if target.UserID == room.OwnerID {
		return Forbidden(ReasonCannotModifyOwner)
	}
	if newRole == domain.RoleMember && target.IsAdmin() && adminCount <= 1 {
		return Forbidden(ReasonCannotDemoteLastAdmin)
	}
	return Allowed()
}

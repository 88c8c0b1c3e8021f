package domain

import "sort"

// SuccessionPlan is the outcome of the ownership-transfer decision tree for a
// departing owner. Exactly one of the following holds:
//   - DeleteRoom is true: the owner was the sole member, the room goes away.
//   - NewOwnerID is set: ownership moves to that member; Promote reports
//     whether the successor must also be raised to ADMIN first.
type SuccessionPlan struct {
	DeleteRoom bool
	NewOwnerID uint
	Promote    bool
}

// PlanSuccession decides who inherits a room when its owner leaves.
//
// The decision tree, evaluated over the full member list:
//  1. Owner is the only member: delete the room.
//  2. Another ADMIN exists: the earliest-joined admin becomes owner, role
//     unchanged.
//  3. No other admin: the earliest-joined remaining member is promoted to
//     ADMIN and becomes owner.
//
// Ordering is joinedAt ascending with userId ascending as the final
// tie-break, so the choice is stable even when two rows share a timestamp.
// The function is pure; callers apply the plan inside a store transaction.
func PlanSuccession(ownerID uint, members []Membership) SuccessionPlan {
	remaining := make([]Membership, 0, len(members))
	for _, m := range members {
		if m.UserID != ownerID {
			remaining = append(remaining, m)
		}
	}
	if len(remaining) == 0 {
		return SuccessionPlan{DeleteRoom: true}
	}

	sort.SliceStable(remaining, func(i, j int) bool {
		if !remaining[i].JoinedAt.Equal(remaining[j].JoinedAt) {
			return remaining[i].JoinedAt.Before(remaining[j].JoinedAt)
		}
		return remaining[i].UserID < remaining[j].UserID
	})

	for _, m := range remaining {
		if m.IsAdmin() {
			return SuccessionPlan{NewOwnerID: m.UserID}
		}
	}
	return SuccessionPlan{NewOwnerID: remaining[0].UserID, Promote: true}
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"drawroom/internal/domain"
	"drawroom/internal/repository"
)

// MemberInfo is a membership joined with the user's display name, for member
// listings.
type MemberInfo struct {
	UserID      uint        `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	JoinedAt    string      `json:"joined_at"`
	IsOwner     bool        `json:"is_owner"`
}

// MembershipService wraps the membership store with permission checks. Every
// mutating call returns a Decision alongside the infrastructure error: a
// policy violation is a tagged result, never an error.
type MembershipService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MembershipRepository
	userRepo   repository.UserRepository
	perms      *PermissionEvaluator
}

func NewMembershipService(roomRepo repository.RoomRepository, memberRepo repository.MembershipRepository, userRepo repository.UserRepository, perms *PermissionEvaluator) *MembershipService {
	if roomRepo == nil || memberRepo == nil || userRepo == nil {
		panic("repositories cannot be nil for MembershipService")
	}
	if perms == nil {
		panic("PermissionEvaluator cannot be nil for MembershipService")
	}
	return &MembershipService{roomRepo: roomRepo, memberRepo: memberRepo, userRepo: userRepo, perms: perms}
}

// GetMembership returns the user's membership in the room, ErrRoomNotFound
// when the room does not exist and ErrNotMember when the user is not in it.
func (s *MembershipService) GetMembership(ctx context.Context, roomID, userID uint) (*domain.Membership, error) {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}
	m, err := s.memberRepo.Get(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return nil, ErrNotMember
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Error("GetMembership: repository error")
		return nil, ErrInternalServer
	}
	return m, nil
}

// ListMembers returns the room's members with display names, in join order.
func (s *MembershipService) ListMembers(ctx context.Context, roomID uint) ([]MemberInfo, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}
	members, err := s.memberRepo.ListMembers(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("ListMembers: repository error")
		return nil, ErrInternalServer
	}

	ids := make([]uint, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("ListMembers: failed to load users")
		return nil, ErrInternalServer
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}

	infos := make([]MemberInfo, len(members))
	for i, m := range members {
		infos[i] = MemberInfo{
			UserID:      m.UserID,
			DisplayName: names[m.UserID],
			Role:        m.Role,
			JoinedAt:    m.JoinedAt.UTC().Format(time.RFC3339),
			IsOwner:     m.UserID == room.OwnerID,
		}
	}
	return infos, nil
}

// SetRole promotes or demotes a member.
func (s *MembershipService) SetRole(ctx context.Context, roomID, actorID, targetID uint, role domain.Role) (Decision, error) {
	room, actor, target, admins, err := s.loadForModeration(ctx, roomID, actorID, targetID)
	if err != nil {
		return Decision{}, err
	}
	if d := s.perms.CanSetRole(room, actor, target, role, admins); !d.IsAllowed() {
		return d, nil
	}
	if err := s.memberRepo.SetRole(ctx, roomID, targetID, role); err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return NotFoundDecision(), nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "target_id": targetID}).Error("SetRole: repository error")
		return Decision{}, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{
		"room_id":   roomID,
		"actor_id":  actorID,
		"target_id": targetID,
		"role":      role,
	}).Info("Member role changed")
	return Allowed(), nil
}

// Kick removes another member from the room. Owners cannot be kicked, so no
// ownership resolution is needed here.
func (s *MembershipService) Kick(ctx context.Context, roomID, actorID, targetID uint) (Decision, error) {
	room, actor, target, _, err := s.loadForModeration(ctx, roomID, actorID, targetID)
	if err != nil {
		return Decision{}, err
	}
	if d := s.perms.CanKick(room, actor, target); !d.IsAllowed() {
		return d, nil
	}
	if err := s.memberRepo.Remove(ctx, roomID, targetID); err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return NotFoundDecision(), nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "target_id": targetID}).Error("Kick: repository error")
		return Decision{}, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room_id": roomID, "actor_id": actorID, "target_id": targetID}).Info("Member kicked")
	return Allowed(), nil
}

// Leave removes the caller's own membership, running ownership succession in
// the store when the owner departs. The outcome tells the caller what to
// announce: room deleted, ownership transferred, or a plain leave.
func (s *MembershipService) Leave(ctx context.Context, roomID, userID uint) (*repository.LeaveOutcome, error) {
	outcome, err := s.memberRepo.Leave(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return nil, ErrNotMember
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Error("Leave: repository error")
		return nil, ErrInternalServer
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})
	switch {
	case outcome.RoomDeleted:
		logCtx.Info("Sole member left, room deleted")
	case outcome.OwnerChanged:
		logCtx.WithFields(logrus.Fields{"new_owner_id": outcome.NewOwnerID, "promoted": outcome.Promoted}).Info("Owner left, ownership transferred")
	default:
		logCtx.Info("Member left room")
	}
	return outcome, nil
}

func (s *MembershipService) loadForModeration(ctx context.Context, roomID, actorID, targetID uint) (*domain.Room, *domain.Membership, *domain.Membership, int, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, nil, 0, nil
		}
		return nil, nil, nil, 0, ErrInternalServer
	}
	members, err := s.memberRepo.ListMembers(ctx, roomID)
	if err != nil {
		return nil, nil, nil, 0, ErrInternalServer
	}
	var actor, target *domain.Membership
	admins := 0
	for i := range members {
		m := &members[i]
		if m.IsAdmin() {
			admins++
		}
		if m.UserID == actorID {
			actor = m
		}
		if m.UserID == targetID {
			target = m
		}
	}
	return room, actor, target, admins, nil
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"drawroom/internal/domain"
	"drawroom/internal/repository"
)

// RoomService handles room lifecycle: creation, joining, sharing and
// deletion. It sits outside the real-time path; the hub consults it only to
// resolve rooms.
type RoomService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MembershipRepository
	perms      *PermissionEvaluator
}

func NewRoomService(roomRepo repository.RoomRepository, memberRepo repository.MembershipRepository, perms *PermissionEvaluator) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if memberRepo == nil {
		panic("MembershipRepository cannot be nil for RoomService")
	}
	if perms == nil {
		panic("PermissionEvaluator cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo, memberRepo: memberRepo, perms: perms}
}

// CreateRoom creates a room owned by creatorID, with the owner's ADMIN
// membership written in the same transaction.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, name string, isShared bool) (*domain.Room, error) {
	logCtx := logrus.WithField("creator_id", creatorID)

	inviteCode, err := s.generateUniqueInviteCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique invite code")
		return nil, ErrInternalServer
	}

	room := &domain.Room{
		Name:       name,
		OwnerID:    creatorID,
		IsShared:   isShared,
		InviteCode: inviteCode,
		LastActive: time.Now(),
	}
	if err := s.roomRepo.CreateWithOwner(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"room_id": room.ID, "invite_code": inviteCode}).Info("Room created")
	return room, nil
}

// GetRoom resolves a room by ID.
func (s *RoomService) GetRoom(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("GetRoom: repository error")
		return nil, ErrInternalServer
	}
	return room, nil
}

// ListRoomsForUser returns the rooms the user is a member of.
func (s *RoomService) ListRoomsForUser(ctx context.Context, userID uint) ([]domain.Room, error) {
	rooms, err := s.roomRepo.FindAllByMember(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("ListRoomsForUser: repository error")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// JoinByInviteCode adds the user as a MEMBER of the room behind the code.
// Joining a room you already belong to is idempotent.
func (s *RoomService) JoinByInviteCode(ctx context.Context, userID uint, inviteCode string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "invite_code": inviteCode})

	room, err := s.roomRepo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Join by invite code failed: no such code")
			return nil, ErrInvalidInviteCode
		}
		logCtx.WithError(err).Error("Join by invite code: repository error")
		return nil, ErrInternalServer
	}
	if err := s.addMember(ctx, room.ID, userID); err != nil {
		return nil, err
	}
	logCtx.WithField("room_id", room.ID).Info("User joined room by invite code")
	return room, nil
}

// JoinShared self-joins a room that has sharing enabled. Non-shared rooms
// reject self-join regardless of who asks.
func (s *RoomService) JoinShared(ctx context.Context, userID, roomID uint) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsShared {
		logCtx.Warn("Self-join rejected: room is not shared")
		return nil, ErrRoomNotShared
	}
	if err := s.addMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	logCtx.Info("User self-joined shared room")
	return room, nil
}

// SetShared toggles whether non-members may self-join. Admin or owner only.
func (s *RoomService) SetShared(ctx context.Context, roomID, actorID uint, shared bool) (Decision, error) {
	room, actor, err := s.loadRoomAndActor(ctx, roomID, actorID)
	if err != nil {
		return Decision{}, err
	}
	if d := s.perms.CanModerate(room, actor); !d.IsAllowed() {
		return d, nil
	}
	room.IsShared = shared
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("SetShared: failed to save room")
		return Decision{}, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room_id": roomID, "actor_id": actorID, "shared": shared}).Info("Room sharing updated")
	return Allowed(), nil
}

// DeleteRoom removes the room and all its content. Owner only.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID, actorID uint) (Decision, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return NotFoundDecision(), nil
		}
		return Decision{}, err
	}
	if d := s.perms.CanDeleteRoom(room, actorID); !d.IsAllowed() {
		return d, nil
	}
	if err := s.roomRepo.Delete(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return NotFoundDecision(), nil
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("DeleteRoom: repository error")
		return Decision{}, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room_id": roomID, "actor_id": actorID}).Info("Room deleted")
	return Allowed(), nil
}

// TouchActivity bumps the room's last-active timestamp. Failures are logged
// and swallowed; activity tracking must never fail a content write.
func (s *RoomService) TouchActivity(ctx context.Context, roomID uint) {
	if err := s.roomRepo.TouchLastActive(ctx, roomID); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to touch room activity")
	}
}

func (s *RoomService) addMember(ctx context.Context, roomID, userID uint) error {
	m := &domain.Membership{
		RoomID:   roomID,
		UserID:   userID,
		Role:     domain.RoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.memberRepo.Add(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Already a member: treat the join as idempotent.
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Error("Failed to add membership")
		return ErrInternalServer
	}
	return nil
}

func (s *RoomService) loadRoomAndActor(ctx context.Context, roomID, actorID uint) (*domain.Room, *domain.Membership, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, nil // evaluator maps nil room to NotFound
		}
		return nil, nil, ErrInternalServer
	}
	actor, err := s.memberRepo.Get(ctx, roomID, actorID)
	if err != nil && !errors.Is(err, repository.ErrMembershipNotFound) {
		return nil, nil, ErrInternalServer
	}
	return room, actor, nil
}

func (s *RoomService) generateUniqueInviteCode(ctx context.Context) (string, error) {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const codeLength = 6
	const maxAttempts = 10

	b := make([]byte, codeLength)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for i := range b {
			b[i] = letters[int(b[i])%len(letters)]
		}
		code := string(b)

		exists, err := s.roomRepo.IsInviteCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("database error checking invite code: %w", err)
		}
		if !exists {
			return code, nil
		}
		logrus.WithField("invite_code", code).Warnf("Generated invite code already exists, retrying (attempt %d)", attempt+1)
	}
	return "", fmt.Errorf("failed to generate a unique invite code after %d attempts", maxAttempts)
}

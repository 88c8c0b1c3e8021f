package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drawroom/internal/domain"
	"drawroom/internal/repository"
	"drawroom/internal/repository/mocks"
	"drawroom/internal/service"
)

func newRoomService(roomRepo *mocks.RoomRepository, memberRepo *mocks.MembershipRepository) *service.RoomService {
	return service.NewRoomService(roomRepo, memberRepo, service.NewPermissionEvaluator())
}

func TestRoomService_CreateRoom(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	memberRepo := new(mocks.MembershipRepository)
	svc := newRoomService(roomRepo, memberRepo)
	ctx := context.Background()

	roomRepo.On("IsInviteCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	roomRepo.On("CreateWithOwner", ctx, mock.MatchedBy(func(room *domain.Room) bool {
		assert.Equal(t, "sketchpad", room.Name)
		assert.Equal(t, uint(10), room.OwnerID)
		assert.Len(t, room.InviteCode, 6)
		return true
	})).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Room).ID = 7 }).
		Return(nil).
		Once()

	room, err := svc.CreateRoom(ctx, 10, "sketchpad", false)
	require.NoError(t, err)
	assert.Equal(t, uint(7), room.ID)
	roomRepo.AssertExpectations(t)
}

func TestRoomService_JoinByInviteCode(t *testing.T) {
	ctx := context.Background()
	room := &domain.Room{ID: 3, Name: "plans", OwnerID: 5, InviteCode: "AB12CD"}

	t.Run("new member is added", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		memberRepo := new(mocks.MembershipRepository)
		svc := newRoomService(roomRepo, memberRepo)

		roomRepo.On("FindByInviteCode", ctx, "AB12CD").Return(room, nil).Once()
		memberRepo.On("Add", ctx, mock.MatchedBy(func(m *domain.Membership) bool {
			return m.RoomID == 3 && m.UserID == 10 && m.Role == domain.RoleMember && !m.JoinedAt.IsZero()
		})).Return(nil).Once()

		joined, err := svc.JoinByInviteCode(ctx, 10, "AB12CD")
		require.NoError(t, err)
		assert.Equal(t, uint(3), joined.ID)
		memberRepo.AssertExpectations(t)
	})

	t.Run("rejoining is idempotent", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		memberRepo := new(mocks.MembershipRepository)
		svc := newRoomService(roomRepo, memberRepo)

		roomRepo.On("FindByInviteCode", ctx, "AB12CD").Return(room, nil).Once()
		memberRepo.On("Add", ctx, mock.AnythingOfType("*domain.Membership")).
			Return(repository.ErrDuplicateEntry).Once()

		_, err := svc.JoinByInviteCode(ctx, 10, "AB12CD")
		assert.NoError(t, err, "joining a room twice must not fail")
	})

	t.Run("unknown code", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		memberRepo := new(mocks.MembershipRepository)
		svc := newRoomService(roomRepo, memberRepo)

		roomRepo.On("FindByInviteCode", ctx, "ZZZZZZ").Return(nil, repository.ErrRoomNotFound).Once()

		_, err := svc.JoinByInviteCode(ctx, 10, "ZZZZZZ")
		assert.True(t, errors.Is(err, service.ErrInvalidInviteCode))
		memberRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})
}

func TestRoomService_JoinShared(t *testing.T) {
	ctx := context.Background()

	t.Run("non-shared room rejects self-join", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		memberRepo := new(mocks.MembershipRepository)
		svc := newRoomService(roomRepo, memberRepo)

		roomRepo.On("FindByID", ctx, uint(3)).Return(&domain.Room{ID: 3, IsShared: false}, nil).Once()

		_, err := svc.JoinShared(ctx, 10, 3)
		assert.True(t, errors.Is(err, service.ErrRoomNotShared))
		memberRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("shared room self-join", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		memberRepo := new(mocks.MembershipRepository)
		svc := newRoomService(roomRepo, memberRepo)

		roomRepo.On("FindByID", ctx, uint(3)).Return(&domain.Room{ID: 3, IsShared: true}, nil).Once()
		memberRepo.On("Add", ctx, mock.AnythingOfType("*domain.Membership")).Return(nil).Once()

		room, err := svc.JoinShared(ctx, 10, 3)
		require.NoError(t, err)
		assert.Equal(t, uint(3), room.ID)
	})
}

func TestRoomService_SetShared(t *testing.T) {
	ctx := context.Background()
	room := &domain.Room{ID: 1, OwnerID: 10}

	t.Run("plain member is refused", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		memberRepo := new(mocks.MembershipRepository)
		svc := newRoomService(roomRepo, memberRepo)

		roomRepo.On("FindByID", ctx, uint(1)).Return(room, nil).Once()
		memberRepo.On("Get", ctx, uint(1), uint(20)).
			Return(&domain.Membership{RoomID: 1, UserID: 20, Role: domain.RoleMember}, nil).Once()

		d, err := svc.SetShared(ctx, 1, 20, true)
		require.NoError(t, err)
		assert.Equal(t, service.Forbidden(service.ReasonAdminRequired), d)
		roomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("admin toggles sharing", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		memberRepo := new(mocks.MembershipRepository)
		svc := newRoomService(roomRepo, memberRepo)

		roomRepo.On("FindByID", ctx, uint(1)).Return(&domain.Room{ID: 1, OwnerID: 10}, nil).Once()
		memberRepo.On("Get", ctx, uint(1), uint(20)).
			Return(&domain.Membership{RoomID: 1, UserID: 20, Role: domain.RoleAdmin}, nil).Once()
		roomRepo.On("Save", ctx, mock.MatchedBy(func(r *domain.Room) bool { return r.IsShared })).
			Return(nil).Once()

		d, err := svc.SetShared(ctx, 1, 20, true)
		require.NoError(t, err)
		assert.True(t, d.IsAllowed())
		roomRepo.AssertExpectations(t)
	})
}

func TestRoomService_DeleteRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		svc := newRoomService(roomRepo, new(mocks.MembershipRepository))

		roomRepo.On("FindByID", ctx, uint(1)).Return(&domain.Room{ID: 1, OwnerID: 10}, nil).Once()
		roomRepo.On("Delete", ctx, uint(1)).Return(nil).Once()

		d, err := svc.DeleteRoom(ctx, 1, 10)
		require.NoError(t, err)
		assert.True(t, d.IsAllowed())
		roomRepo.AssertExpectations(t)
	})

	t.Run("admin is not enough", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		svc := newRoomService(roomRepo, new(mocks.MembershipRepository))

		roomRepo.On("FindByID", ctx, uint(1)).Return(&domain.Room{ID: 1, OwnerID: 10}, nil).Once()

		d, err := svc.DeleteRoom(ctx, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, service.Forbidden(service.ReasonOwnerRequired), d)
		roomRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unknown room", func(t *testing.T) {
		roomRepo := new(mocks.RoomRepository)
		svc := newRoomService(roomRepo, new(mocks.MembershipRepository))

		roomRepo.On("FindByID", ctx, uint(9)).Return(nil, repository.ErrRoomNotFound).Once()

		d, err := svc.DeleteRoom(ctx, 9, 10)
		require.NoError(t, err)
		assert.Equal(t, service.EffectNotFound, d.Effect)
	})
}

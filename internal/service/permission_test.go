package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drawroom/internal/domain"
	"drawroom/internal/service"
)

var (
	testRoom = &domain.Room{ID: 1, Name: "sketch", OwnerID: 100}

	ownerMember  = &domain.Membership{RoomID: 1, UserID: 100, Role: domain.RoleAdmin, JoinedAt: time.Now()}
	adminMember  = &domain.Membership{RoomID: 1, UserID: 200, Role: domain.RoleAdmin, JoinedAt: time.Now()}
	plainMember  = &domain.Membership{RoomID: 1, UserID: 300, Role: domain.RoleMember, JoinedAt: time.Now()}
	secondMember = &domain.Membership{RoomID: 1, UserID: 400, Role: domain.RoleMember, JoinedAt: time.Now()}
)

func TestCanPostContent(t *testing.T) {
	perms := service.NewPermissionEvaluator()

	assert.Equal(t, service.EffectNotFound, perms.CanPostContent(nil, nil).Effect,
		"a missing room must never leak a permission answer")
	assert.Equal(t, service.Forbidden(service.ReasonNotAMember), perms.CanPostContent(testRoom, nil))
	assert.True(t, perms.CanPostContent(testRoom, plainMember).IsAllowed())
	assert.True(t, perms.CanPostContent(testRoom, adminMember).IsAllowed())
}

func TestCanModerate(t *testing.T) {
	perms := service.NewPermissionEvaluator()

	assert.Equal(t, service.EffectNotFound, perms.CanModerate(nil, adminMember).Effect)
	assert.Equal(t, service.Forbidden(service.ReasonNotAMember), perms.CanModerate(testRoom, nil))
	assert.Equal(t, service.Forbidden(service.ReasonAdminRequired), perms.CanModerate(testRoom, plainMember))
	assert.True(t, perms.CanModerate(testRoom, adminMember).IsAllowed())
	assert.True(t, perms.CanModerate(testRoom, ownerMember).IsAllowed())
}

func TestCanDeleteRoom(t *testing.T) {
	perms := service.NewPermissionEvaluator()

	assert.Equal(t, service.EffectNotFound, perms.CanDeleteRoom(nil, 100).Effect)
	assert.Equal(t, service.Forbidden(service.ReasonOwnerRequired), perms.CanDeleteRoom(testRoom, adminMember.UserID),
		"admins are not owners; deletion stays owner-only")
	assert.True(t, perms.CanDeleteRoom(testRoom, 100).IsAllowed())
}

func TestCanKick(t *testing.T) {
	perms := service.NewPermissionEvaluator()

	t.Run("actor must moderate", func(t *testing.T) {
		assert.Equal(t, service.Forbidden(service.ReasonAdminRequired), perms.CanKick(testRoom, plainMember, secondMember))
		assert.Equal(t, service.Forbidden(service.ReasonNotAMember), perms.CanKick(testRoom, nil, plainMember))
	})

	t.Run("unknown target is not-found", func(t *testing.T) {
		assert.Equal(t, service.EffectNotFound, perms.CanKick(testRoom, adminMember, nil).Effect)
	})

	t.Run("self-kick is the leave path", func(t *testing.T) {
		assert.Equal(t, service.Forbidden(service.ReasonCannotKickSelf), perms.CanKick(testRoom, adminMember, adminMember))
	})

	t.Run("owner is untouchable", func(t *testing.T) {
		assert.Equal(t, service.Forbidden(service.ReasonCannotModifyOwner), perms.CanKick(testRoom, adminMember, ownerMember))
	})

	t.Run("admin kicks member", func(t *testing.T) {
		assert.True(t, perms.CanKick(testRoom, adminMember, plainMember).IsAllowed())
	})

	t.Run("owner kicks admin", func(t *testing.T) {
		assert.True(t, perms.CanKick(testRoom, ownerMember, adminMember).IsAllowed())
	})
}

func TestCanSetRole(t *testing.T) {
	perms := service.NewPermissionEvaluator()

	t.Run("member cannot change roles", func(t *testing.T) {
		d := perms.CanSetRole(testRoom, plainMember, secondMember, domain.RoleAdmin, 2)
		assert.Equal(t, service.Forbidden(service.ReasonAdminRequired), d)
	})

	t.Run("owner role cannot be changed", func(t *testing.T) {
		d := perms.CanSetRole(testRoom, adminMember, ownerMember, domain.RoleMember, 2)
		assert.Equal(t, service.Forbidden(service.ReasonCannotModifyOwner), d)
	})

	t.Run("promote member", func(t *testing.T) {
		d := perms.CanSetRole(testRoom, adminMember, plainMember, domain.RoleAdmin, 2)
		assert.True(t, d.IsAllowed())
	})

	t.Run("demote admin with another admin present", func(t *testing.T) {
		d := perms.CanSetRole(testRoom, ownerMember, adminMember, domain.RoleMember, 2)
		assert.True(t, d.IsAllowed())
	})

	t.Run("cannot demote the last admin", func(t *testing.T) {
		room := &domain.Room{ID: 2, OwnerID: 999} // owner not in the member list anymore
		lastAdmin := &domain.Membership{RoomID: 2, UserID: 200, Role: domain.RoleAdmin}
		actor := &domain.Membership{RoomID: 2, UserID: 200, Role: domain.RoleAdmin}
		d := perms.CanSetRole(room, actor, lastAdmin, domain.RoleMember, 1)
		assert.Equal(t, service.Forbidden(service.ReasonCannotDemoteLastAdmin), d)
	})

	t.Run("unknown target", func(t *testing.T) {
		d := perms.CanSetRole(testRoom, adminMember, nil, domain.RoleAdmin, 2)
		assert.Equal(t, service.EffectNotFound, d.Effect)
	})
}

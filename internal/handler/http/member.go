package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"drawroom/internal/domain"
	"drawroom/internal/service"
)

// MemberHandler exposes member listing and moderation: promote, demote, kick.
type MemberHandler struct {
	memberService *service.MembershipService
	notifier      RoomNotifier
}

func NewMemberHandler(memberService *service.MembershipService, notifier RoomNotifier) *MemberHandler {
	if memberService == nil {
		panic("MembershipService cannot be nil for MemberHandler")
	}
	if notifier == nil {
		panic("RoomNotifier cannot be nil for MemberHandler")
	}
	return &MemberHandler{memberService: memberService, notifier: notifier}
}

// ListMembers handles GET /api/rooms/:roomId/members. Members only.
func (h *MemberHandler) ListMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	if _, err := h.memberService.GetMembership(c.Request.Context(), roomID, userID); err != nil {
		HandleServiceError(c, err)
		return
	}
	members, err := h.memberService.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"members": members})
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

// SetRole handles PUT /api/rooms/:roomId/members/:userId/role.
func (h *MemberHandler) SetRole(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: role must be 'admin' or 'member'")
		return
	}

	d, err := h.memberService.SetRole(c.Request.Context(), roomID, actorID, targetID, domain.Role(req.Role))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !d.IsAllowed() {
		HandleDecision(c, d)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Role updated"})
}

// Kick handles DELETE /api/rooms/:roomId/members/:userId. The removed user's
// live sessions are evicted immediately.
func (h *MemberHandler) Kick(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}

	d, err := h.memberService.Kick(c.Request.Context(), roomID, actorID, targetID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !d.IsAllowed() {
		HandleDecision(c, d)
		return
	}
	h.notifier.NotifyMemberRemoved(roomID, targetID)
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Member removed"})
}

func userIDParam(c *gin.Context) (uint, bool) {
	userIDStr := c.Param("userId")
	userID64, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil || userID64 == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid user ID format")
		return 0, false
	}
	return uint(userID64), true
}

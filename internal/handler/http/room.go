package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"drawroom/internal/service"
)

// RoomNotifier lets the CRUD layer push lifecycle events to live websocket
// sessions. Satisfied by *hub.Hub.
type RoomNotifier interface {
	NotifyRoomDeleted(roomID uint)
	NotifyMemberRemoved(roomID, userID uint)
	NotifyOwnerChanged(roomID, newOwnerID uint, promoted bool)
}

// RoomHandler exposes room lifecycle: create, list, join, share, leave,
// delete. Mutations that change who may be in the room are mirrored to the
// hub so live sessions see them immediately.
type RoomHandler struct {
	roomService   *service.RoomService
	memberService *service.MembershipService
	notifier      RoomNotifier
}

func NewRoomHandler(roomService *service.RoomService, memberService *service.MembershipService, notifier RoomNotifier) *RoomHandler {
	if roomService == nil || memberService == nil {
		panic("services cannot be nil for RoomHandler")
	}
	if notifier == nil {
		panic("RoomNotifier cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService, memberService: memberService, notifier: notifier}
}

type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required,max=64"`
	IsShared bool   `json:"is_shared"`
}

type CreateRoomResponse struct {
	Message    string `json:"message"`
	RoomID     uint   `json:"room_id"`
	InviteCode string `json:"invite_code"`
}

// CreateRoom handles POST /api/rooms.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: name is required")
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, req.Name, req.IsShared)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, CreateRoomResponse{
		Message:    "Room created successfully",
		RoomID:     room.ID,
		InviteCode: room.InviteCode,
	})
}

// ListRooms handles GET /api/rooms: the caller's rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rooms, err := h.roomService.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoom handles GET /api/rooms/:roomId. Members only.
func (h *RoomHandler) GetRoom(c *gin.Context) {
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
	room, err := h.roomService.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

type JoinRoomRequest struct {
	InviteCode string `json:"invite_code" binding:"required,len=6"`
}

type JoinRoomResponse struct {
	Message string `json:"message"`
	RoomID  uint   `json:"room_id"`
}

// JoinRoom handles POST /api/rooms/join with an invite code.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: invite_code is required")
		return
	}

	room, err := h.roomService.JoinByInviteCode(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, JoinRoomResponse{Message: "Joined room successfully", RoomID: room.ID})
}

// JoinShared handles POST /api/rooms/:roomId/join for rooms with sharing on.
func (h *RoomHandler) JoinShared(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.roomService.JoinShared(c.Request.Context(), userID, roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, JoinRoomResponse{Message: "Joined room successfully", RoomID: room.ID})
}

type SetSharedRequest struct {
	IsShared *bool `json:"is_shared" binding:"required"`
}

// SetShared handles PUT /api/rooms/:roomId/shared. Admin or owner.
func (h *RoomHandler) SetShared(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req SetSharedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: is_shared is required")
		return
	}

	d, err := h.roomService.SetShared(c.Request.Context(), roomID, userID, *req.IsShared)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !d.IsAllowed() {
		HandleDecision(c, d)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room sharing updated"})
}

// LeaveRoom handles POST /api/rooms/:roomId/leave. When the owner leaves,
// ownership succession runs in the store and the outcome is mirrored to live
// sessions: room closed, or the new owner announced.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	outcome, err := h.memberService.Leave(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	switch {
	case outcome.RoomDeleted:
		h.notifier.NotifyRoomDeleted(roomID)
		SuccessResponse(c, http.StatusOK, gin.H{"message": "Left room; room deleted", "room_deleted": true})
	case outcome.OwnerChanged:
		h.notifier.NotifyMemberRemoved(roomID, userID)
		h.notifier.NotifyOwnerChanged(roomID, outcome.NewOwnerID, outcome.Promoted)
		SuccessResponse(c, http.StatusOK, gin.H{"message": "Left room", "new_owner_id": outcome.NewOwnerID})
	default:
		h.notifier.NotifyMemberRemoved(roomID, userID)
		SuccessResponse(c, http.StatusOK, gin.H{"message": "Left room"})
	}
}

// DeleteRoom handles DELETE /api/rooms/:roomId. Owner only.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	d, err := h.roomService.DeleteRoom(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !d.IsAllowed() {
		HandleDecision(c, d)
		return
	}
	h.notifier.NotifyRoomDeleted(roomID)
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Room deleted"})
}

func roomIDParam(c *gin.Context) (uint, bool) {
	roomIDStr := c.Param("roomId")
	roomID64, err := strconv.ParseUint(roomIDStr, 10, 32)
	if err != nil || roomID64 == 0 {
		logrus.Warnf("Handler: invalid room ID format: %s", roomIDStr)
		ErrorResponse(c, http.StatusBadRequest, "Invalid room ID format")
		return 0, false
	}
	return uint(roomID64), true
}

// Package hub is the real-time core: the session gateway that validates and
// routes inbound frames, and the broadcast dispatcher that fans events out to
// the live sessions of a room.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"drawroom/internal/domain"
	"drawroom/internal/presence"
	"drawroom/internal/repository"
	"drawroom/internal/service"
)

// Hub owns the set of live sessions and their room placement. Membership is
// checked against the store on every join and on every submitted event; the
// presence registry is never the authority on who may be in a room.
//
// Broadcast delivery is at-most-once, best-effort: recipients are recomputed
// at broadcast time from the current room placement, and a session that
// disconnects mid-delivery simply misses the event. Durability belongs to the
// content store, not to this layer.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[uint]map[*Client]bool
	sessions map[string]*Client

	presence presence.Registry
	members  *service.MembershipService
	roomSvc  *service.RoomService
	content  *service.ContentService
	perms    *service.PermissionEvaluator
	state    repository.StateRepository

	frameLimit  int
	frameWindow time.Duration
}

func NewHub(
	reg presence.Registry,
	members *service.MembershipService,
	roomSvc *service.RoomService,
	content *service.ContentService,
	perms *service.PermissionEvaluator,
	state repository.StateRepository,
	frameLimit int,
	frameWindow time.Duration,
) *Hub {
	if reg == nil {
		panic("presence registry cannot be nil for Hub")
	}
	if members == nil || roomSvc == nil || content == nil || perms == nil {
		panic("services cannot be nil for Hub")
	}
	if state == nil {
		panic("state repository cannot be nil for Hub")
	}
	if frameLimit <= 0 {
		frameLimit = 30
	}
	if frameWindow <= 0 {
		frameWindow = time.Second
	}
	return &Hub{
		rooms:       make(map[uint]map[*Client]bool),
		sessions:    make(map[string]*Client),
		presence:    reg,
		members:     members,
		roomSvc:     roomSvc,
		content:     content,
		perms:       perms,
		state:       state,
		frameLimit:  frameLimit,
		frameWindow: frameWindow,
	}
}

// Register adds an authenticated session. Called by the websocket handler
// before the client's pumps start.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.sessions[c.sessionID] = c
	h.mu.Unlock()
	logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID}).Info("Session registered")
}

// Unregister tears a session down. Disconnecting while InRoom performs the
// same deregistration and notifications as an explicit leave.
func (h *Hub) Unregister(c *Client) {
	h.leaveCurrentRoom(c, false)

	h.mu.Lock()
	_, known := h.sessions[c.sessionID]
	delete(h.sessions, c.sessionID)
	h.mu.Unlock()
	// markClosed serializes with in-flight trySend calls: broadcasts snapshot
	// recipients outside h.mu, so the channel may only be closed once no
	// sender can reach it anymore.
	if known && c.markClosed() {
		close(c.send)
	}
	if known {
		logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID}).Info("Session unregistered")
	}
}

// HandleFrame validates and dispatches one inbound frame. It runs on the
// client's read goroutine, so frames from one session are handled in order.
func (h *Hub) HandleFrame(c *Client, raw []byte) {
	frame, err := parseFrame(raw)
	if err != nil {
		h.sendError(c, codeInvalidPayload, "", "malformed frame")
		return
	}

	if frame.Type != frameCursorMove {
		key := fmt.Sprintf("ws:sess:%s", c.sessionID)
		exceeded, err := h.state.CheckRateLimit(context.Background(), key, h.frameLimit, h.frameWindow)
		if err != nil {
			// Fail open: a cache outage must not take the room down.
			logrus.WithError(err).Warn("Rate limit check failed, allowing frame")
		} else if exceeded {
			h.sendError(c, codeRateLimited, "", "too many frames, slow down")
			return
		}
	}

	switch frame.Type {
	case frameJoinRoom:
		h.handleJoinRoom(c, frame.RoomID)
	case frameLeaveRoom:
		h.handleLeaveRoom(c, frame.RoomID)
	case frameNewMessage:
		h.handleNewMessage(c, frame)
	case frameNewShape:
		h.handleNewShape(c, frame)
	case frameClearShapes:
		h.handleClearShapes(c, frame)
	case frameCursorMove:
		h.handleCursorMove(c, frame)
	default:
		h.sendError(c, codeInvalidPayload, "", fmt.Sprintf("unknown frame type %q", frame.Type))
	}
}

func (h *Hub) handleJoinRoom(c *Client, roomID uint) {
	if roomID == 0 {
		h.sendError(c, codeInvalidPayload, "", "roomId is required")
		return
	}
	ctx := context.Background()

	// Membership gate. A failed check never mutates presence.
	if _, err := h.members.GetMembership(ctx, roomID, c.userID); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			h.sendError(c, codeRoomNotFound, "", "room not found")
		case errors.Is(err, service.ErrNotMember):
			h.sendError(c, codeForbidden, string(service.ReasonNotAMember), "you are not a member of this room")
		default:
			h.sendError(c, codeInternal, "", "failed to validate membership")
		}
		return
	}

	// Re-joining the current room is idempotent: fresh snapshot, no
	// double-counted presence, no notifications.
	if c.Room() == roomID {
		h.sendRoomJoined(c, roomID)
		return
	}

	// Joining while in another room implicitly leaves it first.
	h.leaveCurrentRoom(c, true)

	h.mu.Lock()
	clients, ok := h.rooms[roomID]
	if !ok {
		clients = make(map[*Client]bool)
		h.rooms[roomID] = clients
	}
	clients[c] = true
	h.mu.Unlock()
	c.setRoom(roomID)

	sessions := h.presence.Join(roomID, c.userID, c.displayName)
	h.sendRoomJoined(c, roomID)

	// Announce only when the user actually came online in the room; a second
	// tab must not re-announce or flap the member list.
	if sessions == 1 {
		h.broadcast(roomID, encodeEvent(eventUserJoined, map[string]interface{}{
			"roomId":      roomID,
			"userId":      c.userID,
			"displayName": c.displayName,
		}), c)
		h.broadcastOnlineMembers(roomID, c)
	}
	logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID, "room_id": roomID}).Info("Session joined room")
}

func (h *Hub) handleLeaveRoom(c *Client, roomID uint) {
	current := c.Room()
	if current == 0 || (roomID != 0 && roomID != current) {
		h.sendError(c, codeNotInRoom, "", "not in that room")
		return
	}
	h.leaveCurrentRoom(c, true)
}

func (h *Hub) handleNewMessage(c *Client, frame clientFrame) {
	roomID, ok := h.checkInRoom(c, frame.RoomID)
	if !ok {
		return
	}
	if !h.recheckMembership(c, roomID) {
		return
	}

	msg, err := h.content.PostMessage(context.Background(), roomID, c.userID, frame.Text)
	if err != nil {
		// Persistence failure short-circuits the broadcast.
		if errors.Is(err, service.ErrInvalidContent) {
			h.sendError(c, codeInvalidPayload, "", "empty or oversized message")
		} else {
			h.sendError(c, codeInternal, "", "failed to store message")
		}
		return
	}
	h.broadcast(roomID, encodeEvent(eventMessageAdded, map[string]interface{}{"record": msg}), c)
}

func (h *Hub) handleNewShape(c *Client, frame clientFrame) {
	roomID, ok := h.checkInRoom(c, frame.RoomID)
	if !ok {
		return
	}
	if !h.recheckMembership(c, roomID) {
		return
	}

	shape, err := h.content.AddShape(context.Background(), roomID, c.userID, frame.ShapeType, string(frame.Data))
	if err != nil {
		if errors.Is(err, service.ErrInvalidContent) {
			h.sendError(c, codeInvalidPayload, "", "invalid shape payload")
		} else {
			h.sendError(c, codeInternal, "", "failed to store shape")
		}
		return
	}
	h.broadcast(roomID, encodeEvent(eventShapeAdded, map[string]interface{}{"record": shape}), c)
}

func (h *Hub) handleClearShapes(c *Client, frame clientFrame) {
	roomID, ok := h.checkInRoom(c, frame.RoomID)
	if !ok {
		return
	}
	ctx := context.Background()

	// Same eviction policy as the other content frames: a member removed
	// after joining is dropped on their next submitted event.
	actor, err := h.members.GetMembership(ctx, roomID, c.userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrRoomNotFound):
			h.sendError(c, codeForbidden, string(service.ReasonNotAMember), "no longer a member of this room")
			h.leaveCurrentRoom(c, true)
		default:
			h.sendError(c, codeInternal, "", "failed to validate membership")
		}
		return
	}
	room, err := h.roomSvc.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			h.sendError(c, codeRoomNotFound, "", "room not found")
		} else {
			h.sendError(c, codeInternal, "", "failed to load room")
		}
		return
	}
	if d := h.perms.CanModerate(room, actor); !d.IsAllowed() {
		h.sendDecision(c, d)
		return
	}

	if err := h.content.ClearShapes(ctx, roomID); err != nil {
		h.sendError(c, codeInternal, "", "failed to clear shapes")
		return
	}
	h.broadcast(roomID, encodeEvent(eventShapesCleared, map[string]interface{}{"roomId": roomID}), c)
}

func (h *Hub) handleCursorMove(c *Client, frame clientFrame) {
	roomID, ok := h.checkInRoom(c, frame.RoomID)
	if !ok {
		return
	}
	// Presence-only event: no persistence, no membership re-check.
	h.broadcast(roomID, encodeEvent(eventCursorMoved, map[string]interface{}{
		"roomId": roomID,
		"userId": c.userID,
		"x":      frame.X,
		"y":      frame.Y,
	}), c)
}

// --- notifications from the CRUD layer ---

// NotifyOwnerChanged announces an ownership transfer to the room's live
// sessions.
func (h *Hub) NotifyOwnerChanged(roomID, newOwnerID uint, promoted bool) {
	h.broadcast(roomID, encodeEvent(eventOwnerChanged, map[string]interface{}{
		"roomId":     roomID,
		"newOwnerId": newOwnerID,
		"promoted":   promoted,
	}), nil)
}

// NotifyRoomDeleted tells every live session the room is gone and evicts
// them back to the Authenticated state.
func (h *Hub) NotifyRoomDeleted(roomID uint) {
	h.broadcast(roomID, encodeEvent(eventRoomClosed, map[string]interface{}{"roomId": roomID}), nil)

	h.mu.Lock()
	clients := h.rooms[roomID]
	delete(h.rooms, roomID)
	h.mu.Unlock()

	for c := range clients {
		c.setRoom(0)
		h.presence.Leave(roomID, c.userID)
	}
}

// NotifyMemberRemoved evicts the removed user's live sessions from the room
// (kick or membership leave) and updates the remaining peers.
func (h *Hub) NotifyMemberRemoved(roomID, userID uint) {
	h.mu.RLock()
	var evicted []*Client
	for c := range h.rooms[roomID] {
		if c.userID == userID {
			evicted = append(evicted, c)
		}
	}
	h.mu.RUnlock()

	removedMsg := encodeEvent(eventRemovedFromRoom, map[string]interface{}{"roomId": roomID})
	for _, c := range evicted {
		h.sendTo(c, removedMsg)
		h.leaveCurrentRoom(c, false)
	}
}

// Shutdown force-closes every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.sessions))
	for _, c := range h.sessions {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.CloseConn()
	}
}

// --- internals ---

// checkInRoom enforces that the frame targets the session's current room.
// Cross-room submission is a protocol violation, rejected rather than
// silently redirected.
func (h *Hub) checkInRoom(c *Client, targetRoom uint) (uint, bool) {
	current := c.Room()
	if current == 0 || targetRoom != current {
		h.sendError(c, codeNotInRoom, "", "event targets a room this session has not joined")
		return 0, false
	}
	return current, true
}

// recheckMembership re-validates membership on the durable store before a
// content write. A session kicked after joining is evicted here, on the next
// event it submits.
func (h *Hub) recheckMembership(c *Client, roomID uint) bool {
	_, err := h.members.GetMembership(context.Background(), roomID, c.userID)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrRoomNotFound):
		h.sendError(c, codeForbidden, string(service.ReasonNotAMember), "no longer a member of this room")
		h.leaveCurrentRoom(c, true)
	default:
		h.sendError(c, codeInternal, "", "failed to validate membership")
	}
	return false
}

// leaveCurrentRoom removes the session from its room, if any. notifySelf
// controls whether the session receives a room-left confirmation (explicit
// and implicit leaves do, disconnects and evictions do not need one).
func (h *Hub) leaveCurrentRoom(c *Client, notifySelf bool) {
	roomID := c.Room()
	if roomID == 0 {
		return
	}

	h.mu.Lock()
	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
	c.setRoom(0)

	gone := h.presence.Leave(roomID, c.userID)
	if notifySelf {
		h.sendTo(c, encodeEvent(eventRoomLeft, map[string]interface{}{"roomId": roomID}))
	}
	if gone {
		h.broadcast(roomID, encodeEvent(eventUserLeft, map[string]interface{}{
			"roomId": roomID,
			"userId": c.userID,
		}), nil)
		h.broadcastOnlineMembers(roomID, nil)
	}
	logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID, "room_id": roomID}).Debug("Session left room")
}

func (h *Hub) sendRoomJoined(c *Client, roomID uint) {
	ctx := context.Background()

	history, err := h.content.RecentMessages(ctx, roomID, 50)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to load chat history for join")
		history = []domain.Message{}
	}
	shapes, err := h.content.Shapes(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to load shapes for join")
		shapes = []domain.Shape{}
	}

	h.sendTo(c, encodeEvent(eventRoomJoined, map[string]interface{}{
		"roomId":  roomID,
		"members": h.presence.Snapshot(roomID),
		"history": history,
		"shapes":  shapes,
	}))
}

func (h *Hub) broadcastOnlineMembers(roomID uint, exclude *Client) {
	h.broadcast(roomID, encodeEvent(eventOnlineMembers, map[string]interface{}{
		"roomId":  roomID,
		"members": h.presence.Snapshot(roomID),
	}), exclude)
}

// broadcast delivers the payload to every live session currently in the room
// except the optionally excluded sender. The recipient list is computed here,
// at send time, never cached from submission time.
func (h *Hub) broadcast(roomID uint, payload []byte, exclude *Client) {
	if payload == nil {
		return
	}
	h.mu.RLock()
	clients := h.rooms[roomID]
	recipients := make([]*Client, 0, len(clients))
	for c := range clients {
		if c != exclude {
			recipients = append(recipients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		h.sendTo(c, payload)
	}
}

// sendTo queues a payload for one session without blocking. A full buffer or
// an already-closed session means the client is too slow or gone; the event
// is dropped and the write pump deals with the connection.
func (h *Hub) sendTo(c *Client, payload []byte) {
	if payload == nil {
		return
	}
	if !c.trySend(payload) {
		logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID}).
			Warn("Client send buffer full or session closed, dropping event")
	}
}

func (h *Hub) sendDecision(c *Client, d service.Decision) {
	switch d.Effect {
	case service.EffectNotFound:
		h.sendError(c, codeRoomNotFound, "", "room not found")
	case service.EffectForbidden:
		h.sendError(c, codeForbidden, string(d.Reason), "permission denied")
	}
}

func (h *Hub) sendError(c *Client, code, reason, message string) {
	h.sendTo(c, encodeError(code, reason, message))
}

func parseFrame(raw []byte) (clientFrame, error) {
	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return frame, err
	}
	if frame.Type == "" {
		return frame, errors.New("missing frame type")
	}
	return frame, nil
}

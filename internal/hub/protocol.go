package hub

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Frame types a client may send.
const (
	frameJoinRoom    = "join-room"
	frameLeaveRoom   = "leave-room"
	frameNewMessage  = "new-message"
	frameNewShape    = "new-shape"
	frameClearShapes = "clear-shapes"
	frameCursorMove  = "cursor-move"
)

// Event types the server emits.
const (
	eventRoomJoined      = "room-joined"
	eventRoomLeft        = "room-left"
	eventUserJoined      = "user-joined-room"
	eventUserLeft        = "user-left-room"
	eventOnlineMembers   = "online-members-updated"
	eventMessageAdded    = "new-message-added"
	eventShapeAdded      = "new-shape-added"
	eventShapesCleared   = "shapes-cleared"
	eventCursorMoved     = "cursor-moved"
	eventOwnerChanged    = "owner-changed"
	eventRoomClosed      = "room-closed"
	eventRemovedFromRoom = "removed-from-room"
	eventError           = "custom-error"
)

// Error codes carried by custom-error events. Only the offending session ever
// receives one; errors are never broadcast.
const (
	codeRoomNotFound   = "room-not-found"
	codeForbidden      = "forbidden"
	codeNotInRoom      = "not-in-room"
	codeInvalidPayload = "invalid-payload"
	codeRateLimited    = "rate-limited"
	codeInternal       = "internal"
)

// clientFrame is the inbound wire format: a type tag plus the union of all
// frame payload fields.
type clientFrame struct {
	Type      string          `json:"type"`
	RoomID    uint            `json:"roomId"`
	Text      string          `json:"text,omitempty"`
	ShapeType string          `json:"shapeType,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	X         float64         `json:"x,omitempty"`
	Y         float64         `json:"y,omitempty"`
}

// encodeEvent marshals an outbound event. A marshal failure is a programming
// error on our side; it is logged and the event dropped rather than sending
// garbage to the client.
func encodeEvent(eventType string, fields map[string]interface{}) []byte {
	payload := make(map[string]interface{}, len(fields)+1)
	payload["type"] = eventType
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event_type", eventType).Error("Failed to marshal outbound event")
		return nil
	}
	return data
}

func encodeError(code, reason, message string) []byte {
	return encodeEvent(eventError, map[string]interface{}{
		"code":    code,
		"reason":  reason,
		"message": message,
	})
}

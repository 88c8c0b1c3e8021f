// Package tasks defines the asynq task types and their payload codecs.
package tasks

import "encoding/json"

const (
	// TypeRoomSweep marks the periodic job that deletes rooms with no
	// activity past the retention window.
	TypeRoomSweep = "room:sweep"
)

// RoomSweepPayload carries the retention window in hours. Zero means the
// worker's default.
type RoomSweepPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewRoomSweepTask builds the payload for a room sweep task.
func NewRoomSweepTask(retentionHours int) ([]byte, error) {
	return json.Marshal(RoomSweepPayload{RetentionHours: retentionHours})
}

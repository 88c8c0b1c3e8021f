package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"drawroom/internal/repository"
	"drawroom/internal/tasks"
)

const defaultRetentionHours = 24 * 30

// RoomSweepHandler deletes rooms whose last activity is older than the
// retention window, together with their content and cached history.
type RoomSweepHandler struct {
	roomRepo  repository.RoomRepository
	stateRepo repository.StateRepository
}

func NewRoomSweepHandler(roomRepo repository.RoomRepository, stateRepo repository.StateRepository) *RoomSweepHandler {
	if roomRepo == nil || stateRepo == nil {
		panic("repositories cannot be nil for RoomSweepHandler")
	}
	return &RoomSweepHandler{roomRepo: roomRepo, stateRepo: stateRepo}
}

// ProcessTask implements asynq.Handler for tasks.TypeRoomSweep.
func (h *RoomSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.RoomSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payload will never succeed on retry.
		return fmt.Errorf("unmarshal room sweep payload: %v: %w", err, asynq.SkipRetry)
	}
	retention := payload.RetentionHours
	if retention <= 0 {
		retention = defaultRetentionHours
	}
	cutoff := time.Now().Add(-time.Duration(retention) * time.Hour)

	staleIDs, err := h.roomRepo.FindStaleIDs(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale rooms: %w", err)
	}
	if len(staleIDs) == 0 {
		logrus.Debug("Room sweep: nothing to delete")
		return nil
	}

	deleted := 0
	for _, roomID := range staleIDs {
		if err := h.roomRepo.Delete(ctx, roomID); err != nil {
			logrus.WithError(err).WithField("room_id", roomID).Error("Room sweep: failed to delete room")
			continue
		}
		if err := h.stateRepo.ClearHistory(ctx, roomID); err != nil {
			logrus.WithError(err).WithField("room_id", roomID).Warn("Room sweep: failed to clear cached history")
		}
		deleted++
	}
	logrus.WithFields(logrus.Fields{"candidates": len(staleIDs), "deleted": deleted, "cutoff": cutoff}).
		Info("Room sweep completed")
	return nil
}

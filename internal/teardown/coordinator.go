package teardown

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Reservations releases the admin slot.
type Reservations interface {
	Release(ctx context.Context, room string) error
}

// RoomCloser deletes the room on the backend.
type RoomCloser interface {
	DeleteRoom(ctx context.Context, room string) error
}

// RecordingState drops per-room recording bookkeeping.
type RecordingState interface {
	Forget(room string)
}

// Coordinator ties reservation release to room closing when the admin leaves.
// Release runs first; its failure is reported but never blocks the close. A
// dangling reservation is recoverable through reclaim on the next create,
// whereas a room left open is not.
type Coordinator struct {
	reservations Reservations
	rooms        RoomCloser
	recordings   RecordingState
	logger       *zap.Logger
}

// NewCoordinator creates a teardown coordinator. recordings may be nil.
func NewCoordinator(res Reservations, rooms RoomCloser, recordings RecordingState, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		reservations: res,
		rooms:        rooms,
		recordings:   recordings,
		logger:       logger,
	}
}

// AdminLeft runs the admin exit path: one release attempt, then one room
// close, in that order. The returned error reflects the close only.
func (t *Coordinator) AdminLeft(ctx context.Context, room string) error {
	if err := t.reservations.Release(ctx, room); err != nil {
		// accepted eventual-consistency gap: the next create's reclaim
		// cleans this up
		t.logger.Warn("reservation release failed during teardown",
			zap.String("room", room),
			zap.Error(err),
		)
	}
	if t.recordings != nil {
		t.recordings.Forget(room)
	}
	if err := t.rooms.DeleteRoom(ctx, room); err != nil {
		return fmt.Errorf("close room %s: %w", room, err)
	}
	t.logger.Info("room closed", zap.String("room", room))
	return nil
}

// UserLeft is the non-admin exit path: no reservation or room action.
func (t *Coordinator) UserLeft(ctx context.Context, room, participant string) {
	t.logger.Debug("participant left",
		zap.String("room", room),
		zap.String("participant", participant),
	)
}

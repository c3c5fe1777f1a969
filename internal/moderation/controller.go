package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meetpro/backend/internal/directory"
)

// ErrTrackNotFound is returned when the participant publishes no track of the
// requested kind.
var ErrTrackNotFound = errors.New("no published track of that kind")

// RoomService is the backend surface moderation needs.
type RoomService interface {
	GetParticipant(ctx context.Context, room, identity string) (*directory.Participant, error)
	RemoveParticipant(ctx context.Context, room, identity string) error
	MutePublishedTrack(ctx context.Context, room, identity, trackSid string, muted bool) error
}

// MuteAllResult carries the independent outcomes of the two mute calls. A
// failed audio mute does not stop the video mute; each is reported on its own.
type MuteAllResult struct {
	Audio error
	Video error
}

// Ok reports whether both mutes were acknowledged.
func (r MuteAllResult) Ok() bool { return r.Audio == nil && r.Video == nil }

// Controller issues admin-only moderation actions against the backend.
// Effects are backend-authoritative: the controller never assumes success
// beyond the returned acknowledgment.
type Controller struct {
	rooms   RoomService
	muteGap time.Duration
	logger  *zap.Logger
}

// NewController creates a moderation controller. muteGap is the pause between
// the audio and video mutes in MuteAll.
func NewController(rooms RoomService, muteGap time.Duration, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{rooms: rooms, muteGap: muteGap, logger: logger}
}

// Kick removes a participant from the room. Irreversible for the session;
// re-admission is required to rejoin.
func (m *Controller) Kick(ctx context.Context, room, identity string) error {
	if err := m.rooms.RemoveParticipant(ctx, room, identity); err != nil {
		return fmt.Errorf("kick %s: %w", identity, err)
	}
	m.logger.Info("participant kicked", zap.String("room", room), zap.String("identity", identity))
	return nil
}

// MuteTrack forces the participant's published track of the given kind muted.
// The track is located by its declared kind, never by position in the
// published list.
func (m *Controller) MuteTrack(ctx context.Context, room, participantName string, kind directory.TrackKind) error {
	p, err := m.rooms.GetParticipant(ctx, room, participantName)
	if err != nil {
		return err
	}
	track, ok := p.TrackOfKind(kind)
	if !ok {
		return fmt.Errorf("%s %s: %w", participantName, kind, ErrTrackNotFound)
	}
	if err := m.rooms.MutePublishedTrack(ctx, room, participantName, track.Sid, true); err != nil {
		return fmt.Errorf("mute %s track: %w", kind, err)
	}
	m.logger.Info("track muted",
		zap.String("room", room),
		zap.String("participant", participantName),
		zap.String("kind", string(kind)),
	)
	return nil
}

// MuteAll mutes the participant's audio track, waits the configured gap, then
// mutes the video track. The second call does not depend on the first's
// outcome; both results are returned so a partial failure stays visible.
func (m *Controller) MuteAll(ctx context.Context, room, participantName string) MuteAllResult {
	res := MuteAllResult{}
	res.Audio = m.MuteTrack(ctx, room, participantName, directory.TrackKindAudio)

	if m.muteGap > 0 {
		timer := time.NewTimer(m.muteGap)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			res.Video = ctx.Err()
			return res
		}
	}

	res.Video = m.MuteTrack(ctx, room, participantName, directory.TrackKindVideo)
	if !res.Ok() {
		m.logger.Warn("mute-all completed with failures",
			zap.String("room", room),
			zap.String("participant", participantName),
			zap.NamedError("audio", res.Audio),
			zap.NamedError("video", res.Video),
		)
	}
	return res
}

package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meetpro/backend/internal/directory"
)

type muteCall struct {
	identity string
	trackSid string
	muted    bool
}

type fakeRoomService struct {
	participant *directory.Participant
	getErr      error
	muteErrs    map[string]error // keyed by track sid
	removed     []string
	mutes       []muteCall
}

func (f *fakeRoomService) GetParticipant(ctx context.Context, room, identity string) (*directory.Participant, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.participant, nil
}

func (f *fakeRoomService) RemoveParticipant(ctx context.Context, room, identity string) error {
	f.removed = append(f.removed, identity)
	return nil
}

func (f *fakeRoomService) MutePublishedTrack(ctx context.Context, room, identity, trackSid string, muted bool) error {
	f.mutes = append(f.mutes, muteCall{identity: identity, trackSid: trackSid, muted: muted})
	if err := f.muteErrs[trackSid]; err != nil {
		return err
	}
	return nil
}

// Video listed before audio on purpose: selection must go by declared kind,
// not list position.
func bobWithTracks() *directory.Participant {
	return &directory.Participant{
		Identity: "bob",
		Tracks: []directory.Track{
			{Sid: "TR_video", Type: directory.TrackKindVideo},
			{Sid: "TR_audio", Type: directory.TrackKindAudio},
		},
	}
}

func TestKickRemovesParticipant(t *testing.T) {
	svc := &fakeRoomService{}
	m := NewController(svc, 0, nil)
	if err := m.Kick(context.Background(), "12345678", "bob"); err != nil {
		t.Fatalf("Kick returned %v", err)
	}
	if len(svc.removed) != 1 || svc.removed[0] != "bob" {
		t.Fatalf("removed = %v, want [bob]", svc.removed)
	}
}

func TestMuteTrackSelectsByDeclaredKind(t *testing.T) {
	svc := &fakeRoomService{participant: bobWithTracks()}
	m := NewController(svc, 0, nil)

	if err := m.MuteTrack(context.Background(), "12345678", "bob", directory.TrackKindAudio); err != nil {
		t.Fatalf("MuteTrack returned %v", err)
	}
	if len(svc.mutes) != 1 {
		t.Fatalf("mute calls = %d, want 1", len(svc.mutes))
	}
	got := svc.mutes[0]
	if got.trackSid != "TR_audio" {
		t.Fatalf("muted sid = %q, want TR_audio (first listed track is video)", got.trackSid)
	}
	if !got.muted {
		t.Fatal("mute call had muted=false")
	}
}

func TestMuteTrackWithoutMatchingKind(t *testing.T) {
	svc := &fakeRoomService{participant: &directory.Participant{
		Identity: "bob",
		Tracks:   []directory.Track{{Sid: "TR_video", Type: directory.TrackKindVideo}},
	}}
	m := NewController(svc, 0, nil)

	err := m.MuteTrack(context.Background(), "12345678", "bob", directory.TrackKindAudio)
	if !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("error = %v, want ErrTrackNotFound", err)
	}
	if len(svc.mutes) != 0 {
		t.Fatalf("mute calls = %d, want 0", len(svc.mutes))
	}
}

func TestMuteAllMutesAudioThenVideo(t *testing.T) {
	svc := &fakeRoomService{participant: bobWithTracks()}
	m := NewController(svc, 0, nil)

	res := m.MuteAll(context.Background(), "12345678", "bob")
	if !res.Ok() {
		t.Fatalf("result = %+v, want both nil", res)
	}
	if len(svc.mutes) != 2 {
		t.Fatalf("mute calls = %d, want 2", len(svc.mutes))
	}
	if svc.mutes[0].trackSid != "TR_audio" || svc.mutes[1].trackSid != "TR_video" {
		t.Fatalf("mute order = [%s %s], want [TR_audio TR_video]", svc.mutes[0].trackSid, svc.mutes[1].trackSid)
	}
}

func TestMuteAllContinuesAfterAudioFailure(t *testing.T) {
	svc := &fakeRoomService{
		participant: bobWithTracks(),
		muteErrs:    map[string]error{"TR_audio": errors.New("backend rejected")},
	}
	m := NewController(svc, 0, nil)

	res := m.MuteAll(context.Background(), "12345678", "bob")
	if res.Audio == nil {
		t.Fatal("audio error swallowed")
	}
	if res.Video != nil {
		t.Fatalf("video error = %v, want nil", res.Video)
	}
	if len(svc.mutes) != 2 {
		t.Fatalf("mute calls = %d, want 2 (video mute must still run)", len(svc.mutes))
	}
}

func TestMuteAllStopsOnCancelledContext(t *testing.T) {
	svc := &fakeRoomService{participant: bobWithTracks()}
	m := NewController(svc, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan MuteAllResult, 1)
	go func() { done <- m.MuteAll(ctx, "12345678", "bob") }()
	cancel()

	res := <-done
	if res.Audio != nil {
		t.Fatalf("audio error = %v, want nil", res.Audio)
	}
	if !errors.Is(res.Video, context.Canceled) {
		t.Fatalf("video error = %v, want context.Canceled", res.Video)
	}
	if len(svc.mutes) != 1 {
		t.Fatalf("mute calls = %d, want 1 (video skipped after cancel)", len(svc.mutes))
	}
}

package directory

import "testing"

func TestTrackOfKindIgnoresListOrder(t *testing.T) {
	p := Participant{
		Identity: "bob",
		Tracks: []Track{
			{Sid: "TR_video", Type: TrackKindVideo},
			{Sid: "TR_audio", Type: TrackKindAudio},
		},
	}

	audio, ok := p.TrackOfKind(TrackKindAudio)
	if !ok || audio.Sid != "TR_audio" {
		t.Fatalf("audio track = (%+v, %v)", audio, ok)
	}
	video, ok := p.TrackOfKind(TrackKindVideo)
	if !ok || video.Sid != "TR_video" {
		t.Fatalf("video track = (%+v, %v)", video, ok)
	}
}

func TestTrackOfKindMissing(t *testing.T) {
	p := Participant{Tracks: []Track{{Sid: "TR_video", Type: TrackKindVideo}}}
	if _, ok := p.TrackOfKind(TrackKindAudio); ok {
		t.Fatal("found an audio track that was never published")
	}
}

func TestDeviceStateHelpers(t *testing.T) {
	p := Participant{Tracks: []Track{
		{Sid: "TR_audio", Type: TrackKindAudio, Muted: true},
		{Sid: "TR_video", Type: TrackKindVideo, Muted: false},
	}}
	if p.IsMicrophoneEnabled() {
		t.Fatal("muted microphone reported enabled")
	}
	if !p.IsCameraEnabled() {
		t.Fatal("unmuted camera reported disabled")
	}
	none := Participant{}
	if none.IsMicrophoneEnabled() || none.IsCameraEnabled() {
		t.Fatal("participant without tracks reported devices enabled")
	}
}

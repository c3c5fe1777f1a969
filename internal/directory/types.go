package directory

// Room is a live room as reported by the backend. A room exists iff it
// appears in the listing; there is no stored room record anywhere else.
type Room struct {
	Sid             string `json:"sid"`
	Name            string `json:"name"`
	NumParticipants int    `json:"numParticipants"`
	CreationTime    string `json:"creationTime"`
}

// TrackKind is a published track's declared kind.
type TrackKind string

const (
	TrackKindAudio TrackKind = "AUDIO"
	TrackKindVideo TrackKind = "VIDEO"
)

// Track is a published track summary.
type Track struct {
	Sid   string    `json:"sid"`
	Type  TrackKind `json:"type"`
	Name  string    `json:"name"`
	Muted bool      `json:"muted"`
}

// Participant is a connected participant as reported by the backend.
type Participant struct {
	Sid               string  `json:"sid"`
	Identity          string  `json:"identity"`
	Name              string  `json:"name"`
	State             string  `json:"state"`
	Tracks            []Track `json:"tracks"`
	ConnectionQuality string  `json:"connectionQuality,omitempty"`
}

// TrackOfKind returns the participant's published track of the given kind.
// Selection is strictly by declared kind; published track order is not stable
// across clients and must never be used.
func (p *Participant) TrackOfKind(kind TrackKind) (Track, bool) {
	for _, t := range p.Tracks {
		if t.Type == kind {
			return t, true
		}
	}
	return Track{}, false
}

// IsMicrophoneEnabled reports whether the participant publishes an unmuted
// audio track.
func (p *Participant) IsMicrophoneEnabled() bool {
	t, ok := p.TrackOfKind(TrackKindAudio)
	return ok && !t.Muted
}

// IsCameraEnabled reports whether the participant publishes an unmuted video
// track.
func (p *Participant) IsCameraEnabled() bool {
	t, ok := p.TrackOfKind(TrackKindVideo)
	return ok && !t.Muted
}

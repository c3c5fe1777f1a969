package credentials

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	webrtc "github.com/pion/webrtc/v3"
)

// Role determines which moderation and recording operations a session is
// offered. It is assigned exactly once at admission and never changes for the
// lifetime of the session. Enforcement lives in the backend's credential
// scoping; everything this service checks on top is advisory.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var ErrMissingKeys = errors.New("credentials: api key and secret required")

// VideoGrant is the backend's room permission claim set.
type VideoGrant struct {
	Room         string `json:"room,omitempty"`
	RoomJoin     bool   `json:"roomJoin,omitempty"`
	RoomAdmin    bool   `json:"roomAdmin,omitempty"`
	RoomList     bool   `json:"roomList,omitempty"`
	RoomRecord   bool   `json:"roomRecord,omitempty"`
	CanPublish   *bool  `json:"canPublish,omitempty"`
	CanSubscribe *bool  `json:"canSubscribe,omitempty"`
}

// Claims is the access token claim set understood by the backend.
type Claims struct {
	Video VideoGrant `json:"video"`
	Name  string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ConnectionDetails is what a successfully admitted client needs to connect.
type ConnectionDetails struct {
	ServerURL        string             `json:"serverUrl"`
	RoomName         string             `json:"roomName"`
	ParticipantName  string             `json:"participantName"`
	ParticipantToken string             `json:"participantToken"`
	Role             Role               `json:"role"`
	ICEServers       []webrtc.ICEServer `json:"iceServers,omitempty"`
}

// Issuer mints backend-compatible access tokens (HS256 JWT with a video
// grant). The token is opaque to the rest of this service.
type Issuer struct {
	apiKey     string
	apiSecret  []byte
	serverURL  string
	ttl        time.Duration
	iceServers []webrtc.ICEServer
}

// NewIssuer creates a credential issuer. serverURL is returned verbatim in
// connection details; iceServers is optional.
func NewIssuer(apiKey, apiSecret, serverURL string, ttl time.Duration, iceServers []webrtc.ICEServer) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingKeys
	}
	return &Issuer{
		apiKey:     apiKey,
		apiSecret:  []byte(apiSecret),
		serverURL:  serverURL,
		ttl:        ttl,
		iceServers: iceServers,
	}, nil
}

// Issue creates connection details scoped to {room, identity, role}. Admins
// get room-admin and recording rights; both roles can publish and subscribe.
func (i *Issuer) Issue(room, identity string, role Role) (*ConnectionDetails, error) {
	yes := true
	grant := VideoGrant{
		Room:         room,
		RoomJoin:     true,
		CanPublish:   &yes,
		CanSubscribe: &yes,
	}
	if role == RoleAdmin {
		grant.RoomAdmin = true
		grant.RoomRecord = true
	}
	token, err := i.sign(identity, identity, grant)
	if err != nil {
		return nil, err
	}
	return &ConnectionDetails{
		ServerURL:        i.serverURL,
		RoomName:         room,
		ParticipantName:  identity,
		ParticipantToken: token,
		Role:             role,
		ICEServers:       i.iceServers,
	}, nil
}

// ServiceToken mints a short-lived token for server-to-backend RoomService
// calls (room listing, moderation, room close).
func (i *Issuer) ServiceToken() (string, error) {
	return i.sign(i.apiKey, "", VideoGrant{RoomAdmin: true, RoomList: true, RoomRecord: true})
}

func (i *Issuer) sign(subject, name string, grant VideoGrant) (string, error) {
	now := time.Now()
	ttl := i.ttl
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	claims := Claims{
		Video: grant,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   subject,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.apiSecret)
}

// Parse validates a token signed by this issuer and returns its claims.
// Used in tests and by the websocket endpoint to check admission tokens.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.apiSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

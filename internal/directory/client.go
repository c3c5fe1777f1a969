package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrRoomNotFound is returned when the backend has no room by that name.
	ErrRoomNotFound = errors.New("room not found")
	// ErrParticipantNotFound is returned when the identity is not connected.
	ErrParticipantNotFound = errors.New("participant not found")
)

// TokenSource mints short-lived service tokens for backend API calls.
type TokenSource interface {
	ServiceToken() (string, error)
}

// Client talks to the backend's RoomService (twirp JSON over POST). It covers
// the room directory (list, participants, delete) and per-participant control
// (remove, mute published track). Every call is backend-authoritative; the
// client reports acknowledgments and never caches room state.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a RoomService client. baseURL is the backend HTTP host.
func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// twirpError is the backend's error body for non-200 responses.
type twirpError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (c *Client) call(ctx context.Context, method string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	url := c.baseURL + "/twirp/livekit.RoomService/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	token, err := c.tokens.ServiceToken()
	if err != nil {
		return fmt.Errorf("service token: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var te twirpError
		if json.Unmarshal(raw, &te) == nil && te.Code == "not_found" {
			return ErrRoomNotFound
		}
		c.logger.Warn("backend call failed",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return fmt.Errorf("%s: backend returned %d", method, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// ListRooms returns all currently live rooms.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var resp struct {
		Rooms []Room `json:"rooms"`
	}
	if err := c.call(ctx, "ListRooms", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// RoomExists reports whether a room with the given name is currently live.
func (c *Client) RoomExists(ctx context.Context, room string) (bool, error) {
	rooms, err := c.ListRooms(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range rooms {
		if r.Name == room {
			return true, nil
		}
	}
	return false, nil
}

// ListParticipants returns the connected participants of a room. A room the
// backend does not know yet resolves to an empty list, not an error: during
// admission the room may simply not have been created by a first join.
func (c *Client) ListParticipants(ctx context.Context, room string) ([]Participant, error) {
	var resp struct {
		Participants []Participant `json:"participants"`
	}
	err := c.call(ctx, "ListParticipants", map[string]string{"room": room}, &resp)
	if errors.Is(err, ErrRoomNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Participants, nil
}

// GetParticipant returns a single connected participant by identity.
func (c *Client) GetParticipant(ctx context.Context, room, identity string) (*Participant, error) {
	var p Participant
	err := c.call(ctx, "GetParticipant", map[string]string{"room": room, "identity": identity}, &p)
	if errors.Is(err, ErrRoomNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RemoveParticipant disconnects a participant from the room. Irreversible for
// the session; the participant must go through admission again to rejoin.
func (c *Client) RemoveParticipant(ctx context.Context, room, identity string) error {
	err := c.call(ctx, "RemoveParticipant", map[string]string{"room": room, "identity": identity}, nil)
	if errors.Is(err, ErrRoomNotFound) {
		return ErrParticipantNotFound
	}
	return err
}

// MutePublishedTrack forces the mute state of a published track.
func (c *Client) MutePublishedTrack(ctx context.Context, room, identity, trackSid string, muted bool) error {
	in := map[string]interface{}{
		"room":      room,
		"identity":  identity,
		"track_sid": trackSid,
		"muted":     muted,
	}
	err := c.call(ctx, "MutePublishedTrack", in, nil)
	if errors.Is(err, ErrRoomNotFound) {
		return ErrParticipantNotFound
	}
	return err
}

// DeleteRoom closes a room, disconnecting everyone still in it.
func (c *Client) DeleteRoom(ctx context.Context, room string) error {
	err := c.call(ctx, "DeleteRoom", map[string]string{"room": room}, nil)
	if errors.Is(err, ErrRoomNotFound) {
		// already gone; closing is idempotent from the caller's view
		return nil
	}
	return err
}

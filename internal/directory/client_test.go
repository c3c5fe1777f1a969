package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticTokens struct{}

func (staticTokens) ServiceToken() (string, error) { return "service-token", nil }

type recordedCall struct {
	method string
	body   map[string]interface{}
	auth   string
}

// newBackend serves the twirp RoomService surface with canned responses per
// method name.
func newBackend(t *testing.T, responses map[string]interface{}, status map[string]int, calls *[]recordedCall) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/twirp/livekit.RoomService/"
		if r.Method != http.MethodPost || len(r.URL.Path) <= len(prefix) {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		method := r.URL.Path[len(prefix):]

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if calls != nil {
			*calls = append(*calls, recordedCall{
				method: method,
				body:   body,
				auth:   r.Header.Get("Authorization"),
			})
		}

		if code, ok := status[method]; ok {
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(map[string]string{"code": "not_found", "msg": "does not exist"})
			return
		}
		resp, ok := responses[method]
		if !ok {
			resp = map[string]interface{}{}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestListRoomsSendsBearerToken(t *testing.T) {
	var calls []recordedCall
	srv := newBackend(t, map[string]interface{}{
		"ListRooms": map[string]interface{}{
			"rooms": []Room{{Sid: "RM_1", Name: "12345678", NumParticipants: 2}},
		},
	}, nil, &calls)
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{}, nil)
	rooms, err := c.ListRooms(context.Background())
	if err != nil {
		t.Fatalf("ListRooms returned %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "12345678" {
		t.Fatalf("rooms = %+v", rooms)
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].auth != "Bearer service-token" {
		t.Fatalf("authorization = %q", calls[0].auth)
	}
}

func TestRoomExists(t *testing.T) {
	srv := newBackend(t, map[string]interface{}{
		"ListRooms": map[string]interface{}{
			"rooms": []Room{{Name: "12345678"}},
		},
	}, nil, nil)
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{}, nil)
	ctx := context.Background()

	exists, err := c.RoomExists(ctx, "12345678")
	if err != nil || !exists {
		t.Fatalf("RoomExists = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = c.RoomExists(ctx, "99999999")
	if err != nil || exists {
		t.Fatalf("RoomExists = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestListParticipantsOfUnknownRoomIsEmpty(t *testing.T) {
	srv := newBackend(t, nil, map[string]int{"ListParticipants": http.StatusNotFound}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{}, nil)
	participants, err := c.ListParticipants(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("ListParticipants returned %v", err)
	}
	if len(participants) != 0 {
		t.Fatalf("participants = %+v, want empty", participants)
	}
}

func TestGetParticipantNotFound(t *testing.T) {
	srv := newBackend(t, nil, map[string]int{"GetParticipant": http.StatusNotFound}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{}, nil)
	_, err := c.GetParticipant(context.Background(), "12345678", "bob")
	if !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("error = %v, want ErrParticipantNotFound", err)
	}
}

func TestMutePublishedTrackPayload(t *testing.T) {
	var calls []recordedCall
	srv := newBackend(t, nil, nil, &calls)
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{}, nil)
	if err := c.MutePublishedTrack(context.Background(), "12345678", "bob", "TR_audio", true); err != nil {
		t.Fatalf("MutePublishedTrack returned %v", err)
	}
	if len(calls) != 1 || calls[0].method != "MutePublishedTrack" {
		t.Fatalf("calls = %+v", calls)
	}
	body := calls[0].body
	if body["room"] != "12345678" || body["identity"] != "bob" || body["track_sid"] != "TR_audio" || body["muted"] != true {
		t.Fatalf("body = %+v", body)
	}
}

func TestDeleteRoomIsIdempotent(t *testing.T) {
	srv := newBackend(t, nil, map[string]int{"DeleteRoom": http.StatusNotFound}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, staticTokens{}, nil)
	if err := c.DeleteRoom(context.Background(), "12345678"); err != nil {
		t.Fatalf("DeleteRoom of an absent room returned %v, want nil", err)
	}
}

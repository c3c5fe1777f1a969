package admission

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/meetpro/backend/internal/directory"
)

func newRouter(o *Orchestrator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(o, nil)
	r := gin.New()
	r.POST("/api/rooms/create", h.Create)
	r.POST("/api/rooms/join", h.Join)
	return r
}

func post(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateEndpointStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		dir  *fakeDirectory
		want int
	}{
		{
			name: "created",
			req:  Request{RoomName: "12345678", ParticipantName: "alice"},
			dir:  &fakeDirectory{},
			want: http.StatusOK,
		},
		{
			name: "bad room id",
			req:  Request{RoomName: "1234567", ParticipantName: "alice"},
			dir:  &fakeDirectory{},
			want: http.StatusBadRequest,
		},
		{
			name: "missing name",
			req:  Request{RoomName: "12345678"},
			dir:  &fakeDirectory{},
			want: http.StatusBadRequest,
		},
		{
			name: "room already live",
			req:  Request{RoomName: "12345678", ParticipantName: "alice"},
			dir:  &fakeDirectory{exists: true},
			want: http.StatusConflict,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(NewOrchestrator(tc.dir, newFakeReservations(), &fakeIssuer{}, nil, nil))
			w := post(t, r, "/api/rooms/create", tc.req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestCreateEndpointReturnsConnectionDetails(t *testing.T) {
	r := newRouter(NewOrchestrator(&fakeDirectory{}, newFakeReservations(), &fakeIssuer{}, nil, nil))
	w := post(t, r, "/api/rooms/create", Request{RoomName: "12345678", ParticipantName: "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			RoomName         string `json:"roomName"`
			ParticipantName  string `json:"participantName"`
			ParticipantToken string `json:"participantToken"`
			Role             string `json:"role"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success {
		t.Fatal("success = false")
	}
	if body.Data.RoomName != "12345678" || body.Data.ParticipantName != "alice" || body.Data.Role != "admin" {
		t.Fatalf("data = %+v", body.Data)
	}
	if body.Data.ParticipantToken == "" {
		t.Fatal("empty participant token")
	}
}

func TestJoinEndpointStatusCodes(t *testing.T) {
	live := &fakeDirectory{
		exists:       true,
		participants: []directory.Participant{{Identity: "bob"}},
	}
	cases := []struct {
		name string
		req  Request
		dir  *fakeDirectory
		want int
	}{
		{
			name: "joined",
			req:  Request{RoomName: "12345678", ParticipantName: "carol"},
			dir:  live,
			want: http.StatusOK,
		},
		{
			name: "room not live",
			req:  Request{RoomName: "12345678", ParticipantName: "carol"},
			dir:  &fakeDirectory{},
			want: http.StatusNotFound,
		},
		{
			name: "name taken",
			req:  Request{RoomName: "12345678", ParticipantName: "bob"},
			dir:  live,
			want: http.StatusConflict,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(NewOrchestrator(tc.dir, newFakeReservations(), &fakeIssuer{}, nil, nil))
			w := post(t, r, "/api/rooms/join", tc.req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

type failingDirectory struct{}

func (failingDirectory) RoomExists(ctx context.Context, room string) (bool, error) {
	return false, context.DeadlineExceeded
}

func (failingDirectory) ListParticipants(ctx context.Context, room string) ([]directory.Participant, error) {
	return nil, context.DeadlineExceeded
}

func TestBackendFailureMapsToBadGateway(t *testing.T) {
	r := newRouter(NewOrchestrator(failingDirectory{}, newFakeReservations(), &fakeIssuer{}, nil, nil))
	w := post(t, r, "/api/rooms/create", Request{RoomName: "12345678", ParticipantName: "alice"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
}

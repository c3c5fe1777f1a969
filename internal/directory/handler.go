package directory

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetpro/backend/pkg/response"
)

// Handler exposes the room directory over HTTP.
type Handler struct {
	client *Client
	logger *zap.Logger
}

// NewHandler creates a directory handler.
func NewHandler(client *Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, logger: logger}
}

// ListRooms handles GET /api/rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.client.ListRooms(c.Request.Context())
	if err != nil {
		h.logger.Error("list rooms failed", zap.Error(err))
		response.BadGateway(c, "failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []Room{}
	}
	response.OK(c, rooms)
}

// participantView is the wire shape for the in-room user list.
type participantView struct {
	Identity            string  `json:"identity"`
	Name                string  `json:"name"`
	Tracks              []Track `json:"tracks"`
	IsMicrophoneEnabled bool    `json:"isMicrophoneEnabled"`
	IsCameraEnabled     bool    `json:"isCameraEnabled"`
	ConnectionQuality   string  `json:"connectionQuality,omitempty"`
}

// ListParticipants handles GET /api/rooms/:roomName/participants. An unknown
// room yields an empty list, matching the backend's view that such a room
// simply has no one in it yet.
func (h *Handler) ListParticipants(c *gin.Context) {
	room := c.Param("roomName")
	participants, err := h.client.ListParticipants(c.Request.Context(), room)
	if err != nil {
		h.logger.Error("list participants failed", zap.String("room", room), zap.Error(err))
		response.BadGateway(c, "failed to list participants")
		return
	}
	views := make([]participantView, 0, len(participants))
	for i := range participants {
		p := &participants[i]
		views = append(views, participantView{
			Identity:            p.Identity,
			Name:                p.Name,
			Tracks:              p.Tracks,
			IsMicrophoneEnabled: p.IsMicrophoneEnabled(),
			IsCameraEnabled:     p.IsCameraEnabled(),
			ConnectionQuality:   p.ConnectionQuality,
		})
	}
	response.OK(c, gin.H{"userList": views, "count": len(views)})
}

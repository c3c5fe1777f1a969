package teardown

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetpro/backend/pkg/response"
)

// Handler handles the leave endpoint.
type Handler struct {
	coordinator *Coordinator
	logger      *zap.Logger
}

// NewHandler creates a teardown handler.
func NewHandler(coordinator *Coordinator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{coordinator: coordinator, logger: logger}
}

// Leave handles POST /api/rooms/:roomName/leave with {participantName, role}.
func (h *Handler) Leave(c *gin.Context) {
	room := c.Param("roomName")
	var body struct {
		ParticipantName string `json:"participantName"`
		Role            string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.Role != "admin" {
		h.coordinator.UserLeft(c.Request.Context(), room, body.ParticipantName)
		response.OK(c, gin.H{"message": "left"})
		return
	}
	if err := h.coordinator.AdminLeft(c.Request.Context(), room); err != nil {
		h.logger.Error("teardown failed", zap.String("room", room), zap.Error(err))
		response.BadGateway(c, "room close failed")
		return
	}
	response.OK(c, gin.H{"message": "room closed"})
}

package reservation

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetpro/backend/pkg/response"
)

// Handler exposes reservation lookups over HTTP.
type Handler struct {
	manager *Manager
	logger  *zap.Logger
}

// NewHandler creates a reservation handler.
func NewHandler(manager *Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{manager: manager, logger: logger}
}

// Admin handles GET /api/rooms/:roomName/admin, returning the reserved admin
// name for the room (used by clients to mark the admin in the user list).
func (h *Handler) Admin(c *gin.Context) {
	room := c.Param("roomName")
	name, err := h.manager.Admin(c.Request.Context(), room)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "no admin reservation")
			return
		}
		h.logger.Error("admin lookup failed", zap.String("room", room), zap.Error(err))
		response.Internal(c, "admin lookup failed")
		return
	}
	response.OK(c, gin.H{"room": room, "adminName": name})
}

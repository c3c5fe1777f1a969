package admission

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetpro/backend/pkg/response"
)

// Handler handles admission HTTP endpoints.
type Handler struct {
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewHandler creates an admission handler.
func NewHandler(o *Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orchestrator: o, logger: logger}
}

// Create handles POST /api/rooms/create.
func (h *Handler) Create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	details, err := h.orchestrator.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, details)
}

// Join handles POST /api/rooms/join.
func (h *Handler) Join(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	details, err := h.orchestrator.Join(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, details)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRoomName), errors.Is(err, ErrNameRequired):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrRoomNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrRoomAlreadyExists),
		errors.Is(err, ErrNameTaken),
		errors.Is(err, ErrAdminConflict):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error("admission failed", zap.Error(err))
		response.BadGateway(c, "admission failed")
	}
}

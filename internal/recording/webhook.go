package recording

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetpro/backend/pkg/response"
)

// StatusPayload is the egress service's recording status webhook body.
type StatusPayload struct {
	RoomName  string `json:"roomName"`
	Recording bool   `json:"recording"`
	EgressID  string `json:"egressId"`
}

// WebhookHandler receives the backend's out-of-band recording status events
// and feeds them into the controller.
type WebhookHandler struct {
	controller *Controller
	logger     *zap.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(controller *Controller, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{controller: controller, logger: logger}
}

// StatusChanged handles POST /webhooks/recording-status.
func (h *WebhookHandler) StatusChanged(c *gin.Context) {
	var body StatusPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.RoomName == "" {
		response.BadRequest(c, "roomName required")
		return
	}
	h.logger.Info("recording status webhook",
		zap.String("room", body.RoomName),
		zap.Bool("recording", body.Recording),
		zap.String("egress_id", body.EgressID),
	)
	h.controller.HandleStatusChanged(c.Request.Context(), body.RoomName, body.Recording)
	response.OK(c, gin.H{"room": body.RoomName})
}

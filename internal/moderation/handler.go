package moderation

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetpro/backend/internal/directory"
	"github.com/meetpro/backend/pkg/response"
)

// Handler handles moderation HTTP endpoints.
type Handler struct {
	controller *Controller
	logger     *zap.Logger
}

// NewHandler creates a moderation handler.
func NewHandler(controller *Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: controller, logger: logger}
}

// Kick handles POST /api/rooms/:roomName/kick.
func (h *Handler) Kick(c *gin.Context) {
	room := c.Param("roomName")
	var body struct {
		Identity string `json:"identity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Identity == "" {
		response.BadRequest(c, "identity required")
		return
	}
	if err := h.controller.Kick(c.Request.Context(), room, body.Identity); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"message": "participant removed"})
}

// Mute handles POST /api/rooms/:roomName/mute with {participantName, trackType}.
func (h *Handler) Mute(c *gin.Context) {
	room := c.Param("roomName")
	var body struct {
		ParticipantName string `json:"participantName"`
		TrackType       string `json:"trackType"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ParticipantName == "" {
		response.BadRequest(c, "participantName required")
		return
	}
	kind, ok := parseTrackKind(body.TrackType)
	if !ok {
		response.BadRequest(c, "trackType must be AUDIO or VIDEO")
		return
	}
	if err := h.controller.MuteTrack(c.Request.Context(), room, body.ParticipantName, kind); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"msg": "success"})
}

// MuteAll handles POST /api/rooms/:roomName/mute-all. Partial failure is
// reported per track with 200: the flow is not blocked by one refused mute.
func (h *Handler) MuteAll(c *gin.Context) {
	room := c.Param("roomName")
	var body struct {
		ParticipantName string `json:"participantName"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ParticipantName == "" {
		response.BadRequest(c, "participantName required")
		return
	}
	res := h.controller.MuteAll(c.Request.Context(), room, body.ParticipantName)
	out := gin.H{
		"audio": muteOutcome(res.Audio),
		"video": muteOutcome(res.Video),
	}
	if res.Ok() {
		response.OK(c, out)
		return
	}
	c.JSON(200, gin.H{"success": false, "data": out, "error": "one or more mutes failed"})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, directory.ErrParticipantNotFound):
		response.NotFound(c, "participant not found")
	case errors.Is(err, ErrTrackNotFound):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error("moderation action failed", zap.Error(err))
		response.BadGateway(c, "moderation action failed")
	}
}

func muteOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

func parseTrackKind(s string) (directory.TrackKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUDIO":
		return directory.TrackKindAudio, true
	case "VIDEO":
		return directory.TrackKindVideo, true
	}
	return "", false
}

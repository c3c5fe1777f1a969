package recording

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetpro/backend/pkg/response"
	"github.com/meetpro/backend/pkg/storage"
)

// Handler handles recording HTTP endpoints.
type Handler struct {
	controller *Controller
	s3         *storage.S3 // optional: presigned and proxied downloads
	logger     *zap.Logger
}

// NewHandler creates a recording handler. s3 may be nil, disabling downloads.
func NewHandler(controller *Controller, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: controller, s3: s3, logger: logger}
}

// Start handles POST /api/recordings/:roomName/start.
func (h *Handler) Start(c *gin.Context) {
	room := c.Param("roomName")
	if err := h.controller.Start(c.Request.Context(), room); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"room": room, "state": StateRecording})
}

// Stop handles POST /api/recordings/:roomName/stop. With ?wait=true the
// response is deferred until the backend confirms the stop.
func (h *Handler) Stop(c *gin.Context) {
	room := c.Param("roomName")
	if err := h.controller.Stop(c.Request.Context(), room); err != nil {
		h.fail(c, err)
		return
	}
	if c.Query("wait") == "true" {
		if err := h.controller.WaitStopped(c.Request.Context(), room); err != nil {
			response.OK(c, gin.H{"room": room, "state": StateStopping})
			return
		}
		response.OK(c, gin.H{"room": room, "state": StateIdle})
		return
	}
	response.OK(c, gin.H{"room": room, "state": StateStopping})
}

// Latest handles GET /api/recordings/:roomName/latest. Absence is 404 with a
// pending marker; the artifact usually appears shortly after the stop.
func (h *Handler) Latest(c *gin.Context) {
	room := c.Param("roomName")
	artifact, err := h.controller.LatestArtifact(c.Request.Context(), room)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "pending": true, "error": err.Error()})
			return
		}
		h.logger.Error("latest artifact lookup failed", zap.String("room", room), zap.Error(err))
		response.BadGateway(c, "artifact lookup failed")
		return
	}
	out := gin.H{
		"url":          artifact.URL,
		"fileName":     artifact.Key,
		"lastModified": artifact.LastModified,
		"size":         artifact.Size,
	}
	if h.s3 != nil {
		if signed, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.RecordingsBucket(), artifact.Key, h.s3.PresignExpire()); err == nil {
			out["downloadUrl"] = signed
		}
	}
	response.OK(c, out)
}

// Download handles GET /api/recordings/:roomName/download, streaming the
// latest artifact with attachment headers.
func (h *Handler) Download(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "object storage not configured")
		return
	}
	room := c.Param("roomName")
	artifact, err := h.controller.LatestArtifact(c.Request.Context(), room)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.BadGateway(c, "artifact lookup failed")
		return
	}
	body, contentType, err := h.s3.GetObjectStream(c.Request.Context(), h.s3.RecordingsBucket(), artifact.Key)
	if err != nil {
		h.logger.Error("artifact download failed", zap.String("key", artifact.Key), zap.Error(err))
		response.BadGateway(c, "download failed")
		return
	}
	defer body.Close()
	if contentType == "" {
		contentType = "video/mp4"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Key+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAlreadyRecording):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrEncryptedRoom):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotRecording):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrEgressNotConfigured):
		response.Internal(c, err.Error())
	default:
		h.logger.Error("recording toggle failed", zap.Error(err))
		response.BadGateway(c, "recording toggle failed")
	}
}

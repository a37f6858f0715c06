package image

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/domain/file"
	"filevault/internal/pkg/response"
	"filevault/internal/queue"
)

type Handler struct {
	files     PathResolver
	publisher Publisher
	logger    *slog.Logger
}

// NewHandler wires the resize endpoint. A nil publisher makes it answer 503.
func NewHandler(files PathResolver, publisher Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		files:     files,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "images_http")),
	}
}

// Resize godoc
// @Summary Queue an image resize
// @Description Publishes {image_path,new_width,new_height} for the resize worker.
// @Tags Images
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param body body ResizeRequest true "Target size"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404,502,503 {object} map[string]interface{}
// @Router /images/{id}/resize [post]
func (h *Handler) Resize(c *gin.Context) {
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "new_width and new_height must be positive integers")
		return
	}
	if h.publisher == nil {
		response.Error(c, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "Task queue is not configured")
		return
	}

	imagePath, err := h.files.ResolvePath(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, code := file.Classify(err)
		response.Error(c, status, code, err.Error())
		return
	}

	task := queue.ResizeTask{ImagePath: imagePath, NewWidth: req.NewWidth, NewHeight: req.NewHeight}
	if err := h.publisher.PublishResize(c.Request.Context(), task); err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "QUEUE_PUBLISH_FAILED", "Failed to submit task")
		return
	}

	response.Success(c, http.StatusOK, ResizeResponse{Message: "Task has been submitted"})
}

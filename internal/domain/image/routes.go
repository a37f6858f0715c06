package image

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	images := protected.Group("/images")
	{
		images.POST("/:id/resize", h.Resize)
	}
}

package file

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the file endpoints on a group that already enforces a session.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	files := protected.Group("/files")
	{
		files.GET("", h.List)
		files.POST("", h.Upload)
		files.POST("/sync", h.Sync)
		files.GET("/:id", h.Get)
		files.PUT("/:id", h.Update)
		files.DELETE("/:id", h.Delete)
		files.GET("/:id/download", h.Download)
	}
}

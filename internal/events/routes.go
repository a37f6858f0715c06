package events

import (
	"github.com/gin-gonic/gin"

	"filevault/internal/pkg/pathpolicy"
)

// RegisterRoutes mounts the WebSocket endpoint. ?path limits delivery to
// events under that folder.
func (h *Hub) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/events", func(c *gin.Context) {
		prefix := ""
		if p := c.Query("path"); p != "" {
			prefix = pathpolicy.Canonical(p)
		}
		h.ServeWS(c.Writer, c.Request, prefix)
	})
}

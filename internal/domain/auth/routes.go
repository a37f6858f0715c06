package auth

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}
}

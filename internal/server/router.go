package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"filevault/internal/database"
	"filevault/internal/domain/auth"
	"filevault/internal/domain/file"
	"filevault/internal/domain/image"
	"filevault/internal/events"
	"filevault/internal/middleware"
	"filevault/internal/pkg/response"
)

// Deps are the handlers and services the router mounts.
type Deps struct {
	DB             *gorm.DB
	Auth           *auth.Service
	AuthHandler    *auth.Handler
	FileHandler    *file.Handler
	ImageHandler   *image.Handler
	Hub            *events.Hub
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the gin engine: public auth, health and metrics routes
// plus the session-protected API under /api/v1.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorLogger(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.GET("/health", health(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		d.AuthHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.SessionAuth(d.Auth, auth.SessionCookie))
		{
			d.FileHandler.RegisterRoutes(protected)
			d.ImageHandler.RegisterRoutes(protected)
			d.Hub.RegisterRoutes(protected)
		}
	}

	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "database is not reachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}

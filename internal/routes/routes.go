package routes

import (
	"net/http"

	"tradeboard_backend/internal/auth"
	"tradeboard_backend/internal/handlers"
	"tradeboard_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// AppHandlers bundles every HTTP handler the router mounts.
type AppHandlers struct {
	Auth        *handlers.AuthHandler
	Job         *handlers.JobHandler
	Application *handlers.ApplicationHandler
	Billing     *handlers.BillingHandler
	Resume      *handlers.ResumeHandler
	Maintenance *handlers.MaintenanceHandler
}

func RegisterRoutes(router *gin.Engine, appHandlers *AppHandlers, tokens *auth.TokenManager) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authmw := middleware.AuthMiddleware(tokens)

	api := router.Group("/api/v1")
	{
		appHandlers.Auth.RegisterRoutes(api, authmw)
		appHandlers.Job.RegisterRoutes(api, authmw)
		appHandlers.Application.RegisterRoutes(api, authmw)
		appHandlers.Billing.RegisterRoutes(api, authmw)
		appHandlers.Resume.RegisterRoutes(api, authmw)
		appHandlers.Maintenance.RegisterRoutes(api)
	}
}

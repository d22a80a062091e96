package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-dashboard-server/internal/config"
	"clinic-dashboard-server/internal/handlers"
	"clinic-dashboard-server/internal/middleware"
	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/schedule"
)

// Deps is what the routes need from main.
type Deps struct {
	Config    *config.Config
	Dashboard *schedule.Dashboard
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Deps) {
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard)
	appointmentHandler := handlers.NewAppointmentHandler(deps.Dashboard)
	authHandler := handlers.NewAuthHandler(deps.Config)

	// Authenticated routes for front-desk staff
	private := router.Group("/api/v1")
	private.Use(
		middleware.AuthMiddleware(deps.Config),
		middleware.RoleAuthMiddleware(models.RoleReceptionist, models.RoleAdmin),
	)
	{
		authRoutes := private.Group("/auth")
		{
			authRoutes.GET("/profile", authHandler.GetProfile)
			authRoutes.POST("/renew", authHandler.RenewToken)
		}

		dashboardRoutes := private.Group("/dashboard")
		{
			dashboardRoutes.GET("", dashboardHandler.GetDashboard)
			dashboardRoutes.POST("/refresh", dashboardHandler.Refresh)
			dashboardRoutes.DELETE("/search", dashboardHandler.ClearSearch)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointment)
			appointmentRoutes.PUT("/:id", appointmentHandler.UpdateAppointment)
			appointmentRoutes.DELETE("/:id", appointmentHandler.DeleteAppointment)
			appointmentRoutes.POST("/:id/actions/:action", appointmentHandler.ApplyAction)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PATCH("/:id/move", appointmentHandler.MoveAppointment)
		}

		private.POST("/calendar/slots", dashboardHandler.CreateSlot)
		private.GET("/notifications", dashboardHandler.GetNotifications)

		if dir := deps.Dashboard.Directory(); dir != nil {
			directoryHandler := handlers.NewDirectoryHandler(dir)
			directoryRoutes := private.Group("/directory")
			{
				directoryRoutes.GET("/patients", directoryHandler.GetPatients)
				directoryRoutes.GET("/doctors", directoryHandler.GetDoctors)
			}
		}
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}

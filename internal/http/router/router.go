package router

import (
	"github.com/gin-gonic/gin"

	"github.com/wista110/sports-nurse-web-sub001/internal/config"
	"github.com/wista110/sports-nurse-web-sub001/internal/http/handlers"
	"github.com/wista110/sports-nurse-web-sub001/internal/http/middleware"
	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	jobHandler *handlers.JobHandler,
	applicationHandler *handlers.ApplicationHandler,
	escrowHandler *handlers.EscrowHandler,
	payoutHandler *handlers.PayoutHandler,
	reviewHandler *handlers.ReviewHandler,
	cronHandler *handlers.CronHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	// Публичные маршруты
	api.GET("/jobs", jobHandler.ListJobs)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.GetJob)
	api.GET("/jobs/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListByJob)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListByUser)
	api.GET("/users/:id/rating", middleware.UUIDValidator("id"), reviewHandler.Rating)
	api.GET("/fees/preview", escrowHandler.PreviewFees)
	api.GET("/escrow", escrowHandler.PreviewFees)
	api.GET("/ws", wsHandler.Handle)

	// Планировщик: общий секрет вместо JWT
	cron := api.Group("/cron")
	cron.Use(middleware.CronAuth(cfg.CronSecret))
	{
		cron.POST("/process-scheduled-payments", cronHandler.ProcessScheduledPayments)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/jobs/mine", jobHandler.ListMyJobs)
		protected.GET("/applications/mine", applicationHandler.ListMine)
		protected.GET("/payouts/mine", payoutHandler.ListMine)

		organizer := protected.Group("/")
		organizer.Use(middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin))
		{
			organizer.POST("/jobs", jobHandler.CreateJob)
			organizer.PUT("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.UpdateJob)
			organizer.DELETE("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.DeleteJob)
			organizer.POST("/jobs/:id/publish", middleware.UUIDValidator("id"), jobHandler.PublishJob)
			organizer.POST("/jobs/:id/cancel", middleware.UUIDValidator("id"), jobHandler.CancelJob)
			organizer.GET("/jobs/:id/applications", middleware.UUIDValidator("id"), applicationHandler.List)
			organizer.POST("/applications/:id/accept", middleware.UUIDValidator("id"), applicationHandler.Accept)
			organizer.POST("/applications/:id/reject", middleware.UUIDValidator("id"), applicationHandler.Reject)

			organizer.POST("/escrow", escrowHandler.Create)
			organizer.POST("/escrow/:id/process", middleware.UUIDValidator("id"), escrowHandler.Process)
		}

		nurse := protected.Group("/")
		nurse.Use(middleware.RequireRole(models.RoleNurse, models.RoleAdmin))
		{
			nurse.POST("/jobs/:id/applications", middleware.UUIDValidator("id"), applicationHandler.Submit)
			nurse.POST("/applications/:id/withdraw", middleware.UUIDValidator("id"), applicationHandler.Withdraw)
			nurse.POST("/jobs/:id/check-in", middleware.UUIDValidator("id"), jobHandler.CheckIn)
		}

		protected.POST("/jobs/:id/complete", middleware.UUIDValidator("id"), jobHandler.CompleteJob)
		protected.POST("/jobs/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.Submit)
		protected.GET("/jobs/:id/escrow", middleware.UUIDValidator("id"), escrowHandler.GetByJob)
		protected.GET("/jobs/:id/payout", middleware.UUIDValidator("id"), payoutHandler.GetByJob)

		admin := protected.Group("/")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/payouts", payoutHandler.Create)
			admin.POST("/payouts/scheduled", payoutHandler.ProcessScheduled)
			admin.POST("/escrow/:id/release", middleware.UUIDValidator("id"), escrowHandler.Release)
			admin.POST("/escrow/:id/refund", middleware.UUIDValidator("id"), escrowHandler.Refund)
		}
	}

	return r
}

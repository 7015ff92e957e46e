package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/handlers"
	"github.com/benchmarksales/ai-outbound-backend/internal/middleware"
)

// HandlerDependencies carries the constructed handlers into router setup
type HandlerDependencies struct {
	AuthHandler     *handlers.AuthHandler
	ProspectHandler *handlers.ProspectHandler
	CampaignHandler *handlers.CampaignHandler
	BookingHandler  *handlers.BookingHandler
	WebhookHandler  *handlers.WebhookHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps *HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The call provider authenticates webhooks by shared knowledge of the
	// endpoint, not by bearer tokens.
	router.POST("/webhook", deps.WebhookHandler.Receive)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", deps.AuthHandler.Register)
		auth.POST("/login", deps.AuthHandler.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(cfg))
	{
		prospects := api.Group("/prospects")
		{
			prospects.POST("", deps.ProspectHandler.Upload)
			prospects.GET("/campaign/:campaignId", deps.ProspectHandler.GetByCampaign)
			prospects.GET("/:campaignId/:phoneNumber", deps.ProspectHandler.GetByPhone)
		}

		calls := api.Group("/calls")
		{
			calls.GET("/initiate", deps.ProspectHandler.InitiateCall)
			calls.POST("/campaign", deps.ProspectHandler.InitiateCampaignCalls)
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("", deps.CampaignHandler.Create)
			campaigns.GET("", deps.CampaignHandler.List)
			campaigns.GET("/archived", middleware.RequireSuperAdmin(), deps.CampaignHandler.ListArchived)
			campaigns.GET("/:id", deps.CampaignHandler.GetByID)
			campaigns.PUT("/:id", deps.CampaignHandler.Update)
			campaigns.POST("/:id/archive", deps.CampaignHandler.Archive)
			campaigns.POST("/:id/unarchive", middleware.RequireSuperAdmin(), deps.CampaignHandler.Unarchive)
			campaigns.GET("/:id/analytics", deps.CampaignHandler.Analytics)
		}

		appointments := api.Group("/appointments")
		{
			appointments.POST("", deps.BookingHandler.Book)
			appointments.GET("/availability", deps.BookingHandler.CheckAvailability)
		}
	}

	return router
}

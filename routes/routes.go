package routes

import (
	"time"

	"servimatch/handlers"
	"servimatch/middleware"
	"servimatch/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterMatchRoutes registers provider matching and search endpoints.
func RegisterMatchRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	api.Use(middleware.ActorAuthMiddleware())
	{
		api.POST("/matches", middleware.RequireRole(models.RoleCustomer), hb.Match.MatchProvidersHandler)
		api.GET("/providers/nearby", hb.Match.SearchNearbyHandler)
	}
}

// RegisterSlotRoutes registers availability management endpoints.
func RegisterSlotRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers/:providerID")
	api.Use(middleware.ActorAuthMiddleware())
	{
		api.GET("/availability", hb.Slots.CheckAvailabilityHandler)

		slots := api.Group("/slots")
		slots.Use(middleware.RequireRole(models.RoleProvider))
		slots.GET("", hb.Slots.ListSlotsHandler)
		slots.POST("", hb.Slots.CreateSlotHandler)
		slots.PATCH("/:slotID", hb.Slots.UpdateSlotHandler)
		slots.DELETE("/:slotID", hb.Slots.DeleteSlotHandler)
	}
}

// RegisterRequestRoutes registers the service request lifecycle endpoints.
func RegisterRequestRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	customerOnly := middleware.RequireRole(models.RoleCustomer)
	providerOnly := middleware.RequireRole(models.RoleProvider)

	api := r.Group("/api/requests")
	api.Use(middleware.ActorAuthMiddleware())
	{
		api.POST("", customerOnly, hb.Requests.CreateRequestHandler)
		api.GET("/:requestID", hb.Requests.GetRequestHandler)
		api.POST("/:requestID/assign", customerOnly, hb.Requests.AssignProviderHandler)
		api.POST("/:requestID/quote", providerOnly, hb.Requests.QuoteHandler)
		api.POST("/:requestID/accept", customerOnly, hb.Requests.AcceptHandler)
		api.POST("/:requestID/start", providerOnly, hb.Requests.StartHandler)
		api.POST("/:requestID/complete", providerOnly, hb.Requests.CompleteHandler)
		api.POST("/:requestID/cancel", hb.Requests.CancelHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health.HealthCheckHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, maxRequestsPerMin int) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RateLimitMiddleware(maxRequestsPerMin))

	RegisterHealthRoute(r, hb)
	RegisterMatchRoutes(r, hb)
	RegisterSlotRoutes(r, hb)
	RegisterRequestRoutes(r, hb)
}

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/handler"
	"github.com/skillbridge/skillbridge-backend/internal/middleware"
	"github.com/skillbridge/skillbridge-backend/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	authHandler *handler.AuthHandler,
	opportunityHandler *handler.OpportunityHandler,
	applicationHandler *handler.ApplicationHandler,
	messageHandler *handler.MessageHandler,
	wsHandler *handler.WSHandler,
	jwtManager *jwt.Manager,
) {
	api := router.Group("/api/v1")

	// Authentication endpoints (no auth required)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", middleware.JWTAuth(jwtManager), authHandler.Me)

	// Current user profile
	users := api.Group("/users", middleware.JWTAuth(jwtManager))
	users.PATCH("/me", authHandler.UpdateProfile)
	users.PUT("/me/password", authHandler.ChangePassword)

	// Opportunities: browsing is public, enriched when a token is present
	opportunities := api.Group("/opportunities")
	opportunities.GET("", opportunityHandler.List)
	opportunities.GET("/mine",
		middleware.JWTAuth(jwtManager),
		middleware.RequireRole(domain.RoleNGO),
		opportunityHandler.ListMine)
	opportunities.GET("/:id", middleware.OptionalJWTAuth(jwtManager), opportunityHandler.Get)
	opportunities.POST("", middleware.JWTAuth(jwtManager), opportunityHandler.Create)
	opportunities.PUT("/:id", middleware.JWTAuth(jwtManager), opportunityHandler.Update)
	opportunities.DELETE("/:id", middleware.JWTAuth(jwtManager), opportunityHandler.Delete)
	opportunities.GET("/:id/applications", middleware.JWTAuth(jwtManager), applicationHandler.ListForOpportunity)

	// Application lifecycle
	applications := api.Group("/applications", middleware.JWTAuth(jwtManager))
	applications.POST("", middleware.RequireRole(domain.RoleVolunteer), applicationHandler.Apply)
	applications.GET("", middleware.RequireRole(domain.RoleVolunteer), applicationHandler.ListMine)
	applications.PATCH("/:id/status", middleware.RequireRole(domain.RoleNGO), applicationHandler.SetStatus)
	applications.DELETE("/:id", middleware.RequireRole(domain.RoleVolunteer), applicationHandler.Withdraw)

	// Messaging between an application's two participants
	applications.GET("/:id/messages", messageHandler.List)
	applications.POST("/:id/messages", messageHandler.Send)
	applications.PUT("/:id/messages/read", messageHandler.MarkRead)
	applications.DELETE("/:id/messages", messageHandler.Hide)

	// Thread inbox
	api.GET("/threads", middleware.JWTAuth(jwtManager), messageHandler.ListThreads)

	// Real-time notifications (token via query param or header)
	router.GET("/ws/notifications", wsHandler.Connect)
}

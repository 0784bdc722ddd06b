package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cagri/classroom/internal/app/controllers"
	"github.com/cagri/classroom/internal/app/models/dto"
	"github.com/cagri/classroom/internal/app/schema"
	"github.com/cagri/classroom/internal/middleware"
)

// SetupRouter configures all application routes. Every record kind gets the
// same CRUD surface under its collection path: reads are public, mutations
// require a valid access token.
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	recordController *controllers.RecordController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login",
			middleware.ValidateBody(func() interface{} { return &dto.LoginRequest{} }),
			authController.Login)
	}

	// --- Record collection routes ---
	for _, def := range schema.Definitions() {
		kind := def.Kind
		collection := v1.Group("/" + def.Path)
		{
			collection.GET("", recordController.List(kind))
			collection.GET("/:id", recordController.GetByID(kind))

			protected := collection.Group("")
			protected.Use(authMiddleware.JWTAuth())
			{
				protected.POST("", recordController.Create(kind))
				protected.PUT("/:id", recordController.Update(kind))
				protected.DELETE("/:id", recordController.Delete(kind))
			}
		}
	}

	// Health check endpoint (public)
	v1.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Data:      gin.H{"status": "ok"},
			Timestamp: time.Now(),
		})
	})
}

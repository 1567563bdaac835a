package handler

import (
	"github.com/HossamJa/devops-capstone-project/shared/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with logging, panic recovery and every route.
func NewRouter(h *AccountHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware(), middleware.Recovery())
	RegisterRoutes(router, h)
	return router
}

// RegisterRoutes mounts the service endpoints. GET /accounts (list) is not
// implemented and answers 405.
func RegisterRoutes(router *gin.Engine, h *AccountHandler) {
	router.HandleMethodNotAllowed = true
	router.NoRoute(middleware.NotFoundHandler)
	router.NoMethod(middleware.MethodNotAllowedHandler)

	router.GET("/health", respond(h.Health))
	router.GET("/", respond(h.Index))

	accounts := router.Group("/accounts")
	{
		accounts.POST("", respond(h.CreateAccount))
		accounts.GET("/:id", respond(h.GetAccount))
		accounts.PUT("/:id", respond(h.UpdateAccount))
		accounts.DELETE("/:id", respond(h.DeleteAccount))
	}
}

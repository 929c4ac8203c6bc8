package server

import (
	"github.com/readloom/readloom/internal/server/middleware"
	"github.com/readloom/readloom/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.GET("/graph", routes.GetGraphHandler)

	// Record routes
	apiRoutes.POST("/records", routes.CreateRecordHandler)
}

package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the booking and order endpoints under /api
func RegisterRoutes(router *gin.Engine, bookings *BookingHandler, orders *OrderHandler) {
	api := router.Group("/api")
	{
		api.POST("/bookings", bookings.Open)
		api.POST("/bookings/resume", bookings.Resume)
		api.GET("/bookings/:id", bookings.Get)
		api.PATCH("/bookings/:id", bookings.Update)
		api.POST("/bookings/:id/review", bookings.Review)
		api.POST("/bookings/:id/back", bookings.Back)
		api.POST("/bookings/:id/submit", bookings.Submit)
		api.DELETE("/bookings/:id", bookings.Abandon)

		api.GET("/quote", bookings.Quote)

		api.GET("/orders", orders.List)
		api.GET("/orders/:id", orders.Get)
		api.POST("/orders/:id/cancel", orders.Cancel)
	}
}

package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sooryaah/imat-lms/handlers"
	"github.com/sooryaah/imat-lms/middleware"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments")
	payments.Post("/initiate", middleware.Protected(), handlers.InitiatePayment)
	payments.Post("/webhook", handlers.PaymentWebhook)
}

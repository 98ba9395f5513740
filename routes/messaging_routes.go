package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sooryaah/imat-lms/handlers"
	"github.com/sooryaah/imat-lms/middleware"
)

func MessagingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	groups := api.Group("/groups", middleware.Protected())
	groups.Get("/:groupId/messages", handlers.GetGroupMessages)

	messages := api.Group("/messages", middleware.Protected())
	messages.Patch("/:messageId", handlers.EditMessage)
	messages.Delete("/:messageId", handlers.DeleteMessage)
	messages.Post("/:messageId/read", handlers.MarkMessageRead)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}

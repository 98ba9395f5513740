package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	configs "github.com/sooryaah/imat-lms/configs"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/handlers"
	"github.com/sooryaah/imat-lms/jobs"
	"github.com/sooryaah/imat-lms/notifications"
	"github.com/sooryaah/imat-lms/queue"
	"github.com/sooryaah/imat-lms/realtime"
	"github.com/sooryaah/imat-lms/routes"
	"github.com/sooryaah/imat-lms/services"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()
	queue.InitClient()
	queue.RunWorker()

	hub := realtime.NewHub()
	var broker realtime.Broker
	if configs.ConfigDefault("BROKER", "redis") == "memory" {
		broker = realtime.NewMemoryBroker(hub)
		log.Println("✅ In-memory broker active (single-process mode)")
	} else {
		database.ConnectRedis()
		broker = realtime.NewRedisBroker(database.RDB, hub)
	}
	rt := realtime.NewService(
		realtime.NewGormStore(database.DB),
		broker,
		hub,
		services.NewEnrollmentGate(database.DB),
	)
	handlers.InitRealtime(rt, services.NewNotificationProducer(database.DB, rt))

	c := cron.New()
	c.AddFunc("*/30 * * * *", jobs.ExpireEnrollments)
	go c.Start()
	log.Println("✅ Cron job for enrollment expiry scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "IMAT LMS",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		PassLocalsToViews: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to IMAT LMS API",
		})
	})

	routes.AuthRoutes(app)
	routes.ProfileRoutes(app)
	routes.CourseRoutes(app)
	routes.PaymentRoutes(app)
	routes.CommunityRoutes(app)
	routes.MessagingRoutes(app)
	routes.NotificationRoutes(app)
	routes.UploadRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	err := app.Listen(":" + configs.ConfigDefault("PORT", "8080"))
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}

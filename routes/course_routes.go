package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sooryaah/imat-lms/handlers"
	"github.com/sooryaah/imat-lms/middleware"
)

func CourseRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	courses := api.Group("/courses")
	courses.Get("", handlers.ListCourses)
	courses.Get("/:courseId", handlers.GetCourse)

	courses.Post("", middleware.Protected(), middleware.InstructorRequired(), handlers.CreateCourse)
	courses.Patch("/:courseId", middleware.Protected(), middleware.InstructorRequired(), handlers.UpdateCourse)
	courses.Get("/:courseId/students", middleware.Protected(), middleware.InstructorRequired(), handlers.GetCourseStudents)

	courses.Post("/:courseId/complete", middleware.Protected(), handlers.CompleteCourse)

	me := api.Group("/me", middleware.Protected())
	me.Get("/enrollments", handlers.GetMyEnrollments)
	me.Get("/certificates", handlers.GetMyCertificates)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/middleware"
	"github.com/sooryaah/imat-lms/models"
)

// GetMyEnrollments lists the caller's enrollments with their courses.
func GetMyEnrollments(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var enrollments []models.Enrollment
	if err := database.DB.Preload("Course").Where("user_id = ?", userID).Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch enrollments"})
	}

	type enrollmentResponse struct {
		models.Enrollment
		Course models.Course `json:"course"`
	}
	out := make([]enrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, enrollmentResponse{Enrollment: e, Course: e.Course})
	}

	return c.JSON(fiber.Map{"enrollments": out})
}

// GetCourseStudents lists enrolled students for the instructor's own course.
func GetCourseStudents(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var course models.Course
	if err := database.DB.Where("id = ?", c.Params("courseId")).First(&course).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	if course.InstructorID != userID && middleware.CurrentUserRole(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the course instructor can view enrollments"})
	}

	var enrollments []models.Enrollment
	if err := database.DB.Preload("User").Where("course_id = ?", course.ID).Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch enrollments"})
	}

	type studentResponse struct {
		UserID      string `json:"user_id"`
		FullName    string `json:"full_name"`
		Email       string `json:"email"`
		IsActive    bool   `json:"is_active"`
		EnrolledAt  string `json:"enrolled_at"`
		CompletedAt any    `json:"completed_at"`
	}
	students := make([]studentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		students = append(students, studentResponse{
			UserID:      e.UserID.String(),
			FullName:    e.User.FullName,
			Email:       e.User.Email,
			IsActive:    e.IsActive,
			EnrolledAt:  e.EnrolledAt.Format("2006-01-02"),
			CompletedAt: e.CompletedAt,
		})
	}

	return c.JSON(fiber.Map{"students": students, "count": len(students)})
}

// GetMyCertificates lists certificates issued to the caller.
func GetMyCertificates(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var certificates []models.Certificate
	if err := database.DB.Preload("Course").Where("user_id = ?", userID).Order("created_at DESC").Find(&certificates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch certificates"})
	}

	return c.JSON(fiber.Map{"certificates": certificates})
}

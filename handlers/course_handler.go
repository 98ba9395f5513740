package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/middleware"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/services"
	"gorm.io/gorm"
)

type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description"`
	Category    string  `json:"category" validate:"required"`
	Level       string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
}

// ListCourses is the catalog search endpoint: parameterized filtering over
// published courses, translated straight into a query.
func ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	filters := services.CourseFilters{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Sort:     c.Query("sort"),
	}
	if v := c.Query("min_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MinPrice = &p
		}
	}
	if v := c.Query("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MaxPrice = &p
		}
	}

	var courses []models.Course
	query := services.ApplyCourseFilters(database.DB.Model(&models.Course{}), filters)

	var total int64
	query.Count(&total)

	if err := query.Limit(pageSize).Offset(offset).Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch courses"})
	}

	return c.JSON(fiber.Map{
		"courses":   courses,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func GetCourse(c *fiber.Ctx) error {
	courseID := c.Params("courseId")

	var course models.Course
	if err := database.DB.Preload("CommunityGroup").Where("id = ?", courseID).First(&course).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	return c.JSON(course)
}

// CreateCourse also creates the course's community group: the broadcast
// scope exists for as long as the course does.
func CreateCourse(c *fiber.Ctx) error {
	instructorID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	course := models.Course{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Level:        req.Level,
		Price:        req.Price,
		Currency:     req.Currency,
		InstructorID: instructorID,
	}
	if course.Level == "" {
		course.Level = "beginner"
	}
	if course.Currency == "" {
		course.Currency = "USD"
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}

		group := models.CommunityGroup{
			CourseID:    course.ID,
			Title:       fmt.Sprintf("%s Community", course.Title),
			Description: fmt.Sprintf("Discussion group for %s", course.Title),
			Visibility:  models.VisibilityPublic,
		}
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		// The instructor is a member of their own community from day one.
		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  instructorID,
			Role:    models.MemberRoleInstructor,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(&group).Update("member_count", 1).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}

	return c.Status(fiber.StatusCreated).JSON(course)
}

type UpdateCourseRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Level       *string  `json:"level"`
	Price       *float64 `json:"price"`
	IsPublished *bool    `json:"is_published"`
}

func UpdateCourse(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var course models.Course
	if err := database.DB.Where("id = ?", c.Params("courseId")).First(&course).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	if course.InstructorID != userID && middleware.CurrentUserRole(c) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the course instructor can update it"})
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}

	if err := database.DB.Save(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update course"})
	}

	return c.JSON(course)
}

// CompleteCourse marks the caller's enrollment finished and kicks off
// certificate generation in the background.
func CompleteCourse(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	courseID, err := uuid.Parse(c.Params("courseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID"})
	}

	var enrollment models.Enrollment
	if err := database.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Enrollment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load enrollment"})
	}

	if enrollment.CompletedAt == nil {
		now := time.Now()
		enrollment.CompletedAt = &now
		if err := database.DB.Save(&enrollment).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update enrollment"})
		}
	}

	go services.CheckAndGenerateCertificate(enrollment)

	return c.JSON(fiber.Map{"message": "Course marked as completed", "completed_at": enrollment.CompletedAt})
}

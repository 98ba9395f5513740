package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	configs "github.com/sooryaah/imat-lms/configs"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/middleware"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InitiatePaymentRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
	Provider string `json:"provider" validate:"required,oneof=card mobile_money bank_transfer"`
}

// InitiatePayment records a pending payment for a course. The actual charge
// happens at the provider; we only hand out a reference and wait for the
// webhook to confirm it.
func InitiatePayment(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	courseID := uuid.MustParse(req.CourseID)

	var course models.Course
	if err := database.DB.Where("id = ? AND is_published = ?", courseID, true).First(&course).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	var existing models.Enrollment
	err = database.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	if err == nil && existing.Valid(time.Now()) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You are already enrolled in this course"})
	}

	payment := models.Payment{
		UserID:   userID,
		CourseID: courseID,
		Amount:   course.Price,
		Currency: course.Currency,
		Provider: req.Provider,
		Status:   models.PaymentPending,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		ref, err := utils.GenerateUniquePaymentReference(tx)
		if err != nil {
			return err
		}
		payment.Reference = ref
		return tx.Create(&payment).Error
	})
	if err != nil {
		log.Printf("Failed to create payment for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initiate payment"})
	}

	// Free courses settle immediately, no provider round trip.
	if course.Price == 0 {
		if err := settlePayment(&payment, "free-"+payment.Reference); err != nil {
			log.Printf("Failed to settle free enrollment %s: %v", payment.Reference, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to complete enrollment"})
		}
		go notifyEnrollment(&payment)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"reference": payment.Reference,
			"status":    payment.Status,
			"message":   "Enrollment complete",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"reference": payment.Reference,
		"amount":    payment.Amount,
		"currency":  payment.Currency,
		"status":    payment.Status,
	})
}

type PaymentWebhookRequest struct {
	Reference     string `json:"reference" validate:"required"`
	ProviderTxnID string `json:"provider_txn_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=succeeded failed"`
}

// PaymentWebhook is the provider callback. A succeeded payment creates the
// enrollment and places the student in the course community group in one
// transaction. Repeated deliveries of the same event are no-ops.
func PaymentWebhook(c *fiber.Ctx) error {
	secret := configs.Config("PAYMENT_WEBHOOK_SECRET")
	if secret == "" || c.Get("X-Webhook-Secret") != secret {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid webhook signature"})
	}

	var req PaymentWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payment models.Payment
	if err := database.DB.Where("reference = ?", req.Reference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown payment reference"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payment"})
	}

	if payment.Status != models.PaymentPending {
		return c.JSON(fiber.Map{"message": "Payment already processed", "status": payment.Status})
	}

	if req.Status == "failed" {
		payment.Status = models.PaymentFailed
		payment.ProviderTxnID = &req.ProviderTxnID
		if err := database.DB.Save(&payment).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update payment"})
		}
		return c.JSON(fiber.Map{"message": "Payment marked as failed"})
	}

	if err := settlePayment(&payment, req.ProviderTxnID); err != nil {
		log.Printf("Failed to settle payment %s: %v", payment.Reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process payment"})
	}
	go notifyEnrollment(&payment)

	return c.JSON(fiber.Map{"message": "Payment processed", "status": payment.Status})
}

func notifyEnrollment(payment *models.Payment) {
	if Producer == nil {
		return
	}
	var course models.Course
	if err := database.DB.Select("title").Where("id = ?", payment.CourseID).First(&course).Error; err != nil {
		return
	}
	var group models.CommunityGroup
	if err := database.DB.Select("id").Where("course_id = ?", payment.CourseID).First(&group).Error; err != nil {
		return
	}
	Producer.NotifyEnrollment(context.Background(), payment.UserID, group.ID, course.Title)
}

// settlePayment marks the payment succeeded, creates (or reactivates) the
// enrollment and the group membership, all in one transaction.
func settlePayment(payment *models.Payment, providerTxnID string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		payment.Status = models.PaymentSucceeded
		payment.ProviderTxnID = &providerTxnID
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		accessDays := configs.ConfigInt("ENROLLMENT_ACCESS_DAYS", 365)
		expiry := time.Now().AddDate(0, 0, accessDays)

		enrollment := models.Enrollment{
			UserID:     payment.UserID,
			CourseID:   payment.CourseID,
			IsActive:   true,
			ExpiryDate: &expiry,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true, "expiry_date": expiry}),
		}).Create(&enrollment).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Course{}).Where("id = ?", payment.CourseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error; err != nil {
			return err
		}

		var group models.CommunityGroup
		if err := tx.Where("course_id = ?", payment.CourseID).First(&group).Error; err != nil {
			// Courses created before community groups existed have no group.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		member := models.GroupMember{
			GroupID:  group.ID,
			UserID:   payment.UserID,
			Role:     models.MemberRoleMember,
			IsActive: true,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true}),
		}).Create(&member)
		if res.Error != nil {
			return res.Error
		}
		return tx.Model(&group).UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
}

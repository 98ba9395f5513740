package jobs

import (
	"log"
	"time"

	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/models"
	"gorm.io/gorm"
)

// ExpireEnrollments deactivates enrollments past their expiry date and the
// group memberships that depended on them, so the access gate starts
// denying without waiting for the next request.
func ExpireEnrollments() {
	log.Println("Running job: ExpireEnrollments...")

	now := time.Now()

	var expired []models.Enrollment
	err := database.DB.
		Where("is_active = ? AND expiry_date IS NOT NULL AND expiry_date < ?", true, now).
		Find(&expired).Error
	if err != nil {
		log.Printf("Error loading expired enrollments: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	for _, enrollment := range expired {
		err := database.DB.Model(&models.Enrollment{}).
			Where("id = ?", enrollment.ID).
			Update("is_active", false).Error
		if err != nil {
			log.Printf("Failed to deactivate enrollment %s: %v", enrollment.ID, err)
			continue
		}

		var group models.CommunityGroup
		if err := database.DB.Select("id").Where("course_id = ?", enrollment.CourseID).First(&group).Error; err != nil {
			continue
		}

		res := database.DB.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ? AND role = ? AND is_active = ?",
				group.ID, enrollment.UserID, models.MemberRoleMember, true).
			Update("is_active", false)
		if res.Error != nil {
			log.Printf("Failed to deactivate membership for user %s in group %s: %v", enrollment.UserID, group.ID, res.Error)
			continue
		}

		// Keep the counter in step with the rows, same as an explicit leave.
		if res.RowsAffected > 0 {
			err = database.DB.Model(&models.CommunityGroup{}).
				Where("id = ?", group.ID).
				UpdateColumn("member_count", gorm.Expr("GREATEST(member_count - 1, 0)")).Error
			if err != nil {
				log.Printf("Failed to adjust member count for group %s: %v", group.ID, err)
			}
		}
	}

	log.Printf("Deactivated %d expired enrollments", len(expired))
}

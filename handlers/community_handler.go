package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/middleware"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/realtime"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loadGroup fetches a group by the groupId route param.
func loadGroup(c *fiber.Ctx) (*models.CommunityGroup, error) {
	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}
	var group models.CommunityGroup
	if err := database.DB.Where("id = ?", groupID).First(&group).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}
	return &group, nil
}

// membership returns the caller's active membership in a group, if any.
func membership(userID, groupID uuid.UUID) (*models.GroupMember, bool) {
	var member models.GroupMember
	err := database.DB.Where("group_id = ? AND user_id = ? AND is_active = ?", groupID, userID, true).First(&member).Error
	if err != nil {
		return nil, false
	}
	return &member, true
}

func GetGroup(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}

	userID, idErr := middleware.CurrentUserID(c)
	isMember := false
	memberRole := ""
	if idErr == nil {
		if member, ok := membership(userID, group.ID); ok {
			isMember = true
			memberRole = member.Role
		}
	}

	if group.Visibility == models.VisibilityPrivate && !isMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This group is private"})
	}

	return c.JSON(fiber.Map{
		"group":       group,
		"is_member":   isMember,
		"member_role": memberRole,
	})
}

// GetGroupMembers lists active members. Members only.
func GetGroupMembers(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	if _, ok := membership(userID, group.ID); !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a member of this group"})
	}

	var members []models.GroupMember
	if err := database.DB.Preload("User").Where("group_id = ? AND is_active = ?", group.ID, true).
		Order("joined_at ASC").Find(&members).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch members"})
	}

	type memberResponse struct {
		UserID   string `json:"user_id"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		JoinedAt string `json:"joined_at"`
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			UserID:   m.UserID.String(),
			FullName: m.User.FullName,
			Role:     m.Role,
			JoinedAt: m.JoinedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{"members": out, "count": len(out)})
}

// JoinGroup adds the caller as a member, provided they hold a valid
// enrollment in the group's course. Rejoining a left group reactivates
// the old membership row.
func JoinGroup(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if _, ok := membership(userID, group.ID); ok {
		return c.JSON(fiber.Map{"message": "Already a member"})
	}

	role := models.MemberRoleMember
	var course models.Course
	if err := database.DB.Where("id = ?", group.CourseID).First(&course).Error; err == nil && course.InstructorID == userID {
		role = models.MemberRoleInstructor
	} else {
		var enrollment models.Enrollment
		err := database.DB.Where("user_id = ? AND course_id = ?", userID, group.CourseID).First(&enrollment).Error
		if err != nil || !enrollment.Valid(time.Now()) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "An active enrollment is required to join this group"})
		}
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		member := models.GroupMember{
			GroupID:  group.ID,
			UserID:   userID,
			Role:     role,
			IsActive: true,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true}),
		}).Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(group).UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to join group"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Joined group", "role": role})
}

// LeaveGroup deactivates the caller's membership. The row stays so
// rejoining keeps history.
func LeaveGroup(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	member, ok := membership(userID, group.ID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "You are not a member of this group"})
	}
	if member.Role == models.MemberRoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Instructors cannot leave their own course group"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(member).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(group).UpdateColumn("member_count", gorm.Expr("GREATEST(member_count - 1, 0)")).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to leave group"})
	}

	return c.JSON(fiber.Map{"message": "Left group"})
}

type UpdateGroupRequest struct {
	Title               *string `json:"title"`
	Description         *string `json:"description"`
	Visibility          *string `json:"visibility" validate:"omitempty,oneof=public private instructor_moderated"`
	RequirePostApproval *bool   `json:"require_post_approval"`
}

// UpdateGroup changes group settings. Instructor role in the group required.
func UpdateGroup(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	member, ok := membership(userID, group.ID)
	if !ok || member.Role != models.MemberRoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the instructor can change group settings"})
	}

	var req UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Title != nil {
		group.Title = *req.Title
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.Visibility != nil {
		group.Visibility = *req.Visibility
	}
	if req.RequirePostApproval != nil {
		group.RequirePostApproval = *req.RequirePostApproval
	}

	if err := database.DB.Save(group).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update group"})
	}

	return c.JSON(group)
}

type SetMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=member moderator"`
}

// SetMemberRole promotes or demotes a member between member and moderator.
// Instructor role in the group required; the instructor's own role is fixed.
func SetMemberRole(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	callerID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	caller, ok := membership(callerID, group.ID)
	if !ok || caller.Role != models.MemberRoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the instructor can change member roles"})
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req SetMemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	target, ok := membership(targetID, group.ID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}
	if target.Role == models.MemberRoleInstructor {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "The instructor role cannot be changed"})
	}

	if err := database.DB.Model(target).Update("role", req.Role).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update member role"})
	}

	return c.JSON(fiber.Map{"message": "Member role updated", "user_id": targetID, "role": req.Role})
}

// RemoveMember kicks a member out of the group. Requires the
// manage-member capability, which only the instructor role holds.
func RemoveMember(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	callerID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	caller, ok := membership(callerID, group.ID)
	if !ok || !realtime.CanPerform(caller.Role, realtime.ActionManageMember) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot manage members of this group"})
	}

	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	target, ok := membership(targetID, group.ID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	}
	if target.Role == models.MemberRoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "The instructor cannot be removed"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(target).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(group).UpdateColumn("member_count", gorm.Expr("GREATEST(member_count - 1, 0)")).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove member"})
	}

	if Producer != nil {
		go Producer.NotifyModeratorAction(context.Background(), targetID, callerID,
			"Removed from group", "You were removed from "+group.Title)
	}

	return c.JSON(fiber.Map{"message": "Member removed"})
}

package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sooryaah/imat-lms/database"
	"github.com/sooryaah/imat-lms/middleware"
	"github.com/sooryaah/imat-lms/models"
	"github.com/sooryaah/imat-lms/realtime"
	"gorm.io/gorm"
)

type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Content string `json:"content" validate:"required"`
	Draft   bool   `json:"draft"`
}

// ListPosts returns a group's discussion feed: pinned posts first, then
// newest. Only published posts are visible, plus the caller's own drafts
// and pending posts.
func ListPosts(c *fiber.Ctx) error {
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

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var posts []models.DiscussionPost
	err = database.DB.Preload("Author").
		Where("group_id = ? AND parent_post_id IS NULL", group.ID).
		Where("status = ? OR (author_id = ? AND status IN ?)",
			models.PostPublished, userID, []models.PostStatus{models.PostDraft, models.PostPendingApproval}).
		Order("is_pinned DESC, created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&posts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch posts"})
	}

	return c.JSON(fiber.Map{"posts": postResponses(posts), "page": page, "page_size": pageSize})
}

// CreatePost creates a thread root. In groups that require approval, posts
// from plain members enter the moderation queue instead of publishing.
func CreatePost(c *fiber.Ctx) error {
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
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a member of this group"})
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	status := models.PostPublished
	switch {
	case req.Draft:
		status = models.PostDraft
	case group.RequirePostApproval && !realtime.CanPerform(member.Role, realtime.ActionModerate):
		status = models.PostPendingApproval
	}

	post := models.DiscussionPost{
		GroupID:  group.ID,
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
		Status:   status,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if status == models.PostPublished {
			return tx.Model(group).UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create post"})
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost returns a thread root with its replies.
func GetPost(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	post, errResp := loadVisiblePost(c, userID)
	if post == nil {
		return errResp
	}

	var replies []models.DiscussionPost
	if err := database.DB.Preload("Author").
		Where("parent_post_id = ? AND status = ?", post.ID, models.PostPublished).
		Order("created_at ASC").Find(&replies).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch replies"})
	}

	return c.JSON(fiber.Map{"post": post, "replies": postResponses(replies)})
}

type UpdatePostRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=3,max=255"`
	Content *string `json:"content"`
	Publish bool    `json:"publish"`
}

// UpdatePost edits the caller's own post. Publishing a draft walks the
// draft-to-published (or draft-to-pending) edge of the status machine.
func UpdatePost(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	post, errResp := loadVisiblePost(c, userID)
	if post == nil {
		return errResp
	}
	if post.AuthorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only edit your own posts"})
	}

	var req UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}

	if req.Publish && post.Status != models.PostPublished {
		target := models.PostPublished
		member, _ := membership(userID, post.GroupID)
		var group models.CommunityGroup
		database.DB.Where("id = ?", post.GroupID).First(&group)
		if group.RequirePostApproval && member != nil && !realtime.CanPerform(member.Role, realtime.ActionModerate) {
			target = models.PostPendingApproval
		}
		if !models.CanTransition(post.Status, target) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Post cannot move from " + string(post.Status) + " to " + string(target),
			})
		}
		post.Status = target
	}

	if err := database.DB.Save(post).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update post"})
	}

	return c.JSON(post)
}

// DeletePost soft-deletes a post. Authors delete their own; holders of the
// delete-any capability delete anything in their group.
func DeletePost(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	post, errResp := loadVisiblePost(c, userID)
	if post == nil {
		return errResp
	}

	if post.AuthorID != userID {
		member, ok := membership(userID, post.GroupID)
		if !ok || !realtime.CanPerform(member.Role, realtime.ActionDeleteAny) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot delete this post"})
		}
	}

	if !models.CanTransition(post.Status, models.PostDeleted) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Post is already deleted"})
	}

	now := time.Now()
	updates := map[string]interface{}{"status": models.PostDeleted, "deleted_at": now}
	if err := database.DB.Model(post).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete post"})
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

type CreateReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

// CreateReply adds a reply under a thread root. Threading is one level
// deep: a reply always references the root, never another reply.
func CreateReply(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	parent, errResp := loadVisiblePost(c, userID)
	if parent == nil {
		return errResp
	}
	if parent.ParentPostID != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Replies can only target a thread root"})
	}
	if parent.Status != models.PostPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Cannot reply to an unpublished post"})
	}

	if _, ok := membership(userID, parent.GroupID); !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a member of this group"})
	}

	var req CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	reply := models.DiscussionPost{
		GroupID:      parent.GroupID,
		AuthorID:     userID,
		Title:        "Re: " + parent.Title,
		Content:      req.Content,
		Status:       models.PostPublished,
		ParentPostID: &parent.ID,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return tx.Model(parent).UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create reply"})
	}

	if Producer != nil {
		var author models.User
		database.DB.Select("full_name").Where("id = ?", userID).First(&author)
		go Producer.NotifyNewReply(context.Background(), parent, &reply, author.FullName)
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}

type ReactRequest struct {
	ReactionType string `json:"reaction_type" validate:"required,oneof=like celebrate insightful question"`
}

// ReactToPost toggles a reaction: reacting twice with the same type
// removes it.
func ReactToPost(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	post, errResp := loadVisiblePost(c, userID)
	if post == nil {
		return errResp
	}
	if _, ok := membership(userID, post.GroupID); !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not a member of this group"})
	}

	var req ReactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.PostReaction
	err = database.DB.Where("post_id = ? AND user_id = ? AND reaction_type = ?", post.ID, userID, req.ReactionType).
		First(&existing).Error
	if err == nil {
		if err := database.DB.Delete(&existing).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove reaction"})
		}
		return c.JSON(fiber.Map{"message": "Reaction removed"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check reaction"})
	}

	reaction := models.PostReaction{PostID: post.ID, UserID: userID, ReactionType: req.ReactionType}
	if err := database.DB.Create(&reaction).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add reaction"})
	}

	return c.Status(fiber.StatusCreated).JSON(reaction)
}

type ModeratePostRequest struct {
	Approve bool    `json:"approve"`
	Notes   *string `json:"notes"`
}

// ModeratePost resolves a pending post: approve publishes it, reject sends
// it back to draft with the moderator's notes. The author is notified
// either way.
func ModeratePost(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	post, errResp := loadPost(c)
	if post == nil {
		return errResp
	}

	member, ok := membership(userID, post.GroupID)
	if !ok || !realtime.CanPerform(member.Role, realtime.ActionModerate) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Moderator role required"})
	}

	var req ModeratePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	target := models.PostDraft
	if req.Approve {
		target = models.PostPublished
	}
	if !models.CanTransition(post.Status, target) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Post cannot move from " + string(post.Status) + " to " + string(target),
		})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": target}
		if req.Notes != nil {
			updates["moderation_notes"] = *req.Notes
		}
		if err := tx.Model(post).Updates(updates).Error; err != nil {
			return err
		}
		if target == models.PostPublished {
			return tx.Model(&models.CommunityGroup{}).Where("id = ?", post.GroupID).
				UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to moderate post"})
	}

	post.Status = target
	if Producer != nil {
		go Producer.NotifyModeration(context.Background(), post, req.Approve, userID)
	}

	return c.JSON(fiber.Map{"message": "Post moderated", "status": post.Status})
}

// ListPendingPosts is the moderation queue.
func ListPendingPosts(c *fiber.Ctx) error {
	group, err := loadGroup(c)
	if group == nil {
		return err
	}
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	member, ok := membership(userID, group.ID)
	if !ok || !realtime.CanPerform(member.Role, realtime.ActionModerate) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Moderator role required"})
	}

	var posts []models.DiscussionPost
	if err := database.DB.Preload("Author").
		Where("group_id = ? AND status = ?", group.ID, models.PostPendingApproval).
		Order("created_at ASC").Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pending posts"})
	}

	return c.JSON(fiber.Map{"posts": postResponses(posts), "count": len(posts)})
}

// PinPost toggles a post's pinned flag.
func PinPost(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	post, errResp := loadPost(c)
	if post == nil {
		return errResp
	}

	member, ok := membership(userID, post.GroupID)
	if !ok || !realtime.CanPerform(member.Role, realtime.ActionPinPost) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot pin posts in this group"})
	}
	if post.Status != models.PostPublished {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only published posts can be pinned"})
	}

	pinned := !post.IsPinned
	if err := database.DB.Model(post).Update("is_pinned", pinned).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update post"})
	}

	return c.JSON(fiber.Map{"message": "Post updated", "is_pinned": pinned})
}

func loadPost(c *fiber.Ctx) (*models.DiscussionPost, error) {
	postID, err := uuid.Parse(c.Params("postId"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post ID"})
	}
	var post models.DiscussionPost
	if err := database.DB.Preload("Author").Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	return &post, nil
}

// loadVisiblePost loads a post and hides anything the caller may not see:
// deleted posts for everyone, drafts and pending posts for non-authors.
func loadVisiblePost(c *fiber.Ctx, userID uuid.UUID) (*models.DiscussionPost, error) {
	post, errResp := loadPost(c)
	if post == nil {
		return nil, errResp
	}
	if post.Status == models.PostDeleted {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	if (post.Status == models.PostDraft || post.Status == models.PostPendingApproval) && post.AuthorID != userID {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	}
	return post, nil
}

type postResponse struct {
	models.DiscussionPost
	AuthorName string `json:"author_name"`
}

func postResponses(posts []models.DiscussionPost) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, postResponse{DiscussionPost: p, AuthorName: p.Author.FullName})
	}
	return out
}

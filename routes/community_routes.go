package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sooryaah/imat-lms/handlers"
	"github.com/sooryaah/imat-lms/middleware"
)

func CommunityRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	groups := api.Group("/groups", middleware.Protected())
	groups.Get("/:groupId", handlers.GetGroup)
	groups.Patch("/:groupId", handlers.UpdateGroup)
	groups.Post("/:groupId/join", handlers.JoinGroup)
	groups.Post("/:groupId/leave", handlers.LeaveGroup)
	groups.Get("/:groupId/members", handlers.GetGroupMembers)
	groups.Patch("/:groupId/members/:userId/role", handlers.SetMemberRole)
	groups.Delete("/:groupId/members/:userId", handlers.RemoveMember)

	groups.Get("/:groupId/posts", handlers.ListPosts)
	groups.Post("/:groupId/posts", handlers.CreatePost)
	groups.Get("/:groupId/posts/pending", handlers.ListPendingPosts)

	posts := api.Group("/posts", middleware.Protected())
	posts.Get("/:postId", handlers.GetPost)
	posts.Patch("/:postId", handlers.UpdatePost)
	posts.Delete("/:postId", handlers.DeletePost)
	posts.Post("/:postId/replies", handlers.CreateReply)
	posts.Post("/:postId/reactions", handlers.ReactToPost)
	posts.Post("/:postId/moderate", handlers.ModeratePost)
	posts.Post("/:postId/pin", handlers.PinPost)
}

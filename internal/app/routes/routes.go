package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/classhub/internal/app/controllers"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/middleware"
)

// Controllers groups every controller the router mounts
type Controllers struct {
	Auth     *controllers.AuthController
	Board    *controllers.BoardController
	Post     *controllers.PostController
	Reaction *controllers.ReactionController
	Comment  *controllers.CommentController
	Admin    *controllers.AdminController
	Health   *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api")

	api.GET("/health", c.Health.Health)

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// --- Session routes: approved users only ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.SessionAuth())
	{
		authenticated.GET("/auth/me", c.Auth.Me)

		boards := authenticated.Group("/boards")
		{
			boards.GET("", c.Board.ListBoards)
			boards.POST("", authMiddleware.RoleRequired(models.RoleAdmin), c.Board.CreateBoard)
		}

		posts := authenticated.Group("/posts")
		{
			posts.GET("", c.Post.ListPosts)
			posts.POST("", c.Post.CreatePost)
			posts.GET("/:id", c.Post.GetPost)
			posts.PUT("/:id", c.Post.UpdatePost)
			posts.DELETE("/:id", c.Post.DeletePost)
			posts.POST("/:id/like", c.Reaction.React)
		}

		comments := authenticated.Group("/comments")
		{
			comments.GET("", c.Comment.ListComments)
			comments.POST("", c.Comment.CreateComment)
			comments.DELETE("/:id", c.Comment.DeleteComment)
			comments.POST("/:id/like", c.Comment.ToggleLike)
		}

		admin := authenticated.Group("/admin")
		admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			admin.GET("/users", c.Admin.ListUsers)
			admin.PATCH("/users/:id/approve", c.Admin.ApproveUser)
			admin.PATCH("/users/:id/revert", c.Admin.RevertUser)
			admin.DELETE("/users/:id/reject", c.Admin.RejectUser)
			admin.DELETE("/users/:id", c.Admin.DeleteUser)
			admin.PATCH("/users/:id/role", c.Admin.UpdateRole)
			admin.DELETE("/posts/:id", c.Admin.DeletePost)
			admin.POST("/reactions/reconcile", c.Admin.ReconcileReactions)
		}
	}
}

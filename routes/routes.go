package routes

import (
	"protocol-review-api/controllers"
	"protocol-review-api/middleware"
	"protocol-review-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Options carries what the route table needs beyond the controllers.
type Options struct {
	DB        *gorm.DB
	JWTSecret string
	Auth      *controllers.AuthController
	Protocols *controllers.ProtocolController
	// Notifications is optional; the inbox routes are skipped when nil.
	Notifications *controllers.NotificationController
}

func SetupRoutes(router *gin.Engine, opts Options) {
	v1 := router.Group("/api/v1")
	{
		public := v1.Group("")
		{
			public.POST("/login", opts.Auth.Login)
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Protocol Review API is running",
				})
			})
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(opts.JWTSecret, opts.DB))
		{
			pc := opts.Protocols

			protected.GET("/profile", opts.Auth.GetProfile)
			protected.GET("/workflow", pc.GetWorkflow)

			protocols := protected.Group("/protocols")
			{
				protocols.GET("", pc.ListProtocols)
				protocols.POST("", pc.CreateProtocol)
				protocols.GET("/:id", pc.GetProtocol)
				protocols.PUT("/:id/content", pc.UpdateProtocolContent)
				protocols.DELETE("/:id", pc.ArchiveProtocol)

				// Lifecycle
				protocols.POST("/:id/submit", pc.SubmitProtocol)
				protocols.POST("/:id/resubmit", pc.ResubmitProtocol)
				protocols.POST("/:id/transitions", pc.TransitionProtocol)
				protocols.GET("/:id/history", pc.GetProtocolHistory)
				protocols.GET("/:id/versions", pc.ListVersions)
				protocols.POST("/:id/comments", pc.AddProtocolComment)

				// Assignments
				protocols.GET("/:id/reviewers", pc.ListReviewers)
				protocols.POST("/:id/reviewers", middleware.RequireRole(models.RoleAdmin, models.RoleChair), pc.AssignReviewer)
				protocols.GET("/:id/co-editors", pc.ListCoEditors)
				protocols.POST("/:id/co-editors", pc.GrantCoEditor)
				protocols.DELETE("/:id/co-editors/:user_id", pc.RevokeCoEditor)

				// Attachments
				protocols.GET("/:id/attachments", pc.ListAttachments)
				protocols.POST("/:id/attachments", pc.UploadAttachment)
			}

			versions := protected.Group("/versions")
			{
				versions.GET("/:version_id", pc.GetVersion)
				versions.GET("/:version_id/comments", pc.ListComments)
				versions.POST("/:version_id/comments", pc.AddVersionComment)
			}

			protected.POST("/comments/:comment_id/resolve", pc.ResolveComment)
			protected.POST("/assignments/:assignment_id/complete", pc.CompleteAssignment)
			protected.GET("/attachments/:attachment_id/download", pc.DownloadAttachment)
			protected.DELETE("/attachments/:attachment_id", pc.DeleteAttachment)

			if nc := opts.Notifications; nc != nil {
				notifications := protected.Group("/notifications")
				{
					notifications.GET("", nc.GetNotifications)
					notifications.GET("/counter", nc.GetNotificationCounter)
					notifications.PATCH("/:id/read", nc.MarkNotificationRead)
					notifications.PATCH("/mark-all-read", nc.MarkAllNotificationsRead)
				}
			}
		}
	}
}

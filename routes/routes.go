package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pablofelipe01/sirius-meets/controllers"
	"github.com/pablofelipe01/sirius-meets/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimitRegister(), controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.POST("/google/login", controllers.GoogleLogin)
		}

		me := api.Group("/me")
		me.Use(middleware.AuthJWT())
		{
			me.GET("", controllers.Me)
			me.PUT("", controllers.UpdateMe)
			me.GET("/wait", controllers.WaitApproval)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthJWT(), middleware.RequireSuperAdmin())
		{
			admin.GET("/users/pending", controllers.ListPendingUsers)
			admin.POST("/users/:id/approve", controllers.ApproveUser)
			admin.POST("/users/:id/reject", controllers.RejectUser)
		}

		api.POST("/uploads", middleware.AuthJWT(), controllers.UploadAvatar)

		// The internal-invite user directory.
		api.GET("/users", middleware.AuthJWT(), middleware.RequireApproved(), controllers.ListUsers)

		meetings := api.Group("/meetings")
		meetings.Use(middleware.AuthJWT(), middleware.RequireApproved())
		{
			meetings.POST("", middleware.RateLimitMeetingsCreate(), controllers.CreateMeeting)
			meetings.GET("", controllers.ListMeetings)
			meetings.GET("/:id", controllers.GetMeetingDetail)
			meetings.PUT("/:id", middleware.CheckMeetingHost(), controllers.UpdateMeeting)
			meetings.DELETE("/:id", middleware.CheckMeetingHost(), controllers.DeleteMeeting)

			meetings.POST("/:id/participants", middleware.CheckMeetingHost(), controllers.InviteInternal)
			meetings.POST("/:id/invitations", middleware.CheckMeetingHost(), controllers.InviteExternal)

			meetings.GET("/:id/video", controllers.GetVideoConfig)
			meetings.POST("/:id/video/join", controllers.JoinVideoSession)
			meetings.POST("/:id/video/leave", controllers.LeaveVideoSession)
			meetings.POST("/:id/video/audio", controllers.ToggleAudio)
			meetings.POST("/:id/video/video", controllers.ToggleVideo)
			meetings.POST("/:id/video/messages", controllers.SendVideoChat)
			meetings.GET("/:id/video/messages", controllers.GetVideoMessages)
			meetings.GET("/:id/video/state", controllers.GetVideoState)
		}

		join := api.Group("/join")
		{
			// Resolution is public so the join page can show the
			// meeting before login; enrolling needs an approved
			// account.
			join.GET("/:code", controllers.ResolveCode)
			join.POST("/:code", middleware.AuthJWT(), middleware.RequireApproved(), controllers.JoinByCode)
		}
	}
}

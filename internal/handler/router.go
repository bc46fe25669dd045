package handler

import "github.com/gin-gonic/gin"

// Handlers 全部HTTP处理器
type Handlers struct {
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Friendship   *FriendshipHandler
	Message      *MessageHandler
	Capsule      *CapsuleHandler
	Voice        *VoiceHandler
	Gamification *GamificationHandler
	Settings     *SettingsHandler
}

// RegisterRoutes 在 /api/v1 分组下注册业务路由
// authMW 为JWT认证中间件；limitMW 只作用于注册与登录，可为 nil
func RegisterRoutes(v1 *gin.RouterGroup, h Handlers, authMW, limitMW gin.HandlerFunc) {
	auth := v1.Group("/auth")
	{
		public := auth.Group("")
		if limitMW != nil {
			public.Use(limitMW)
		}
		public.POST("/register", h.Auth.Register)
		public.POST("/login", h.Auth.Login)

		private := auth.Group("", authMW)
		private.POST("/logout", h.Auth.Logout)
		private.GET("/session", h.Auth.Session)
		private.POST("/refresh", h.Auth.Refresh)
	}

	secured := v1.Group("", authMW)

	me := secured.Group("/me")
	{
		me.GET("", h.Profile.Me)
		me.PUT("/username", h.Profile.UpdateUsername)
		me.PUT("/handle", h.Profile.SetHandle)
		me.POST("/avatar", h.Profile.UploadAvatar)
		me.PUT("/password", h.Profile.ChangePassword)
	}

	profiles := secured.Group("/profiles")
	{
		profiles.GET("", h.Profile.Search)
		profiles.GET("/:id", h.Profile.Get)
		profiles.GET("/:id/online", h.Profile.Online)
		profiles.GET("/:id/awards", h.Gamification.Awards)
		profiles.GET("/:id/progress", h.Gamification.Progress)
		profiles.GET("/:id/participations", h.Gamification.Participations)
	}

	friendships := secured.Group("/friendships")
	{
		friendships.GET("", h.Friendship.List)
		friendships.POST("", h.Friendship.Request)
		friendships.PUT("/:id", h.Friendship.Respond)
	}

	conversations := secured.Group("/conversations")
	{
		conversations.GET("", h.Message.Conversations)
		conversations.GET("/:counterpart/messages", h.Message.Thread)
		conversations.POST("/:counterpart/messages", h.Message.Send)
		conversations.POST("/:counterpart/voice", h.Message.SendVoice)
	}

	messages := secured.Group("/messages")
	{
		messages.POST("/read", h.Message.MarkRead)
		messages.GET("/unread-count", h.Message.UnreadCount)
	}

	capsules := secured.Group("/capsules")
	{
		capsules.GET("", h.Capsule.List)
		capsules.POST("", h.Capsule.Create)
		capsules.GET("/:id", h.Capsule.Get)
		capsules.PUT("/:id", h.Capsule.Update)
		capsules.DELETE("/:id", h.Capsule.Delete)
		capsules.POST("/:id/seal", h.Capsule.Seal)
		capsules.POST("/:id/unseal", h.Capsule.Unseal)
		capsules.POST("/:id/favorite", h.Capsule.ToggleFavorite)
		capsules.POST("/:id/image", h.Capsule.UploadImage)
	}

	voice := secured.Group("/voice-posts")
	{
		voice.GET("", h.Voice.Feed)
		voice.GET("/mine", h.Voice.Mine)
		voice.POST("", h.Voice.Create)
		voice.DELETE("/:id", h.Voice.Delete)
	}

	secured.POST("/participations", h.Gamification.RecordParticipation)

	admin := secured.Group("/admin")
	{
		admin.PUT("/profiles/:id", h.Profile.AdminUpdate)
		admin.POST("/awards", h.Gamification.GrantAward)
		admin.GET("/settings", h.Settings.Get)
		admin.PUT("/settings", h.Settings.Update)
	}
}

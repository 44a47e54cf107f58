package routes

import (
	"reelgram/api/handlers"
	"reelgram/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine) *gin.RouterGroup {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/api/v1/")
	{
		public.POST("auth/register", handlers.Register)
		public.POST("auth/login", handlers.Login)
		public.GET("users/:id", handlers.GetUserProfile)
		public.GET("posts/:post_id", handlers.GetPost)
	}

	private := router.Group("/api/v1/")
	private.Use(middleware.AuthMiddleware())
	{
		// Посты
		private.POST("posts", handlers.CreatePost)
		private.GET("posts/feed", handlers.GetFeed)
		private.POST("posts/:post_id/like", handlers.ToggleLike)
		private.POST("posts/:post_id/comment", handlers.AddComment)
		private.POST("posts/:post_id/comment/:comment_id/reply", handlers.AddReply)
		private.POST("replies/:reply_id/like", handlers.ToggleReplyLike)
		private.DELETE("posts/:post_id", handlers.DeletePost)

		// Пользователи и граф подписок
		private.PUT("users/profile", handlers.UpdateProfile)
		private.POST("users/follow/:id", handlers.FollowUser)
		private.POST("users/unfollow/:id", handlers.UnfollowUser)
		private.GET("users/search", handlers.SearchUsers)

		// Уведомления
		private.GET("notifications", handlers.GetNotifications)
		private.PUT("notifications/:id/read", handlers.MarkNotificationRead)
		private.PUT("notifications/read-all", handlers.MarkAllNotificationsRead)
		private.GET("notifications/unread-count", handlers.GetUnreadCount)

		// Сообщения
		private.POST("messages", handlers.SendMessage)
		private.GET("messages/conversations", handlers.GetConversations)
		private.GET("messages/:peer_id", handlers.GetThread)

		// Истории
		private.POST("stories", handlers.CreateStory)
		private.GET("stories/feed", handlers.GetStoriesFeed)
		private.POST("stories/:id/view", handlers.MarkStoryViewed)
		private.GET("stories/:id/viewers", handlers.GetStoryViewers)
	}

	// Live-канал: identify приходит первым событием уже внутри соединения
	router.GET("/ws", handlers.WSHandler)

	return private
}

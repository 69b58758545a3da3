package http

import (
	"github.com/detour-app/detour-backend/internal/delivery/http/handler"
	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	accountHandler *handler.AccountHandler
	feedHandler    *handler.FeedHandler
	swipeHandler   *handler.SwipeHandler
	chatHandler    *handler.ChatHandler
	blockHandler   *handler.BlockHandler
	helpHandler    *handler.HelpHandler
	wsHandler      *handler.WSHandler
	authMiddleware *middleware.AuthMiddleware
}

func NewRouter(
	accountHandler *handler.AccountHandler,
	feedHandler *handler.FeedHandler,
	swipeHandler *handler.SwipeHandler,
	chatHandler *handler.ChatHandler,
	blockHandler *handler.BlockHandler,
	helpHandler *handler.HelpHandler,
	wsHandler *handler.WSHandler,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		accountHandler: accountHandler,
		feedHandler:    feedHandler,
		swipeHandler:   swipeHandler,
		chatHandler:    chatHandler,
		blockHandler:   blockHandler,
		helpHandler:    helpHandler,
		wsHandler:      wsHandler,
		authMiddleware: authMiddleware,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger())

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	router.GET("/ws", r.wsHandler.Connect)

	v1 := router.Group("/api/v1")
	{
		// Registration only needs a valid identity token
		v1.POST("/users", r.authMiddleware.RequireIdentity(), r.accountHandler.Register)

		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			me := protected.Group("/users/me")
			{
				me.GET("", r.accountHandler.GetMe)
				me.PATCH("", r.accountHandler.UpdateMe)
				me.DELETE("", r.accountHandler.DeleteMe)
				me.PUT("/push-token", r.accountHandler.SetPushToken)
			}

			protected.GET("/feed", r.feedHandler.GetFeed)

			swipes := protected.Group("/swipes")
			{
				swipes.POST("", r.swipeHandler.CreateSwipe)
				swipes.GET("/likes-received", r.swipeHandler.GetLikesReceived)
			}

			protected.GET("/conversations", r.chatHandler.GetConversations)

			matches := protected.Group("/matches")
			{
				matches.GET("", r.swipeHandler.GetMatches)
				matches.GET("/:match_id/messages", r.chatHandler.GetMessages)
				matches.POST("/:match_id/messages", r.chatHandler.SendMessage)
				matches.POST("/:match_id/read", r.chatHandler.MarkAsRead)
				matches.PUT("/:match_id/typing", r.chatHandler.SetTyping)
				matches.GET("/:match_id/typing", r.chatHandler.GetTypingStatus)
			}

			blocks := protected.Group("/blocks")
			{
				blocks.GET("", r.blockHandler.ListBlocked)
				blocks.GET("/:user_id", r.blockHandler.IsBlocked)
				blocks.POST("/:user_id", r.blockHandler.BlockUser)
				blocks.DELETE("/:user_id", r.blockHandler.UnblockUser)
			}

			helpGroup := protected.Group("/help")
			{
				requests := helpGroup.Group("/requests")
				{
					requests.POST("", r.helpHandler.CreateRequest)
					requests.GET("", r.helpHandler.ListOpenRequests)
					requests.GET("/mine", r.helpHandler.ListMyRequests)
					requests.GET("/:id", r.helpHandler.GetRequest)
					requests.PATCH("/:id", r.helpHandler.UpdateRequest)
					requests.POST("/:id/cancel", r.helpHandler.CancelRequest)
					requests.POST("/:id/complete", r.helpHandler.CompleteRequest)
					requests.POST("/:id/offers", r.helpHandler.CreateOffer)
					requests.GET("/:id/offers", r.helpHandler.ListOffers)
					requests.POST("/:id/offers/:offer_id/accept", r.helpHandler.AcceptOffer)
					requests.POST("/:id/conversation", r.helpHandler.CreateConversation)
				}

				helpGroup.GET("/offers/mine", r.helpHandler.ListMyOffers)
				helpGroup.POST("/offers/:offer_id/withdraw", r.helpHandler.WithdrawOffer)

				conversations := helpGroup.Group("/conversations")
				{
					conversations.GET("", r.helpHandler.GetMyConversations)
					conversations.GET("/:id/messages", r.helpHandler.GetMessages)
					conversations.POST("/:id/messages", r.helpHandler.SendMessage)
					conversations.POST("/:id/read", r.helpHandler.MarkAsRead)
				}
			}
		}
	}

	return router
}

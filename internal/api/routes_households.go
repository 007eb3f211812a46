package api

import (
	"github.com/gin-gonic/gin"

	"github.com/steviecodesit/ourhome/internal/handlers"
)

func registerHouseholdRoutes(api *gin.RouterGroup, handler *handlers.HouseholdHandler) {
	households := api.Group("/households")
	{
		households.POST("", handler.Create)
		households.GET("/search-users", handler.SearchUsers)
		households.POST("/send-invite", handler.SendInvite)
		households.POST("/accept-invite/:householdID", handler.AcceptInvite)
		households.POST("/decline-invite/:householdID", handler.DeclineInvite)
		households.POST("/:householdID/cancel-invite/:userID", handler.CancelInvitation)
		households.POST("/request-join/:targetUserID", handler.RequestJoin)
		households.POST("/accept-user/:userID", handler.AcceptUser)
		households.POST("/deny-user/:userID", handler.DenyUser)
		households.POST("/leave/:householdID", handler.Leave)
		households.GET("/:householdID", handler.Get)
	}
}

package notifications

import "github.com/gin-gonic/gin"

func RegisterNotificationsRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", GetNotifications)
}

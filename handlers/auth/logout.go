package auth

import (
	"net/http"
	"time"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-gonic/gin"
)

func Logout(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	// Remove the refresh token from the database
	now := time.Now()
	user.RefreshToken = ""
	user.LastLogoutAt = &now
	if err := utils.MarketplaceDB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful.",
	})
}

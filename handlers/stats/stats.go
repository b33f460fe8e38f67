package stats

import (
	"net/http"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-gonic/gin"
)

// GetStats returns the figures shown in the marketplace stats banner
func GetStats(c *gin.Context) {
	var farmers, buyers, crops, courses, completedPayments int64

	db := utils.MarketplaceDB
	if err := db.Model(&models.User{}).Where("user_type = ?", models.UserTypeFarmer).Count(&farmers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeBuyer).Count(&buyers)
	db.Model(&models.Crop{}).Count(&crops)
	db.Model(&models.Course{}).Count(&courses)
	db.Model(&models.Transaction{}).Where("status = ?", models.TransactionStatusCompleted).Count(&completedPayments)

	var totalVolume int64
	db.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalVolume)

	c.JSON(http.StatusOK, gin.H{
		"farmers":            farmers,
		"buyers":             buyers,
		"crops":              crops,
		"courses":            courses,
		"completed_payments": completedPayments,
		"total_volume":       totalVolume,
	})
}
